package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidDimension 表示用非正数尺寸构造网格。
// 上游（handler / service）应先把尺寸钳制到 >= 1，该错误对用户不可见。
var ErrInvalidDimension = errors.New("domain: grid dimensions must be positive")

// PaintedCell 表示一个已绘制的单元格及其材质（导出记录）。
// 它从 Grid 扫描派生，从不单独存储。
type PaintedCell struct {
	X    int          `json:"x"`
	Y    int          `json:"y"`
	Type MaterialKind `json:"type"`
}

// Grid 是从整数坐标 (x, y) 到可选材质的矩形映射。
// cells 按行存储，cells[y][x]；MaterialNone 表示空单元格。
// 不变式：len(cells) == height，每行 len == width。
type Grid struct {
	width  int
	height int
	cells  [][]MaterialKind
}

// NewGrid 创建一个给定尺寸的全空网格。
// 尺寸必须为正，否则返回 ErrInvalidDimension。
func NewGrid(width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidDimension, width, height)
	}
	cells := make([][]MaterialKind, height)
	for y := range cells {
		cells[y] = make([]MaterialKind, width)
	}
	return &Grid{width: width, height: height, cells: cells}, nil
}

// Width 返回网格宽度（列数）。
func (g *Grid) Width() int { return g.width }

// Height 返回网格高度（行数）。
func (g *Grid) Height() int { return g.height }

// InBounds 判断坐标是否落在网格内。
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

// Paint 把 (x, y) 处的单元格设置为 kind；kind 为 MaterialNone 时表示擦除。
// 越界坐标静默忽略并返回 false —— 拖拽绘制时指针经常落在画布外，
// 这是预期情况而不是错误。
func (g *Grid) Paint(x, y int, kind MaterialKind) bool {
	if !g.InBounds(x, y) {
		return false
	}
	g.cells[y][x] = kind
	return true
}

// At 返回 (x, y) 处的材质；越界返回 MaterialNone。
func (g *Grid) At(x, y int) MaterialKind {
	if !g.InBounds(x, y) {
		return MaterialNone
	}
	return g.cells[y][x]
}

// Resize 返回一个请求尺寸的新网格：重叠区域的单元格被复制，
// 其余单元格为空。该操作从不失败，非法尺寸由上游钳制到 >= 1。
func (g *Grid) Resize(newWidth, newHeight int) *Grid {
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}
	resized, _ := NewGrid(newWidth, newHeight)
	copyW := g.width
	if newWidth < copyW {
		copyW = newWidth
	}
	copyH := g.height
	if newHeight < copyH {
		copyH = newHeight
	}
	for y := 0; y < copyH; y++ {
		copy(resized.cells[y][:copyW], g.cells[y][:copyW])
	}
	return resized
}

// Clear 把所有单元格置空，保留宽高。幂等。
func (g *Grid) Clear() {
	for y := range g.cells {
		for x := range g.cells[y] {
			g.cells[y][x] = MaterialNone
		}
	}
}

// EachPaintedCell 按行主序（y 升序外层，x 升序内层）遍历所有非空单元格。
// 回调返回 false 时提前终止。该顺序是导出契约的一部分，必须确定。
func (g *Grid) EachPaintedCell(fn func(x, y int, kind MaterialKind) bool) {
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			if g.cells[y][x] == MaterialNone {
				continue
			}
			if !fn(x, y, g.cells[y][x]) {
				return
			}
		}
	}
}

// PaintedCells 返回行主序的非空单元格列表。
// 每次调用重新扫描网格，因此序列是可重启的。
func (g *Grid) PaintedCells() []PaintedCell {
	var out []PaintedCell
	g.EachPaintedCell(func(x, y int, kind MaterialKind) bool {
		out = append(out, PaintedCell{X: x, Y: y, Type: kind})
		return true
	})
	return out
}

// Clone 返回网格的深拷贝，导入失败回滚与测试时使用。
func (g *Grid) Clone() *Grid {
	cloned, _ := NewGrid(g.width, g.height)
	for y := range g.cells {
		copy(cloned.cells[y], g.cells[y])
	}
	return cloned
}
