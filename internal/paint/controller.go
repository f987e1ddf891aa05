package paint

import (
	"github.com/Site-21/organ-painter/internal/domain"
)

// Controller 把指针/拖拽手势翻译成对网格的坐标受限绘制操作。
// 它只在会话的 Drawing 标志为 true 时应用拖拽绘制：
// 指针按下置位，抬起/离开画布复位。
// 控制器本身无状态，所有状态都在传入的 SessionState 上。
type Controller struct{}

// NewController 创建 Controller 实例。
func NewController() *Controller {
	return &Controller{}
}

// PointerDown 开始一次拖拽绘制并在指针所在单元格执行一次绘制。
// 返回网格是否被实际触达（越界时为 false）。
func (c *Controller) PointerDown(s *domain.SessionState, pixelX, pixelY int) bool {
	s.Drawing = true
	return c.applyAt(s, pixelX, pixelY)
}

// PointerMove 在拖拽进行中对指针所在单元格执行一次绘制；
// 未处于拖拽状态时是 no-op。
func (c *Controller) PointerMove(s *domain.SessionState, pixelX, pixelY int) bool {
	if !s.Drawing {
		return false
	}
	return c.applyAt(s, pixelX, pixelY)
}

// PointerUp 结束拖拽绘制。
func (c *Controller) PointerUp(s *domain.SessionState) {
	s.Drawing = false
}

// PointerLeave 在指针离开画布时结束拖拽绘制，与 PointerUp 等效。
func (c *Controller) PointerLeave(s *domain.SessionState) {
	s.Drawing = false
}

// applyAt 把像素坐标映射到单元格并绘制当前选中的材质。
// 选中橡皮擦（MaterialNone）时执行擦除。越界静默忽略 ——
// 拖拽靠近边缘时指针经常落在画布外。
func (c *Controller) applyAt(s *domain.SessionState, pixelX, pixelY int) bool {
	cellX := floorDiv(pixelX, s.View.CellPixelSize)
	cellY := floorDiv(pixelY, s.View.CellPixelSize)
	return s.Grid.Paint(cellX, cellY, s.Selected)
}

// floorDiv 实现向负无穷取整的整数除法。
// Go 的整数除法向零截断，负像素坐标（画布原点左上方）会被错误地
// 映射到第 0 个单元格，必须显式取 floor。
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
