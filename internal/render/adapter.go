package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/draw"

	"github.com/Site-21/organ-painter/internal/domain"
)

// 画布背景与网格线颜色。材质颜色由目录提供。
var (
	backgroundColor = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	gridlineColor   = color.RGBA{R: 0xb0, G: 0xb0, B: 0xb0, A: 0xff}
)

// Rasterize 把网格渲染成 width*cellPixelSize × height*cellPixelSize 的位图。
// 绘制顺序固定：先整体背景填充，然后按行主序填充每个非空单元格，
// 最后（如启用）画出每条内部与边界网格线。
// 它是输入的纯函数：相同参数两次调用产生逐位相同的输出。
func Rasterize(grid *domain.Grid, cellPixelSize int, showGridlines bool) *image.RGBA {
	w := grid.Width() * cellPixelSize
	h := grid.Height() * cellPixelSize
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	fill(img, img.Bounds(), backgroundColor)

	grid.EachPaintedCell(func(x, y int, kind domain.MaterialKind) bool {
		rect := image.Rect(
			x*cellPixelSize,
			y*cellPixelSize,
			(x+1)*cellPixelSize,
			(y+1)*cellPixelSize,
		)
		fill(img, rect, domain.ColorOf(kind))
		return true
	})

	if showGridlines {
		drawGridlines(img, grid.Width(), grid.Height(), cellPixelSize)
	}
	return img
}

// EncodePNG 把位图编码为 PNG 字节流，供 HTTP 渲染端点使用。
func EncodePNG(img *image.RGBA) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("render: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func fill(img *image.RGBA, rect image.Rectangle, c color.RGBA) {
	draw.Draw(img, rect, image.NewUniform(c), image.Point{}, draw.Src)
}

// drawGridlines 为每条行/列边界画一条 1 像素的线，包括外边界。
// 第 cols/rows 条边界落在位图外一像素，钳制到最后一行/列像素上。
func drawGridlines(img *image.RGBA, cols, rows, cellPixelSize int) {
	w := cols * cellPixelSize
	h := rows * cellPixelSize

	for cx := 0; cx <= cols; cx++ {
		x := cx * cellPixelSize
		if x >= w {
			x = w - 1
		}
		fill(img, image.Rect(x, 0, x+1, h), gridlineColor)
	}
	for cy := 0; cy <= rows; cy++ {
		y := cy * cellPixelSize
		if y >= h {
			y = h - 1
		}
		fill(img, image.Rect(0, y, w, y+1), gridlineColor)
	}
}
