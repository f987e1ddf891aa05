package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Site-21/organ-painter/internal/domain"
)

// BuildPayload 从描述符和网格派生规范导出载荷。
// slots 顺序由 Grid.PaintedCells 的行主序扫描保证。
func BuildPayload(desc domain.LayerDescriptor, grid *domain.Grid) Payload {
	slots := grid.PaintedCells()
	if slots == nil {
		slots = []domain.PaintedCell{} // 导出为 [] 而不是 null
	}
	return Payload{
		Name:   desc.Name,
		Width:  grid.Width(),
		Height: grid.Height(),
		Slots:  slots,
	}
}

// Export 把会话序列化为导出文件内容：先是机器可读的 JSON 对象，
// 随后是人类可读的代码生成清单。清单只是装饰性输出，导入时从不读取。
// 导出是无损的：重新导入 JSON 部分会重建出相同的描述符和网格。
func Export(desc domain.LayerDescriptor, grid *domain.Grid) ([]byte, error) {
	payload := BuildPayload(desc, grid)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return nil, fmt.Errorf("codec: encode payload: %w", err)
	}

	buf.WriteByte('\n')
	writeListing(&buf, payload)
	return buf.Bytes(), nil
}

// writeListing 输出装饰性的声明式构造清单：slot 列表、坐标列表，
// 以及一条组合名称/尺寸/坐标列表的顶层构造语句。
func writeListing(buf *bytes.Buffer, p Payload) {
	buf.WriteString("// --- generated layer listing (cosmetic, never re-imported) ---\n")

	buf.WriteString("var layerSlots = []Slot{\n")
	for _, s := range p.Slots {
		fmt.Fprintf(buf, "\t{X: %d, Y: %d, Type: %q},\n", s.X, s.Y, s.Type)
	}
	buf.WriteString("}\n\n")

	buf.WriteString("var layerCells = []Cell{\n")
	for _, s := range p.Slots {
		fmt.Fprintf(buf, "\t{%d, %d},\n", s.X, s.Y)
	}
	buf.WriteString("}\n\n")

	fmt.Fprintf(buf, "var layer = NewLayer(%q, %d, %d, layerCells)\n", p.Name, p.Width, p.Height)
}
