package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Site-21/organ-painter/internal/domain"
)

// rawPayload 用指针字段区分 "字段缺失" 与 "零值"，用于必需字段校验。
type rawPayload struct {
	Name   *string    `json:"name"`
	Width  *int       `json:"width"`
	Height *int       `json:"height"`
	Slots  *[]rawSlot `json:"slots"`
}

type rawSlot struct {
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Type string `json:"type"`
}

// Import 从字节流中解析一个图层载荷并重建描述符与网格。
//
// 输入流可以包含任意的前后缀文本（导出文件自带装饰性清单），提取规则是：
// 取第一个花括号平衡、且内部含有 "slots" 键的顶层区域。扫描器理解
// JSON 字符串与转义，不会被字符串里的花括号骗过。找不到候选区域返回
// ErrNoPayloadFound；候选区域不是合法 JSON 或缺少必需字段
// （name、正的 width/height、slots）返回 ErrMalformedPayload。
//
// slots 条目逐条应用：越界坐标与未知材质标识符被跳过并计入 report，
// 其余条目照常导入；重复坐标后写覆盖先写。
func Import(data []byte) (domain.LayerDescriptor, *domain.Grid, ImportReport, error) {
	var report ImportReport

	region, found := payloadRegion(data)
	if !found {
		return domain.LayerDescriptor{}, nil, report, ErrNoPayloadFound
	}

	var raw rawPayload
	if err := json.Unmarshal(region, &raw); err != nil {
		return domain.LayerDescriptor{}, nil, report, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if raw.Name == nil {
		return domain.LayerDescriptor{}, nil, report, fmt.Errorf("%w: missing field %q", ErrMalformedPayload, "name")
	}
	if raw.Slots == nil {
		return domain.LayerDescriptor{}, nil, report, fmt.Errorf("%w: missing field %q", ErrMalformedPayload, "slots")
	}
	if raw.Width == nil || raw.Height == nil || *raw.Width <= 0 || *raw.Height <= 0 {
		return domain.LayerDescriptor{}, nil, report, fmt.Errorf("%w: width/height must be positive", ErrMalformedPayload)
	}

	grid, err := domain.NewGrid(*raw.Width, *raw.Height)
	if err != nil {
		// 尺寸已校验为正，这里只可能是编程错误
		return domain.LayerDescriptor{}, nil, report, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	for _, slot := range *raw.Slots {
		if !domain.IsValidMaterial(slot.Type) {
			report.SkippedUnknownKind++
			continue
		}
		if !grid.InBounds(slot.X, slot.Y) {
			report.SkippedOutOfRange++
			continue
		}
		grid.Paint(slot.X, slot.Y, domain.MaterialKind(slot.Type))
		report.SlotsApplied++
	}

	desc := domain.LayerDescriptor{
		Name:   *raw.Name,
		Width:  *raw.Width,
		Height: *raw.Height,
	}
	return desc, grid, report, nil
}

// payloadRegion 返回输入中第一个含有 "slots" 键的花括号平衡区域。
// 不含 slots 的平衡区域被整体跳过；未闭合的花括号从下一个字符继续找，
// 以便发现嵌在垃圾数据里的完整对象。
func payloadRegion(data []byte) ([]byte, bool) {
	for i := 0; i < len(data); i++ {
		if data[i] != '{' {
			continue
		}
		end, ok := balancedEnd(data, i)
		if !ok {
			continue
		}
		region := data[i : end+1]
		if bytes.Contains(region, []byte(`"slots"`)) {
			return region, true
		}
		i = end
	}
	return nil, false
}

// balancedEnd 从 start 处的 '{' 开始找到与之配对的 '}' 的下标。
// 跟踪 JSON 字符串与反斜杠转义，字符串内的花括号不计入深度。
func balancedEnd(data []byte, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(data); i++ {
		c := data[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
