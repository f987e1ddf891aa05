package codec_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Site-21/organ-painter/internal/codec"
	"github.com/Site-21/organ-painter/internal/domain"
)

func mustGrid(t *testing.T, w, h int) *domain.Grid {
	t.Helper()
	grid, err := domain.NewGrid(w, h)
	require.NoError(t, err)
	return grid
}

func TestExportImport_RoundTrip(t *testing.T) {
	// Arrange: 一个有代表性的网格
	grid := mustGrid(t, 5, 4)
	grid.Paint(0, 0, domain.MaterialSkin)
	grid.Paint(4, 0, domain.MaterialMuscle)
	grid.Paint(2, 2, domain.MaterialCavity)
	grid.Paint(4, 3, domain.MaterialBrainTissue)
	desc := domain.LayerDescriptor{Name: "head-slice-07", Width: 5, Height: 4}

	// Act: 导出后重新导入
	data, err := codec.Export(desc, grid)
	require.NoError(t, err)
	gotDesc, gotGrid, report, err := codec.Import(data)

	// Assert: 无损往返
	require.NoError(t, err)
	assert.Equal(t, desc, gotDesc)
	assert.Zero(t, report.Skipped(), "规范导出不应产生被跳过的条目")
	if diff := cmp.Diff(grid.PaintedCells(), gotGrid.PaintedCells()); diff != "" {
		t.Errorf("round-trip cell mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, grid.Width(), gotGrid.Width())
	assert.Equal(t, grid.Height(), gotGrid.Height())
}

func TestExport_RowMajorScenario(t *testing.T) {
	// 场景：3×2 网格，(0,0)=SKIN，(2,1)=BONE
	grid := mustGrid(t, 3, 2)
	grid.Paint(2, 1, domain.MaterialBone)
	grid.Paint(0, 0, domain.MaterialSkin)
	desc := domain.LayerDescriptor{Name: "demo", Width: 3, Height: 2}

	payload := codec.BuildPayload(desc, grid)

	// slots 必须按行主序：y=0 的行先于 y=1 的行
	require.Len(t, payload.Slots, 2)
	assert.Equal(t, domain.PaintedCell{X: 0, Y: 0, Type: domain.MaterialSkin}, payload.Slots[0])
	assert.Equal(t, domain.PaintedCell{X: 2, Y: 1, Type: domain.MaterialBone}, payload.Slots[1])
}

func TestExport_ErasedCellLeavesNoSlot(t *testing.T) {
	grid := mustGrid(t, 3, 3)
	grid.Paint(1, 1, domain.MaterialFat)
	grid.Paint(1, 1, domain.MaterialNone) // 擦除

	payload := codec.BuildPayload(domain.LayerDescriptor{Name: "x", Width: 3, Height: 3}, grid)
	assert.Empty(t, payload.Slots, "被擦除的单元格不应出现在 slots 中")
}

func TestExport_EmptyGridEmitsEmptySlots(t *testing.T) {
	grid := mustGrid(t, 2, 2)
	data, err := codec.Export(domain.LayerDescriptor{Name: "empty", Width: 2, Height: 2}, grid)
	require.NoError(t, err)

	// JSON 部分的 slots 应为 []，而不是 null
	assert.Contains(t, string(data), `"slots": []`)

	// 空网格也能往返
	_, gotGrid, _, err := codec.Import(data)
	require.NoError(t, err)
	assert.Empty(t, gotGrid.PaintedCells())
}

func TestExport_ContainsCosmeticListing(t *testing.T) {
	grid := mustGrid(t, 3, 2)
	grid.Paint(0, 0, domain.MaterialSkin)
	data, err := codec.Export(domain.LayerDescriptor{Name: "demo", Width: 3, Height: 2}, grid)
	require.NoError(t, err)

	text := string(data)
	// 两个声明式构造块 + 一条顶层构造语句
	assert.Contains(t, text, "var layerSlots = []Slot{")
	assert.Contains(t, text, "var layerCells = []Cell{")
	assert.Contains(t, text, `var layer = NewLayer("demo", 3, 2, layerCells)`)
}

func TestImport_NoPayloadFound(t *testing.T) {
	cases := map[string]string{
		"empty stream":           "",
		"plain prose":            "nothing to see here",
		"object without slots":   `{"name": "x", "width": 3, "height": 2}`,
		"unbalanced brace":       `{"slots": [`,
		"slots only in a string": `{"note": "the word \"slots\" appears only here... almost"}`,
	}
	for name, input := range cases {
		_, _, _, err := codec.Import([]byte(input))
		require.Error(t, err, "case %q", name)
		assert.True(t, errors.Is(err, codec.ErrNoPayloadFound), "case %q 应返回 ErrNoPayloadFound, got %v", name, err)
	}
}

func TestImport_MalformedPayload(t *testing.T) {
	cases := map[string]string{
		"invalid json":        `{"slots": [,]}`,
		"missing name":        `{"width": 3, "height": 2, "slots": []}`,
		"missing width":       `{"name": "x", "height": 2, "slots": []}`,
		"zero width":          `{"name": "x", "width": 0, "height": 2, "slots": []}`,
		"negative height":     `{"name": "x", "width": 3, "height": -2, "slots": []}`,
		"null slots":          `{"name": "x", "width": 3, "height": 2, "slots": null}`,
		"non-integer coords":  `{"name": "x", "width": 3, "height": 2, "slots": [{"x": 1.5, "y": 0, "type": "SKIN"}]}`,
		"slots nested only":   `{"name": "x", "width": 3, "height": 2, "meta": {"slots": []}}`,
	}
	for name, input := range cases {
		_, _, _, err := codec.Import([]byte(input))
		require.Error(t, err, "case %q", name)
		assert.True(t, errors.Is(err, codec.ErrMalformedPayload), "case %q 应返回 ErrMalformedPayload, got %v", name, err)
	}
}

func TestImport_EmbeddedInProse(t *testing.T) {
	// 导出文件自带装饰性清单；载荷也可能被注释、说明文字甚至
	// 一个不含 slots 的完整对象包围。提取器要找到第一个含 slots 的平衡区域。
	input := strings.Join([]string{
		"saved with organ-painter, do not edit by hand",
		`{"metadata": "this object has no payload"}`,
		"some { unbalanced garbage",
		`{"name": "embedded", "width": 3, "height": 2, "slots": [{"x": 1, "y": 0, "type": "MUSCLE"}]}`,
		"// trailing listing goes here",
	}, "\n")

	desc, grid, report, err := codec.Import([]byte(input))

	require.NoError(t, err)
	assert.Equal(t, "embedded", desc.Name)
	assert.Equal(t, 3, desc.Width)
	assert.Equal(t, 2, desc.Height)
	assert.Equal(t, 1, report.SlotsApplied)
	assert.Equal(t, domain.MaterialMuscle, grid.At(1, 0))
}

func TestImport_BracesInsideStringsDoNotConfuseScanner(t *testing.T) {
	input := `{"name": "tricky } { name", "width": 2, "height": 2, "slots": [{"x": 0, "y": 1, "type": "FAT"}]}`

	desc, grid, _, err := codec.Import([]byte(input))

	require.NoError(t, err)
	assert.Equal(t, "tricky } { name", desc.Name)
	assert.Equal(t, domain.MaterialFat, grid.At(0, 1))
}

func TestImport_SkipsOutOfRangeAndUnknownKind(t *testing.T) {
	// 策略：跳过问题条目，导入其余部分，上报计数（而不是盲写破坏网格形状）
	input := `{"name": "partial", "width": 3, "height": 2, "slots": [
		{"x": 0, "y": 0, "type": "SKIN"},
		{"x": 3, "y": 0, "type": "BONE"},
		{"x": 0, "y": 2, "type": "BONE"},
		{"x": -1, "y": 0, "type": "BONE"},
		{"x": 1, "y": 1, "type": "VIBRANIUM"},
		{"x": 2, "y": 1, "type": "BONE"}
	]}`

	desc, grid, report, err := codec.Import([]byte(input))

	require.NoError(t, err)
	assert.Equal(t, 3, report.SkippedOutOfRange)
	assert.Equal(t, 1, report.SkippedUnknownKind)
	assert.Equal(t, 4, report.Skipped())
	assert.Equal(t, 2, report.SlotsApplied)

	// 网格形状未被越界条目破坏，合法条目全部就位
	assert.Equal(t, desc.Width, grid.Width())
	assert.Equal(t, desc.Height, grid.Height())
	assert.Equal(t, domain.MaterialSkin, grid.At(0, 0))
	assert.Equal(t, domain.MaterialBone, grid.At(2, 1))
}

func TestImport_DuplicateCoordinatesLastWriteWins(t *testing.T) {
	input := `{"name": "dup", "width": 2, "height": 2, "slots": [
		{"x": 0, "y": 0, "type": "SKIN"},
		{"x": 0, "y": 0, "type": "BONE"}
	]}`

	_, grid, report, err := codec.Import([]byte(input))

	require.NoError(t, err)
	assert.Equal(t, domain.MaterialBone, grid.At(0, 0), "重复坐标后写覆盖先写")
	assert.Zero(t, report.Skipped(), "重复坐标不计为跳过")
}

func TestImport_PayloadJSONIsCanonical(t *testing.T) {
	// 导出的 JSON 头部可以单独解析（机器可读部分的契约）
	grid := mustGrid(t, 3, 2)
	grid.Paint(0, 0, domain.MaterialSkin)
	grid.Paint(2, 1, domain.MaterialBone)
	data, err := codec.Export(domain.LayerDescriptor{Name: "demo", Width: 3, Height: 2}, grid)
	require.NoError(t, err)

	dec := json.NewDecoder(strings.NewReader(string(data)))
	var payload codec.Payload
	require.NoError(t, dec.Decode(&payload))
	assert.Equal(t, "demo", payload.Name)
	require.Len(t, payload.Slots, 2)
	assert.Equal(t, "SKIN", string(payload.Slots[0].Type))
	assert.Equal(t, "BONE", string(payload.Slots[1].Type))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "head-slice-07.txt", codec.FileName("head-slice-07"))
	assert.Equal(t, "untitled-layer.txt", codec.FileName("   "))
	assert.Equal(t, "a_b.txt", codec.FileName("a/b"))
}
