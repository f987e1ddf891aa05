package codec

import (
	"strings"

	"github.com/Site-21/organ-painter/internal/domain"
)

// Payload 是导出档案的机器可读部分：
// {name, width, height, slots:[{x,y,type}]}，slots 按行主序排列。
// 空单元格隐式地是 slots 中未列出的一切，从不显式输出。
type Payload struct {
	Name   string               `json:"name"`
	Width  int                  `json:"width"`
	Height int                  `json:"height"`
	Slots  []domain.PaintedCell `json:"slots"`
}

// ImportReport 汇总一次导入中按条目跳过的异常。
// 策略：跳过问题条目，继续导入其余部分，并上报计数。
type ImportReport struct {
	SlotsApplied       int `json:"slots_applied"`
	SkippedOutOfRange  int `json:"skipped_out_of_range"`
	SkippedUnknownKind int `json:"skipped_unknown_kind"`
}

// Skipped 返回被跳过的条目总数。
func (r ImportReport) Skipped() int {
	return r.SkippedOutOfRange + r.SkippedUnknownKind
}

// FileName 返回存档的默认文件名 <layerName>.txt。
// 名称中的路径分隔符被替换，空名称退回占位名。
func FileName(layerName string) string {
	name := strings.TrimSpace(layerName)
	if name == "" {
		name = domain.DefaultLayerName
	}
	name = strings.NewReplacer("/", "_", "\\", "_").Replace(name)
	return name + ".txt"
}
