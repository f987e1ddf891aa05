package domain

// DefaultLayerName 是未命名图层的占位名称。
const DefaultLayerName = "untitled-layer"

// LayerDescriptor 是随存档一起保存的非网格元数据。
// 不变式：Width/Height 在任何 resize/import 之后必须与 Grid 的实际尺寸一致，
// 由 service 层维护。
type LayerDescriptor struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}
