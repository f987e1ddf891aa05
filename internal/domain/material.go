package domain

import "image/color"

// MaterialKind 表示一个可绘制的组织材质类型的稳定标识符。
// 持久化时只保存该字符串标识符，颜色等展示元数据不入档。
type MaterialKind string

// 固定的材质集合，进程启动时定义一次，之后不可变。
const (
	MaterialCavity      MaterialKind = "CAVITY"
	MaterialSkin        MaterialKind = "SKIN"
	MaterialMuscle      MaterialKind = "MUSCLE"
	MaterialFat         MaterialKind = "FAT"
	MaterialMembrane    MaterialKind = "MEMBRANE"
	MaterialBone        MaterialKind = "BONE"
	MaterialBrainTissue MaterialKind = "BRAIN_TISSUE"
	MaterialOrgan       MaterialKind = "ORGAN"
)

// MaterialNone 表示空单元格（背景），与 CAVITY 材质本身是不同的概念。
// 它不属于材质目录，仅作为擦除/未绘制的哨兵值。
const MaterialNone MaterialKind = ""

// materialOrder 定义材质的稳定顺序，用于 UI 列表和导出元数据。
var materialOrder = []MaterialKind{
	MaterialCavity,
	MaterialSkin,
	MaterialMuscle,
	MaterialFat,
	MaterialMembrane,
	MaterialBone,
	MaterialBrainTissue,
	MaterialOrgan,
}

// materialColors 为每种材质定义展示颜色。
var materialColors = map[MaterialKind]color.RGBA{
	MaterialCavity:      {R: 0x1e, G: 0x29, B: 0x3b, A: 0xff},
	MaterialSkin:        {R: 0xf0, G: 0xc4, B: 0xa0, A: 0xff},
	MaterialMuscle:      {R: 0xc0, G: 0x39, B: 0x2b, A: 0xff},
	MaterialFat:         {R: 0xf7, G: 0xdc, B: 0x6f, A: 0xff},
	MaterialMembrane:    {R: 0x9b, G: 0x59, B: 0xb6, A: 0xff},
	MaterialBone:        {R: 0xec, G: 0xf0, B: 0xf1, A: 0xff},
	MaterialBrainTissue: {R: 0xe5, G: 0x8e, B: 0x9a, A: 0xff},
	MaterialOrgan:       {R: 0x8e, G: 0x44, B: 0xad, A: 0xff},
}

// Materials 返回材质目录的稳定顺序副本。
// 返回副本以保证目录本身不可被调用方修改。
func Materials() []MaterialKind {
	out := make([]MaterialKind, len(materialOrder))
	copy(out, materialOrder)
	return out
}

// ColorOf 返回指定材质的展示颜色。
// 未知材质（包括 MaterialNone）返回全透明色。
func ColorOf(kind MaterialKind) color.RGBA {
	if c, ok := materialColors[kind]; ok {
		return c
	}
	return color.RGBA{}
}

// IsValidMaterial 判断标识符是否属于材质目录。
// 空标识符（MaterialNone）不是有效材质。
func IsValidMaterial(id string) bool {
	_, ok := materialColors[MaterialKind(id)]
	return ok
}
