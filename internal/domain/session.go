package domain

import "github.com/google/uuid"

// 视图参数的边界与默认值。单元格像素尺寸在进入核心前被钳制到此区间。
const (
	MinCellPixelSize     = 10
	MaxCellPixelSize     = 50
	DefaultCellPixelSize = 20
)

// EraserID 在外部接口中表示 "橡皮擦" 这一选择。
// 它不是材质目录的成员；在 SessionState 内部橡皮擦用 MaterialNone 表示。
const EraserID = "ERASER"

// ViewSettings 保存渲染相关的视图参数。
type ViewSettings struct {
	CellPixelSize int  `json:"cell_size"`
	ShowGridlines bool `json:"show_gridlines"`
}

// SessionState 是单用户单文档的编辑会话状态：
// 一个 LayerDescriptor + 一个 Grid + 当前选中的材质（或橡皮擦）+
// 拖拽绘制标志 + 视图参数。它是一个被显式持有的值，
// 由 service 层通过指针传递，不存在包级单例。
type SessionState struct {
	ID         string
	Descriptor LayerDescriptor
	Grid       *Grid

	// Selected 是当前画笔材质；MaterialNone 表示选中了橡皮擦。
	Selected MaterialKind

	// Drawing 表示一次拖拽绘制是否正在进行（指针按下到抬起/离开之间）。
	Drawing bool

	View ViewSettings

	// Version 在每次有效变更后递增，变更通知随之携带。
	Version uint64
}

// NewSessionState 创建一个给定尺寸的全新会话，网格为空。
// 尺寸必须为正（调用方先钳制），否则透传 ErrInvalidDimension。
func NewSessionState(width, height int) (*SessionState, error) {
	grid, err := NewGrid(width, height)
	if err != nil {
		return nil, err
	}
	return &SessionState{
		ID:         uuid.NewString(),
		Descriptor: LayerDescriptor{Name: DefaultLayerName, Width: width, Height: height},
		Grid:       grid,
		Selected:   materialOrder[0],
		View: ViewSettings{
			CellPixelSize: DefaultCellPixelSize,
			ShowGridlines: true,
		},
	}, nil
}
