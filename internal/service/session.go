package service

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Site-21/organ-painter/internal/domain"
	"github.com/Site-21/organ-painter/internal/paint"
)

// StateSnapshot 是会话状态的只读副本，供变更通知与 HTTP 查询使用。
// Selected 是材质标识符或 domain.EraserID。
type StateSnapshot struct {
	SessionID     string               `json:"session_id"`
	Name          string               `json:"name"`
	Width         int                  `json:"width"`
	Height        int                  `json:"height"`
	CellPixelSize int                  `json:"cell_size"`
	ShowGridlines bool                 `json:"show_gridlines"`
	Selected      string               `json:"selected"`
	Version       uint64               `json:"version"`
	Slots         []domain.PaintedCell `json:"slots"`
}

// SessionService 是唯一持有 SessionState 的组件。
// 所有变更都在互斥锁下串行执行，因此导入时的整体替换对绘制事件而言
// 是一次原子交换。
// 每次有效变更后通过 Notifier 发出 "状态已变化" 通知。
type SessionService struct {
	mu         sync.Mutex
	state      *domain.SessionState
	controller *paint.Controller
	notifier   Notifier
}

// NewSessionService 用给定的初始网格尺寸创建会话。
// 尺寸在此钳制到 >= 1，因此构造从不因尺寸失败。
func NewSessionService(width, height int) (*SessionService, error) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	state, err := domain.NewSessionState(width, height)
	if err != nil {
		return nil, fmt.Errorf("failed to create session state: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"session_id": state.ID,
		"width":      width,
		"height":     height,
	}).Info("Session created")
	return &SessionService{
		state:      state,
		controller: paint.NewController(),
		notifier:   noopNotifier{},
	}, nil
}

// SetNotifier 注册变更通知订阅方（通常是 websocket hub）。
// 在 bootstrap 装配阶段调用一次；nil 恢复为无操作。
func (s *SessionService) SetNotifier(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n == nil {
		n = noopNotifier{}
	}
	s.notifier = n
}

// Snapshot 返回当前状态的只读副本。
func (s *SessionService) Snapshot() StateSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Resize 把网格调整为请求尺寸：重叠区域保留，新单元格为空。
// 非正尺寸钳制到 1，因此该操作从不失败。
func (s *SessionService) Resize(width, height int) StateSnapshot {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	s.mu.Lock()
	s.state.Grid = s.state.Grid.Resize(width, height)
	s.state.Descriptor.Width = width
	s.state.Descriptor.Height = height
	snap := s.bumpLocked()
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"session_id": snap.SessionID,
		"width":      width,
		"height":     height,
		"version":    snap.Version,
	}).Info("Grid resized")
	s.notifier.StateChanged(snap)
	return snap
}

// Clear 把所有单元格置空，保留宽高。
// 破坏性操作的用户确认由外层 handler 负责，核心这里无条件执行。
func (s *SessionService) Clear() StateSnapshot {
	s.mu.Lock()
	s.state.Grid.Clear()
	snap := s.bumpLocked()
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"session_id": snap.SessionID,
		"version":    snap.Version,
	}).Info("Grid cleared")
	s.notifier.StateChanged(snap)
	return snap
}

// SetView 更新视图参数。单元格像素尺寸钳制到 [MinCellPixelSize, MaxCellPixelSize]。
func (s *SessionService) SetView(cellPixelSize int, showGridlines bool) StateSnapshot {
	if cellPixelSize < domain.MinCellPixelSize {
		cellPixelSize = domain.MinCellPixelSize
	}
	if cellPixelSize > domain.MaxCellPixelSize {
		cellPixelSize = domain.MaxCellPixelSize
	}
	s.mu.Lock()
	s.state.View.CellPixelSize = cellPixelSize
	s.state.View.ShowGridlines = showGridlines
	snap := s.bumpLocked()
	s.mu.Unlock()

	s.notifier.StateChanged(snap)
	return snap
}

// SetLayerName 更新图层名称；空白名称退回占位名。
func (s *SessionService) SetLayerName(name string) StateSnapshot {
	name = strings.TrimSpace(name)
	if name == "" {
		name = domain.DefaultLayerName
	}
	s.mu.Lock()
	s.state.Descriptor.Name = name
	snap := s.bumpLocked()
	s.mu.Unlock()

	s.notifier.StateChanged(snap)
	return snap
}

// SelectMaterial 切换当前画笔：目录中的材质标识符或 domain.EraserID。
// 其他标识符返回 ErrInvalidMaterial。
func (s *SessionService) SelectMaterial(id string) (StateSnapshot, error) {
	var selected domain.MaterialKind
	switch {
	case id == domain.EraserID:
		selected = domain.MaterialNone
	case domain.IsValidMaterial(id):
		selected = domain.MaterialKind(id)
	default:
		return StateSnapshot{}, fmt.Errorf("%w: %q", ErrInvalidMaterial, id)
	}

	s.mu.Lock()
	s.state.Selected = selected
	snap := s.bumpLocked()
	s.mu.Unlock()

	s.notifier.StateChanged(snap)
	return snap, nil
}

// PointerDown 开始拖拽绘制并在指针处绘制一次。
func (s *SessionService) PointerDown(pixelX, pixelY int) {
	s.applyPointer(func(state *domain.SessionState) bool {
		return s.controller.PointerDown(state, pixelX, pixelY)
	})
}

// PointerMove 在拖拽进行中于指针处绘制一次，否则 no-op。
func (s *SessionService) PointerMove(pixelX, pixelY int) {
	s.applyPointer(func(state *domain.SessionState) bool {
		return s.controller.PointerMove(state, pixelX, pixelY)
	})
}

// PointerUp 结束拖拽绘制。不产生重绘通知。
func (s *SessionService) PointerUp() {
	s.mu.Lock()
	s.controller.PointerUp(s.state)
	s.mu.Unlock()
}

// PointerLeave 在指针离开画布时结束拖拽绘制。
func (s *SessionService) PointerLeave() {
	s.mu.Lock()
	s.controller.PointerLeave(s.state)
	s.mu.Unlock()
}

// applyPointer 在锁内执行一次指针操作，网格被实际触达时发出通知。
func (s *SessionService) applyPointer(apply func(*domain.SessionState) bool) {
	s.mu.Lock()
	touched := apply(s.state)
	var snap StateSnapshot
	if touched {
		snap = s.bumpLocked()
	}
	s.mu.Unlock()

	if touched {
		s.notifier.StateChanged(snap)
	}
}

// ReplaceLayer 用导入结果整体替换描述符与网格（原子交换），
// 旧网格被丢弃，拖拽状态复位。由 TransferService 在解析成功后调用。
func (s *SessionService) ReplaceLayer(desc domain.LayerDescriptor, grid *domain.Grid) StateSnapshot {
	s.mu.Lock()
	s.state.Descriptor = desc
	s.state.Grid = grid
	s.state.Drawing = false
	snap := s.bumpLocked()
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"session_id": snap.SessionID,
		"name":       desc.Name,
		"width":      desc.Width,
		"height":     desc.Height,
		"version":    snap.Version,
	}).Info("Layer replaced by import")
	s.notifier.StateChanged(snap)
	return snap
}

// Layer 返回描述符和网格的深拷贝，供导出序列化使用。
func (s *SessionService) Layer() (domain.LayerDescriptor, *domain.Grid) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Descriptor, s.state.Grid.Clone()
}

// View 返回当前视图参数，供渲染端点使用。
func (s *SessionService) View() domain.ViewSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.View
}

// bumpLocked 递增版本号并构造快照。调用方必须持有锁。
func (s *SessionService) bumpLocked() StateSnapshot {
	s.state.Version++
	return s.snapshotLocked()
}

func (s *SessionService) snapshotLocked() StateSnapshot {
	selected := domain.EraserID
	if s.state.Selected != domain.MaterialNone {
		selected = string(s.state.Selected)
	}
	slots := s.state.Grid.PaintedCells()
	if slots == nil {
		slots = []domain.PaintedCell{}
	}
	return StateSnapshot{
		SessionID:     s.state.ID,
		Name:          s.state.Descriptor.Name,
		Width:         s.state.Descriptor.Width,
		Height:        s.state.Descriptor.Height,
		CellPixelSize: s.state.View.CellPixelSize,
		ShowGridlines: s.state.View.ShowGridlines,
		Selected:      selected,
		Version:       s.state.Version,
		Slots:         slots,
	}
}
