package service_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Site-21/organ-painter/internal/codec"
	"github.com/Site-21/organ-painter/internal/domain"
	"github.com/Site-21/organ-painter/internal/service"
)

// recordingNotifier 记录收到的所有变更通知，充当渲染订阅方的替身。
type recordingNotifier struct {
	mu    sync.Mutex
	snaps []service.StateSnapshot
}

func (r *recordingNotifier) StateChanged(snap service.StateSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, snap)
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

func (r *recordingNotifier) last() service.StateSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snaps[len(r.snaps)-1]
}

func newService(t *testing.T) (*service.SessionService, *recordingNotifier) {
	t.Helper()
	svc, err := service.NewSessionService(10, 8)
	require.NoError(t, err)
	notifier := &recordingNotifier{}
	svc.SetNotifier(notifier)
	return svc, notifier
}

func TestSessionService_InitialState(t *testing.T) {
	svc, _ := newService(t)

	snap := svc.Snapshot()

	assert.NotEmpty(t, snap.SessionID)
	assert.Equal(t, domain.DefaultLayerName, snap.Name)
	assert.Equal(t, 10, snap.Width)
	assert.Equal(t, 8, snap.Height)
	assert.Equal(t, domain.DefaultCellPixelSize, snap.CellPixelSize)
	assert.True(t, snap.ShowGridlines)
	assert.Empty(t, snap.Slots)
	assert.Zero(t, snap.Version)
}

func TestSessionService_CreationClampsDimensions(t *testing.T) {
	// 构造从不因尺寸失败：非正尺寸钳制到 1
	svc, err := service.NewSessionService(0, -3)
	require.NoError(t, err)
	snap := svc.Snapshot()
	assert.Equal(t, 1, snap.Width)
	assert.Equal(t, 1, snap.Height)
}

func TestSessionService_ResizeNotifiesAndSyncsDescriptor(t *testing.T) {
	svc, notifier := newService(t)

	snap := svc.Resize(0, 20)

	// 宽度被钳制到 1；描述符与网格实际尺寸保持一致
	assert.Equal(t, 1, snap.Width)
	assert.Equal(t, 20, snap.Height)
	assert.Equal(t, 1, notifier.count(), "resize 应触发一次变更通知")
	assert.Equal(t, snap.Version, notifier.last().Version)
}

func TestSessionService_SetViewClampsCellSize(t *testing.T) {
	svc, _ := newService(t)

	snap := svc.SetView(5, false)
	assert.Equal(t, domain.MinCellPixelSize, snap.CellPixelSize)

	snap = svc.SetView(500, true)
	assert.Equal(t, domain.MaxCellPixelSize, snap.CellPixelSize)
	assert.True(t, snap.ShowGridlines)
}

func TestSessionService_SetLayerNameFallsBackToPlaceholder(t *testing.T) {
	svc, _ := newService(t)

	snap := svc.SetLayerName("  skull-base  ")
	assert.Equal(t, "skull-base", snap.Name)

	snap = svc.SetLayerName("   ")
	assert.Equal(t, domain.DefaultLayerName, snap.Name)
}

func TestSessionService_SelectMaterial(t *testing.T) {
	svc, _ := newService(t)

	snap, err := svc.SelectMaterial("BONE")
	require.NoError(t, err)
	assert.Equal(t, "BONE", snap.Selected)

	snap, err = svc.SelectMaterial(domain.EraserID)
	require.NoError(t, err)
	assert.Equal(t, domain.EraserID, snap.Selected)

	_, err = svc.SelectMaterial("ADAMANTIUM")
	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrInvalidMaterial))
}

func TestSessionService_PointerFlow(t *testing.T) {
	// 端到端的拖拽绘制：down → move → up → move
	svc, notifier := newService(t)
	_, err := svc.SelectMaterial("BONE")
	require.NoError(t, err)
	before := notifier.count()

	// 默认单元格 20px：像素 (45,65) → 单元格 (2,3)
	svc.PointerDown(45, 65)
	svc.PointerMove(45, 85) // (2,4)
	svc.PointerUp()
	svc.PointerMove(45, 105) // (2,5)，拖拽已结束

	snap := svc.Snapshot()
	require.Len(t, snap.Slots, 2)
	assert.Equal(t, domain.PaintedCell{X: 2, Y: 3, Type: domain.MaterialBone}, snap.Slots[0])
	assert.Equal(t, domain.PaintedCell{X: 2, Y: 4, Type: domain.MaterialBone}, snap.Slots[1])
	// down 和拖拽中的 move 各通知一次；up 和无效 move 不通知
	assert.Equal(t, before+2, notifier.count())
}

func TestSessionService_PointerOutOfCanvasDoesNotNotify(t *testing.T) {
	svc, notifier := newService(t)
	before := notifier.count()

	svc.PointerDown(-30, -30)

	assert.Equal(t, before, notifier.count(), "未触达网格的指针事件不应触发重绘")
	assert.Empty(t, svc.Snapshot().Slots)
}

func TestSessionService_ClearKeepsShape(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.SelectMaterial("SKIN")
	require.NoError(t, err)
	svc.PointerDown(5, 5)
	svc.PointerUp()
	require.NotEmpty(t, svc.Snapshot().Slots)

	snap := svc.Clear()

	assert.Empty(t, snap.Slots)
	assert.Equal(t, 10, snap.Width)
	assert.Equal(t, 8, snap.Height)
}

func TestTransferService_ExportImportRoundTrip(t *testing.T) {
	// Arrange: 有内容的会话
	svc, _ := newService(t)
	transfer := service.NewTransferService(svc)
	svc.SetLayerName("thorax-04")
	_, err := svc.SelectMaterial("MUSCLE")
	require.NoError(t, err)
	svc.PointerDown(5, 5)
	svc.PointerUp()
	want := svc.Snapshot()

	// Act: 导出，清空，再导入
	data, fileName, err := transfer.Export()
	require.NoError(t, err)
	svc.Clear()
	report, err := transfer.Import(data)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "thorax-04.txt", fileName)
	assert.Zero(t, report.Skipped())
	got := svc.Snapshot()
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Width, got.Width)
	assert.Equal(t, want.Height, got.Height)
	if diff := cmp.Diff(want.Slots, got.Slots); diff != "" {
		t.Errorf("slot mismatch after round-trip (-want +got):\n%s", diff)
	}
}

func TestTransferService_FailedImportLeavesSessionUntouched(t *testing.T) {
	svc, notifier := newService(t)
	transfer := service.NewTransferService(svc)
	_, err := svc.SelectMaterial("FAT")
	require.NoError(t, err)
	svc.PointerDown(5, 5)
	svc.PointerUp()
	before := svc.Snapshot()
	notifications := notifier.count()

	// Act: 两种失败模式都不得触碰会话
	_, errNoPayload := transfer.Import([]byte("no payload in here"))
	_, errMalformed := transfer.Import([]byte(`{"width": 3, "height": 2, "slots": []}`))

	// Assert
	assert.True(t, errors.Is(errNoPayload, codec.ErrNoPayloadFound))
	assert.True(t, errors.Is(errMalformed, codec.ErrMalformedPayload))
	after := svc.Snapshot()
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("session changed after failed import (-before +after):\n%s", diff)
	}
	assert.Equal(t, notifications, notifier.count(), "失败的导入不应触发重绘通知")
}

func TestTransferService_ImportReplacesWholeLayer(t *testing.T) {
	svc, _ := newService(t)
	transfer := service.NewTransferService(svc)
	_, err := svc.SelectMaterial("SKIN")
	require.NoError(t, err)
	svc.PointerDown(5, 5)
	svc.PointerUp()

	input := `{"name": "imported", "width": 4, "height": 3, "slots": [{"x": 3, "y": 2, "type": "ORGAN"}]}`
	report, err := transfer.Import([]byte(input))

	require.NoError(t, err)
	assert.Equal(t, 1, report.SlotsApplied)
	snap := svc.Snapshot()
	assert.Equal(t, "imported", snap.Name)
	assert.Equal(t, 4, snap.Width)
	assert.Equal(t, 3, snap.Height)
	// 旧网格被整体替换：原先绘制的 (0,0) 不复存在
	require.Len(t, snap.Slots, 1)
	assert.Equal(t, domain.PaintedCell{X: 3, Y: 2, Type: domain.MaterialOrgan}, snap.Slots[0])
}
