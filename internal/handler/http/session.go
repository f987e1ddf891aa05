package http

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Site-21/organ-painter/internal/domain"
	"github.com/Site-21/organ-painter/internal/render"
	"github.com/Site-21/organ-painter/internal/service"
)

// 导入请求体的大小上限，防止把超大文件整个读进内存。
const maxImportBytes = 8 << 20 // 8 MiB

// SessionHandler 封装了编辑会话相关的 HTTP 处理逻辑。
// 它只做参数校验和错误映射，所有状态变更都委托给 service 层。
type SessionHandler struct {
	session  *service.SessionService
	transfer *service.TransferService
}

// NewSessionHandler 创建 SessionHandler 实例。
func NewSessionHandler(session *service.SessionService, transfer *service.TransferService) *SessionHandler {
	if session == nil {
		panic("SessionService cannot be nil for SessionHandler")
	}
	if transfer == nil {
		panic("TransferService cannot be nil for SessionHandler")
	}
	return &SessionHandler{session: session, transfer: transfer}
}

// GetState 返回当前会话状态。
func (h *SessionHandler) GetState(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, h.session.Snapshot())
}

// ResizeRequest 定义调整网格尺寸的请求体。
// 缺失或非正的尺寸由 service 层钳制到 >= 1，不报错。
type ResizeRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Resize 调整网格尺寸，保留重叠区域。
func (h *SessionHandler) Resize(c *gin.Context) {
	var req ResizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.Resize: invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: width and height must be integers")
		return
	}
	snap := h.session.Resize(req.Width, req.Height)
	SuccessResponse(c, http.StatusOK, snap)
}

// ClearRequest 定义清空网格的请求体。
type ClearRequest struct {
	Confirm bool `json:"confirm"`
}

// Clear 把所有单元格置空。破坏性操作：请求必须携带 confirm=true，
// 确认步骤由这里（外部协作方）把关，核心模型无条件执行。
func (h *SessionHandler) Clear(c *gin.Context) {
	var req ClearRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.Confirm {
		logrus.Warn("Handler.Clear: rejected without confirmation")
		ErrorResponse(c, http.StatusBadRequest, "Clearing the grid requires confirm=true")
		return
	}
	snap := h.session.Clear()
	SuccessResponse(c, http.StatusOK, snap)
}

// ViewRequest 定义视图参数变更的请求体。
// 省略的字段保持当前值不变。
type ViewRequest struct {
	CellPixelSize *int  `json:"cell_size"`
	ShowGridlines *bool `json:"show_gridlines"`
}

// SetView 更新单元格像素尺寸（钳制到 10–50）和网格线开关。
func (h *SessionHandler) SetView(c *gin.Context) {
	var req ViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.SetView: invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input for view settings")
		return
	}
	current := h.session.View()
	cellSize := current.CellPixelSize
	if req.CellPixelSize != nil {
		cellSize = *req.CellPixelSize
	}
	showGridlines := current.ShowGridlines
	if req.ShowGridlines != nil {
		showGridlines = *req.ShowGridlines
	}
	snap := h.session.SetView(cellSize, showGridlines)
	SuccessResponse(c, http.StatusOK, snap)
}

// NameRequest 定义图层重命名的请求体。
type NameRequest struct {
	Name string `json:"name"`
}

// SetName 更新图层名称，空白名称退回占位名。
func (h *SessionHandler) SetName(c *gin.Context) {
	var req NameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.SetName: invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: name must be a string")
		return
	}
	snap := h.session.SetLayerName(req.Name)
	SuccessResponse(c, http.StatusOK, snap)
}

// MaterialRequest 定义画笔选择的请求体。
type MaterialRequest struct {
	Material string `json:"material" binding:"required"`
}

// SelectMaterial 切换画笔：目录中的材质标识符或 "ERASER"。
func (h *SessionHandler) SelectMaterial(c *gin.Context) {
	var req MaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.SelectMaterial: invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: material is required")
		return
	}
	snap, err := h.session.SelectMaterial(req.Material)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, snap)
}

// Export 把当前会话序列化为存档文件并作为附件下载。
func (h *SessionHandler) Export(c *gin.Context) {
	data, fileName, err := h.transfer.Export()
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", data)
}

// ImportResponse 定义导入成功的响应结构体。
type ImportResponse struct {
	Message string                `json:"message"`
	Report  interface{}           `json:"report"`
	State   service.StateSnapshot `json:"state"`
}

// Import 从上传的字节流导入图层，成功后整体替换会话状态。
// 接受 multipart 表单的 "file" 字段或原始请求体。
func (h *SessionHandler) Import(c *gin.Context) {
	data, err := h.readImportBody(c)
	if err != nil {
		logrus.WithError(err).Warn("Handler.Import: failed to read upload")
		ErrorResponse(c, http.StatusBadRequest, "Failed to read import data")
		return
	}

	report, err := h.transfer.Import(data)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, ImportResponse{
		Message: "Layer imported successfully",
		Report:  report,
		State:   h.session.Snapshot(),
	})
}

// readImportBody 读取导入数据：优先 multipart 的 "file" 字段，
// 否则使用原始请求体。
func (h *SessionHandler) readImportBody(c *gin.Context) ([]byte, error) {
	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(io.LimitReader(f, maxImportBytes))
	}
	return io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes))
}

// Render 把当前网格按视图参数渲染为 PNG。
// 相同的会话状态和视图参数产生逐位相同的图片。
func (h *SessionHandler) Render(c *gin.Context) {
	_, grid := h.session.Layer()
	view := h.session.View()

	img := render.Rasterize(grid, view.CellPixelSize, view.ShowGridlines)
	data, err := render.EncodePNG(img)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}

// MaterialDTO 描述目录中的一种材质及其展示颜色。
type MaterialDTO struct {
	ID    string `json:"id"`
	Color string `json:"color"`
}

// ListMaterials 返回材质目录的稳定顺序列表，供 UI 构建画笔选择器。
func (h *SessionHandler) ListMaterials(c *gin.Context) {
	kinds := domain.Materials()
	out := make([]MaterialDTO, 0, len(kinds))
	for _, kind := range kinds {
		col := domain.ColorOf(kind)
		out = append(out, MaterialDTO{
			ID:    string(kind),
			Color: fmt.Sprintf("#%02x%02x%02x", col.R, col.G, col.B),
		})
	}
	SuccessResponse(c, http.StatusOK, gin.H{"materials": out})
}
