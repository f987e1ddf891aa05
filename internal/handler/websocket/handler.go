package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Site-21/organ-painter/internal/hub"
)

// WebSocketHandler 负责处理 WebSocket 升级请求和客户端注册。
// 升级成功后，指针事件由客户端的读泵送入 Hub，
// 状态广播由写泵送回客户端。
type WebSocketHandler struct {
	upgrader websocket.Upgrader
	hub      *hub.Hub
}

// NewWebSocketHandler 创建 WebSocketHandler 实例。
func NewWebSocketHandler(h *hub.Hub, allowedOrigin string) *WebSocketHandler {
	if h == nil {
		panic("Hub cannot be nil for WebSocketHandler")
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" || allowedOrigin == "*" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}

	return &WebSocketHandler{upgrader: upgrader, hub: h}
}

// HandleConnection 处理 WebSocket 连接请求。URL: /ws
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 失败时已经写出了 HTTP 错误响应，这里只记录日志
		logrus.WithError(err).Error("WS Handler: failed to upgrade connection")
		return
	}

	client := hub.NewClient(h.hub, conn)
	logCtx := logrus.WithField("client_id", client.ID())
	logCtx.Info("WS Handler: connection upgraded to WebSocket")

	registerMsg := hub.HubMessage{Type: "register", Client: client}
	if !h.hub.QueueMessage(registerMsg) {
		logCtx.Error("WS Handler: hub message channel full, failed to register client")
		client.CloseConn()
		return
	}

	client.Run()
	logCtx.Info("WS Handler: client read/write pumps started")
}
