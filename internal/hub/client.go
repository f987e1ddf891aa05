package hub

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Client 代表一个连接到 Hub 的 WebSocket 客户端。
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	id   string      // 用于日志关联的客户端标识
	send chan []byte // 向此客户端发送消息的缓冲通道
}

// NewClient 创建一个新的 Client 实例。
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		id:   uuid.NewString(),
		send: make(chan []byte, 256),
	}
}

// ID 返回客户端标识。
func (c *Client) ID() string { return c.id }

// CloseConn 关闭底层 WebSocket 连接。
func (c *Client) CloseConn() { c.conn.Close() }

// Run 启动客户端的读写 goroutine。
func (c *Client) Run() {
	go c.WritePump()
	go c.ReadPump()
}

// ReadPump 将消息从 WebSocket 连接泵送到 Hub 的消息通道。
// 它在自己的 goroutine 中运行，退出时请求 Hub 注销此客户端。
func (c *Client) ReadPump() {
	defer func() {
		unregisterMsg := HubMessage{Type: "unregister", Client: c}
		select {
		case c.hub.messageChan <- unregisterMsg:
		case <-time.After(1 * time.Second):
			logrus.WithField("client_id", c.id).Warn("Timeout sending unregister message to Hub channel")
		}
		c.conn.Close()
		logrus.WithField("client_id", c.id).Info("readPump exited, unregistered client")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			logCtx := logrus.WithField("client_id", c.id)
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logCtx.WithError(err).Warn("WebSocket read error (unexpected close)")
			} else {
				logCtx.Debug("WebSocket connection closed normally or read error")
			}
			break
		}

		if messageType != websocket.TextMessage {
			logrus.WithField("client_id", c.id).Debugf("Received non-text message type: %d", messageType)
			continue
		}

		pointerMsg := HubMessage{
			Type:    "pointer",
			Client:  c,
			RawData: message,
		}
		select {
		case c.hub.messageChan <- pointerMsg:
		default:
			logrus.WithField("client_id", c.id).Warn("Hub message channel full, dropping client message")
		}
	}
}

// WritePump 将消息从 send 通道泵送到 WebSocket 连接，
// 并定期发送 Ping 以保持连接活跃。
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		logrus.WithField("client_id", c.id).Info("writePump exited")
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// send 通道被 Hub 关闭（注销时）
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logrus.WithField("client_id", c.id).WithError(err).Warn("Failed to write message to websocket")
				return
			}
			_ = c.conn.SetWriteDeadline(time.Time{})

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logrus.WithField("client_id", c.id).WithError(err).Warn("Failed to send ping message")
				return
			}
			_ = c.conn.SetWriteDeadline(time.Time{})
		}
	}
}
