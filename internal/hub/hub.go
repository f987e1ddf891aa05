package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Site-21/organ-painter/internal/dto"
	"github.com/Site-21/organ-painter/internal/service"
)

// 包级别的 WebSocket 常量，供 hub 和 client 使用。
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// HubMessage 定义了在 Hub 内部通道传递的消息类型。
type HubMessage struct {
	Type    string  // "register", "unregister", "pointer", "broadcast"
	Client  *Client // register/unregister/pointer 的来源客户端
	RawData []byte  // pointer 的原始消息 / broadcast 的序列化状态
}

// Hub 维护活跃客户端集合并把所有指针事件串行化到单一事件循环中。
// 由于全部变更经由这一个循环依次处理，核心满足 "一次只响应一个外部
// 事件" 的单线程事件模型。Hub 同时实现 service.Notifier：
// 核心每次变更后广播完整状态快照给所有客户端。
type Hub struct {
	messageChan chan HubMessage

	clients   map[*Client]bool
	clientsMu sync.RWMutex

	session *service.SessionService
}

// NewHub 创建 Hub 实例。
func NewHub(session *service.SessionService) *Hub {
	if session == nil {
		panic("SessionService cannot be nil for Hub")
	}
	return &Hub{
		messageChan: make(chan HubMessage, 512),
		clients:     make(map[*Client]bool),
		session:     session,
	}
}

// Run 启动 Hub 的主事件处理循环，应在单独的 goroutine 中运行。
func (h *Hub) Run() {
	log := logrus.WithField("component", "hub")
	log.Info("Hub is running...")

	for msg := range h.messageChan {
		switch msg.Type {
		case "register":
			h.registerClient(msg.Client)
		case "unregister":
			h.unregisterClient(msg.Client)
		case "pointer":
			// 指针事件必须在循环内同步处理以保证顺序：
			// 拖拽绘制的语义依赖 down/move/up 的先后关系。
			h.handlePointer(msg)
		case "broadcast":
			h.broadcast(msg.RawData)
		default:
			log.Warnf("Hub: received unknown message type: %s", msg.Type)
		}
	}
	log.Info("Hub is shutting down...")
}

// Stop 关闭消息通道，令 Run 退出。
func (h *Hub) Stop() {
	close(h.messageChan)
}

// StateChanged 实现 service.Notifier：把最新状态排入广播队列。
func (h *Hub) StateChanged(snap service.StateSnapshot) {
	data, err := json.Marshal(dto.NewStateDTO(snap))
	if err != nil {
		logrus.WithError(err).Error("Hub: failed to marshal state notification")
		return
	}
	h.QueueMessage(HubMessage{Type: "broadcast", RawData: data})
}

// QueueMessage 将消息放入 Hub 的处理队列（非阻塞）。
// 返回 false 表示队列已满、消息被丢弃。
func (h *Hub) QueueMessage(msg HubMessage) bool {
	select {
	case h.messageChan <- msg:
		return true
	default:
		logrus.WithField("message_type", msg.Type).Warn("Hub message channel full, dropping message")
		return false
	}
}

func (h *Hub) registerClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: attempted to register a nil client")
		return
	}
	h.clientsMu.Lock()
	h.clients[client] = true
	h.clientsMu.Unlock()
	logrus.WithField("client_id", client.ID()).Info("Client registered to Hub")

	// 新客户端立即收到当前完整状态。
	h.sendSnapshot(client)
}

func (h *Hub) unregisterClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: attempted to unregister a nil client")
		return
	}
	logCtx := logrus.WithField("client_id", client.ID())

	h.clientsMu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		select {
		case <-client.send:
			logCtx.Warn("Client send channel already closed during unregister")
		default:
			close(client.send)
		}
	}
	h.clientsMu.Unlock()
	logCtx.Info("Client unregistered from Hub")
}

// sendSnapshot 把当前会话状态发送给单个客户端。
func (h *Hub) sendSnapshot(client *Client) {
	data, err := json.Marshal(dto.NewStateDTO(h.session.Snapshot()))
	if err != nil {
		logrus.WithError(err).Error("Hub: failed to marshal initial snapshot")
		return
	}
	select {
	case client.send <- data:
	default:
		logrus.WithField("client_id", client.ID()).Warn("Client send channel full when sending snapshot")
	}
}

// handlePointer 解析并应用一条指针事件。
// 核心的变更通知（StateChanged → broadcast）负责之后的重绘分发。
func (h *Hub) handlePointer(msg HubMessage) {
	logCtx := logrus.WithField("client_id", msg.Client.ID())

	var action dto.IncomingPointerAction
	if err := json.Unmarshal(msg.RawData, &action); err != nil {
		logCtx.WithError(err).Warn("Failed to unmarshal pointer action from client")
		h.sendError(msg.Client, "invalid pointer action")
		return
	}

	switch action.Type {
	case dto.PointerDown:
		h.session.PointerDown(action.PixelX, action.PixelY)
	case dto.PointerMove:
		h.session.PointerMove(action.PixelX, action.PixelY)
	case dto.PointerUp:
		h.session.PointerUp()
	case dto.PointerLeave:
		h.session.PointerLeave()
	default:
		logCtx.Warnf("Unknown pointer action type: %s", action.Type)
		h.sendError(msg.Client, "unknown pointer action type")
	}
}

func (h *Hub) sendError(client *Client, message string) {
	data, err := json.Marshal(dto.ErrorDTO{Type: "error", Message: message})
	if err != nil {
		return
	}
	select {
	case client.send <- data:
	default:
	}
}

// broadcast 把消息发送给所有客户端。
// 使用非阻塞发送，单个慢客户端不会阻塞其余客户端的分发。
func (h *Hub) broadcast(message []byte) {
	h.clientsMu.RLock()
	clientsToSend := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clientsToSend = append(clientsToSend, client)
	}
	h.clientsMu.RUnlock()

	for _, client := range clientsToSend {
		select {
		case client.send <- message:
		default:
			logrus.WithField("client_id", client.ID()).Warn("Client send channel full during broadcast, skipping")
		}
	}
}
