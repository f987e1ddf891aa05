package dto

import "github.com/Site-21/organ-painter/internal/service"

// IncomingPointerAction 表示从客户端 WebSocket 消息中接收的指针事件。
// 像素坐标相对于画布原点，允许为负（指针移出画布左上方时）。
type IncomingPointerAction struct {
	Type   string `json:"type" binding:"required,oneof=pointer_down pointer_move pointer_up pointer_leave"`
	PixelX int    `json:"px"`
	PixelY int    `json:"py"`
}

// 指针事件类型常量，与 IncomingPointerAction.Type 对应。
const (
	PointerDown  = "pointer_down"
	PointerMove  = "pointer_move"
	PointerUp    = "pointer_up"
	PointerLeave = "pointer_leave"
)

// StateDTO 表示广播给客户端的完整会话状态（"状态已变化，重绘" 通知）。
type StateDTO struct {
	Type string `json:"type"`
	service.StateSnapshot
}

// NewStateDTO 从服务层快照构造广播消息。
func NewStateDTO(snap service.StateSnapshot) StateDTO {
	return StateDTO{Type: "state", StateSnapshot: snap}
}

// ErrorDTO 表示发送给客户端的错误消息。
type ErrorDTO struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
