package service

// Notifier 在核心每次有效变更后接收 "状态已变化，重绘" 通知。
// 渲染协作方（websocket hub）实现该接口并订阅，核心不依赖任何 UI 运行时。
type Notifier interface {
	StateChanged(snapshot StateSnapshot)
}

// noopNotifier 在没有订阅方时使用（例如测试）。
type noopNotifier struct{}

func (noopNotifier) StateChanged(StateSnapshot) {}
