package codec

import "errors"

// 导入阶段的业务错误。两者都会原样上抛到 HTTP 层并阻断导入，
// 会话状态保持不变。
var (
	// ErrNoPayloadFound 表示输入流中找不到任何包含 slots 成员的结构化对象。
	ErrNoPayloadFound = errors.New("codec: no layer payload found in input")
	// ErrMalformedPayload 表示找到了候选结构，但它不是合法 JSON
	// 或缺少必需字段（name、正的 width/height、slots）。
	ErrMalformedPayload = errors.New("codec: malformed layer payload")
)
