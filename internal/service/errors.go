package service

import "errors"

var (
	// ErrInvalidMaterial 表示选择的画笔既不是目录中的材质也不是橡皮擦。
	ErrInvalidMaterial = errors.New("service: unknown material selection")
	// ErrInternalServer 表示未预期的内部错误。
	ErrInternalServer = errors.New("service: internal server error")
)
