package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Site-21/organ-painter/internal/codec"
	"github.com/Site-21/organ-painter/internal/service"
)

// HandleServiceError 把业务错误映射到 HTTP 状态码。
// 导入失败（找不到载荷 / 载荷损坏）不改变会话状态，
// 以 422 上报给用户作为阻断性提示。
func HandleServiceError(c *gin.Context, err error) {
	if errors.Is(err, codec.ErrNoPayloadFound) || errors.Is(err, codec.ErrMalformedPayload) {
		ErrorResponse(c, http.StatusUnprocessableEntity, err.Error())
	} else if errors.Is(err, service.ErrInvalidMaterial) {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	} else {
		logrus.WithError(err).Error("Unhandled internal server error")
		ErrorResponse(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
