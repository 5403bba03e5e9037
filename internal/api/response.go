package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"careerPilot/internal/api/middleware"
	"careerPilot/internal/errcode"
	"careerPilot/internal/store"
)

// 所有错误响应统一为 {"detail": "..."}。
func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"detail": msg})
}

func BadRequest(c *gin.Context, msg string) { Error(c, http.StatusBadRequest, msg) }
func NotFound(c *gin.Context, msg string)   { Error(c, http.StatusNotFound, msg) }
func Internal(c *gin.Context, msg string)   { Error(c, http.StatusInternalServerError, msg) }

// respondError 按错误分类选择状态码；5xx 会记录日志。
func respondError(c *gin.Context, err error) {
	status := errcode.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		middleware.LoggerFromContext(c).Error("request failed", slog.Any("error", err))
	}
	Error(c, status, err.Error())
}

// notFoundAs 把存储层的未找到错误转换为带资源名的 NotFound。
func notFoundAs(err error, resource string) error {
	if errors.Is(err, store.ErrNotFound) {
		return errcode.NotFound("%s not found", resource)
	}
	return fmt.Errorf("load %s: %w", resource, err)
}
