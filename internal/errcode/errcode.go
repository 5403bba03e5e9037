package errcode

import (
	"errors"
	"fmt"
	"net/http"
)

// 错误码约定：
// - 0：无错误
// - 4xxx：调用方可修正的错误（资源缺失、参数非法）
// - 5xxx：系统或上游错误
const (
	OK              = 0
	ResourceMissing = 4004
	InvalidInput    = 4000
	SystemError     = 5000
	UpstreamFailure = 5002
)

// Kind 对错误进行分类，决定 HTTP 状态码。
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindUpstream
)

// Error 是服务边界上的分类错误。
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound 表示引用的资源不存在。
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation 表示请求本身不合法。
func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Upstream 包装 LLM / 职位搜索 / 邮件服务的失败，保留原始错误信息。
func Upstream(message string, err error) error {
	return &Error{Kind: KindUpstream, Message: message, Err: err}
}

// KindOf 返回错误链中第一个分类错误的类型；未分类返回 KindInternal。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsNotFound(err error) bool   { return KindOf(err) == KindNotFound }
func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsUpstream(err error) bool   { return KindOf(err) == KindUpstream }

// HTTPStatus 将错误映射为响应状态码。
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Code 将错误映射为通知消息中的数字错误码。
func Code(err error) int {
	if err == nil {
		return OK
	}
	switch KindOf(err) {
	case KindNotFound:
		return ResourceMissing
	case KindValidation:
		return InvalidInput
	case KindUpstream:
		return UpstreamFailure
	default:
		return SystemError
	}
}
