package service

import (
	"errors"
	"fmt"
)

// 工作流错误种类，是 API 边界对外暴露的稳定错误码。
const (
	ErrKindUnsupportedTool    = "ERR_UNSUPPORTED_TOOL"
	ErrKindInvalidParameters  = "ERR_INVALID_PARAMETERS"
	ErrKindUnauthenticated    = "ERR_UNAUTHENTICATED"
	ErrKindInsufficientPoints = "ERR_INSUFFICIENT_POINTS"
	ErrKindDispatchFailed     = "ERR_DISPATCH_FAILED"
	ErrKindRecordNotFound     = "ERR_RECORD_NOT_FOUND"
	ErrKindProviderError      = "ERR_PROVIDER_ERROR"
	ErrKindInternal           = "ERR_INTERNAL_ERROR"
)

// WorkflowError 在服务层与 API 层之间携带稳定的错误种类。
// 端点按种类映射 HTTP 状态码，不做字符串匹配。
type WorkflowError struct {
	Kind    string
	Message string
	cause   error
}

func (e *WorkflowError) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *WorkflowError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// NewWorkflowError 创建指定种类的工作流错误。
func NewWorkflowError(kind, message string) *WorkflowError {
	return &WorkflowError{Kind: kind, Message: message}
}

// WrapWorkflowError 包装底层错误并附加种类。
func WrapWorkflowError(kind, message string, cause error) *WorkflowError {
	return &WorkflowError{Kind: kind, Message: message, cause: cause}
}

// WorkflowKind 提取错误的种类；非工作流错误归为内部错误。
func WorkflowKind(err error) string {
	var wfErr *WorkflowError
	if errors.As(err, &wfErr) {
		return wfErr.Kind
	}
	return ErrKindInternal
}
