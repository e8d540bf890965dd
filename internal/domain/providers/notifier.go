package providers

import (
	"context"
)

// NoticeLevel is the severity of a user-facing notification.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a transient message shown to the operator (a toast).
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
}

// Notifier delivers notices to the operator.
type Notifier interface {
	Notify(ctx context.Context, notice Notice)
}
