package store

import (
	"context"
	"log/slog"
)

// Notice is the shopper-facing outcome of a failed operation.
type Notice struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Notifier receives a Notice for every failed operation.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// LogNotifier writes notices to the logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier that logs at info level.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the notice.
func (n *LogNotifier) Notify(ctx context.Context, notice Notice) {
	n.logger.InfoContext(ctx, "cart notice",
		slog.String("code", notice.Code),
		slog.String("message", notice.Message),
	)
}
