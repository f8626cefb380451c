// Package observability provides structured logging helpers for scheduler
// check passes and management commands.
package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	// LogFieldPassID is the field name for the check pass ID.
	LogFieldPassID = "pass_id"
	// LogFieldUserID is the field name for the scoped user ID.
	LogFieldUserID = "user_id"
	// LogFieldDuration is the field name for duration in milliseconds.
	LogFieldDuration = "duration_ms"
	// LogFieldFired is the field name for the fired reminder count.
	LogFieldFired = "fired"
)

// PassContext carries structured logging state for one check-and-fire pass.
type PassContext struct {
	PassID    string
	UserID    int32 // zero when the pass is unscoped
	StartTime time.Time
	Logger    *slog.Logger
}

// NewPassContext creates a pass context with a generated pass ID.
func NewPassContext(logger *slog.Logger, userID int32) *PassContext {
	if logger == nil {
		logger = slog.Default()
	}
	return &PassContext{
		PassID:    uuid.New().String(),
		UserID:    userID,
		StartTime: time.Now(),
		Logger:    logger,
	}
}

// Info logs an info message with the pass attributes attached.
func (p *PassContext) Info(msg string, attrs ...slog.Attr) {
	p.Logger.LogAttrs(context.Background(), slog.LevelInfo, msg, p.withBase(attrs)...)
}

// Error logs an error message with the pass attributes attached.
func (p *PassContext) Error(msg string, err error, attrs ...slog.Attr) {
	attrs = append(attrs, slog.String("error", err.Error()))
	p.Logger.LogAttrs(context.Background(), slog.LevelError, msg, p.withBase(attrs)...)
}

// Complete logs the end of a pass with its duration and fired count.
func (p *PassContext) Complete(fired int) {
	p.Info("check pass complete",
		slog.Int(LogFieldFired, fired),
		slog.Int64(LogFieldDuration, p.DurationMs()))
}

// Duration returns the elapsed time since the pass started.
func (p *PassContext) Duration() time.Duration {
	return time.Since(p.StartTime)
}

// DurationMs returns the elapsed time in milliseconds.
func (p *PassContext) DurationMs() int64 {
	return p.Duration().Milliseconds()
}

func (p *PassContext) withBase(attrs []slog.Attr) []slog.Attr {
	base := []slog.Attr{
		slog.String(LogFieldPassID, p.PassID),
		slog.Int64(LogFieldUserID, int64(p.UserID)),
	}
	return append(base, attrs...)
}

type ctxKey struct{}

// WithPassContext adds the pass context to the context.
func WithPassContext(ctx context.Context, passCtx *PassContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, passCtx)
}

// FromContext extracts the pass context from the context.
func FromContext(ctx context.Context) (*PassContext, bool) {
	passCtx, ok := ctx.Value(ctxKey{}).(*PassContext)
	return passCtx, ok
}
