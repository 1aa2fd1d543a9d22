package identity

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// TokenService issues and validates purpose-scoped signed tokens
type TokenService interface {
	Issue(subject string, purpose TokenPurpose, ttl time.Duration) (string, error)
	Validate(tokenString string, expected TokenPurpose) (string, error)
}

// Notifier is the outbound delivery channel for verification and reset
// tokens. Delivery is best-effort: the lifecycle logs failures and never
// surfaces them to the caller that triggered the send.
type Notifier interface {
	Send(ctx context.Context, recipient string, purpose TokenPurpose, token string) error
}

type noopNotifier struct{}

func (noopNotifier) Send(context.Context, string, TokenPurpose, string) error { return nil }

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] IDENTITY "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] IDENTITY "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] IDENTITY "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] IDENTITY "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
