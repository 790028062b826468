package logging

import (
	"context"

	"github.com/google/uuid"
)

type Module string

const (
	ModuleReminder   Module = "reminder"
	ModuleScheduler  Module = "scheduler"
	ModuleReconciler Module = "reconciler"
	ModuleStore      Module = "store"
)

type ServiceInfo struct {
	Name     string
	Version  string
	Revision string
}

type contextKey int

const (
	requestIDKey contextKey = iota
	moduleKey
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)

	return v
}

func WithModule(ctx context.Context, module Module) context.Context {
	return context.WithValue(ctx, moduleKey, module)
}

func ModuleFromContext(ctx context.Context) Module {
	v, _ := ctx.Value(moduleKey).(Module)

	return v
}

// ValidateAndExtractRequestID keeps an incoming UUID request id and
// replaces anything else with a fresh UUIDv7.
func ValidateAndExtractRequestID(header string) string {
	if header != "" {
		if _, err := uuid.Parse(header); err == nil {
			return header
		}
	}

	return uuid.Must(uuid.NewV7()).String()
}
