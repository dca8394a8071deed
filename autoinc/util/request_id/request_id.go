package request_id

import (
	"context"

	"github.com/google/uuid"
)

const (
	RequestIDKey = "x-request-id"
)

type contextKey string

func Set(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey(RequestIDKey), id)
}

func Get(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(contextKey(RequestIDKey)).(string)
	return id
}

// New attaches a freshly generated request id unless ctx already carries one.
func New(ctx context.Context) context.Context {
	if Get(ctx) != "" {
		return ctx
	}
	return Set(ctx, uuid.NewString())
}
