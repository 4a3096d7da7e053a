package logger

import (
	"context"

	"github.com/google/uuid"
)

// RequestIDHeader carries the request ID between the client and the backend.
const RequestIDHeader = "X-Request-ID"

// EnsureRequestID returns ctx and its request ID, generating a new one when ctx has none.
func EnsureRequestID(ctx context.Context) (context.Context, string) {
	if id := GetRequestID(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return WithRequestID(ctx, id), id
}
