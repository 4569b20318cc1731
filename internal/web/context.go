package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/cleanlytics/internal/core"
)

// WithRequestMetadata adds the client IP to the context for logging.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithIPAddress(ctx, clientIP(r))
}

// withSessionID records the resolved session on the request for handler
// logs.
func withSessionID(r *http.Request, id string) *http.Request {
	return r.WithContext(core.ContextWithSessionID(r.Context(), id))
}
