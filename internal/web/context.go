package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/dataquality/internal/core"
	mw "github.com/JonMunkholm/dataquality/internal/web/middleware"
)

// WithRequestMetadata adds the caller's actor, IP and User-Agent to the
// context so the service can stamp them on lineage entries.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ip := r.RemoteAddr // Already processed by TrustedRealIP
	ctx = core.ContextWithIPAddress(ctx, ip)
	ctx = core.ContextWithUserAgent(ctx, r.Header.Get("User-Agent"))
	if actor := mw.ActorFromContext(r.Context()); actor != "" {
		ctx = core.ContextWithActor(ctx, actor)
	}
	return ctx
}
