package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/PeopleImport/internal/core"
)

// withRequestMetadata copies the client IP and user agent into ctx so
// session logs can name who started a run.
func withRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithClientIP(ctx, clientIP(r))
	ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
	return ctx
}
