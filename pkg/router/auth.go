package router

import (
	"context"

	"github.com/pollcraft/backend/pkg/errorx"
	"github.com/pollcraft/backend/pkg/xcontext"
)

// RequireAuth rejects anonymous requests. Token verification itself
// happens for every request; this middleware only enforces its result.
func RequireAuth() MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		if xcontext.RequestUserID(ctx) == "" {
			return nil, errorx.New(errorx.Unauthenticated, "You need to sign in")
		}

		return ctx, nil
	}
}
