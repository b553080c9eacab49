package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pollcraft/backend/internal/model"
	"github.com/pollcraft/backend/pkg/authenticator"
	"github.com/pollcraft/backend/pkg/xcontext"
)

type HandlerFunc[Request, Response any] func(ctx context.Context, req *Request) (*Response, error)

// MiddlewareFunc runs before the handler and can enrich the context. A
// returned error stops the chain and is written as the response.
type MiddlewareFunc func(ctx context.Context) (context.Context, error)

type Router struct {
	Inner gin.IRouter

	baseCtx           context.Context
	accessTokenEngine authenticator.TokenEngine[model.AccessToken]
	middlewares       []MiddlewareFunc
}

// New creates a root router. The base context must carry configs, logger,
// and database; every request context derives from it.
func New(ctx context.Context) *Router {
	cfg := xcontext.Configs(ctx)
	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	return &Router{
		Inner:   gin.New(),
		baseCtx: ctx,
		accessTokenEngine: authenticator.NewTokenEngine[model.AccessToken](
			cfg.Auth.TokenSecret, cfg.Auth.AccessToken.Expiration.Std()),
	}
}

func GET[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.Inner.GET(pattern, wrapHandler(r, http.MethodGet, handler))
}

func POST[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.Inner.POST(pattern, wrapHandler(r, http.MethodPost, handler))
}

func (r *Router) Use(middleware MiddlewareFunc) {
	r.middlewares = append(r.middlewares, middleware)
}

func (r *Router) Group(pattern string) *Router {
	return &Router{
		Inner:             r.Inner.Group(pattern),
		baseCtx:           r.baseCtx,
		accessTokenEngine: r.accessTokenEngine,
		middlewares:       append([]MiddlewareFunc{}, r.middlewares...),
	}
}

func (r *Router) Handler() http.Handler {
	return r.Inner.(*gin.Engine)
}
