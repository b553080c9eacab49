package router

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pollcraft/backend/pkg/errorx"
	"github.com/pollcraft/backend/pkg/xcontext"
)

func wrapHandler[Request, Response any](
	router *Router,
	method string,
	handler HandlerFunc[Request, Response],
) gin.HandlerFunc {
	return func(ginCtx *gin.Context) {
		var req Request
		var err error
		switch method {
		case http.MethodGet:
			err = ginCtx.BindQuery(&req)
		case http.MethodPost:
			err = ginCtx.BindJSON(&req)
		default:
			err = errors.New("unsupported method")
		}
		if err != nil {
			ginCtx.JSON(http.StatusOK, newErrorResponse(
				errorx.New(errorx.BadRequest, "Cannot bind the request")))
			return
		}

		ctx := router.baseCtx
		ctx = router.resolveRequestUser(ctx, ginCtx)

		for _, middleware := range router.middlewares {
			ctx, err = middleware(ctx)
			if err != nil {
				ginCtx.JSON(http.StatusOK, newErrorResponse(err))
				return
			}
		}

		resp, err := handler(ctx, &req)
		if err != nil {
			ginCtx.JSON(http.StatusOK, newErrorResponse(err))
			return
		}

		ginCtx.JSON(http.StatusOK, newResponse(resp))
	}
}

// resolveRequestUser verifies the bearer token (or the token cookie) and
// records the caller in the context. Requests without a valid token stay
// anonymous; protected routes reject them with RequireAuth.
func (r *Router) resolveRequestUser(ctx context.Context, ginCtx *gin.Context) context.Context {
	token := ginCtx.GetHeader("Authorization")
	if after, found := strings.CutPrefix(token, "Bearer "); found {
		token = after
	} else {
		var err error
		token, err = ginCtx.Cookie(xcontext.Configs(ctx).Auth.AccessToken.Name)
		if err != nil {
			return ctx
		}
	}

	accessToken, err := r.accessTokenEngine.Verify(token)
	if err != nil {
		xcontext.Logger(ctx).Debugf("Cannot verify access token: %v", err)
		return ctx
	}

	return xcontext.WithRequestUserID(ctx, accessToken.ID)
}
