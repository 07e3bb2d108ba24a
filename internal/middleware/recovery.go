package middleware

import (
	"context"
	"log/slog"
	"runtime/debug"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// Recovery converts handler panics into 500 responses instead of dropping
// the connection.
func Recovery() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			slog.Error("panic recovered",
				"request_id", GetRequestID(c),
				"method", string(c.Method()),
				"path", string(c.Path()),
				"panic", r,
				"stack", string(debug.Stack()),
			)

			c.JSON(consts.StatusInternalServerError, utils.H{
				"code":    "INTERNAL_ERROR",
				"message": "Internal server error",
			})
			c.Abort()
		}()

		c.Next(ctx)
	}
}
