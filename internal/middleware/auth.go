package middleware

import (
	"context"
	"log/slog"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/Daltonopenclaw/agent-forge/internal/domain"
)

// SubjectKey is the request context key holding the authenticated subject.
const SubjectKey = "subject_id"

// Auth verifies the Authorization bearer token and stores the subject in
// the request context.
func Auth(verifier domain.TokenVerifier) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		header := string(c.GetHeader("Authorization"))
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			unauthorized(c, "missing bearer token")
			return
		}

		subject, err := verifier.VerifyBearerToken(ctx, token)
		if err != nil {
			slog.Default().Warn("token verification failed",
				"request_id", GetRequestID(c),
				"error", err,
			)
			unauthorized(c, "invalid token")
			return
		}

		c.Set(SubjectKey, subject)
		c.Next(ctx)
	}
}

// Subject returns the authenticated subject set by Auth.
func Subject(c *app.RequestContext) string {
	return c.GetString(SubjectKey)
}

func unauthorized(c *app.RequestContext, message string) {
	c.JSON(consts.StatusUnauthorized, utils.H{
		"code":    "UNAUTHORIZED",
		"message": message,
	})
	c.Abort()
}
