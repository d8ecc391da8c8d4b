package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/memberlink/internal/platform/identity"
	"github.com/fatflowers/memberlink/pkg/config"
	"github.com/fatflowers/memberlink/pkg/logctx"
	"github.com/fatflowers/memberlink/pkg/response"
)

const GinUserKey = "user"

const (
	msgMissingToken = "Missing authorization token"
	msgInvalidToken = "Invalid or expired token"
)

// AuthMiddleware resolves the bearer token to an identity.User and stores it
// on the gin context. Requests without a valid token stop here with 401.
func AuthMiddleware(verifier identity.Verifier, base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.NewErrorBody(response.CodeUnauthorized, msgMissingToken))
			return
		}
		user, err := verifier.VerifyToken(c.Request.Context(), token)
		if err != nil || user == nil || user.ID == "" {
			logctx.FromGin(c, base).Infow("auth_token_rejected", "err", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.NewErrorBody(response.CodeUnauthorized, msgInvalidToken))
			return
		}

		c.Set(GinUserKey, user)
		if l, ok := c.Get(logctx.GinLoggerKey); ok {
			if lg, ok := l.(*zap.SugaredLogger); ok && lg != nil {
				c.Set(logctx.GinLoggerKey, lg.With("user_id", user.ID))
			}
		}
		c.Request = c.Request.WithContext(logctx.WithUserID(c.Request.Context(), user.ID))
		c.Next()
	}
}

// AdminOnly must run after AuthMiddleware. It admits users whose email is on
// the configured admin allow-list.
func AdminOnly(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := UserFrom(c)
		if u == nil || !cfg.IsAdminEmail(u.Email) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.ErrorT[any](response.APIResponseCodeForbidden, nil))
			return
		}
		c.Next()
	}
}

// UserFrom returns the authenticated user, or nil outside AuthMiddleware.
func UserFrom(c *gin.Context) *identity.User {
	v, ok := c.Get(GinUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*identity.User)
	return u
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
