package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/memberlink/internal/platform/identity"
	"github.com/fatflowers/memberlink/pkg/config"
	"github.com/fatflowers/memberlink/pkg/response"
)

type stubVerifier struct {
	users map[string]*identity.User
}

func (s *stubVerifier) VerifyToken(_ context.Context, token string) (*identity.User, error) {
	if u, ok := s.users[token]; ok {
		return u, nil
	}
	return nil, identity.ErrInvalidToken
}

func newAuthEngine(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	v := &stubVerifier{users: map[string]*identity.User{
		"good":  {ID: "u1", Email: "user@example.com"},
		"admin": {ID: "u2", Email: "Ops@Example.com"},
	}}
	r := gin.New()
	r.Use(TraceMiddleware(nil), RequestLoggerMiddleware(zap.NewNop().Sugar()))
	authed := r.Group("/", AuthMiddleware(v, zap.NewNop().Sugar()))
	authed.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, UserFrom(c))
	})
	authed.GET("/admin", AdminOnly(cfg), func(c *gin.Context) {
		c.JSON(http.StatusOK, response.OKT("ok"))
	})
	return r
}

func doGet(r http.Handler, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := newAuthEngine(&config.Config{})

	w := doGet(r, "/me", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	var body response.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, response.CodeUnauthorized, body.Code)
	require.Equal(t, msgMissingToken, body.Error)

	w = doGet(r, "/me", "Bearer nope")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, msgInvalidToken, body.Error)

	w = doGet(r, "/me", "Basic good")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = doGet(r, "/me", "bearer good")
	require.Equal(t, http.StatusOK, w.Code)
	var u identity.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &u))
	require.Equal(t, "u1", u.ID)
	require.NotEmpty(t, w.Header().Get(HeaderRequestID))
}

func TestAdminOnly(t *testing.T) {
	r := newAuthEngine(&config.Config{Admin: config.AdminConfig{Emails: []string{"ops@example.com"}}})

	require.Equal(t, http.StatusForbidden, doGet(r, "/admin", "Bearer good").Code)
	require.Equal(t, http.StatusOK, doGet(r, "/admin", "Bearer admin").Code)
	require.Equal(t, http.StatusUnauthorized, doGet(r, "/admin", "").Code)
}

func TestTraceMiddleware_KeepsClientRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TraceMiddleware(nil), RequestLoggerMiddleware(zap.NewNop().Sugar()))
	r.GET("/x", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("traceID"))
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, "req-123", w.Body.String())
	require.Equal(t, "req-123", w.Header().Get(HeaderRequestID))
}
