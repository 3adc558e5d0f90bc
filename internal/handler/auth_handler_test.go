package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/fwforge/fwportal/internal/handler"
	"github.com/fwforge/fwportal/internal/middleware"
	"github.com/fwforge/fwportal/internal/service"
	"github.com/fwforge/fwportal/internal/store"
)

type noopSender struct{}

func (noopSender) Send(to, subject, body string) error {
	return nil
}

type fixedGenerator struct {
	code string
}

func (g fixedGenerator) Generate() string {
	return g.code
}

func setupRouter(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtSecret := []byte("test-secret")
	tokens := service.NewTokenService(jwtSecret, time.Hour)
	verify := service.NewVerificationService(
		store.NewMemoryStore(),
		noopSender{},
		fixedGenerator{code: "123456"},
		tokens,
		service.VerificationConfig{AdminEmails: []string{"x@y.com"}},
	)

	deps := handler.RouterDeps{
		Auth:      handler.NewAuthHandler(verify, tokens),
		JWTSecret: jwtSecret,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			group.POST("/auth/send-code", deps.Auth.SendCode)
			group.POST("/auth/verify-code", deps.Auth.VerifyCode)
			group.POST("/auth/verify-token", deps.Auth.VerifyToken)
			group.POST("/admin/auth/send-code", deps.Auth.SendAdminCode)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(nil),
		),
	)
	require.NoError(t, err)
	return engine
}

func doJSON(t *testing.T, router http.Handler, path string, body map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	var decoded map[string]interface{}
	if resp.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &decoded))
	}
	return resp, decoded
}

func TestAuthFlow(t *testing.T) {
	router := setupRouter(t)

	resp, body := doJSON(t, router, "/api/v1/auth/send-code", map[string]string{"email": "test@example.com"})
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, true, body["ok"])

	resp, body = doJSON(t, router, "/api/v1/auth/verify-code", map[string]string{"email": "test@example.com", "code": "000000"})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.NotEmpty(t, body["error"])

	resp, body = doJSON(t, router, "/api/v1/auth/verify-code", map[string]string{"email": "test@example.com", "code": "123456"})
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, true, body["ok"])
	require.Equal(t, "user", body["role"])
	require.Equal(t, "test@example.com", body["email"])
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	resp, body = doJSON(t, router, "/api/v1/auth/verify-token", map[string]string{"token": token})
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, true, body["valid"])
	require.Equal(t, "test@example.com", body["email"])
	require.Equal(t, "user", body["role"])

	// One-shot: the consumed code is gone.
	resp, body = doJSON(t, router, "/api/v1/auth/verify-code", map[string]string{"email": "test@example.com", "code": "123456"})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.NotEmpty(t, body["error"])
}

func TestSendCode_Throttled(t *testing.T) {
	router := setupRouter(t)

	resp, _ := doJSON(t, router, "/api/v1/auth/send-code", map[string]string{"email": "again@example.com"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp, body := doJSON(t, router, "/api/v1/auth/send-code", map[string]string{"email": "again@example.com"})
	require.Equal(t, http.StatusTooManyRequests, resp.Code)
	require.NotEmpty(t, body["error"])
}

func TestSendCode_InvalidEmail(t *testing.T) {
	router := setupRouter(t)

	resp, body := doJSON(t, router, "/api/v1/auth/send-code", map[string]string{"email": "not-an-email"})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.NotEmpty(t, body["error"])
}

func TestAdminSendCode_AllowList(t *testing.T) {
	router := setupRouter(t)

	resp, body := doJSON(t, router, "/api/v1/admin/auth/send-code", map[string]string{"email": "z@y.com"})
	require.Equal(t, http.StatusForbidden, resp.Code)
	require.NotEmpty(t, body["error"])

	resp, _ = doJSON(t, router, "/api/v1/admin/auth/send-code", map[string]string{"email": "x@y.com"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp, body = doJSON(t, router, "/api/v1/auth/verify-code", map[string]string{"email": "x@y.com", "code": "123456"})
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "admin", body["role"])
}

func TestVerifyToken_Invalid(t *testing.T) {
	router := setupRouter(t)

	resp, body := doJSON(t, router, "/api/v1/auth/verify-token", map[string]string{"token": "garbage"})
	require.Equal(t, http.StatusUnauthorized, resp.Code)
	require.Equal(t, false, body["valid"])
	require.Equal(t, "invalid or expired token", body["error"])
}
