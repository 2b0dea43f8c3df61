package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apphttp "talent_intake_backend/internal/http"
	"talent_intake_backend/platform/httpkit"
	"talent_intake_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "router-secret"

type routerConfig struct{}

func (routerConfig) GetHTTPAddr() string              { return ":0" }
func (routerConfig) GetCORSAllowAll() bool            { return false }
func (routerConfig) GetCORSOrigins() []string         { return []string{"https://tinytalent.uk"} }
func (routerConfig) GetCORSAllowCreds() bool          { return false }
func (routerConfig) GetPublicRateLimitPerMinute() int { return 600 }
func (routerConfig) GetPublicRateLimitBurst() int     { return 100 }
func (routerConfig) GetJWTAccessSecret() string       { return testSecret }

type pinger struct {
	err error
}

func (p pinger) Ping(context.Context) error { return p.err }

type echoModule struct{}

func (echoModule) Name() string { return "echo" }

func (echoModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.GET("/echo", func(c *gin.Context) { c.String(http.StatusOK, "public") })
	ctx.Admin.GET("/echo", func(c *gin.Context) { c.String(http.StatusOK, httpkit.GetIdentity(c).Subject()) })
}

func newEngine(health apphttp.HealthChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return New(&apphttp.App{
		Config:  routerConfig{},
		Logger:  logger.NewDiscard(),
		Health:  health,
		Modules: []apphttp.Module{echoModule{}},
	})
}

func get(engine *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func signToken(t *testing.T, roles []string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "ops@tinytalent.uk",
		"type":  httpkit.AccessTokenType,
		"roles": roles,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func TestHealthAndReadiness(t *testing.T) {
	engine := newEngine(pinger{})

	if w := get(engine, "/api/health", ""); w.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", w.Code)
	}
	if w := get(engine, "/api/ready", ""); w.Code != http.StatusOK {
		t.Fatalf("ready: expected 200, got %d", w.Code)
	}

	down := newEngine(pinger{err: errors.New("connection refused")})
	w := get(down, "/api/ready", "")
	if w.Code != http.StatusServiceUnavailable || !strings.Contains(w.Body.String(), "unavailable") {
		t.Fatalf("expected 503 when the database is down, got %d %s", w.Code, w.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	engine := newEngine(nil)
	get(engine, "/api/v1/echo", "")

	w := get(engine, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Fatal("expected the default collectors to be exposed")
	}
}

func TestAdminGroupRequiresOperator(t *testing.T) {
	engine := newEngine(nil)

	if w := get(engine, "/api/v1/echo", ""); w.Code != http.StatusOK {
		t.Fatalf("public route: expected 200, got %d", w.Code)
	}
	if w := get(engine, "/api/v1/admin/echo", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", w.Code)
	}
	if w := get(engine, "/api/v1/admin/echo", signToken(t, []string{"viewer"})); w.Code != http.StatusForbidden {
		t.Fatalf("wrong role: expected 403, got %d", w.Code)
	}

	w := get(engine, "/api/v1/admin/echo", signToken(t, []string{httpkit.RoleOperator}))
	if w.Code != http.StatusOK || w.Body.String() != "ops@tinytalent.uk" {
		t.Fatalf("operator: expected 200, got %d %s", w.Code, w.Body.String())
	}
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	engine := newEngine(nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/echo", nil)
	req.Header.Set("Origin", "https://tinytalent.uk")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://tinytalent.uk" {
		t.Fatalf("expected configured origin to be allowed, got %q", got)
	}
}
