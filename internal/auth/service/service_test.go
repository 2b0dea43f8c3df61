package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"talent_intake_backend/platform/httpkit"
	"talent_intake_backend/platform/logger"
	"talent_intake_backend/platform/password"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type authConfig struct {
	hash string
}

func (authConfig) GetJWTAccessSecret() string        { return "test-secret" }
func (authConfig) GetAccessTokenTTL() time.Duration  { return 15 * time.Minute }
func (authConfig) GetOperatorEmail() string          { return "Ops@TinyTalent.uk" }
func (c authConfig) GetOperatorPasswordHash() string { return c.hash }

func newTestService(t *testing.T) *Service {
	t.Helper()
	hash, err := password.Hash("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return New(authConfig{hash: hash}, logger.NewDiscard())
}

func TestSignInIssuesOperatorToken(t *testing.T) {
	svc := newTestService(t)
	issuedAt := time.Now().Truncate(time.Second)
	svc.now = func() time.Time { return issuedAt }

	resp, err := svc.SignIn(context.Background(), " ops@tinytalent.uk ", "correct horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ExpiresIn != 900 {
		t.Fatalf("expected 900s expiry, got %d", resp.ExpiresIn)
	}

	parsed, err := jwt.Parse(resp.AccessToken, func(*jwt.Token) (interface{}, error) { return []byte("test-secret"), nil })
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["sub"] != "ops@tinytalent.uk" || claims["type"] != "access" {
		t.Fatalf("unexpected claims %v", claims)
	}
	if exp, _ := claims.GetExpirationTime(); !exp.Equal(issuedAt.Add(15 * time.Minute)) {
		t.Fatalf("unexpected expiry %v", exp)
	}
}

func TestSignInTokenPassesAdminMiddleware(t *testing.T) {
	svc := newTestService(t)
	resp, err := svc.SignIn(context.Background(), "ops@tinytalent.uk", "correct horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", httpkit.AuthRequired(authConfig{}), httpkit.RequireRole(httpkit.RoleOperator), func(c *gin.Context) {
		c.String(http.StatusOK, httpkit.GetIdentity(c).Subject())
	})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || w.Body.String() != "ops@tinytalent.uk" {
		t.Fatalf("expected operator access, got %d %s", w.Code, w.Body.String())
	}
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	svc := newTestService(t)

	cases := map[string][2]string{
		"wrong password": {"ops@tinytalent.uk", "battery staple"},
		"unknown email":  {"someone@else.uk", "correct horse"},
	}
	for name, creds := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.SignIn(context.Background(), creds[0], creds[1])
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected invalid credentials, got %v", err)
			}
		})
	}
}

func TestSignInWithoutConfiguredOperator(t *testing.T) {
	svc := New(authConfig{}, logger.NewDiscard())

	_, err := svc.SignIn(context.Background(), "ops@tinytalent.uk", "")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}
