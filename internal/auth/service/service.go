// Package service issues operator access tokens. There is a single operator
// account configured through the environment; no user table exists.
package service

import (
	"context"
	"strings"
	"time"

	"talent_intake_backend/internal/auth/transport"
	"talent_intake_backend/platform/apperr"
	"talent_intake_backend/platform/config"
	"talent_intake_backend/platform/httpkit"
	"talent_intake_backend/platform/logger"
	"talent_intake_backend/platform/password"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidCredentials = apperr.Unauthorized("invalid credentials")

// dummyHash keeps the response time of an unknown email close to that of a wrong password.
var dummyHash, _ = password.Hash("not-the-operator-password")

type Service struct {
	cfg config.AuthServiceConfig
	log *logger.Logger
	now func() time.Time
}

func New(cfg config.AuthServiceConfig, log *logger.Logger) *Service {
	return &Service{cfg: cfg, log: log, now: time.Now}
}

// SignIn checks the operator credentials and returns a short-lived access token.
func (s *Service) SignIn(_ context.Context, email, plainPassword string) (transport.AuthResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	operator := strings.ToLower(strings.TrimSpace(s.cfg.GetOperatorEmail()))
	hash := s.cfg.GetOperatorPasswordHash()

	if operator == "" || hash == "" {
		s.log.AuthEvent("sign_in", email, false, "operator account not configured")
		return transport.AuthResponse{}, ErrInvalidCredentials
	}

	if email != operator {
		_ = password.Compare(dummyHash, plainPassword)
		s.log.AuthEvent("sign_in", email, false, "unknown email")
		return transport.AuthResponse{}, ErrInvalidCredentials
	}
	if err := password.Compare(hash, plainPassword); err != nil {
		s.log.AuthEvent("sign_in", email, false, "wrong password")
		return transport.AuthResponse{}, ErrInvalidCredentials
	}

	ttl := s.cfg.GetAccessTokenTTL()
	token, err := s.signJWT(operator, []string{httpkit.RoleOperator}, ttl)
	if err != nil {
		return transport.AuthResponse{}, apperr.Wrap(apperr.KindInternal, "Failed to issue token", err)
	}

	s.log.AuthEvent("sign_in", email, true, "")
	return transport.AuthResponse{AccessToken: token, ExpiresIn: int64(ttl.Seconds())}, nil
}

func (s *Service) signJWT(subject string, roles []string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   subject,
		"type":  httpkit.AccessTokenType,
		"roles": roles,
		"exp":   now.Add(ttl).Unix(),
		"iat":   now.Unix(),
	}

	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tokenObj.SignedString([]byte(s.cfg.GetJWTAccessSecret()))
}
