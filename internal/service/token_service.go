package service

import (
	"time"

	appErr "github.com/fwforge/fwportal/internal/pkg/errors"
	"github.com/fwforge/fwportal/internal/pkg/jwt"
)

// TokenService mints and validates self-contained session tokens. No
// token is stored server-side; validity is determined purely by the
// signature and expiry at presentation time.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(secret []byte, ttl time.Duration) *TokenService {
	return &TokenService{secret: secret, ttl: ttl}
}

func (s *TokenService) Mint(email, role string) (string, error) {
	return jwt.GenerateToken(email, role, s.secret, s.ttl)
}

// Validate returns the embedded email and role. Expired, forged and
// malformed tokens all map to the same error so the failure mode is not
// leaked to the caller.
func (s *TokenService) Validate(token string) (email, role string, err error) {
	claims, err := jwt.ParseToken(token, s.secret)
	if err != nil {
		return "", "", appErr.ErrUnauthorized
	}
	return claims.Email, claims.Role, nil
}
