package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Daltonopenclaw/agent-forge/internal/config"
	"github.com/Daltonopenclaw/agent-forge/internal/domain"
)

// jwtVerifier implements domain.TokenVerifier with HMAC-signed JWTs.
type jwtVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a verifier for platform-issued bearer tokens.
func NewJWTVerifier(cfg config.JWTConfig) domain.TokenVerifier {
	return &jwtVerifier{secret: []byte(cfg.Secret)}
}

func (v *jwtVerifier) VerifyBearerToken(ctx context.Context, token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", domain.ErrUnauthorized
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return "", domain.ErrUnauthorized
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", domain.ErrUnauthorized
	}
	return subject, nil
}
