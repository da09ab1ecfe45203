package api

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/t77yq/alert-dashboard/internal/apperr"
	"github.com/t77yq/alert-dashboard/internal/config"
)

const (
	bearerPrefix = "Bearer "
	claimsKey    = "jwt_claims"
	clockSkew    = 30 * time.Second
)

var (
	ErrTokenMissing         = errors.New("token missing")
	ErrTokenInvalid         = errors.New("token invalid")
	ErrTokenExpired         = errors.New("token expired")
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")
	ErrKeyLoad              = errors.New("failed to load verification key")
)

// TokenValidator verifies access tokens issued by the identity provider
type TokenValidator struct {
	key    any
	parser *jwt.Parser
}

// NewTokenValidator builds a validator for HS256 shared secrets or RS256
// public keys read from a PEM file.
func NewTokenValidator(cfg config.AuthConfig) (*TokenValidator, error) {
	var key any
	switch cfg.Algorithm {
	case jwt.SigningMethodHS256.Alg():
		if cfg.Secret == "" {
			return nil, fmt.Errorf("%w: empty secret", ErrKeyLoad)
		}
		key = []byte(cfg.Secret)
	case jwt.SigningMethodRS256.Alg():
		data, err := os.ReadFile(cfg.PublicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeyLoad, err)
		}
		pub, err := jwt.ParseRSAPublicKeyFromPEM(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeyLoad, err)
		}
		key = pub
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, cfg.Algorithm)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{cfg.Algorithm}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return &TokenValidator{
		key:    key,
		parser: jwt.NewParser(opts...),
	}, nil
}

// Validate checks the Authorization header value and returns the token claims
func (v *TokenValidator) Validate(header string) (*jwt.RegisteredClaims, error) {
	token := extractBearer(header)
	if token == "" {
		return nil, ErrTokenMissing
	}

	claims := &jwt.RegisteredClaims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	return claims, nil
}

func extractBearer(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}

// authenticate rejects requests without a valid bearer token
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := s.auth.Validate(c.GetHeader("Authorization"))
		if err != nil {
			message := "Invalid access token"
			switch {
			case errors.Is(err, ErrTokenMissing):
				message = "Missing access token"
			case errors.Is(err, ErrTokenExpired):
				message = "Access token expired"
			}
			c.Header("WWW-Authenticate", "Bearer")
			s.writeError(c, apperr.New(apperr.CodeAuthentication, message, err))
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// claimsFrom returns the claims stored by authenticate, if any
func claimsFrom(c *gin.Context) (*jwt.RegisteredClaims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*jwt.RegisteredClaims)
	return claims, ok
}
