package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/dreamer-zq/savekit/internal/config"
)

// AuthContext contains authentication information
type AuthContext struct {
	// Authenticated indicates if the request is authenticated
	Authenticated bool
	// UserID is the token subject
	UserID string
	// Roles contains user roles
	Roles []string
}

// Authenticator validates bearer tokens
type Authenticator interface {
	// Authenticate validates the JWT token
	Authenticate(ctx context.Context, token string) (*AuthContext, error)

	// Enabled checks if authentication is enabled
	Enabled() bool
}

var signingMethods = []string{
	jwt.SigningMethodHS256.Alg(),
	jwt.SigningMethodHS384.Alg(),
	jwt.SigningMethodHS512.Alg(),
}

type authenticator struct {
	config config.AuthConfig
	parser *jwt.Parser
	logger *zap.Logger
}

// NewAuthenticator creates an HMAC JWT authenticator
func NewAuthenticator(cfg config.AuthConfig, logger *zap.Logger) Authenticator {
	opts := []jwt.ParserOption{jwt.WithValidMethods(signingMethods)}
	if cfg.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.JWTIssuer))
	}
	return &authenticator{
		config: cfg,
		parser: jwt.NewParser(opts...),
		logger: logger,
	}
}

// Authenticate validates the token. Tokens without an exp claim never expire.
func (a *authenticator) Authenticate(_ context.Context, token string) (*AuthContext, error) {
	if !a.config.Enabled {
		return &AuthContext{Authenticated: true}, nil
	}

	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return nil, errors.New("JWT token is required")
	}

	claims := jwt.MapClaims{}
	parsed, err := a.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(a.config.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT token: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("invalid JWT token")
	}

	sub, _ := claims.GetSubject()
	var roles []string
	if list, ok := claims["roles"].([]any); ok {
		for _, r := range list {
			if s, ok := r.(string); ok {
				roles = append(roles, s)
			}
		}
	}

	return &AuthContext{
		Authenticated: true,
		UserID:        sub,
		Roles:         roles,
	}, nil
}

func (a *authenticator) Enabled() bool {
	return a.config.Enabled
}

// IssueToken signs an HS256 token for subject. A zero ttl issues a token without expiry.
func IssueToken(cfg config.AuthConfig, subject string, roles []string, ttl time.Duration) (string, error) {
	if cfg.JWTSecret == "" {
		return "", errors.New("JWT secret is not configured")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   subject,
		"iat":   now.Unix(),
		"roles": roles,
	}
	if cfg.JWTIssuer != "" {
		claims["iss"] = cfg.JWTIssuer
	}
	if ttl > 0 {
		claims["exp"] = now.Add(ttl).Unix()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
}

type authContextKey struct{}

// GetAuthContext retrieves the auth context from the request context
func GetAuthContext(ctx context.Context) (*AuthContext, bool) {
	authCtx, ok := ctx.Value(authContextKey{}).(*AuthContext)
	return authCtx, ok
}

// SetAuthContext sets the auth context in the request context
func SetAuthContext(ctx context.Context, authCtx *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, authCtx)
}
