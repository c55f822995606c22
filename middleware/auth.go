package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/Manish-456/eatsy-backend/common/errors"
	"github.com/Manish-456/eatsy-backend/common/logger"
	"github.com/Manish-456/eatsy-backend/repository"
	"github.com/MicahParks/keyfunc"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

// Context keys set by the identity middleware.
const (
	Auth0IDKey = "auth0Id"
	EmailKey   = "email"
	UserIDKey  = "userId"
)

// AuthConfig describes how access tokens from the identity provider are
// verified.
type AuthConfig struct {
	Audience   string
	Issuer     string
	SigningAlg string
	// SigningSecret is used for HS* algorithms.
	SigningSecret string
	// PublicKeyPEM pins the RS* verification key. When empty the keys are
	// fetched from JWKSURL, or from the issuer's well-known JWKS document.
	PublicKeyPEM string
	JWKSURL      string
}

// jwksPath is where the identity provider publishes its signing keys.
const jwksPath = "/.well-known/jwks.json"

// Authenticator verifies bearer tokens and resolves them to stored users.
type Authenticator struct {
	audience string
	issuer   string
	alg      string
	keyFunc  jwt.Keyfunc
	jwks     *keyfunc.JWKS
	users    repository.UserRepository
	logger   *zap.Logger
}

func NewAuthenticator(ctx context.Context, cfg AuthConfig, users repository.UserRepository, logger *zap.Logger) (*Authenticator, error) {
	alg := strings.ToUpper(strings.TrimSpace(cfg.SigningAlg))
	if alg == "" {
		alg = "RS256"
	}
	if jwt.GetSigningMethod(alg) == nil {
		return nil, fmt.Errorf("unsupported token signing algorithm %q", alg)
	}

	a := &Authenticator{
		audience: cfg.Audience,
		issuer:   strings.TrimRight(cfg.Issuer, "/"),
		alg:      alg,
		users:    users,
		logger:   logger,
	}

	switch {
	case strings.HasPrefix(alg, "HS"):
		if cfg.SigningSecret == "" {
			return nil, fmt.Errorf("%s requires a signing secret", alg)
		}
		secret := []byte(cfg.SigningSecret)
		a.keyFunc = func(*jwt.Token) (interface{}, error) { return secret, nil }
	case strings.HasPrefix(alg, "RS") && cfg.PublicKeyPEM != "":
		pub, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("parse identity provider public key: %w", err)
		}
		a.keyFunc = func(*jwt.Token) (interface{}, error) { return pub, nil }
	case strings.HasPrefix(alg, "RS"):
		url := cfg.JWKSURL
		if url == "" {
			if a.issuer == "" {
				return nil, errors.New("RS* verification needs a public key, a JWKS url or an issuer")
			}
			url = a.issuer + jwksPath
		}
		jwks, err := keyfunc.Get(url, keyfunc.Options{
			Ctx:               ctx,
			RefreshInterval:   time.Hour,
			RefreshRateLimit:  5 * time.Minute,
			RefreshTimeout:    10 * time.Second,
			RefreshUnknownKID: true,
			RefreshErrorHandler: func(err error) {
				logger.Warn("failed to refresh identity provider keys", zap.String("url", url), zap.Error(err))
			},
		})
		if err != nil {
			return nil, fmt.Errorf("fetch identity provider keys from %s: %w", url, err)
		}
		a.jwks = jwks
		a.keyFunc = jwks.Keyfunc
		logger.Info("Loaded identity provider keys", zap.String("url", url), zap.Int("keys", len(jwks.KIDs())))
	default:
		return nil, fmt.Errorf("unsupported token signing algorithm %q", alg)
	}
	return a, nil
}

// Close stops the background key refresh, if any.
func (a *Authenticator) Close() {
	if a.jwks != nil {
		a.jwks.EndBackground()
	}
}

// JWTCheck verifies the bearer token's signature, expiry, audience and
// issuer, and stores the subject under Auth0IDKey.
func (a *Authenticator) JWTCheck() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := a.verify(c.GetHeader("Authorization"))
		if err != nil {
			logger.For(c.Request.Context(), a.logger).Debug("rejected access token", zap.Error(err))
			apperrors.Write(c, apperrors.Unauthenticated("Unauthorized"))
			return
		}

		sub, _ := claims["sub"].(string)
		c.Set(Auth0IDKey, sub)
		if email, ok := claims["email"].(string); ok {
			c.Set(EmailKey, email)
		}
		c.Next()
	}
}

// JWTParse maps the verified subject to the stored user. It must run after
// JWTCheck.
func (a *Authenticator) JWTParse() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth0ID := c.GetString(Auth0IDKey)
		if auth0ID == "" {
			apperrors.Write(c, apperrors.Unauthenticated("Unauthorized"))
			return
		}

		user, err := a.users.FindByAuth0ID(c.Request.Context(), auth0ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				apperrors.Write(c, apperrors.ErrUserNotFound)
				return
			}
			apperrors.Write(c, apperrors.Internal("Error resolving user", err))
			return
		}

		c.Set(UserIDKey, user.ID)
		c.Next()
	}
}

func (a *Authenticator) verify(header string) (jwt.MapClaims, error) {
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, errors.New("missing bearer token")
	}
	raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if raw == "" {
		return nil, errors.New("empty bearer token")
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != a.alg {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.keyFunc(t)
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token: %w", err)
	}

	if a.audience != "" && !claims.VerifyAudience(a.audience, true) {
		return nil, errors.New("audience mismatch")
	}
	if a.issuer != "" {
		iss, _ := claims["iss"].(string)
		if strings.TrimRight(iss, "/") != a.issuer {
			return nil, errors.New("issuer mismatch")
		}
	}
	if sub, _ := claims["sub"].(string); sub == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// GetUserID returns the internal user id set by JWTParse.
func GetUserID(c *gin.Context) (string, error) {
	if id := c.GetString(UserIDKey); id != "" {
		return id, nil
	}
	return "", errors.New("user ID not found in context")
}

// GetAuth0ID returns the token subject set by JWTCheck.
func GetAuth0ID(c *gin.Context) (string, error) {
	if id := c.GetString(Auth0IDKey); id != "" {
		return id, nil
	}
	return "", errors.New("identity not found in context")
}
