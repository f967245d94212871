package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Token claim values shared by the issuer and the verifier.
const (
	TokenIssuer   = "blog-api"
	TokenAudience = "blog-client"
)

var (
	errMissingToken = errors.New("authorization header required")
	errBadHeader    = errors.New("invalid authorization header format")
)

// RevocationChecker reports whether a token id was revoked before its expiry.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// AuthConfig configures token verification.
type AuthConfig struct {
	Secret      string
	Revocations RevocationChecker
}

// TokenClaims is the verified content of an access token.
type TokenClaims struct {
	UserID    uint
	JTI       string
	ExpiresAt time.Time
}

// ParseToken verifies signature, issuer, audience and time claims and extracts the subject.
func ParseToken(secret, tokenString string) (*TokenClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	// sub is the user id per RFC 7519
	userID, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || userID == 0 {
		return nil, errors.New("invalid user ID in token")
	}

	out := &TokenClaims{UserID: uint(userID), JTI: claims.ID}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", errMissingToken
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", errBadHeader
	}
	return parts[1], nil
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": msg,
		"code":  "UNAUTHORIZED",
	})
}

// authenticate verifies the bearer token and stores userID, jti and tokenExp in locals.
func authenticate(c *fiber.Ctx, cfg AuthConfig, tokenString string) error {
	claims, err := ParseToken(cfg.Secret, tokenString)
	if err != nil {
		return unauthorized(c, "Invalid or expired token")
	}

	if cfg.Revocations != nil && claims.JTI != "" {
		revoked, err := cfg.Revocations.IsRevoked(c.UserContext(), claims.JTI)
		if err != nil {
			// Revocation store down: the signature and expiry checks still hold.
			Logger.WarnContext(c.UserContext(), "token revocation check failed",
				slog.String("error", err.Error()))
		} else if revoked {
			return unauthorized(c, "Token has been revoked")
		}
	}

	c.Locals("userID", claims.UserID)
	c.Locals("jti", claims.JTI)
	c.Locals("tokenExp", claims.ExpiresAt)
	// Sync to UserContext for logging and downstream services
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, claims.UserID))
	return c.Next()
}

// AuthRequired rejects requests without a valid bearer token.
func AuthRequired(cfg AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := bearerToken(c)
		if err != nil {
			if errors.Is(err, errMissingToken) {
				return unauthorized(c, "Authorization header required")
			}
			return unauthorized(c, "Invalid authorization header format")
		}
		return authenticate(c, cfg, tokenString)
	}
}

// OptionalAuth identifies the caller when a token is present and lets anonymous requests through.
// A present but invalid token is still rejected.
func OptionalAuth(cfg AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := bearerToken(c)
		if errors.Is(err, errMissingToken) {
			return c.Next()
		}
		if err != nil {
			return unauthorized(c, "Invalid authorization header format")
		}
		return authenticate(c, cfg, tokenString)
	}
}
