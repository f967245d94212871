package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

type stubRevocations struct {
	revoked map[string]bool
	err     error
}

func (s stubRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	return s.revoked[jti], s.err
}

func signToken(t *testing.T, secret string, mutate func(*jwt.RegisteredClaims)) string {
	t.Helper()
	now := time.Now()
	claims := &jwt.RegisteredClaims{
		Subject:   "123",
		Issuer:    TokenIssuer,
		Audience:  jwt.ClaimStrings{TokenAudience},
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now.Add(-time.Minute)),
		ID:        "jti-1",
	}
	if mutate != nil {
		mutate(claims)
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestParseToken(t *testing.T) {
	t.Parallel()

	claims, err := ParseToken(testSecret, signToken(t, testSecret, nil))
	require.NoError(t, err)
	assert.Equal(t, uint(123), claims.UserID)
	assert.Equal(t, "jti-1", claims.JTI)
	assert.False(t, claims.ExpiresAt.IsZero())

	bad := map[string]string{
		"wrong secret":   signToken(t, "other-secret", nil),
		"wrong issuer":   signToken(t, testSecret, func(c *jwt.RegisteredClaims) { c.Issuer = "someone" }),
		"wrong audience": signToken(t, testSecret, func(c *jwt.RegisteredClaims) { c.Audience = jwt.ClaimStrings{"x"} }),
		"expired": signToken(t, testSecret, func(c *jwt.RegisteredClaims) {
			c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
		}),
		"no expiry":   signToken(t, testSecret, func(c *jwt.RegisteredClaims) { c.ExpiresAt = nil }),
		"bad subject": signToken(t, testSecret, func(c *jwt.RegisteredClaims) { c.Subject = "abc" }),
		"zero user":   signToken(t, testSecret, func(c *jwt.RegisteredClaims) { c.Subject = "0" }),
		"garbage":     "malformed.token.here",
	}
	for name, token := range bad {
		_, err := ParseToken(testSecret, token)
		assert.Error(t, err, name)
	}
}

func TestAuthRequired(t *testing.T) {
	app := fiber.New()
	app.Get("/test", AuthRequired(AuthConfig{
		Secret:      testSecret,
		Revocations: stubRevocations{revoked: map[string]bool{"revoked-jti": true}},
	}), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userID": c.Locals("userID"), "jti": c.Locals("jti")})
	})

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{"Happy Path", "Bearer " + signToken(t, testSecret, nil), http.StatusOK},
		{"Missing Header", "", http.StatusUnauthorized},
		{"Invalid Format", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"Malformed Token", "Bearer malformed.token.here", http.StatusUnauthorized},
		{"Expired Token", "Bearer " + signToken(t, testSecret, func(c *jwt.RegisteredClaims) {
			c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
		}), http.StatusUnauthorized},
		{"Revoked Token", "Bearer " + signToken(t, testSecret, func(c *jwt.RegisteredClaims) {
			c.ID = "revoked-jti"
		}), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]interface{}
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, float64(123), body["userID"])
				assert.Equal(t, "jti-1", body["jti"])
			}
		})
	}
}

func TestAuthRequired_RevocationStoreDown(t *testing.T) {
	app := fiber.New()
	app.Get("/test", AuthRequired(AuthConfig{
		Secret:      testSecret,
		Revocations: stubRevocations{err: errors.New("connection refused")},
	}), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, nil))
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestOptionalAuth(t *testing.T) {
	app := fiber.New()
	app.Get("/test", OptionalAuth(AuthConfig{Secret: testSecret}), func(c *fiber.Ctx) error {
		uid, _ := c.Locals("userID").(uint)
		return c.SendString(strconv.FormatUint(uint64(uid), 10))
	})

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedBody   string
	}{
		{"Anonymous", "", http.StatusOK, "0"},
		{"Authenticated", "Bearer " + signToken(t, testSecret, nil), http.StatusOK, "123"},
		{"Bad Header", "Token abc", http.StatusUnauthorized, ""},
		{"Bad Token", "Bearer nope", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedBody != "" {
				buf := make([]byte, 16)
				n, _ := resp.Body.Read(buf)
				assert.Equal(t, tt.expectedBody, string(buf[:n]))
			}
		})
	}
}
