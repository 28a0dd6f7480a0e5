package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxxcyber/family-organizer/internal/config"
	"github.com/foxxcyber/family-organizer/internal/models"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims IdentityClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func newTestApp(cfg *config.Config, seen *models.Identity) *fiber.App {
	app := fiber.New()
	app.Get("/me", AuthRequired(cfg), func(c *fiber.Ctx) error {
		id, ok := GetIdentity(c)
		if !ok {
			return c.SendStatus(fiber.StatusTeapot)
		}
		*seen = id
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func validClaims() IdentityClaims {
	return IdentityClaims{
		Email:      "sam@example.com",
		GivenName:  "Sam",
		FamilyName: "Rivera",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user_123",
			Issuer:    "https://id.example.com",
			Audience:  jwt.ClaimStrings{"family-organizer"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestAuthRequired(t *testing.T) {
	cfg := &config.Config{JWTSecret: testSecret}

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	noSubject := validClaims()
	noSubject.Subject = ""

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic abc", fiber.StatusUnauthorized},
		{"garbage token", "Bearer not-a-token", fiber.StatusUnauthorized},
		{"wrong secret", "Bearer " + signToken(t, "other", validClaims()), fiber.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, testSecret, expired), fiber.StatusUnauthorized},
		{"no subject", "Bearer " + signToken(t, testSecret, noSubject), fiber.StatusUnauthorized},
		{"valid", "Bearer " + signToken(t, testSecret, validClaims()), fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen models.Identity
			app := newTestApp(cfg, &seen)

			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestAuthRequiredSetsIdentity(t *testing.T) {
	var seen models.Identity
	app := newTestApp(&config.Config{JWTSecret: testSecret}, &seen)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, validClaims()))
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Equal(t, models.Identity{
		ExternalID: "user_123",
		Email:      "sam@example.com",
		FirstName:  "Sam",
		LastName:   "Rivera",
	}, seen)
}

func TestAuthRequiredIssuerAndAudience(t *testing.T) {
	cfg := &config.Config{
		JWTSecret:   testSecret,
		JWTIssuer:   "https://id.example.com",
		JWTAudience: "family-organizer",
	}

	wrongIssuer := validClaims()
	wrongIssuer.Issuer = "https://evil.example.com"

	wrongAudience := validClaims()
	wrongAudience.Audience = jwt.ClaimStrings{"someone-else"}

	for name, claims := range map[string]IdentityClaims{
		"wrong issuer":   wrongIssuer,
		"wrong audience": wrongAudience,
	} {
		t.Run(name, func(t *testing.T) {
			var seen models.Identity
			app := newTestApp(cfg, &seen)

			req := httptest.NewRequest("GET", "/me", nil)
			req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, claims))
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}

	var seen models.Identity
	app := newTestApp(cfg, &seen)
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, validClaims()))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
