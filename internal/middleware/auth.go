package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/foxxcyber/family-organizer/internal/config"
	"github.com/foxxcyber/family-organizer/internal/models"
)

const identityKey = "identity"

// IdentityClaims are the claims the identity provider puts in its tokens.
// The subject is the provider's user id.
type IdentityClaims struct {
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	jwt.RegisteredClaims
}

// AuthRequired middleware checks for a valid bearer token and stores the
// caller's identity in the request context
func AuthRequired(cfg *config.Config) fiber.Handler {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if cfg.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.JWTIssuer))
	}
	if cfg.JWTAudience != "" {
		opts = append(opts, jwt.WithAudience(cfg.JWTAudience))
	}
	parser := jwt.NewParser(opts...)

	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return unauthorized(c, "missing authorization header")
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return unauthorized(c, "invalid authorization format")
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		token, err := parser.ParseWithClaims(tokenString, &IdentityClaims{}, func(token *jwt.Token) (interface{}, error) {
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil {
			return unauthorized(c, "invalid or expired token")
		}

		claims, ok := token.Claims.(*IdentityClaims)
		if !ok || !token.Valid || claims.Subject == "" {
			return unauthorized(c, "invalid token claims")
		}

		c.Locals(identityKey, models.Identity{
			ExternalID: claims.Subject,
			Email:      claims.Email,
			FirstName:  claims.GivenName,
			LastName:   claims.FamilyName,
		})

		return c.Next()
	}
}

// GetIdentity extracts the caller's identity from the context
func GetIdentity(c *fiber.Ctx) (models.Identity, bool) {
	id, ok := c.Locals(identityKey).(models.Identity)
	return id, ok && id.ExternalID != ""
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}
