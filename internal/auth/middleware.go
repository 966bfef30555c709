package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grievance-service/internal/config"
	"github.com/spec-kit/grievance-service/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated admin caller.
type Principal struct {
	Subject string
	Role    string
}

// AdminMiddleware guards the admin surface. Callers present either the
// shared X-Admin-Secret header or a bearer token minted by the session
// endpoint.
type AdminMiddleware struct {
	cfg    config.AdminConfig
	tokens *TokenManager
}

// NewAdminMiddleware constructs middleware.
func NewAdminMiddleware(cfg config.AdminConfig, tokens *TokenManager) *AdminMiddleware {
	return &AdminMiddleware{cfg: cfg, tokens: tokens}
}

// Handle enforces authentication for admin routes.
func (m *AdminMiddleware) Handle(c *fiber.Ctx) error {
	if secret := c.Get("X-Admin-Secret"); secret != "" {
		if !VerifySecret(secret, m.cfg.Secret, m.cfg.SecretBcryptHash) {
			return util.NewUnauthorized("invalid admin credentials")
		}
		c.Locals(principalKey, &Principal{Subject: "admin", Role: RoleAdmin})
		return c.Next()
	}

	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return util.NewUnauthorized("missing admin credentials")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return util.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return util.NewUnauthorized("invalid token")
	}
	if claims.Role != RoleAdmin {
		return util.NewForbidden("admin role required")
	}

	c.Locals(principalKey, &Principal{Subject: claims.Subject, Role: claims.Role})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
