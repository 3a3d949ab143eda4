package middleware

import (
	"errors"
	"strings"

	"lifelessons/backend/access"
	"lifelessons/backend/identity"
	"lifelessons/backend/store"
	"lifelessons/backend/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	localsClaims = "claims"
	localsUserID = "userID"
)

// Authenticate verifies the bearer token, resolves it to an account and
// stores the account id in the request locals. Handlers re-read the account
// when they need its role or premium flag. With required=false a request
// without a token continues as anonymous.
func Authenticate(verifier identity.Verifier, identifier *access.Identifier, logger *zap.Logger, required bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			if required {
				return utils.Unauthorized(c, "No token provided")
			}
			return c.Next()
		}

		claims, err := verifier.Verify(c.UserContext(), token)
		if err != nil {
			return utils.Unauthorized(c, "Invalid or expired token")
		}

		user, err := identifier.Identify(c.UserContext(), claims)
		if err != nil {
			if errors.Is(err, store.ErrConflict) {
				return utils.Conflict(c, "An account with this email already exists")
			}
			logger.Error("identify failed", zap.String("uid", claims.Subject), zap.Error(err))
			return utils.InternalServerError(c, "Could not load account")
		}

		c.Locals(localsClaims, claims)
		c.Locals(localsUserID, user.ID)
		return c.Next()
	}
}

func AuthMiddleware(verifier identity.Verifier, identifier *access.Identifier, logger *zap.Logger) fiber.Handler {
	return Authenticate(verifier, identifier, logger, true)
}

func OptionalAuthMiddleware(verifier identity.Verifier, identifier *access.Identifier, logger *zap.Logger) fiber.Handler {
	return Authenticate(verifier, identifier, logger, false)
}

// AdminMiddleware reads the caller's role from the directory on every
// request.
func AdminMiddleware(users *store.UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := UserID(c)
		if !ok {
			return utils.Unauthorized(c, "Unauthorized")
		}

		user, err := users.FindByID(c.UserContext(), userID)
		if err != nil {
			return utils.Unauthorized(c, "Unauthorized")
		}
		if !access.AuthorizeAdminAction(user).Allowed() {
			return utils.Forbidden(c, "Admin access required")
		}

		return c.Next()
	}
}

// UserID returns the authenticated account id, if any.
func UserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(localsUserID).(uint)
	return id, ok && id != 0
}

func Claims(c *fiber.Ctx) *identity.Claims {
	claims, _ := c.Locals(localsClaims).(*identity.Claims)
	return claims
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	header := c.Get(fiber.HeaderAuthorization)
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}
