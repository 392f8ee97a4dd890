package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/mockpay/internal/apperr"
	"github.com/congo-pay/mockpay/internal/auth"
	"github.com/congo-pay/mockpay/internal/users"
)

const (
	currentUserKey = "current_user"
	userIDKey      = "user_id"

	msgCouldNotValidate = "Could not validate credentials"
)

// UserLookup resolves a token subject to a user. Missing users must be
// reported as an apperr NotFound error.
type UserLookup interface {
	Get(ctx context.Context, id string) (users.User, error)
}

// Protect requires a valid bearer token whose subject still exists. Any token
// failure is Unauthorized; a valid token for a deleted user is NotFound.
func Protect(tokens *auth.TokenService, lookup UserLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if len(authz) < len("Bearer ") || !strings.EqualFold(authz[:len("Bearer ")], "bearer ") {
			return apperr.Unauthorized(msgCouldNotValidate)
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])

		subject, err := tokens.Verify(tokenStr)
		if err != nil {
			return apperr.Unauthorized(msgCouldNotValidate)
		}

		user, err := lookup.Get(c.UserContext(), subject)
		if err != nil {
			return err
		}

		SetCurrentUser(c, user)
		return c.Next()
	}
}

// SetCurrentUser stores the authenticated user on the request.
func SetCurrentUser(c *fiber.Ctx, user users.User) {
	c.Locals(currentUserKey, user)
	c.Locals(userIDKey, user.ID)
}

// CurrentUser returns the user stored by Protect.
func CurrentUser(c *fiber.Ctx) (users.User, bool) {
	user, ok := c.Locals(currentUserKey).(users.User)
	return user, ok
}
