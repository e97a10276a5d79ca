package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ticketbooth/eventpass/internal/domain"
	"github.com/ticketbooth/eventpass/internal/repository"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	SessionID string
	User      *domain.User
}

// AuthMiddleware resolves the session cookie into a Principal. Requests
// without a valid session continue anonymously; the Require* guards decide.
type AuthMiddleware struct {
	cookieName string
	tokens     *TokenManager
	sessions   SessionStore
	users      repository.UserRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(cookieName string, tokens *TokenManager, sessions SessionStore, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{cookieName: cookieName, tokens: tokens, sessions: sessions, users: users}
}

// Handle loads the principal for the current request, if any.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	raw := c.Cookies(m.cookieName)
	if raw == "" {
		return c.Next()
	}

	claims, err := m.tokens.ParseToken(raw)
	if err != nil {
		return c.Next()
	}

	session, err := m.sessions.Get(c.UserContext(), claims.SessionID())
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return c.Next()
		}
		return err
	}
	if session.Username != claims.Username() {
		return c.Next()
	}

	// role and existence come from the account record, not the cookie
	user, err := m.users.GetByUsername(c.UserContext(), session.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.Next()
		}
		return err
	}

	c.Locals(principalKey, &Principal{SessionID: session.ID, User: user})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok && principal != nil
}
