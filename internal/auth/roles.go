package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/ticketbooth/eventpass/pkg/util/errorutil"
)

// IsAuthenticated reports whether the caller holds a live session.
func IsAuthenticated(p *Principal) bool {
	return p != nil && p.User != nil
}

// IsAdmin reports whether the caller's account holds the admin role.
func IsAdmin(p *Principal) bool {
	return IsAuthenticated(p) && p.User.IsAdmin()
}

// RequireSession sends anonymous page views to the login form and rejects
// anonymous submissions.
func RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromContext(c)
		if IsAuthenticated(principal) {
			return c.Next()
		}
		if c.Method() == fiber.MethodGet {
			return c.Redirect("/login", http.StatusSeeOther)
		}
		return apperrors.NewForbidden("Login required")
	}
}

// RequireAdmin rejects callers without the admin role.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromContext(c)
		if !IsAdmin(principal) {
			return apperrors.NewForbidden("Access Denied")
		}
		return c.Next()
	}
}
