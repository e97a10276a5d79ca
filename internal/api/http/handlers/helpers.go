package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ticketbooth/eventpass/internal/auth"
)

// wantsJSON reports whether the client asked for JSON rather than a page.
func wantsJSON(c *fiber.Ctx) bool {
	return c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON
}

// pageContext is the base binding shared by authenticated pages.
func pageContext(c *fiber.Ctx) fiber.Map {
	principal, _ := auth.PrincipalFromContext(c)
	data := fiber.Map{}
	if auth.IsAuthenticated(principal) {
		data["username"] = principal.User.Username
		data["admin"] = auth.IsAdmin(principal)
	}
	return data
}
