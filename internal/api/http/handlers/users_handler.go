package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ticketbooth/eventpass/internal/api/dto"
	"github.com/ticketbooth/eventpass/internal/auth"
	"github.com/ticketbooth/eventpass/internal/service"
	apperrors "github.com/ticketbooth/eventpass/pkg/util/errorutil"
)

const registrationSucceeded = "Registration successful. Redirecting to home page..."

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// UsersHandler serves login, logout and self-registration.
type UsersHandler struct {
	auth     *service.AuthService
	accounts *service.AccountService
	cookie   CookieConfig
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, accounts *service.AccountService, cookie CookieConfig) *UsersHandler {
	return &UsersHandler{auth: authService, accounts: accounts, cookie: cookie}
}

// Home handles GET/POST /.
func (h *UsersHandler) Home(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	if auth.IsAuthenticated(principal) {
		return c.Redirect("/register", http.StatusSeeOther)
	}
	return c.Render("login", fiber.Map{})
}

// LoginPage handles GET /login.
func (h *UsersHandler) LoginPage(c *fiber.Ctx) error {
	return c.Render("login", fiber.Map{})
}

// Login handles POST /login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return apperrors.NewValidationError("username and password required", nil)
	}

	user, token, exp, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeUnauthorized) {
			return c.Status(http.StatusUnauthorized).Render("login", fiber.Map{
				"message": apperrors.ToDomainError(err).Message,
			})
		}
		return err
	}

	h.setSessionCookie(c, token, exp)
	if wantsJSON(c) {
		return c.JSON(fiber.Map{"data": fiber.Map{
			"user": dto.UserSummary{Username: user.Username, Name: user.Name, Email: user.Email, Role: string(user.Role)},
			"auth": fiber.Map{"expires_at": exp},
		}})
	}
	return c.Redirect("/register", http.StatusSeeOther)
}

// Logout handles POST /logout.
func (h *UsersHandler) Logout(c *fiber.Ctx) error {
	if err := h.auth.Logout(c.UserContext(), c.Cookies(h.cookie.Name)); err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect("/login", http.StatusSeeOther)
}

// RegisterPage handles GET /register_user.
func (h *UsersHandler) RegisterPage(c *fiber.Ctx) error {
	return c.Render("register_user", fiber.Map{})
}

// Register handles POST /register_user.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.accounts.Register(c.UserContext(), req.Username, req.Password, req.Email)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeConflict) {
			return c.Status(http.StatusConflict).Render("register_user", fiber.Map{
				"message": apperrors.ToDomainError(err).Message,
			})
		}
		return err
	}

	if wantsJSON(c) {
		return c.Status(http.StatusCreated).JSON(fiber.Map{
			"data": dto.UserSummary{Username: user.Username, Email: user.Email, Role: string(user.Role)},
		})
	}
	return c.Render("register_user", fiber.Map{
		"message":  registrationSucceeded,
		"redirect": true,
	})
}

func (h *UsersHandler) setSessionCookie(c *fiber.Ctx, token string, exp time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
