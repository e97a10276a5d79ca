package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ticketbooth/eventpass/internal/api/dto"
	"github.com/ticketbooth/eventpass/internal/auth"
	"github.com/ticketbooth/eventpass/internal/service"
	apperrors "github.com/ticketbooth/eventpass/pkg/util/errorutil"
)

// AdminHandler serves account administration. Routes are admin-gated.
type AdminHandler struct {
	accounts *service.AccountService
	logger   *zap.Logger
}

// NewAdminHandler constructs handler.
func NewAdminHandler(accounts *service.AccountService, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{accounts: accounts, logger: logger}
}

// ListUsers handles GET /admin.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.accounts.List(c.UserContext())
	if err != nil {
		return err
	}
	if wantsJSON(c) {
		items := make([]dto.UserSummary, 0, len(users))
		for _, u := range users {
			items = append(items, dto.UserSummary{Username: u.Username, Name: u.Name, Email: u.Email, Role: string(u.Role)})
		}
		return c.JSON(fiber.Map{"data": items})
	}
	data := pageContext(c)
	data["users"] = users
	return c.Render("admin", data)
}

// EditPage handles GET /admin/edit?username=.
func (h *AdminHandler) EditPage(c *fiber.Ctx) error {
	username := c.Query("username")
	if username == "" {
		return apperrors.NewValidationError("User not specified", nil)
	}
	user, err := h.accounts.Get(c.UserContext(), username)
	if err != nil {
		return err
	}
	return c.Render("admin_edit_user", fiber.Map{
		"username": user.Username,
		"name":     user.Name,
		"email":    user.Email,
	})
}

// EditUser handles POST /admin/edit.
func (h *AdminHandler) EditUser(c *fiber.Ctx) error {
	var req dto.EditUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Username == "" || req.NewName == "" || req.NewEmail == "" || req.NewPassword == "" {
		return apperrors.NewValidationError("username, new_name, new_email, new_password required", nil)
	}

	_, err := h.accounts.Edit(c.UserContext(), req.Username, service.EditInput{
		Name:     req.NewName,
		Email:    req.NewEmail,
		Password: req.NewPassword,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).SendString("User details updated successfully")
}

// DeleteUser handles GET /admin/delete?username= and removes the account
// together with its purchases.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	username := c.Query("username")
	if username == "" {
		return apperrors.NewValidationError("User not specified", nil)
	}
	if principal, ok := auth.PrincipalFromContext(c); ok && principal.User != nil && principal.User.Username == username {
		return apperrors.NewConflict("You cannot delete your own account", map[string]any{"username": username})
	}
	removed, err := h.accounts.Delete(c.UserContext(), username)
	if err != nil {
		return err
	}
	h.logger.Info("user deleted", zap.String("username", username), zap.Int("tickets_removed", removed))
	return c.Redirect("/admin", http.StatusSeeOther)
}
