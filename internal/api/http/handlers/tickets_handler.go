package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/ticketbooth/eventpass/internal/api/dto"
	"github.com/ticketbooth/eventpass/internal/domain"
	"github.com/ticketbooth/eventpass/internal/service"
	apperrors "github.com/ticketbooth/eventpass/pkg/util/errorutil"
)

// TicketsHandler serves the purchase form and the purchase history.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// PurchasePage handles GET /register.
func (h *TicketsHandler) PurchasePage(c *fiber.Ctx) error {
	return c.Render("register", pageContext(c))
}

// Purchase handles POST /register and answers with the ticket document.
func (h *TicketsHandler) Purchase(c *fiber.Ctx) error {
	var req dto.PurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	purchase, err := h.service.Purchase(c.UserContext(), service.PurchaseInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Type:      req.Type,
	})
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, purchase.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, purchase.FileName))
	return c.Send(purchase.Document)
}

// History handles GET /purchase_history, optionally filtered by ?email=.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	email := c.Query("email")

	var (
		tickets []domain.Ticket
		err     error
	)
	if email != "" {
		tickets, err = h.service.ListByEmail(c.UserContext(), email)
	} else {
		tickets, err = h.service.ListAll(c.UserContext())
	}
	if err != nil {
		return err
	}

	if wantsJSON(c) {
		items := make([]dto.TicketSummary, 0, len(tickets))
		for i := range tickets {
			items = append(items, ticketSummary(&tickets[i]))
		}
		return c.JSON(fiber.Map{"data": items})
	}
	data := pageContext(c)
	data["tickets"] = tickets
	data["email"] = email
	return c.Render("purchase_history", data)
}

func ticketSummary(t *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:        t.ID,
		FirstName: t.FirstName,
		LastName:  t.LastName,
		Email:     t.Email,
		Type:      t.Type,
		CreatedAt: t.CreatedAt,
	}
}
