package handlers

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/streetsweepai/streetsweep-service/internal/api/dto"
	"github.com/streetsweepai/streetsweep-service/internal/auth"
	"github.com/streetsweepai/streetsweep-service/internal/domain"
	"github.com/streetsweepai/streetsweep-service/internal/service"
	apperrors "github.com/streetsweepai/streetsweep-service/pkg/util"
)

// TicketsHandler exposes the ticket lifecycle endpoints.
type TicketsHandler struct {
	tickets *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets}
}

// Create handles POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ImageURL == "" && req.ImageBase64 == "" {
		return apperrors.NewValidationError("image_url or image_base64 required", nil)
	}

	input := service.CreateTicketInput{
		ImageURL:    req.ImageURL,
		Location:    domain.Location{Lat: req.Location.Lat, Lon: req.Location.Lon},
		Severity:    req.Severity,
		Description: req.Description,
		Claimed:     req.Claimed,
	}
	if req.ImageBase64 != "" {
		image, err := decodeImageBase64(req.ImageBase64)
		if err != nil {
			return apperrors.NewValidationError("image_base64 is not valid base64", nil)
		}
		input.Image = image
		input.ImageURL = ""
	}

	ticket, err := h.tickets.CreateTicket(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.TicketFromDomain(*ticket))
}

// List handles GET /tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	tickets, err := h.tickets.ListTickets(c.UserContext())
	if err != nil {
		return err
	}
	responses := make([]dto.TicketResponse, 0, len(tickets))
	for _, ticket := range tickets {
		responses = append(responses, dto.TicketFromDomain(ticket))
	}
	return c.JSON(fiber.Map{"tickets": responses})
}

// Get handles GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	ticket, err := h.tickets.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketFromDomain(*ticket))
}

// Resolve handles POST /tickets/:id/resolve. The credited user is the
// one named in the body, falling back to the authenticated caller.
func (h *TicketsHandler) Resolve(c *fiber.Ctx) error {
	var req dto.ResolveTicketRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}

	userID := req.UserID
	if userID == nil {
		if principal, ok := auth.PrincipalFromContext(c); ok {
			id := principal.User.ID
			userID = &id
		}
	}

	ticketID := c.Params("id")
	resolved, err := h.tickets.ResolveTicket(c.UserContext(), ticketID, userID)
	if err != nil {
		return err
	}
	if !resolved {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	return c.JSON(fiber.Map{
		"message":   "Ticket resolved",
		"ticket_id": ticketID,
		"resolved":  true,
	})
}

// decodeImageBase64 accepts both bare base64 and data URIs
// (data:image/png;base64,...).
func decodeImageBase64(encoded string) ([]byte, error) {
	if idx := strings.Index(encoded, ","); idx >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[idx+1:]
	}
	return base64.StdEncoding.DecodeString(encoded)
}
