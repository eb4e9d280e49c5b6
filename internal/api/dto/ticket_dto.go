package dto

import (
	"time"

	"github.com/streetsweepai/streetsweep-service/internal/domain"
)

// CreateTicketRequest payload. Exactly one of ImageURL or ImageBase64 is
// expected; ImageBase64 may carry a data URI prefix.
type CreateTicketRequest struct {
	ImageURL    string          `json:"image_url"`
	ImageBase64 string          `json:"image_base64"`
	Location    LocationPayload `json:"location"`
	Severity    int             `json:"severity"`
	Description string          `json:"description"`
	Claimed     bool            `json:"claimed"`
}

// LocationPayload is a lat/lon pair.
type LocationPayload struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// TicketResponse is the serialized ticket.
type TicketResponse struct {
	ID          string          `json:"id"`
	ImageURL    string          `json:"image_url"`
	Location    LocationPayload `json:"location"`
	Severity    int             `json:"severity"`
	Description string          `json:"description"`
	Claimed     bool            `json:"claimed"`
	Resolved    bool            `json:"resolved"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ResolveTicketRequest payload. UserID optionally names the resolver to
// credit; when absent the authenticated caller is credited.
type ResolveTicketRequest struct {
	UserID *string `json:"user_id"`
}

// TicketFromDomain maps a domain ticket to its response form.
func TicketFromDomain(ticket domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          ticket.ID,
		ImageURL:    ticket.ImageURL,
		Location:    LocationPayload{Lat: ticket.Location.Lat, Lon: ticket.Location.Lon},
		Severity:    ticket.Severity,
		Description: ticket.Description,
		Claimed:     ticket.Claimed,
		Resolved:    ticket.Resolved,
		CreatedAt:   ticket.CreatedAt,
	}
}
