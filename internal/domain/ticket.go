package domain

import "time"

// TicketPriority enumerates cleanup urgency derived from severity.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
)

// Location is a latitude/longitude pair.
type Location struct {
	Lat float64
	Lon float64
}

// Ticket is a litter report tied to a hosted image.
//
// Resolved is a one-way transition: no operation un-resolves a ticket and
// no delete operation exists. Claimed is independent of Resolved.
type Ticket struct {
	ID          string
	ImageURL    string
	Location    Location
	Severity    int
	Description string
	Claimed     bool
	Resolved    bool
	CreatedAt   time.Time
}
