package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/streetsweepai/streetsweep-service/internal/domain"
)

// PostgresFeed subscribes to ticket inserts through LISTEN/NOTIFY. The
// tickets table carries an AFTER INSERT trigger that publishes each new
// row as JSON on the configured channel.
type PostgresFeed struct {
	pool    *pgxpool.Pool
	channel string
}

// NewPostgresFeed constructs the feed.
func NewPostgresFeed(pool *pgxpool.Pool, channel string) *PostgresFeed {
	if channel == "" {
		channel = "ticket_inserts"
	}
	return &PostgresFeed{pool: pool, channel: channel}
}

// Subscribe acquires a dedicated connection and starts listening. The
// connection is held for the lifetime of the subscription.
func (f *PostgresFeed) Subscribe(ctx context.Context) (Subscription, error) {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listen connection: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+f.channel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen on %s: %w", f.channel, err)
	}
	return &postgresSubscription{conn: conn}, nil
}

type postgresSubscription struct {
	conn *pgxpool.Conn
}

// ticketRow mirrors the flat row_to_json payload the insert trigger
// publishes.
type ticketRow struct {
	ID          string    `json:"id"`
	ImageURL    string    `json:"image_url"`
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
	Severity    int       `json:"severity"`
	Description string    `json:"description"`
	Claimed     bool      `json:"claimed"`
	Resolved    bool      `json:"resolved"`
	CreatedAt   time.Time `json:"created_at"`
}

// Next blocks until a notification arrives or the connection fails.
func (s *postgresSubscription) Next(ctx context.Context) (TicketDocument, error) {
	notification, err := s.conn.Conn().WaitForNotification(ctx)
	if err != nil {
		return TicketDocument{}, err
	}

	var row ticketRow
	if err := json.Unmarshal([]byte(notification.Payload), &row); err != nil {
		return TicketDocument{}, fmt.Errorf("decode insert notification: %w", err)
	}

	return DocumentFromTicket(domain.Ticket{
		ID:          row.ID,
		ImageURL:    row.ImageURL,
		Location:    domain.Location{Lat: row.Lat, Lon: row.Lon},
		Severity:    row.Severity,
		Description: row.Description,
		Claimed:     row.Claimed,
		Resolved:    row.Resolved,
		CreatedAt:   row.CreatedAt,
	}), nil
}

func (s *postgresSubscription) Close() {
	s.conn.Release()
}
