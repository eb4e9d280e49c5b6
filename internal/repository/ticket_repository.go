package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/streetsweepai/streetsweep-service/internal/domain"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context) ([]domain.Ticket, error)
	// MarkResolved sets resolved=true and reports whether a row matched.
	// Re-resolving an already-resolved ticket still counts as a match.
	MarkResolved(ctx context.Context, id string) (bool, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (image_url, lat, lon, severity, description, claimed, resolved)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		ticket.ImageURL,
		ticket.Location.Lat,
		ticket.Location.Lon,
		ticket.Severity,
		ticket.Description,
		ticket.Claimed,
		ticket.Resolved,
	).Scan(&ticket.ID, &ticket.CreatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `
        SELECT id, image_url, lat, lon, severity, description, claimed, resolved, created_at
        FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.ImageURL,
		&ticket.Location.Lat,
		&ticket.Location.Lon,
		&ticket.Severity,
		&ticket.Description,
		&ticket.Claimed,
		&ticket.Resolved,
		&ticket.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) List(ctx context.Context) ([]domain.Ticket, error) {
	const query = `
        SELECT id, image_url, lat, lon, severity, description, claimed, resolved, created_at
        FROM tickets ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.ImageURL,
			&ticket.Location.Lat,
			&ticket.Location.Lon,
			&ticket.Severity,
			&ticket.Description,
			&ticket.Claimed,
			&ticket.Resolved,
			&ticket.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) MarkResolved(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE tickets SET resolved=true WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}
