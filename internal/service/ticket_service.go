package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/streetsweepai/streetsweep-service/internal/domain"
	"github.com/streetsweepai/streetsweep-service/internal/repository"
	"github.com/streetsweepai/streetsweep-service/internal/storage"
	"github.com/streetsweepai/streetsweep-service/internal/vision"
	apperrors "github.com/streetsweepai/streetsweep-service/pkg/util"
)

// TicketService is the ticket lifecycle engine: it turns creation inputs
// into stored tickets and drives the resolve transition with its
// companion user-points update.
type TicketService struct {
	tickets       repository.TicketRepository
	users         repository.UserRepository
	images        storage.ImageStore
	classifier    vision.Classifier
	logger        *zap.Logger
	maxImageBytes int
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo    repository.TicketRepository
	UserRepo      repository.UserRepository
	ImageStore    storage.ImageStore
	Classifier    vision.Classifier
	Logger        *zap.Logger
	MaxImageBytes int
}

// CreateTicketInput describes ticket creation payload. Either ImageURL
// (pre-hosted) or Image (raw bytes requiring upload) may be supplied.
type CreateTicketInput struct {
	ImageURL    string
	Image       []byte
	Location    domain.Location
	Severity    int
	Description string
	Claimed     bool
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	maxBytes := deps.MaxImageBytes
	if maxBytes <= 0 {
		maxBytes = 10_000_000
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:       deps.TicketRepo,
		users:         deps.UserRepo,
		images:        deps.ImageStore,
		classifier:    deps.Classifier,
		logger:        logger,
		maxImageBytes: maxBytes,
	}
}

// CreateTicket inserts a new unresolved ticket. Raw image bytes are
// uploaded to the image store first; bytes over the size cap are rejected
// before any upload attempt, and an upload failure creates no ticket.
// Every call creates a new ticket; deduplication is the caller's concern.
func (s *TicketService) CreateTicket(ctx context.Context, input CreateTicketInput) (*domain.Ticket, error) {
	if input.Severity < 1 || input.Severity > 10 {
		return nil, apperrors.NewValidationError("severity must be between 1 and 10", map[string]any{
			"severity": input.Severity,
		})
	}

	imageURL := input.ImageURL
	if len(input.Image) > 0 {
		if len(input.Image) > s.maxImageBytes {
			return nil, apperrors.NewPayloadTooLarge("image too large", map[string]any{
				"max_bytes": s.maxImageBytes,
				"got_bytes": len(input.Image),
			})
		}
		uploaded, err := s.images.Upload(ctx, input.Image)
		if err != nil {
			return nil, apperrors.NewUploadFailed(err)
		}
		imageURL = uploaded
	}

	ticket := &domain.Ticket{
		ImageURL:    imageURL,
		Location:    input.Location,
		Severity:    input.Severity,
		Description: input.Description,
		Claimed:     input.Claimed,
		Resolved:    false,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	s.logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.Int("severity", ticket.Severity))
	return ticket, nil
}

// ResolveTicket marks a ticket resolved. When userID is supplied, that
// user's points are incremented by one before the ticket update; the two
// writes are independent and rely on per-row atomicity only, so two
// racing resolves for the same ticket/user pair may both succeed and
// double-increment points. Resolving an already-resolved ticket reports
// success.
func (s *TicketService) ResolveTicket(ctx context.Context, ticketID string, userID *string) (bool, error) {
	if _, err := uuid.Parse(ticketID); err != nil {
		return false, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}

	if userID != nil && *userID != "" {
		if _, err := uuid.Parse(*userID); err != nil {
			return false, apperrors.NewNotFound("user", map[string]any{"user_id": *userID})
		}
		if err := s.users.IncrementPoints(ctx, *userID, 1); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return false, apperrors.NewNotFound("user", map[string]any{"user_id": *userID})
			}
			return false, err
		}
	}

	matched, err := s.tickets.MarkResolved(ctx, ticketID)
	if err != nil {
		return false, err
	}
	if !matched {
		return false, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	s.logger.Info("ticket resolved", zap.String("ticket_id", ticketID))
	return true, nil
}

// GetTicket fetches a ticket by id.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	if _, err := uuid.Parse(ticketID); err != nil {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, err
	}
	return ticket, nil
}

// ListTickets returns all tickets, resolved and unresolved.
func (s *TicketService) ListTickets(ctx context.Context) ([]domain.Ticket, error) {
	return s.tickets.List(ctx)
}

// ClassifyAndDecide scores an image and maps the severity through the
// given policy. A classifier response without a usable severity yields
// OutcomeUnclassifiable.
func (s *TicketService) ClassifyAndDecide(ctx context.Context, image []byte, policy CreationPolicy) (Decision, error) {
	classification, err := s.classifier.Classify(ctx, image)
	if err != nil {
		return Decision{}, err
	}
	if classification.Severity == nil {
		return Decision{Outcome: OutcomeUnclassifiable}, nil
	}
	return policy.Decide(*classification.Severity), nil
}
