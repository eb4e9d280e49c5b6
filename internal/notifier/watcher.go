package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/streetsweepai/streetsweep-service/internal/domain"
)

// TicketDocument is the serialized form of an inserted ticket, with the
// store-assigned id in display string form.
type TicketDocument struct {
	ID          string          `json:"id"`
	ImageURL    string          `json:"image_url"`
	Location    locationPayload `json:"location"`
	Severity    int             `json:"severity"`
	Description string          `json:"description"`
	Claimed     bool            `json:"claimed"`
	Resolved    bool            `json:"resolved"`
	CreatedAt   time.Time       `json:"created_at"`
}

type locationPayload struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Event is the webhook payload for a new ticket.
type Event struct {
	Type   string         `json:"type"`
	Ticket TicketDocument `json:"ticket"`
}

// DocumentFromTicket converts a domain ticket into its wire form.
func DocumentFromTicket(ticket domain.Ticket) TicketDocument {
	return TicketDocument{
		ID:          ticket.ID,
		ImageURL:    ticket.ImageURL,
		Location:    locationPayload{Lat: ticket.Location.Lat, Lon: ticket.Location.Lon},
		Severity:    ticket.Severity,
		Description: ticket.Description,
		Claimed:     ticket.Claimed,
		Resolved:    ticket.Resolved,
		CreatedAt:   ticket.CreatedAt,
	}
}

// Subscription delivers inserted tickets until it fails or is closed.
type Subscription interface {
	Next(ctx context.Context) (TicketDocument, error)
	Close()
}

// Feed opens subscriptions on the ticket store's insert stream.
type Feed interface {
	Subscribe(ctx context.Context) (Subscription, error)
}

// Watcher tails the ticket insert feed and forwards each new ticket to a
// webhook, or logs it when no webhook is configured. Subscription faults
// trigger a fixed backoff and resubscribe, forever; webhook delivery is
// at-most-once and a failed delivery never restarts the subscription.
type Watcher struct {
	feed       Feed
	webhookURL string
	client     *http.Client
	backoff    time.Duration
	logger     *zap.Logger
}

// Options configures a watcher.
type Options struct {
	Feed            Feed
	WebhookURL      string
	Backoff         time.Duration
	DeliveryTimeout time.Duration
	Logger          *zap.Logger
}

// NewWatcher constructs the watcher.
func NewWatcher(opts Options) *Watcher {
	backoff := opts.Backoff
	if backoff <= 0 {
		backoff = 2 * time.Second
	}
	deliveryTimeout := opts.DeliveryTimeout
	if deliveryTimeout <= 0 {
		deliveryTimeout = 3 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		feed:       opts.Feed,
		webhookURL: opts.WebhookURL,
		client:     &http.Client{Timeout: deliveryTimeout},
		backoff:    backoff,
		logger:     logger,
	}
}

// Run blocks until ctx is cancelled, resubscribing after every
// subscription-level fault. Started once per process at startup.
func (w *Watcher) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		sub, err := w.feed.Subscribe(ctx)
		if err != nil {
			w.logger.Warn("insert feed subscribe failed", zap.Error(err))
			if !w.wait(ctx) {
				return
			}
			continue
		}

		w.consume(ctx, sub)
		sub.Close()

		if !w.wait(ctx) {
			return
		}
	}
}

func (w *Watcher) consume(ctx context.Context, sub Subscription) {
	for {
		doc, err := sub.Next(ctx)
		if err != nil {
			if ctx.Err() == nil {
				w.logger.Warn("insert feed interrupted", zap.Error(err))
			}
			return
		}
		w.deliver(ctx, doc)
	}
}

// deliver is best-effort: failures are logged, never retried.
func (w *Watcher) deliver(ctx context.Context, doc TicketDocument) {
	event := Event{Type: "ticket_created", Ticket: doc}

	if w.webhookURL == "" {
		w.logger.Info("ticket created",
			zap.String("ticket_id", doc.ID),
			zap.Int("severity", doc.Severity))
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		w.logger.Warn("event marshal failed", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.webhookURL, bytes.NewReader(body))
	if err != nil {
		w.logger.Warn("webhook request build failed", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		w.logger.Warn("webhook delivery failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		w.logger.Warn("webhook delivery rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("ticket_id", doc.ID))
		return
	}
	w.logger.Debug("webhook delivered", zap.String("ticket_id", doc.ID))
}

func (w *Watcher) wait(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(w.backoff):
		return true
	}
}
