package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streetsweepai/streetsweep-service/internal/domain"
	"github.com/streetsweepai/streetsweep-service/internal/vision"
	apperrors "github.com/streetsweepai/streetsweep-service/pkg/util"
)

type fakeTicketRepo struct {
	created  []*domain.Ticket
	resolved map[string]bool
	tickets  map[string]domain.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{
		resolved: make(map[string]bool),
		tickets:  make(map[string]domain.Ticket),
	}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	ticket.ID = uuid.NewString()
	r.created = append(r.created, ticket)
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &ticket, nil
}

func (r *fakeTicketRepo) List(_ context.Context) ([]domain.Ticket, error) {
	out := make([]domain.Ticket, 0, len(r.tickets))
	for _, ticket := range r.tickets {
		out = append(out, ticket)
	}
	return out, nil
}

func (r *fakeTicketRepo) MarkResolved(_ context.Context, id string) (bool, error) {
	if _, ok := r.tickets[id]; !ok {
		return false, nil
	}
	r.resolved[id] = true
	return true, nil
}

type fakeUserRepo struct {
	points map[string]int
	users  map[string]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		points: make(map[string]int),
		users:  make(map[string]domain.User),
	}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	user.ID = uuid.NewString()
	r.points[user.ID] = 0
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	user.Points = r.points[id]
	return &user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			u := user
			u.Points = r.points[u.ID]
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(_ context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, user)
	}
	return out, nil
}

func (r *fakeUserRepo) IncrementPoints(_ context.Context, id string, delta int) error {
	if _, ok := r.points[id]; !ok {
		return pgx.ErrNoRows
	}
	r.points[id] += delta
	return nil
}

type spyImageStore struct {
	calls int
	url   string
	err   error
}

func (s *spyImageStore) Upload(_ context.Context, _ []byte) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.url, nil
}

type stubClassifier struct {
	severity *int
	err      error
}

func (s stubClassifier) Classify(_ context.Context, _ []byte) (vision.Classification, error) {
	return vision.Classification{Severity: s.severity}, s.err
}

func newTestService(tickets *fakeTicketRepo, users *fakeUserRepo, images *spyImageStore, classifier stubClassifier) *TicketService {
	return NewTicketService(TicketDependencies{
		TicketRepo: tickets,
		UserRepo:   users,
		ImageStore: images,
		Classifier: classifier,
	})
}

func TestCreateTicketRejectsOversizedImageBeforeUpload(t *testing.T) {
	tickets := newFakeTicketRepo()
	images := &spyImageStore{url: "https://cdn.example/i.png"}
	svc := newTestService(tickets, newFakeUserRepo(), images, stubClassifier{})

	_, err := svc.CreateTicket(context.Background(), CreateTicketInput{
		Image:    make([]byte, 10_000_001),
		Severity: 7,
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "PAYLOAD_TOO_LARGE"))
	assert.Zero(t, images.calls, "oversized image must never reach the store")
	assert.Empty(t, tickets.created)
}

func TestCreateTicketUploadFailureCreatesNothing(t *testing.T) {
	tickets := newFakeTicketRepo()
	images := &spyImageStore{err: errors.New("cloud down")}
	svc := newTestService(tickets, newFakeUserRepo(), images, stubClassifier{})

	_, err := svc.CreateTicket(context.Background(), CreateTicketInput{
		Image:    []byte("frame"),
		Severity: 7,
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "UPLOAD_FAILED"))
	assert.Empty(t, tickets.created)
}

func TestCreateTicketUploadsAndStores(t *testing.T) {
	tickets := newFakeTicketRepo()
	images := &spyImageStore{url: "https://cdn.example/i.png"}
	svc := newTestService(tickets, newFakeUserRepo(), images, stubClassifier{})

	ticket, err := svc.CreateTicket(context.Background(), CreateTicketInput{
		Image:       []byte("frame"),
		Location:    domain.Location{Lat: 43.65, Lon: -79.38},
		Severity:    8,
		Description: "pile by the curb",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, images.calls)
	assert.Equal(t, "https://cdn.example/i.png", ticket.ImageURL)
	assert.False(t, ticket.Resolved)
	require.Len(t, tickets.created, 1)
}

func TestCreateTicketSeverityBounds(t *testing.T) {
	svc := newTestService(newFakeTicketRepo(), newFakeUserRepo(), &spyImageStore{}, stubClassifier{})

	for _, severity := range []int{0, 11, -3} {
		_, err := svc.CreateTicket(context.Background(), CreateTicketInput{
			ImageURL: "https://cdn.example/i.png",
			Severity: severity,
		})
		require.Error(t, err, "severity %d", severity)
		assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
	}
}

func TestResolveTicketCreditsUserOnce(t *testing.T) {
	tickets := newFakeTicketRepo()
	users := newFakeUserRepo()
	svc := newTestService(tickets, users, &spyImageStore{}, stubClassifier{})

	ticket, err := svc.CreateTicket(context.Background(), CreateTicketInput{
		ImageURL: "https://cdn.example/i.png",
		Severity: 6,
	})
	require.NoError(t, err)

	user := &domain.User{Name: "sam", Email: "sam@example.com"}
	require.NoError(t, users.Create(context.Background(), user))

	resolved, err := svc.ResolveTicket(context.Background(), ticket.ID, &user.ID)
	require.NoError(t, err)
	assert.True(t, resolved)
	assert.True(t, tickets.resolved[ticket.ID])
	assert.Equal(t, 1, users.points[user.ID])
}

func TestResolveTicketWithoutUser(t *testing.T) {
	tickets := newFakeTicketRepo()
	svc := newTestService(tickets, newFakeUserRepo(), &spyImageStore{}, stubClassifier{})

	ticket, err := svc.CreateTicket(context.Background(), CreateTicketInput{
		ImageURL: "https://cdn.example/i.png",
		Severity: 6,
	})
	require.NoError(t, err)

	resolved, err := svc.ResolveTicket(context.Background(), ticket.ID, nil)
	require.NoError(t, err)
	assert.True(t, resolved)
	assert.True(t, tickets.resolved[ticket.ID])
}

func TestResolveUnknownTicket(t *testing.T) {
	svc := newTestService(newFakeTicketRepo(), newFakeUserRepo(), &spyImageStore{}, stubClassifier{})

	resolved, err := svc.ResolveTicket(context.Background(), uuid.NewString(), nil)
	assert.False(t, resolved)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestResolveMalformedTicketID(t *testing.T) {
	svc := newTestService(newFakeTicketRepo(), newFakeUserRepo(), &spyImageStore{}, stubClassifier{})

	resolved, err := svc.ResolveTicket(context.Background(), "not-a-uuid", nil)
	assert.False(t, resolved)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestDoubleResolveDoubleCredits(t *testing.T) {
	tickets := newFakeTicketRepo()
	users := newFakeUserRepo()
	svc := newTestService(tickets, users, &spyImageStore{}, stubClassifier{})

	ticket, err := svc.CreateTicket(context.Background(), CreateTicketInput{
		ImageURL: "https://cdn.example/i.png",
		Severity: 6,
	})
	require.NoError(t, err)

	user := &domain.User{Name: "sam", Email: "sam@example.com"}
	require.NoError(t, users.Create(context.Background(), user))

	for i := 0; i < 2; i++ {
		resolved, err := svc.ResolveTicket(context.Background(), ticket.ID, &user.ID)
		require.NoError(t, err)
		assert.True(t, resolved)
	}
	// Point updates and ticket updates are independent row writes; a
	// second resolve credits again.
	assert.Equal(t, 2, users.points[user.ID])
}

func TestClassifyAndDecide(t *testing.T) {
	seven := 7
	svc := newTestService(newFakeTicketRepo(), newFakeUserRepo(), &spyImageStore{}, stubClassifier{severity: &seven})

	decision, err := svc.ClassifyAndDecide(context.Background(), []byte("frame"), ThresholdPolicy{Threshold: 4})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreate, decision.Outcome)
	assert.Equal(t, 7, decision.Severity)
}

func TestClassifyAndDecideUnclassifiable(t *testing.T) {
	svc := newTestService(newFakeTicketRepo(), newFakeUserRepo(), &spyImageStore{}, stubClassifier{})

	decision, err := svc.ClassifyAndDecide(context.Background(), []byte("frame"), ThresholdPolicy{Threshold: 4})
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnclassifiable, decision.Outcome)
}
