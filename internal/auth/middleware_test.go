package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streetsweepai/streetsweep-service/internal/domain"
	apperrors "github.com/streetsweepai/streetsweep-service/pkg/util"
)

// stubUserRepo wraps its miss error the way a query layer would.
type stubUserRepo struct {
	users map[string]domain.User
}

func (r *stubUserRepo) Create(_ context.Context, _ *domain.User) error { return nil }

func (r *stubUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("get user %s: %w", id, pgx.ErrNoRows)
	}
	return &user, nil
}

func (r *stubUserRepo) GetByEmail(_ context.Context, _ string) (*domain.User, error) {
	return nil, pgx.ErrNoRows
}

func (r *stubUserRepo) List(_ context.Context) ([]domain.User, error) { return nil, nil }

func (r *stubUserRepo) IncrementPoints(_ context.Context, _ string, _ int) error { return nil }

func newAuthTestApp(mw *AuthMiddleware) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			domainErr := apperrors.ToDomainError(err)
			return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"code": domainErr.Code})
		},
	})
	app.Get("/private", mw.Handle, func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.JSON(fiber.Map{"user_id": principal.User.ID})
	})
	return app
}

func TestMiddlewareLoadsPrincipal(t *testing.T) {
	tokens := NewTokenManager("test-secret", 12)
	users := &stubUserRepo{users: map[string]domain.User{
		"user-1": {ID: "user-1", Name: "Sam"},
	}}
	app := newAuthTestApp(NewAuthMiddleware(tokens, users))

	token, _, err := tokens.GenerateToken("user-1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMiddlewareRejectsUnknownUserEvenWhenWrapped(t *testing.T) {
	tokens := NewTokenManager("test-secret", 12)
	app := newAuthTestApp(NewAuthMiddleware(tokens, &stubUserRepo{}))

	token, _, err := tokens.GenerateToken("ghost")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)

	// The repo wraps pgx.ErrNoRows; the miss must still read as a 401,
	// not an internal error.
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMiddlewareRejectsMissingAndMalformedHeaders(t *testing.T) {
	tokens := NewTokenManager("test-secret", 12)
	app := newAuthTestApp(NewAuthMiddleware(tokens, &stubUserRepo{}))

	for _, header := range []string{"", "Token abc", "Bearer not.a.token"} {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "header %q", header)
	}
}
