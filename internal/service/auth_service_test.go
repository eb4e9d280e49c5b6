package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streetsweepai/streetsweep-service/internal/config"
	apperrors "github.com/streetsweepai/streetsweep-service/pkg/util"
)

func newTestAuthService(users *fakeUserRepo) *AuthService {
	return NewAuthService(config.AuthConfig{
		JWTSecret:           "test-secret",
		AccessTokenTTLHours: 12,
		BcryptCost:          4, // keep hashing fast in tests
	}, users)
}

func TestRegisterAndLogin(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAuthService(users)

	user, err := svc.RegisterUser(context.Background(), "Sam", "sam@example.com", "hunter22")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Zero(t, user.Points)

	logged, token, _, err := svc.LoginUser(context.Background(), "sam@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	assert.NotEmpty(t, token)

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())

	_, err := svc.RegisterUser(context.Background(), "Sam", "sam@example.com", "hunter22")
	require.NoError(t, err)

	_, err = svc.RegisterUser(context.Background(), "Other", "sam@example.com", "pass")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())

	_, err := svc.RegisterUser(context.Background(), "Sam", "sam@example.com", "hunter22")
	require.NoError(t, err)

	_, _, _, err = svc.LoginUser(context.Background(), "sam@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))

	_, _, _, err = svc.LoginUser(context.Background(), "nobody@example.com", "hunter22")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
}
