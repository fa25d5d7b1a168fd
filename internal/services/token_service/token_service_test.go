package services

import (
	"context"
	"testing"
	"time"

	"github.com/tricode/magnolia-blog/internal/domain/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokenRepo struct {
	saved map[string]bool
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{saved: make(map[string]bool)}
}

func (r *fakeTokenRepo) SaveRefreshToken(ctx context.Context, userID, token string, exp time.Duration) error {
	r.saved[userID+":"+token] = true
	return nil
}

func (r *fakeTokenRepo) GetRefreshToken(ctx context.Context, userID, token string) (bool, error) {
	return r.saved[userID+":"+token], nil
}

func (r *fakeTokenRepo) DeleteRefreshToken(ctx context.Context, userID, token string) error {
	delete(r.saved, userID+":"+token)
	return nil
}

func (r *fakeTokenRepo) DeleteAllUserTokens(ctx context.Context, userID string) error {
	for key := range r.saved {
		if len(key) > len(userID) && key[:len(userID)] == userID {
			delete(r.saved, key)
		}
	}
	return nil
}

func TestGenerateAndVerifyTokens(t *testing.T) {
	repo := newFakeTokenRepo()
	service := NewTokenService(repo, "unit-test-secret")
	user := models.User{ID: uuid.New(), Email: "editor@example.com"}

	pair, err := service.GenerateTokens(user)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	id, err := service.VerifyAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
}

func TestVerifyAccessToken_WrongSecret(t *testing.T) {
	repo := newFakeTokenRepo()
	user := models.User{ID: uuid.New(), Email: "editor@example.com"}

	pair, err := NewTokenService(repo, "secret-a").GenerateTokens(user)
	require.NoError(t, err)

	_, err = NewTokenService(repo, "secret-b").VerifyAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokens_RotatesAndBurns(t *testing.T) {
	repo := newFakeTokenRepo()
	service := NewTokenService(repo, "unit-test-secret")
	user := models.User{ID: uuid.New(), Email: "editor@example.com"}

	pair, err := service.GenerateTokens(user)
	require.NoError(t, err)

	rotated, err := service.RefreshTokens(pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// the burned token cannot be replayed
	_, err = service.RefreshTokens(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogout(t *testing.T) {
	repo := newFakeTokenRepo()
	service := NewTokenService(repo, "unit-test-secret")
	user := models.User{ID: uuid.New(), Email: "editor@example.com"}

	pair, err := service.GenerateTokens(user)
	require.NoError(t, err)

	require.NoError(t, service.Logout(context.Background(), user.ID))

	_, err = service.RefreshTokens(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
