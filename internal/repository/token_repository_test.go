package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/tricode/magnolia-blog/internal/repository"
	redisapp "github.com/tricode/magnolia-blog/internal/storage/redis"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func setupTokenRepo() (*repository.RedisTokenRepo, redismock.ClientMock) {
	db, mock := redismock.NewClientMock()
	return &repository.RedisTokenRepo{Client: &redisapp.Client{Client: db}}, mock
}

func tokenKey(userID, token string) string {
	return "refresh:" + userID + ":" + token
}

func TestSaveRefreshToken(t *testing.T) {
	ctx := context.Background()
	repo, mock := setupTokenRepo()
	userID := uuid.New().String()
	token := "test_token"
	exp := 24 * time.Hour

	t.Run("successful save", func(t *testing.T) {
		mock.ExpectSet(tokenKey(userID, token), "1", exp).SetVal("OK")
		err := repo.SaveRefreshToken(ctx, userID, token, exp)
		assert.NoError(t, err)
	})

	t.Run("redis error", func(t *testing.T) {
		mock.ExpectSet(tokenKey(userID, token), "1", exp).SetErr(redis.ErrClosed)
		err := repo.SaveRefreshToken(ctx, userID, token, exp)
		assert.ErrorIs(t, err, redis.ErrClosed)
	})
}

func TestGetRefreshToken(t *testing.T) {
	ctx := context.Background()
	repo, mock := setupTokenRepo()
	userID := "user123"
	token := "test_token"

	t.Run("token exists", func(t *testing.T) {
		mock.ExpectGet(tokenKey(userID, token)).SetVal("1")
		ok, err := repo.GetRefreshToken(ctx, userID, token)
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("token missing", func(t *testing.T) {
		mock.ExpectGet(tokenKey(userID, token)).RedisNil()
		ok, err := repo.GetRefreshToken(ctx, userID, token)
		assert.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestDeleteAllUserTokens(t *testing.T) {
	ctx := context.Background()
	repo, mock := setupTokenRepo()
	userID := "user123"

	t.Run("deletes every key", func(t *testing.T) {
		keys := []string{tokenKey(userID, "a"), tokenKey(userID, "b")}
		mock.ExpectKeys(tokenKey(userID, "*")).SetVal(keys)
		mock.ExpectDel(keys...).SetVal(2)

		err := repo.DeleteAllUserTokens(ctx, userID)
		assert.NoError(t, err)
	})

	t.Run("no keys is not an error", func(t *testing.T) {
		mock.ExpectKeys(tokenKey(userID, "*")).SetVal([]string{})

		err := repo.DeleteAllUserTokens(ctx, userID)
		assert.NoError(t, err)
	})
}
