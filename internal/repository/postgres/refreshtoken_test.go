package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/proxdeck/internal/apperrors"
	"github.com/avolkov/proxdeck/internal/models"
	"github.com/avolkov/proxdeck/internal/repository"
	"github.com/avolkov/proxdeck/internal/testutil"
)

func mustParseTime(value string) time.Time {
	dt, err := time.Parse("2006-01-02 15:04:05Z07:00", value)
	if err != nil {
		panic(err)
	}
	return dt
}

// createTestUser satisfies the foreign key on refresh_tokens and sessions
func createTestUser(t *testing.T, tx pgx.Tx, username string) models.User {
	t.Helper()

	user, err := (&UserRepo{DB: tx}).CreateUser(t.Context(), repository.CreateUserParams{
		Username:       username,
		HashedPassword: "hashedpassword123",
		Name:           "Test User",
		Role:           "user",
	})
	require.NoError(t, err)
	return user
}

func Test_RefreshTokenRepo(t *testing.T) {
	t.Parallel() // It's ok to run in parallel with other tests, but not with subtests

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	newToken := func(userID uuid.UUID) models.RefreshToken {
		return models.RefreshToken{
			ID:        uuid.New(),
			UserID:    userID,
			Token:     "secret-token",
			CreatedAt: mustParseTime("2024-01-01 19:00:01Z"),
			ExpiresAt: mustParseTime("2200-01-01 03:00:02Z"),
		}
	}

	t.Run("save token ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}
			user := createTestUser(t, tx, "tokenowner")

			err := repo.Save(t.Context(), newToken(user.ID))

			require.NoError(t, err)
		})
	})

	t.Run("save duplicate token string fails", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}
			user := createTestUser(t, tx, "tokenowner")

			token := newToken(user.ID)
			require.NoError(t, repo.Save(t.Context(), token))

			dupe := newToken(user.ID)
			err := repo.Save(t.Context(), dupe)

			require.Error(t, err, "token strings are unique, at most one living row per token")
		})
	})

	t.Run("get token ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}
			user := createTestUser(t, tx, "tokenowner")

			token := newToken(user.ID)
			require.NoError(t, repo.Save(t.Context(), token))

			got, err := repo.GetByToken(t.Context(), token.Token)

			require.NoError(t, err)
			require.Equal(t, token.ID, got.ID)
			require.Equal(t, token.UserID, got.UserID)
			require.Equal(t, token.Token, got.Token)
			require.WithinDuration(t, token.CreatedAt, got.CreatedAt, time.Microsecond)
			require.WithinDuration(t, token.ExpiresAt, got.ExpiresAt, time.Microsecond)
		})
	})

	t.Run("get token returns expired rows too", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}
			user := createTestUser(t, tx, "tokenowner")

			token := newToken(user.ID)
			token.ExpiresAt = mustParseTime("2020-01-01 00:00:00Z")
			require.NoError(t, repo.Save(t.Context(), token))

			got, err := repo.GetByToken(t.Context(), token.Token)

			require.NoError(t, err, "expiry checks belong to the service, not the repo")
			require.Equal(t, token.ID, got.ID)
		})
	})

	t.Run("get unknown token fails", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}

			_, err := repo.GetByToken(t.Context(), "who-dis")

			require.Error(t, err)
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound)
		})
	})

	t.Run("delete token ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}
			user := createTestUser(t, tx, "tokenowner")

			token := newToken(user.ID)
			require.NoError(t, repo.Save(t.Context(), token))

			err := repo.Delete(t.Context(), token.ID)
			require.NoError(t, err)

			_, err = repo.GetByToken(t.Context(), token.Token)
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound)
		})
	})

	t.Run("delete missing token is a no-op", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}

			err := repo.Delete(t.Context(), uuid.New())

			require.NoError(t, err)
		})
	})
}
