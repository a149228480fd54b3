package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-event-locator/internal/domain/entity"
	"github.com/oksasatya/go-event-locator/internal/domain/repository"
)

var userCols = []string{"id", "username", "email", "password_hash", "name", "bio", "location", "avatar_url", "created_at", "updated_at"}

func TestUserRepository_Create(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name: "inserts and returns generated columns",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("alice", "alice@example.com", "hash", "", "", "", "").
					WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("u-1", now, now))
			},
		},
		{
			name: "unique violation maps to username taken",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("alice", "alice@example.com", "hash", "", "", "", "").
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_username_lower_key"})
			},
			wantErr: repository.ErrUsernameTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()
			tt.setupMock(mock)

			u := &entity.User{Username: "alice", Email: "alice@example.com", Password: "hash"}
			err = NewUserRepository(mock).Create(context.Background(), u)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "u-1", u.ID)
				assert.Equal(t, now, u.CreatedAt)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_Create_OtherErrorIsNotConflict(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("bob", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection refused"))

	err = NewUserRepository(mock).Create(context.Background(), &entity.User{Username: "bob"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrUsernameTaken)
	assert.Contains(t, err.Error(), "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByUsername(t *testing.T) {
	now := time.Now().UTC()

	t.Run("found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT id, username`).
			WithArgs("Alice").
			WillReturnRows(pgxmock.NewRows(userCols).
				AddRow("u-1", "alice", "alice@example.com", "hash", "Alice", "hi", "Jakarta", "", now, now))

		u, err := NewUserRepository(mock).GetByUsername(context.Background(), "Alice")
		require.NoError(t, err)
		assert.Equal(t, "alice", u.Username)
		assert.Equal(t, "Jakarta", u.Location)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing maps to not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT id, username`).
			WithArgs("ghost").
			WillReturnRows(pgxmock.NewRows(userCols))

		_, err = NewUserRepository(mock).GetByUsername(context.Background(), "ghost")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestUserRepository_UsernameExists(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("alice").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := NewUserRepository(mock).UsernameExists(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdateProfile(t *testing.T) {
	now := time.Now().UTC()
	fields := entity.ProfileFields{Name: "Alice A.", Bio: "likes jazz", Location: "Bandung", AvatarURL: "https://cdn/a.png"}

	t.Run("writes the field group in one statement", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`UPDATE users`).
			WithArgs(fields.Name, fields.Bio, fields.Location, fields.AvatarURL, "u-1").
			WillReturnRows(pgxmock.NewRows(userCols).
				AddRow("u-1", "alice", "alice@example.com", "hash", fields.Name, fields.Bio, fields.Location, fields.AvatarURL, now, now))

		u, err := NewUserRepository(mock).UpdateProfile(context.Background(), "u-1", fields)
		require.NoError(t, err)
		assert.Equal(t, fields, u.Profile())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown id", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`UPDATE users`).
			WithArgs(fields.Name, fields.Bio, fields.Location, fields.AvatarURL, "nope").
			WillReturnRows(pgxmock.NewRows(userCols))

		_, err = NewUserRepository(mock).UpdateProfile(context.Background(), "nope", fields)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
