package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"

	"blogpost/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUserRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	tests := []struct {
		name         string
		userID       uint
		mockBehavior func()
		expectedCode string
		expectedMail string
	}{
		{
			name:   "Success",
			userID: 1,
			mockBehavior: func() {
				rows := sqlmock.NewRows([]string{"id", "email", "full_name"}).
					AddRow(1, "ana@example.com", "Ana Smith")
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "custom_users" WHERE "custom_users"."id" = $1 ORDER BY "custom_users"."id" LIMIT $2`)).
					WithArgs(1, 1).
					WillReturnRows(rows)
			},
			expectedMail: "ana@example.com",
		},
		{
			name:   "Not Found",
			userID: 99,
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "custom_users" WHERE "custom_users"."id" = $1`)).
					WithArgs(99, 1).
					WillReturnError(gorm.ErrRecordNotFound)
			},
			expectedCode: models.CodeNotFound,
		},
		{
			name:   "Database Error",
			userID: 2,
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "custom_users" WHERE "custom_users"."id" = $1`)).
					WithArgs(2, 1).
					WillReturnError(errors.New("connection timeout"))
			},
			expectedCode: models.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockBehavior()
			user, err := repo.GetByID(ctx, tt.userID)

			if tt.expectedCode != "" {
				assert.True(t, models.IsCode(err, tt.expectedCode), "got %v", err)
				assert.Nil(t, user)
			} else if assert.NoError(t, err) {
				assert.Equal(t, tt.expectedMail, user.Email)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_CreateAndLookup(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &models.User{Email: "  Ana@Example.COM ", FullName: "Ana Smith", Password: "hash"}
	require.NoError(t, repo.Create(ctx, user))
	assert.Equal(t, "ana@example.com", user.Email)

	found, err := repo.GetByEmail(ctx, "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	err = repo.Create(ctx, &models.User{Email: "ana@example.com", Password: "hash"})
	assert.True(t, models.IsCode(err, models.CodeConflict), "got %v", err)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestUserRepository_SetStaff(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &models.User{Email: "staff@example.com", Password: "hash"}
	require.NoError(t, repo.Create(ctx, user))

	require.NoError(t, repo.SetStaff(ctx, user.ID, true))
	reloaded, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsStaff)

	err = repo.SetStaff(ctx, 9999, true)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}
