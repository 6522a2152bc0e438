package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-admissions-api/internal/models"
)

func TestUserRepositoryFindByEmail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE LOWER(email) = LOWER($1)")).
		WithArgs("casey@campus.test").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "role", "active", "last_login", "created_at", "updated_at"}).
			AddRow("u-1", "casey@campus.test", "hash", "Casey Counselor", "COUNSELOR", true, nil, now, now))

	user, err := repo.FindByEmail(context.Background(), "casey@campus.test")
	require.NoError(t, err)
	require.Equal(t, models.RoleCounselor, user.Role)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.FindByID(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryRefreshTokenLifecycle(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO refresh_tokens")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	token := &models.RefreshToken{UserID: "u-1", Token: "opaque", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.CreateRefreshToken(context.Background(), token))
	require.NotEmpty(t, token.ID)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked_at = $2 WHERE id = $1")).
		WithArgs(token.ID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.RevokeRefreshToken(context.Background(), token.ID, time.Now()))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.CreateAuditLog(context.Background(), &models.AuditLog{Action: models.AuditActionLogout, Resource: "auth"}))
	require.NoError(t, mock.ExpectationsWereMet())
}

var userRowColumns = []string{"id", "email", "password_hash", "full_name", "role", "active", "last_login", "created_at", "updated_at"}

func TestUserRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	now := time.Now()
	active := true
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE role = $1 AND active = $2 AND (LOWER(full_name) LIKE $3 OR LOWER(email) LIKE $3) ORDER BY full_name ASC, id ASC LIMIT 10 OFFSET 10")).
		WithArgs(models.RoleCounselor, true, "%casey%").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("u-1", "casey@campus.test", "hash", "Casey Counselor", "COUNSELOR", true, nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE role = $1")).
		WithArgs(models.RoleCounselor, true, "%casey%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	users, total, err := repo.List(context.Background(), models.UserFilter{
		Role: models.RoleCounselor, Active: &active, Search: "Casey", Page: 2, PageSize: 10,
	})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, 11, total)
	assert.Equal(t, "Casey Counselor", users[0].FullName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateDuplicateEmail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	user := &models.User{Email: "rina@campus.test", FullName: "Rina Registrar", Role: models.RoleRegistrar, Active: true, PasswordHash: "hash"}
	require.NoError(t, repo.Create(context.Background(), user))
	require.NotEmpty(t, user.ID)
	assert.Equal(t, user.CreatedAt, user.UpdatedAt)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: UserEmailConstraint})
	err := repo.Create(context.Background(), &models.User{Email: "RINA@campus.test", FullName: "Rina", Role: models.RoleRegistrar})
	require.ErrorIs(t, err, ErrEmailTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryDeactivateRevokesSessions(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	at := time.Date(2024, 9, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET full_name = $2, role = $3, active = $4, updated_at = $5 WHERE id = $1")).
		WithArgs("u-1", "Casey Counselor", models.RoleCounselor, false, at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked_at = $2 WHERE user_id = $1 AND revoked_at IS NULL")).
		WithArgs("u-1", at).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), &models.User{ID: "u-1", FullName: "Casey Counselor", Role: models.RoleCounselor, Active: false, UpdatedAt: at})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = repo.Update(context.Background(), &models.User{ID: "missing", Role: models.RoleCounselor, Active: true, UpdatedAt: at})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
