package repository

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockUserRepo(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserRepo(db), mock
}

func TestPromote(t *testing.T) {
	repo, mock := newMockUserRepo(t)

	mock.ExpectExec("UPDATE users SET role='ADMIN' WHERE id=? AND role<>'ADMIN'").
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Promote(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPromoteAlreadyAdmin(t *testing.T) {
	repo, mock := newMockUserRepo(t)

	mock.ExpectExec("UPDATE users SET role='ADMIN' WHERE id=? AND role<>'ADMIN'").
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT role FROM users WHERE id=? LIMIT 1").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("ADMIN"))

	err := repo.Promote(context.Background(), 7)
	assert.ErrorIs(t, err, ErrAlreadyAdmin)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBan(t *testing.T) {
	repo, mock := newMockUserRepo(t)

	mock.ExpectExec("UPDATE users SET is_active=? WHERE id=? AND is_active=?").
		WithArgs(false, uint64(7), true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Ban(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBanMissingUser(t *testing.T) {
	repo, mock := newMockUserRepo(t)

	mock.ExpectExec("UPDATE users SET is_active=? WHERE id=? AND is_active=?").
		WithArgs(false, uint64(99), true).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM users WHERE id=? LIMIT 1").
		WithArgs(uint64(99)).
		WillReturnError(sql.ErrNoRows)

	err := repo.Ban(context.Background(), 99)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnbanActiveUser(t *testing.T) {
	repo, mock := newMockUserRepo(t)

	mock.ExpectExec("UPDATE users SET is_active=? WHERE id=? AND is_active=?").
		WithArgs(true, uint64(7), false).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM users WHERE id=? LIMIT 1").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	err := repo.Unban(context.Background(), 7)
	assert.ErrorIs(t, err, ErrNotBanned)
	assert.NoError(t, mock.ExpectationsWereMet())
}
