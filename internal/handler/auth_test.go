package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/cinetix/movie-booking-api/internal/config"
	"github.com/cinetix/movie-booking-api/internal/repository"
	"github.com/cinetix/movie-booking-api/internal/utils"
)

const userSelectByEmail = "SELECT id,name,email,password_hash,role,is_active,created_at,updated_at FROM users WHERE email=? LIMIT 1"

func newTestAuthHandler(t *testing.T) (*AuthHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	cfg := config.Config{JWTSecret: "test-secret", AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: bcrypt.MinCost}
	return NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db)), mock
}

func postJSON(h echo.HandlerFunc, target, body string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, h(e.NewContext(req, rec))
}

// A banned account presents valid credentials and still gets turned
// away, without leaking whether the password matched first.
func TestLoginDisabledAccount(t *testing.T) {
	h, mock := newTestAuthHandler(t)

	hash, err := utils.HashPassword("sekret-pass", bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now().UTC()
	mock.ExpectQuery(userSelectByEmail).
		WithArgs("banned@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "is_active", "created_at", "updated_at"}).
			AddRow(4, "Banned User", "banned@example.com", hash, "USER", false, now, now))

	rec, err := postJSON(h.Login, "/v1/auth/login", `{"email":"banned@example.com","password":"sekret-pass"}`)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "account disabled")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginWrongPassword(t *testing.T) {
	h, mock := newTestAuthHandler(t)

	hash, err := utils.HashPassword("sekret-pass", bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now().UTC()
	mock.ExpectQuery(userSelectByEmail).
		WithArgs("user@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "is_active", "created_at", "updated_at"}).
			AddRow(4, "Some User", "user@example.com", hash, "USER", true, now, now))

	rec, err := postJSON(h.Login, "/v1/auth/login", `{"email":"user@example.com","password":"wrong"}`)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginUnknownEmail(t *testing.T) {
	h, mock := newTestAuthHandler(t)

	mock.ExpectQuery(userSelectByEmail).
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "is_active", "created_at", "updated_at"}))

	rec, err := postJSON(h.Login, "/v1/auth/login", `{"email":"nobody@example.com","password":"whatever"}`)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
