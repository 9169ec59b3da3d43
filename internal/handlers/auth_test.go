package handlers

import (
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"mylinked/pkg/auth"
	"mylinked/pkg/models"
)

func TestRegister(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	initTestDeps(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs("alice@example.com", sqlmock.AnyArg(), models.RoleUser, models.UserStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow("user-1", now, now))
	mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT (slug) DO NOTHING`)).
		WithArgs("user-1", "alice", "Alice").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	router := setupTestGin()
	router.POST("/api/auth/register", Register)

	w := doJSON(t, router, http.MethodPost, "/api/auth/register", models.RegisterRequest{
		Email:       "Alice@Example.com",
		Password:    "sup3r-secret",
		DisplayName: "Alice",
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decodeBody(t, w)
	assert.NotEmpty(t, body["token"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "alice@example.com", user["email"])
	assert.NotContains(t, w.Body.String(), "password")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterHoneypot(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	initTestDeps(db)

	router := setupTestGin()
	router.POST("/api/auth/register", Register)

	w := doJSON(t, router, http.MethodPost, "/api/auth/register", models.RegisterRequest{
		Email:    "bot@example.com",
		Password: "sup3r-secret",
		Website:  "https://spam.example",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet(), "honeypot hit must not touch the database")
}

// A taken slug must not error the statement: inside a transaction Postgres
// rejects everything after the first failed statement, so the profile insert
// reports the collision as zero affected rows and the handler retries with a
// suffixed slug on the still-healthy transaction.
func TestRegisterSlugTakenRetriesWithSuffix(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	initTestDeps(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow("user-2", now, now))
	mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT (slug) DO NOTHING`)).
		WithArgs("user-2", "alice", "Alice").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT (slug) DO NOTHING`)).
		WithArgs("user-2", sqlmock.AnyArg(), "Alice").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	router := setupTestGin()
	router.POST("/api/auth/register", Register)

	w := doJSON(t, router, http.MethodPost, "/api/auth/register", models.RegisterRequest{
		Email:       "alice2@example.com",
		Password:    "sup3r-secret",
		DisplayName: "Alice",
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	initTestDeps(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	router := setupTestGin()
	router.POST("/api/auth/register", Register)

	w := doJSON(t, router, http.MethodPost, "/api/auth/register", models.RegisterRequest{
		Email:    "taken@example.com",
		Password: "sup3r-secret",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin(t *testing.T) {
	hash, err := auth.HashPassword("sup3r-secret", bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now()

	tests := []struct {
		name       string
		password   string
		status     string
		wantCode   int
		wantUpdate bool
	}{
		{"valid_credentials", "sup3r-secret", models.UserStatusActive, http.StatusOK, true},
		{"wrong_password", "nope", models.UserStatusActive, http.StatusUnauthorized, false},
		{"suspended_account", "sup3r-secret", models.UserStatusSuspended, http.StatusForbidden, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			defer db.Close()
			initTestDeps(db)

			mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, email, password_hash, role, status, created_at, updated_at`)).
				WithArgs("alice@example.com").
				WillReturnRows(sqlmock.NewRows(
					[]string{"id", "email", "password_hash", "role", "status", "created_at", "updated_at"}).
					AddRow("user-1", "alice@example.com", hash, models.RoleUser, tt.status, now, now))
			if tt.wantUpdate {
				mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET last_login_at`)).
					WithArgs("user-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
			}

			router := setupTestGin()
			router.POST("/api/auth/login", Login)

			w := doJSON(t, router, http.MethodPost, "/api/auth/login", models.LoginRequest{
				Email:    "alice@example.com",
				Password: tt.password,
			})

			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantCode == http.StatusOK {
				body := decodeBody(t, w)
				assert.NotEmpty(t, body["token"])
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	initTestDeps(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, email, password_hash`)).
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	router := setupTestGin()
	router.POST("/api/auth/login", Login)

	w := doJSON(t, router, http.MethodPost, "/api/auth/login", models.LoginRequest{
		Email:    "ghost@example.com",
		Password: "whatever1",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Alice Example", "alice-example"},
		{"alice@example.com", "alice"},
		{"Ünïcode!!", "ncode"},
		{"---", "user"},
		{"", "user"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, slugify(tt.in), "slugify(%q)", tt.in)
	}
}
