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

	"mylinked/pkg/models"
)

func profileColumns() []string {
	return []string{"user_id", "slug", "display_name", "bio", "avatar_url",
		"theme", "background_url", "created_at", "updated_at"}
}

func TestGetProfile(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	initTestDeps(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM profiles WHERE user_id = $1`)).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(profileColumns()).
			AddRow("user-1", "alice", "Alice", "hi there", "", "default", "", now, now))

	router := setupTestGin()
	router.GET("/api/profile", authAs("user-1", models.RoleUser), GetProfile)

	w := doJSON(t, router, http.MethodGet, "/api/profile", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, "alice", body["slug"])
	assert.Equal(t, "hi there", body["bio"])
}

func TestUpdateProfileSlugConflict(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	initTestDeps(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE profiles SET slug = $1`)).
		WithArgs("taken", "user-1").
		WillReturnError(&pq.Error{Code: "23505"})

	router := setupTestGin()
	router.PUT("/api/profile", authAs("user-1", models.RoleUser), UpdateProfile)

	slug := "taken"
	w := doJSON(t, router, http.MethodPut, "/api/profile", models.UpdateProfileRequest{Slug: &slug})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfileRejectsBadSlug(t *testing.T) {
	db, _ := setupMockDB(t)
	defer db.Close()
	initTestDeps(db)

	router := setupTestGin()
	router.PUT("/api/profile", authAs("user-1", models.RoleUser), UpdateProfile)

	slug := "Not A Slug!"
	w := doJSON(t, router, http.MethodPut, "/api/profile", models.UpdateProfileRequest{Slug: &slug})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPublicProfile(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	initTestDeps(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE p.slug = $1`)).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(append(profileColumns(), "status")).
			AddRow("user-1", "alice", "Alice", "", "", "default", "", now, now, models.UserStatusActive))
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE user_id = $1 AND is_active = true`)).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "user_id", "title", "url", "description", "image_url",
				"position", "is_active", "click_count", "created_at", "updated_at"}).
			AddRow("link-1", "user-1", "Blog", "https://blog.example", "", "", 0, true, 3, now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT platform FROM social_accounts`)).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"platform"}).AddRow("instagram"))

	router := setupTestGin()
	router.GET("/u/:slug", GetPublicProfile)

	w := doJSON(t, router, http.MethodGet, "/u/alice", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	links := body["links"].([]interface{})
	require.Len(t, links, 1)
	platforms := body["platforms"].([]interface{})
	assert.Equal(t, []interface{}{"instagram"}, platforms)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPublicProfileSuspendedOwner404s(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	initTestDeps(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE p.slug = $1`)).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(append(profileColumns(), "status")).
			AddRow("user-1", "alice", "Alice", "", "", "default", "", now, now, models.UserStatusSuspended))

	router := setupTestGin()
	router.GET("/u/:slug", GetPublicProfile)

	w := doJSON(t, router, http.MethodGet, "/u/alice", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetPublicProfileUnknownSlug(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	initTestDeps(db)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE p.slug = $1`)).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(append(profileColumns(), "status")))

	router := setupTestGin()
	router.GET("/u/:slug", GetPublicProfile)

	w := doJSON(t, router, http.MethodGet, "/u/ghost", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
