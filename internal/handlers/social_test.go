package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mylinked/internal/social"
	"mylinked/pkg/models"
)

// adapterTo builds an AdapterFactory whose platform traffic is redirected
// to a local test server.
func adapterTo(srv *httptest.Server) AdapterFactory {
	return func(platform social.Platform, token string) (*social.Adapter, error) {
		return social.New(platform, token,
			social.WithBaseURL(platform, srv.URL),
			social.WithHTTPClient(srv.Client()))
	}
}

func TestConnectSocialAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"ig-123","username":"alice.ig","media_count":10}`)
	}))
	defer srv.Close()

	db, mock := setupMockDB(t)
	defer db.Close()
	initTestDeps(db, func(d *Dependencies) { d.NewAdapter = adapterTo(srv) })

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO social_accounts`)).
		WithArgs("user-1", "instagram", "ig-123", "alice.ig", "the-token").
		WillReturnRows(sqlmock.NewRows([]string{"id", "connected_at", "updated_at"}).
			AddRow("acct-1", now, now))

	router := setupTestGin()
	router.POST("/api/social/accounts", authAs("user-1", models.RoleUser), ConnectSocialAccount)

	w := doJSON(t, router, http.MethodPost, "/api/social/accounts", models.ConnectAccountRequest{
		Platform:    "instagram",
		AccessToken: "the-token",
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, "alice.ig", body["username"])
	assert.Equal(t, "ig-123", body["account_id"])
	assert.NotContains(t, w.Body.String(), "the-token", "access tokens must never be serialized")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectSocialAccountUnsupportedPlatform(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	initTestDeps(db)

	router := setupTestGin()
	router.POST("/api/social/accounts", authAs("user-1", models.RoleUser), ConnectSocialAccount)

	w := doJSON(t, router, http.MethodPost, "/api/social/accounts", models.ConnectAccountRequest{
		Platform:    "myspace",
		AccessToken: "token",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectSocialAccountRejectedToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"bad token"}`)
	}))
	defer srv.Close()

	db, mock := setupMockDB(t)
	defer db.Close()
	initTestDeps(db, func(d *Dependencies) { d.NewAdapter = adapterTo(srv) })

	router := setupTestGin()
	router.POST("/api/social/accounts", authAs("user-1", models.RoleUser), ConnectSocialAccount)

	w := doJSON(t, router, http.MethodPost, "/api/social/accounts", models.ConnectAccountRequest{
		Platform:    "instagram",
		AccessToken: "bad-token",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet(), "rejected token must not be stored")
}

// A platform having a bad day is not a bad token: transient upstream
// failures surface as 502, and connect makes exactly one upstream request.
func TestConnectSocialAccountTransientUpstreamFailure(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"error":"maintenance"}`)
	}))
	defer srv.Close()

	db, mock := setupMockDB(t)
	defer db.Close()
	initTestDeps(db, func(d *Dependencies) { d.NewAdapter = adapterTo(srv) })

	router := setupTestGin()
	router.POST("/api/social/accounts", authAs("user-1", models.RoleUser), ConnectSocialAccount)

	w := doJSON(t, router, http.MethodPost, "/api/social/accounts", models.ConnectAccountRequest{
		Platform:    "instagram",
		AccessToken: "the-token",
	})

	require.Equal(t, http.StatusBadGateway, w.Code, w.Body.String())
	body := decodeBody(t, w)
	details := body["details"].(map[string]interface{})
	assert.Equal(t, float64(http.StatusServiceUnavailable), details["upstream_status"])
	assert.Equal(t, 1, requests, "connect must fetch the profile exactly once")
	assert.NoError(t, mock.ExpectationsWereMet(), "nothing stored on upstream failure")
}

func TestDisconnectSocialAccount(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	initTestDeps(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM social_accounts`)).
		WithArgs("user-1", "tiktok").
		WillReturnResult(sqlmock.NewResult(0, 1))

	router := setupTestGin()
	router.DELETE("/api/social/accounts/:platform", authAs("user-1", models.RoleUser), DisconnectSocialAccount)

	w := doJSON(t, router, http.MethodDelete, "/api/social/accounts/tiktok", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDisconnectSocialAccountNotConnected(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	initTestDeps(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM social_accounts`)).
		WithArgs("user-1", "twitter").
		WillReturnResult(sqlmock.NewResult(0, 0))

	router := setupTestGin()
	router.DELETE("/api/social/accounts/:platform", authAs("user-1", models.RoleUser), DisconnectSocialAccount)

	w := doJSON(t, router, http.MethodDelete, "/api/social/accounts/twitter", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPreviewSocialContent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"ig-123","username":"alice.ig"}`)
	})
	mux.HandleFunc("/me/media", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	db, mock := setupMockDB(t)
	defer db.Close()
	initTestDeps(db, func(d *Dependencies) { d.NewAdapter = adapterTo(srv) })

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT access_token FROM social_accounts`)).
		WithArgs("user-1", "instagram").
		WillReturnRows(sqlmock.NewRows([]string{"access_token"}).AddRow("stored-token"))

	router := setupTestGin()
	router.GET("/api/social/accounts/:platform/preview", authAs("user-1", models.RoleUser), PreviewSocialContent)

	w := doJSON(t, router, http.MethodGet, "/api/social/accounts/instagram/preview", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	profile := body["profile"].(map[string]interface{})
	assert.Equal(t, "alice.ig", profile["username"])
	post, present := body["post"]
	assert.True(t, present, "empty account still carries an explicit null post")
	assert.Nil(t, post)
}

func TestPreviewSocialContentUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":"exploded"}`)
	}))
	defer srv.Close()

	db, mock := setupMockDB(t)
	defer db.Close()
	initTestDeps(db, func(d *Dependencies) { d.NewAdapter = adapterTo(srv) })

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT access_token FROM social_accounts`)).
		WithArgs("user-1", "tiktok").
		WillReturnRows(sqlmock.NewRows([]string{"access_token"}).AddRow("stored-token"))

	router := setupTestGin()
	router.GET("/api/social/accounts/:platform/preview", authAs("user-1", models.RoleUser), PreviewSocialContent)

	w := doJSON(t, router, http.MethodGet, "/api/social/accounts/tiktok/preview", nil)

	require.Equal(t, http.StatusBadGateway, w.Code)
	body := decodeBody(t, w)
	details := body["details"].(map[string]interface{})
	assert.Equal(t, float64(http.StatusInternalServerError), details["upstream_status"])
}

func TestPreviewSocialContentNotConnected(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	initTestDeps(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT access_token FROM social_accounts`)).
		WithArgs("user-1", "facebook").
		WillReturnRows(sqlmock.NewRows([]string{"access_token"}))

	router := setupTestGin()
	router.GET("/api/social/accounts/:platform/preview", authAs("user-1", models.RoleUser), PreviewSocialContent)

	w := doJSON(t, router, http.MethodGet, "/api/social/accounts/facebook/preview", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
