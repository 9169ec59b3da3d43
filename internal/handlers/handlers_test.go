package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"mylinked/internal/analytics"
	"mylinked/pkg/auth"
)

// Test utilities

func setupTestGin() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// initTestDeps wires the handlers to a mock database with the optional
// extras disabled.
func initTestDeps(db *sql.DB, extra ...func(*Dependencies)) {
	d := Dependencies{
		DB:        db,
		Logger:    testLogger(),
		JWTSecret: []byte("test-secret"),
		Reader:    analytics.NewReader(db, nil),
	}
	for _, fn := range extra {
		fn(&d)
	}
	Init(d)
}

// authAs fakes an authenticated session the way auth.Middleware would.
func authAs(userID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(auth.CtxUserID, userID)
		c.Set(auth.CtxEmail, userID+"@example.com")
		c.Set(auth.CtxRole, role)
	}
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
