package handlers

import (
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mylinked/pkg/models"
)

func TestCreateTicket(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	initTestDeps(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO support_tickets`)).
		WithArgs("user-1", "Broken preview", "Instagram preview 502s", models.TicketStatusOpen).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow("ticket-1", now, now))

	router := setupTestGin()
	router.POST("/api/support/tickets", authAs("user-1", models.RoleUser), CreateTicket)

	w := doJSON(t, router, http.MethodPost, "/api/support/tickets", models.CreateTicketRequest{
		Subject: "Broken preview",
		Message: "Instagram preview 502s",
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, models.TicketStatusOpen, body["status"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListMyTickets(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	initTestDeps(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM support_tickets WHERE user_id = $1`)).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "user_id", "subject", "message", "status", "admin_reply", "created_at", "updated_at"}).
			AddRow("ticket-1", "user-1", "Subject", "Body", models.TicketStatusOpen, "", now, now))

	router := setupTestGin()
	router.GET("/api/support/tickets", authAs("user-1", models.RoleUser), ListMyTickets)

	w := doJSON(t, router, http.MethodGet, "/api/support/tickets", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Len(t, body["tickets"], 1)
}

func TestAdminListTicketsRejectsUnknownStatus(t *testing.T) {
	db, _ := setupMockDB(t)
	defer db.Close()
	initTestDeps(db)

	router := setupTestGin()
	router.GET("/api/admin/tickets", authAs("admin-1", models.RoleAdmin), AdminListTickets)

	w := doJSON(t, router, http.MethodGet, "/api/admin/tickets?status=wontfix", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminUpdateTicket(t *testing.T) {
	tests := []struct {
		name     string
		current  string
		next     string
		wantCode int
	}{
		{"open_to_in_progress", models.TicketStatusOpen, models.TicketStatusInProgress, http.StatusOK},
		{"open_to_closed", models.TicketStatusOpen, models.TicketStatusClosed, http.StatusOK},
		{"closed_cannot_reopen", models.TicketStatusClosed, models.TicketStatusOpen, http.StatusUnprocessableEntity},
		{"resolved_cannot_regress", models.TicketStatusResolved, models.TicketStatusInProgress, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			defer db.Close()
			initTestDeps(db)

			mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM support_tickets WHERE id = $1`)).
				WithArgs("ticket-1").
				WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(tt.current))
			if tt.wantCode == http.StatusOK {
				mock.ExpectExec(regexp.QuoteMeta(`UPDATE support_tickets SET status = $1`)).
					WithArgs(tt.next, "ticket-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
			}

			router := setupTestGin()
			router.PUT("/api/admin/tickets/:id", authAs("admin-1", models.RoleAdmin), AdminUpdateTicket)

			w := doJSON(t, router, http.MethodPut, "/api/admin/tickets/ticket-1",
				models.UpdateTicketRequest{Status: &tt.next})

			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAdminUpdateTicketMissing(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	initTestDeps(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM support_tickets`)).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"status"}))

	router := setupTestGin()
	router.PUT("/api/admin/tickets/:id", authAs("admin-1", models.RoleAdmin), AdminUpdateTicket)

	reply := "Looking into it"
	w := doJSON(t, router, http.MethodPut, "/api/admin/tickets/ghost",
		models.UpdateTicketRequest{AdminReply: &reply})

	assert.Equal(t, http.StatusNotFound, w.Code)
}
