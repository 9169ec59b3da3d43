// Package handlers implements the HTTP API: auth, profiles, links, social
// accounts, analytics, support tickets, and admin operations.
package handlers

import (
	"context"
	"database/sql"
	"time"

	"mylinked/internal/analytics"
	"mylinked/internal/linkmeta"
	"mylinked/internal/social"
	"mylinked/pkg/logging"
	"mylinked/pkg/middleware"
)

// AdapterFactory builds a social adapter for a platform/token pair. It is a
// seam so tests can point adapters at local servers.
type AdapterFactory func(platform social.Platform, token string) (*social.Adapter, error)

// Dependencies wires the handlers to their backing services. Tracker,
// Reader, and Meta may be nil-valued internally degraded (see each
// constructor); the handlers only require DB, Logger, and JWTSecret.
type Dependencies struct {
	DB         *sql.DB
	Logger     logging.Logger
	JWTSecret  []byte
	Tracker    *analytics.Tracker
	Reader     *analytics.Reader
	Meta       *linkmeta.Fetcher
	NewAdapter AdapterFactory
}

var deps Dependencies

// Init initializes the handlers with their dependencies.
func Init(d Dependencies) {
	if d.NewAdapter == nil {
		d.NewAdapter = func(platform social.Platform, token string) (*social.Adapter, error) {
			return social.New(platform, token)
		}
	}
	deps = d
}

// visitFrom captures the request-level visit context for analytics.
func visitFrom(c middleware.Context) analytics.Visit {
	return analytics.Visit{
		IP:        c.ClientIP(),
		Referrer:  c.GetHeader("Referer"),
		UserAgent: c.Request.UserAgent(),
	}
}

// trackAsync runs a tracking call off the request goroutine so a slow
// counter update never delays the public response.
func trackAsync(name string, fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := fn(ctx); err != nil {
			deps.Logger.WithError(err).WithField("tracking", name).Warn("Failed to record analytics event")
		}
	}()
}
