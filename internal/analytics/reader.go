package analytics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mylinked/pkg/models"
)

// ErrTimeseriesUnavailable is returned when the daily timeseries is
// requested but no ClickHouse connection is configured.
var ErrTimeseriesUnavailable = errors.New("analytics: timeseries store not configured")

const (
	minTimeseriesDays     = 1
	maxTimeseriesDays     = 90
	defaultTimeseriesDays = 30
)

// Reader serves the owner-facing analytics queries. Lifetime totals come
// from Postgres; the daily timeseries comes from ClickHouse and is optional.
type Reader struct {
	db         *sql.DB
	clickhouse *sql.DB
}

// NewReader builds a Reader. The clickhouse handle may be nil, in which
// case Timeseries returns ErrTimeseriesUnavailable.
func NewReader(db, clickhouse *sql.DB) *Reader {
	return &Reader{db: db, clickhouse: clickhouse}
}

// HasTimeseries reports whether the daily timeseries store is configured.
func (r *Reader) HasTimeseries() bool {
	return r.clickhouse != nil
}

// Summary returns the lifetime view and click totals for a user's page,
// with a per-link breakdown ordered by clicks.
func (r *Reader) Summary(ctx context.Context, userID string) (*models.AnalyticsSummary, error) {
	summary := &models.AnalyticsSummary{Links: []models.LinkClicks{}}

	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(view_count, 0) FROM profiles WHERE user_id = $1`, userID).
		Scan(&summary.ProfileViews)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to load profile views: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, click_count FROM links WHERE user_id = $1 ORDER BY click_count DESC, position ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load link clicks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var link models.LinkClicks
		if err := rows.Scan(&link.LinkID, &link.Title, &link.Clicks); err != nil {
			return nil, fmt.Errorf("failed to scan link clicks: %w", err)
		}
		summary.TotalClicks += link.Clicks
		summary.Links = append(summary.Links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate link clicks: %w", err)
	}

	return summary, nil
}

// Timeseries returns per-day view and click counts for the trailing
// window. Days outside [1, 90] are clamped; zero means the default window.
func (r *Reader) Timeseries(ctx context.Context, userID string, days int) ([]models.TimeBucket, error) {
	if r.clickhouse == nil {
		return nil, ErrTimeseriesUnavailable
	}

	switch {
	case days == 0:
		days = defaultTimeseriesDays
	case days < minTimeseriesDays:
		days = minTimeseriesDays
	case days > maxTimeseriesDays:
		days = maxTimeseriesDays
	}

	rows, err := r.clickhouse.QueryContext(ctx, `
		SELECT
			toString(toDate(timestamp)) AS day,
			countIf(event_type = 'profile_view') AS views,
			countIf(event_type = 'link_click') AS clicks
		FROM mylinked_events
		WHERE user_id = ? AND timestamp >= now() - INTERVAL ? DAY
		GROUP BY day
		ORDER BY day ASC`, userID, days)
	if err != nil {
		return nil, fmt.Errorf("failed to query timeseries: %w", err)
	}
	defer rows.Close()

	buckets := []models.TimeBucket{}
	for rows.Next() {
		var bucket models.TimeBucket
		if err := rows.Scan(&bucket.Date, &bucket.Views, &bucket.Clicks); err != nil {
			return nil, fmt.Errorf("failed to scan timeseries row: %w", err)
		}
		buckets = append(buckets, bucket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate timeseries: %w", err)
	}

	return buckets, nil
}
