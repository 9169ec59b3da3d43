// Package analytics records profile views and link clicks, and serves the
// owner-facing dashboards built from them. Lifetime counters live in
// Postgres next to the rows they count; every event is also published to
// the Kafka firehose, from which the ClickHouse timeseries tables are fed.
package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"mylinked/pkg/geoip"
	"mylinked/pkg/kafka"
	"mylinked/pkg/logging"
)

// viewDedupTTL is how long repeat views from the same visitor are ignored.
const viewDedupTTL = 30 * time.Minute

// publisher is the slice of the Kafka producer the tracker needs.
type publisher interface {
	Publish(ctx context.Context, event *kafka.Event) error
}

// geoLookup resolves a visitor IP to a country. *geoip.Reader satisfies it.
type geoLookup interface {
	Lookup(ipStr string) *geoip.GeoData
}

// dedupClient is the slice of the Redis client used for view deduplication.
type dedupClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.BoolCmd
}

// Visit carries the request-level context of a view or click.
type Visit struct {
	IP        string
	Referrer  string
	UserAgent string
}

// Tracker records views and clicks. The producer, geo reader, and redis
// client are all optional: a nil dependency disables that feature and the
// tracker keeps working with what remains.
type Tracker struct {
	db       *sql.DB
	producer publisher
	geo      geoLookup
	redis    dedupClient
	logger   logging.Logger
}

// NewTracker builds a Tracker over the given dependencies.
func NewTracker(db *sql.DB, producer *kafka.Producer, geo *geoip.Reader, redis *goredis.Client, logger logging.Logger) *Tracker {
	t := &Tracker{db: db, logger: logger}
	// Typed nils must not end up inside non-nil interface values.
	if producer != nil {
		t.producer = producer
	}
	if geo != nil {
		t.geo = geo
	}
	if redis != nil {
		t.redis = redis
	}
	return t
}

// TrackProfileView bumps the profile's lifetime view counter and publishes
// a profile_view event. Repeat views from the same visitor within
// viewDedupTTL are dropped when Redis is available; without Redis every
// view counts.
func (t *Tracker) TrackProfileView(ctx context.Context, userID, slug string, visit Visit) error {
	if t.redis != nil && visit.IP != "" {
		key := fmt.Sprintf("mylinked:view:%s:%s", slug, visit.IP)
		first, err := t.redis.SetNX(ctx, key, 1, viewDedupTTL).Result()
		if err != nil {
			t.logger.WithError(err).Warn("View dedup unavailable, counting view")
		} else if !first {
			return nil
		}
	}

	_, err := t.db.ExecContext(ctx,
		`UPDATE profiles SET view_count = view_count + 1 WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to increment view count: %w", err)
	}

	event := kafka.NewEvent(kafka.EventProfileView, userID)
	event.ProfileSlug = slug
	t.publish(ctx, event, visit)
	return nil
}

// TrackLinkClick bumps the link's lifetime click counter and publishes a
// link_click event.
func (t *Tracker) TrackLinkClick(ctx context.Context, userID, linkID, linkURL string, visit Visit) error {
	_, err := t.db.ExecContext(ctx,
		`UPDATE links SET click_count = click_count + 1 WHERE id = $1`, linkID)
	if err != nil {
		return fmt.Errorf("failed to increment click count: %w", err)
	}

	event := kafka.NewEvent(kafka.EventLinkClick, userID)
	event.LinkID = linkID
	event.LinkURL = linkURL
	t.publish(ctx, event, visit)
	return nil
}

// publish enriches the event with visit context and sends it to the
// firehose. Publishing is best effort: the counters in Postgres are the
// source of truth, so a broker outage only costs timeseries granularity.
func (t *Tracker) publish(ctx context.Context, event *kafka.Event, visit Visit) {
	if t.producer == nil {
		return
	}

	event.Referrer = visit.Referrer
	event.UserAgent = visit.UserAgent
	if t.geo != nil && visit.IP != "" {
		if geo := t.geo.Lookup(visit.IP); geo != nil {
			event.CountryCode = geo.CountryCode
		}
	}

	if err := t.producer.Publish(ctx, event); err != nil {
		t.logger.WithError(err).WithFields(logrus.Fields{
			"event_type": event.EventType,
			"user_id":    event.UserID,
		}).Warn("Failed to publish analytics event")
	}
}
