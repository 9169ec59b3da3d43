package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"mylinked/internal/analytics"
	"mylinked/pkg/api"
	"mylinked/pkg/auth"
	"mylinked/pkg/middleware"
)

// GetAnalyticsSummary returns lifetime view/click totals with a per-link
// breakdown.
func GetAnalyticsSummary(c middleware.Context) {
	userID := c.GetString(auth.CtxUserID)

	summary, err := deps.Reader.Summary(c.Request.Context(), userID)
	if err != nil {
		deps.Logger.WithError(err).Error("Failed to load analytics summary")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetAnalyticsTimeseries returns per-day view/click buckets for the
// trailing ?days=N window.
func GetAnalyticsTimeseries(c middleware.Context) {
	userID := c.GetString(auth.CtxUserID)

	days := 0
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "days must be an integer"})
			return
		}
		days = parsed
	}

	buckets, err := deps.Reader.Timeseries(c.Request.Context(), userID, days)
	if errors.Is(err, analytics.ErrTimeseriesUnavailable) {
		c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: "Analytics store not configured"})
		return
	}
	if err != nil {
		deps.Logger.WithError(err).Error("Failed to load analytics timeseries")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, middleware.H{"buckets": buckets})
}
