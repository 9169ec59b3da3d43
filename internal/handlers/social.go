package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"mylinked/internal/social"
	"mylinked/pkg/api"
	"mylinked/pkg/auth"
	"mylinked/pkg/middleware"
	"mylinked/pkg/models"
)

// ListSocialAccounts returns the user's connected social accounts. Access
// tokens never leave the database.
func ListSocialAccounts(c middleware.Context) {
	userID := c.GetString(auth.CtxUserID)

	rows, err := deps.DB.QueryContext(c.Request.Context(), `
		SELECT id, user_id, platform, account_id, username, connected_at, updated_at
		FROM social_accounts WHERE user_id = $1 ORDER BY platform`, userID)
	if err != nil {
		deps.Logger.WithError(err).Error("Failed to list social accounts")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}
	defer rows.Close()

	accounts := []models.SocialAccount{}
	for rows.Next() {
		var account models.SocialAccount
		if err := rows.Scan(&account.ID, &account.UserID, &account.Platform,
			&account.AccountID, &account.Username, &account.ConnectedAt, &account.UpdatedAt); err != nil {
			deps.Logger.WithError(err).Error("Failed to scan social account")
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
			return
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		deps.Logger.WithError(err).Error("Failed to iterate social accounts")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, middleware.H{"accounts": accounts})
}

// ConnectSocialAccount links a platform account: the access token (from an
// OAuth flow completed elsewhere) is validated against the platform, the
// remote profile fetched, and the account row upserted.
func ConnectSocialAccount(c middleware.Context) {
	userID := c.GetString(auth.CtxUserID)

	var req models.ConnectAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	platform, err := social.ParsePlatform(req.Platform)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Unsupported platform"})
		return
	}

	adapter, err := deps.NewAdapter(platform, req.AccessToken)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Unsupported platform"})
		return
	}

	// One profile fetch does double duty as token validation: a permanent
	// platform rejection means a bad token, a transient failure (5xx, 429,
	// network) is the platform's problem and must not read as one.
	profile, err := adapter.Profile(c.Request.Context())
	if err != nil {
		var apiErr *social.APIError
		if errors.As(err, &apiErr) && !apiErr.Temporary() {
			c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Error: "Access token rejected by platform"})
			return
		}
		respondUpstreamError(c, platform, err)
		return
	}

	account := models.SocialAccount{
		UserID:    userID,
		Platform:  string(platform),
		AccountID: profile.ID,
		Username:  profile.Username,
	}
	err = deps.DB.QueryRow(`
		INSERT INTO social_accounts (user_id, platform, account_id, username, access_token)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, platform) DO UPDATE
		SET account_id = EXCLUDED.account_id,
		    username = EXCLUDED.username,
		    access_token = EXCLUDED.access_token,
		    updated_at = NOW()
		RETURNING id, connected_at, updated_at`,
		userID, account.Platform, account.AccountID, account.Username, req.AccessToken,
	).Scan(&account.ID, &account.ConnectedAt, &account.UpdatedAt)
	if err != nil {
		deps.Logger.WithError(err).Error("Failed to store social account")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}

	deps.Logger.WithFields(map[string]interface{}{
		"user_id":  userID,
		"platform": platform,
	}).Info("Social account connected")
	c.JSON(http.StatusCreated, account)
}

// DisconnectSocialAccount removes a connected account.
func DisconnectSocialAccount(c middleware.Context) {
	userID := c.GetString(auth.CtxUserID)

	platform, err := social.ParsePlatform(c.Param("platform"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Unsupported platform"})
		return
	}

	result, err := deps.DB.Exec(
		`DELETE FROM social_accounts WHERE user_id = $1 AND platform = $2`, userID, string(platform))
	if err != nil {
		deps.Logger.WithError(err).Error("Failed to disconnect social account")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Account not connected"})
		return
	}

	c.JSON(http.StatusOK, api.SuccessResponse{Success: true})
}

// PreviewSocialContent fetches a live preview for a connected platform:
// the remote profile and the latest post. An account with no content gets
// a null post, not an error.
func PreviewSocialContent(c middleware.Context) {
	userID := c.GetString(auth.CtxUserID)

	platform, err := social.ParsePlatform(c.Param("platform"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Unsupported platform"})
		return
	}

	var token string
	err = deps.DB.QueryRow(
		`SELECT access_token FROM social_accounts WHERE user_id = $1 AND platform = $2`,
		userID, string(platform)).Scan(&token)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Account not connected"})
		return
	}
	if err != nil {
		deps.Logger.WithError(err).Error("Failed to load social account")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}

	adapter, err := deps.NewAdapter(platform, token)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Unsupported platform"})
		return
	}

	profile, err := adapter.Profile(c.Request.Context())
	if err != nil {
		respondUpstreamError(c, platform, err)
		return
	}

	post, err := adapter.LatestPost(c.Request.Context())
	if err != nil {
		respondUpstreamError(c, platform, err)
		return
	}

	c.JSON(http.StatusOK, middleware.H{
		"platform": platform,
		"profile":  profile,
		"post":     post,
	})
}

// respondUpstreamError maps a platform failure to 502 for the caller,
// carrying the upstream status when the platform answered at all.
func respondUpstreamError(c middleware.Context, platform social.Platform, err error) {
	details := map[string]interface{}{"platform": string(platform)}

	var apiErr *social.APIError
	if errors.As(err, &apiErr) {
		details["upstream_status"] = apiErr.StatusCode
	}

	deps.Logger.WithError(err).WithField("platform", platform).Warn("Platform request failed")
	c.JSON(http.StatusBadGateway, api.ErrorResponse{
		Error:   "Platform request failed",
		Details: details,
	})
}
