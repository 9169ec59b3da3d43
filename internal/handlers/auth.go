package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"mylinked/pkg/api"
	"mylinked/pkg/auth"
	"mylinked/pkg/middleware"
	"mylinked/pkg/models"
)

// pqUniqueViolation is the Postgres error code for unique constraint hits.
const pqUniqueViolation = "23505"

var slugCleaner = regexp.MustCompile(`[^a-z0-9-]+`)

// slugify derives a URL slug from a display name or email local part.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if at := strings.IndexByte(s, '@'); at > 0 {
		s = s[:at]
	}
	s = slugCleaner.ReplaceAllString(strings.ReplaceAll(s, " ", "-"), "")
	s = strings.Trim(s, "-")
	if s == "" {
		s = "user"
	}
	return s
}

// Register creates a new account with its default profile and returns a
// session token.
func Register(c middleware.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	// Honeypot field; humans never see it, bots fill it.
	if req.Website != "" {
		deps.Logger.WithField("client_ip", c.ClientIP()).Warn("Registration honeypot triggered")
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		deps.Logger.WithError(err).Error("Failed to hash password")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}

	tx, err := deps.DB.Begin()
	if err != nil {
		deps.Logger.WithError(err).Error("Failed to begin transaction")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}
	defer tx.Rollback()

	user := models.User{
		Email:  strings.ToLower(req.Email),
		Role:   models.RoleUser,
		Status: models.UserStatusActive,
	}
	err = tx.QueryRow(`
		INSERT INTO users (email, password_hash, role, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		user.Email, hash, user.Role, user.Status,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == pqUniqueViolation {
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Email already registered"})
			return
		}
		deps.Logger.WithError(err).Error("Failed to create user")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = slugify(req.Email)
	}
	// ON CONFLICT DO NOTHING keeps a taken slug from erroring out the
	// transaction: Postgres aborts a transaction on the first failed
	// statement, so a plain insert-and-retry could never succeed here.
	slug := slugify(displayName)
	result, err := tx.Exec(`
		INSERT INTO profiles (user_id, slug, display_name, theme)
		VALUES ($1, $2, $3, 'default')
		ON CONFLICT (slug) DO NOTHING`,
		user.ID, slug, displayName)
	if err == nil {
		if rows, _ := result.RowsAffected(); rows == 0 {
			// Slug taken; retry once with a random suffix.
			slug = fmt.Sprintf("%s-%s", slug, uuid.New().String()[:8])
			result, err = tx.Exec(`
				INSERT INTO profiles (user_id, slug, display_name, theme)
				VALUES ($1, $2, $3, 'default')
				ON CONFLICT (slug) DO NOTHING`,
				user.ID, slug, displayName)
			if err == nil {
				if rows, _ := result.RowsAffected(); rows == 0 {
					err = fmt.Errorf("slug %q taken after suffix retry", slug)
				}
			}
		}
	}
	if err != nil {
		deps.Logger.WithError(err).Error("Failed to create profile")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}

	if err := tx.Commit(); err != nil {
		deps.Logger.WithError(err).Error("Failed to commit registration")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}

	token, err := auth.GenerateJWT(user.ID, user.Email, user.Role, deps.JWTSecret)
	if err != nil {
		deps.Logger.WithError(err).Error("Failed to generate token")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}

	deps.Logger.WithField("user_id", user.ID).Info("User registered")
	c.JSON(http.StatusCreated, models.AuthResponse{Token: token, User: user})
}

// Login verifies credentials and returns a session token.
func Login(c middleware.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	var user models.User
	var hash string
	err := deps.DB.QueryRow(`
		SELECT id, email, password_hash, role, status, created_at, updated_at
		FROM users WHERE email = $1`,
		strings.ToLower(req.Email),
	).Scan(&user.ID, &user.Email, &hash, &user.Role, &user.Status, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Invalid email or password"})
		return
	}
	if err != nil {
		deps.Logger.WithError(err).Error("Failed to load user")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}

	if !auth.CheckPassword(req.Password, hash) {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Invalid email or password"})
		return
	}

	if user.Status == models.UserStatusSuspended {
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "Account suspended"})
		return
	}

	if _, err := deps.DB.Exec(`UPDATE users SET last_login_at = NOW() WHERE id = $1`, user.ID); err != nil {
		deps.Logger.WithError(err).WithField("user_id", user.ID).Warn("Failed to record login time")
	}

	token, err := auth.GenerateJWT(user.ID, user.Email, user.Role, deps.JWTSecret)
	if err != nil {
		deps.Logger.WithError(err).Error("Failed to generate token")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, models.AuthResponse{Token: token, User: user})
}
