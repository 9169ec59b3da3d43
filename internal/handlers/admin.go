package handlers

import (
	"net/http"
	"strconv"

	"mylinked/pkg/api"
	"mylinked/pkg/middleware"
	"mylinked/pkg/models"
)

const (
	defaultPageSize = 25
	maxPageSize     = 100
)

// AdminListUsers returns a paginated user listing with optional email
// search (?search=, ?page=, ?page_size=).
func AdminListUsers(c middleware.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	search := c.Query("search")

	where := ""
	countArgs := []interface{}{}
	if search != "" {
		where = ` WHERE email ILIKE $1`
		countArgs = append(countArgs, "%"+search+"%")
	}

	var total int64
	if err := deps.DB.QueryRow(`SELECT COUNT(*) FROM users`+where, countArgs...).Scan(&total); err != nil {
		deps.Logger.WithError(err).Error("Failed to count users")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}

	args := append([]interface{}{}, countArgs...)
	args = append(args, pageSize, (page-1)*pageSize)
	query := `
		SELECT id, email, role, status, last_login_at, created_at, updated_at
		FROM users` + where +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)-1) +
		` OFFSET $` + strconv.Itoa(len(args))

	rows, err := deps.DB.QueryContext(c.Request.Context(), query, args...)
	if err != nil {
		deps.Logger.WithError(err).Error("Failed to list users")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Email, &user.Role, &user.Status,
			&user.LastLoginAt, &user.CreatedAt, &user.UpdatedAt); err != nil {
			deps.Logger.WithError(err).Error("Failed to scan user")
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
			return
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		deps.Logger.WithError(err).Error("Failed to iterate users")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, middleware.H{
		"users":     users,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// AdminUpdateUserStatus activates or suspends an account. Suspended users
// cannot log in and their public page disappears.
func AdminUpdateUserStatus(c middleware.Context) {
	targetID := c.Param("id")

	var req models.UpdateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	result, err := deps.DB.Exec(
		`UPDATE users SET status = $1, updated_at = NOW() WHERE id = $2`, req.Status, targetID)
	if err != nil {
		deps.Logger.WithError(err).Error("Failed to update user status")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "User not found"})
		return
	}

	deps.Logger.WithFields(map[string]interface{}{
		"user_id": targetID,
		"status":  req.Status,
	}).Info("User status changed")
	c.JSON(http.StatusOK, api.SuccessResponse{Success: true})
}
