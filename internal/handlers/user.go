package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/erisanolasheni/risevest/internal/hash"
	"github.com/erisanolasheni/risevest/internal/logging"
	authmw "github.com/erisanolasheni/risevest/internal/middleware/auth"
	"github.com/erisanolasheni/risevest/internal/models"
)

type UserHandler struct {
	DB *gorm.DB
}

func (h *UserHandler) GetUsers(c echo.Context) error {
	var users []models.User
	if err := h.DB.Order("created_at ASC").Find(&users).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, users)
}

func (h *UserHandler) GetUser(c echo.Context) error {
	var user models.User
	if err := h.DB.Where("id = ?", c.Param("id")).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) GetUserPosts(c echo.Context) error {
	var posts []models.Post
	if err := h.DB.Where("user_id = ?", c.Param("id")).Order("created_at DESC").Find(&posts).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, posts)
}

type topUserRow struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	PostCount        int64      `json:"postCount"`
	LatestComment    *string    `json:"latestComment"`
	PostTitle        *string    `json:"postTitle"`
	CommentCreatedAt *time.Time `json:"commentCreatedAt"`
}

// GetTopUsers returns the three most prolific authors together with the
// most recent comment each of them left.
func (h *UserHandler) GetTopUsers(c echo.Context) error {
	const query = `
WITH ranked_users AS (
    SELECT u.id, u.name, COUNT(p.id) AS post_count
    FROM users u
    LEFT JOIN posts p ON u.id = p.user_id
    GROUP BY u.id, u.name
    ORDER BY COUNT(p.id) DESC
    LIMIT 3
),
latest_comments AS (
    SELECT c.user_id, c.content AS latest_comment, c.created_at, p.title AS post_title
    FROM comments c
    JOIN posts p ON c.post_id = p.id
    WHERE c.user_id IN (SELECT id FROM ranked_users)
      AND c.created_at = (
          SELECT MAX(c2.created_at) FROM comments c2 WHERE c2.user_id = c.user_id
      )
)
SELECT ru.id, ru.name, ru.post_count,
       lc.latest_comment, lc.post_title, lc.created_at AS comment_created_at
FROM ranked_users ru
LEFT JOIN latest_comments lc ON ru.id = lc.user_id
ORDER BY ru.post_count DESC`

	var rows []topUserRow
	if err := h.DB.Raw(query).Scan(&rows).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, rows)
}

func (h *UserHandler) UpdateUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_update")

	if c.Param("id") != authmw.UserID(c) {
		return echo.NewHTTPError(http.StatusForbidden, "cannot modify another user")
	}

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var user models.User
	if err := h.DB.Where("id = ?", c.Param("id")).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	if req.Password != "" {
		pwHash, err := hash.HashPassword(req.Password)
		if err != nil {
			l.Error("user_update_failed", "reason", "hash_error", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		user.PasswordHash = pwHash
	}

	if err := h.DB.Save(&user).Error; err != nil {
		l.Error("user_update_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_delete")

	if c.Param("id") != authmw.UserID(c) {
		return echo.NewHTTPError(http.StatusForbidden, "cannot delete another user")
	}

	if err := h.DB.Where("id = ?", c.Param("id")).Delete(&models.User{}).Error; err != nil {
		l.Error("user_delete_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.NoContent(http.StatusNoContent)
}
