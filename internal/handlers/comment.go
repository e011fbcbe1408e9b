package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/erisanolasheni/risevest/internal/logging"
	authmw "github.com/erisanolasheni/risevest/internal/middleware/auth"
	"github.com/erisanolasheni/risevest/internal/models"
	"github.com/erisanolasheni/risevest/internal/mykafka"
)

type CommentHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

func (h *CommentHandler) CreateComment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "comment_create")

	var req struct {
		Content string `json:"content"`
	}
	if err := c.Bind(&req); err != nil || req.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content is required")
	}

	postID := c.Param("id")
	var exists int64
	if err := h.DB.Model(&models.Post{}).Where("id = ?", postID).Count(&exists).Error; err != nil {
		l.Error("comment_create_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if exists == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "post not found")
	}

	comment := models.Comment{
		PostID:  postID,
		UserID:  authmw.UserID(c),
		Content: req.Content,
	}
	if err := h.DB.Create(&comment).Error; err != nil {
		l.Error("comment_create_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	publishEvent(c, h.Producer, "comment_events", comment.UserID, map[string]interface{}{
		"type":      "comment_created",
		"commentID": comment.ID,
		"postID":    comment.PostID,
		"userID":    comment.UserID,
	})

	return c.JSON(http.StatusCreated, comment)
}

func (h *CommentHandler) GetComments(c echo.Context) error {
	var comments []models.Comment
	if err := h.DB.Where("post_id = ?", c.Param("id")).Order("created_at ASC").Find(&comments).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, comments)
}

func (h *CommentHandler) UpdateComment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "comment_update")

	var req struct {
		Content string `json:"content"`
	}
	if err := c.Bind(&req); err != nil || req.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content is required")
	}

	var comment models.Comment
	if err := h.DB.Where("id = ? AND user_id = ?", c.Param("id"), authmw.UserID(c)).First(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "comment not found or unauthorized")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	comment.Content = req.Content
	if err := h.DB.Save(&comment).Error; err != nil {
		l.Error("comment_update_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, comment)
}

func (h *CommentHandler) DeleteComment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "comment_delete")

	res := h.DB.Where("id = ? AND user_id = ?", c.Param("id"), authmw.UserID(c)).Delete(&models.Comment{})
	if res.Error != nil {
		l.Error("comment_delete_failed", "error", res.Error)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "comment not found or unauthorized")
	}

	return c.NoContent(http.StatusNoContent)
}
