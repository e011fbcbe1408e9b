package handlers

import (
	"errors"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/erisanolasheni/risevest/internal/logging"
	authmw "github.com/erisanolasheni/risevest/internal/middleware/auth"
	"github.com/erisanolasheni/risevest/internal/models"
	"github.com/erisanolasheni/risevest/internal/mykafka"
	"github.com/erisanolasheni/risevest/internal/service/search"
	"github.com/erisanolasheni/risevest/internal/util"
)

type PostHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	Index    string
}

func (h *PostHandler) GetPosts(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	offset, limit := util.Calculate(page, size)

	var total int64
	if err := h.DB.Model(&models.Post{}).Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var items []models.Post
	if err := h.DB.Order("created_at DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *PostHandler) GetPost(c echo.Context) error {
	var post models.Post
	if err := h.DB.Where("id = ?", c.Param("id")).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, post)
}

func (h *PostHandler) CreatePost(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "post_create")

	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Title == "" || req.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title and content are required")
	}

	post := models.Post{
		UserID:  authmw.UserID(c),
		Title:   req.Title,
		Content: req.Content,
	}
	if err := h.DB.Create(&post).Error; err != nil {
		l.Error("post_create_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.indexPost(c, &post)
	publishEvent(c, h.Producer, "post_events", post.UserID, map[string]interface{}{
		"type":   "post_created",
		"postID": post.ID,
		"userID": post.UserID,
	})

	return c.JSON(http.StatusCreated, post)
}

func (h *PostHandler) UpdatePost(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "post_update")

	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var post models.Post
	if err := h.DB.Where("id = ? AND user_id = ?", c.Param("id"), authmw.UserID(c)).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "post not found or unauthorized")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if req.Title != "" {
		post.Title = req.Title
	}
	if req.Content != "" {
		post.Content = req.Content
	}
	if err := h.DB.Save(&post).Error; err != nil {
		l.Error("post_update_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.indexPost(c, &post)
	publishEvent(c, h.Producer, "post_events", post.UserID, map[string]interface{}{
		"type":   "post_updated",
		"postID": post.ID,
		"userID": post.UserID,
	})

	return c.JSON(http.StatusOK, post)
}

func (h *PostHandler) DeletePost(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "post_delete")

	res := h.DB.Where("id = ? AND user_id = ?", c.Param("id"), authmw.UserID(c)).Delete(&models.Post{})
	if res.Error != nil {
		l.Error("post_delete_failed", "error", res.Error)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "post not found or unauthorized")
	}

	if h.ES != nil {
		if err := search.DeletePost(ctx, h.ES, h.Index, c.Param("id")); err != nil {
			l.Warn("post_deindex_failed", "error", err)
		}
	}
	publishEvent(c, h.Producer, "post_events", authmw.UserID(c), map[string]interface{}{
		"type":   "post_deleted",
		"postID": c.Param("id"),
	})

	return c.NoContent(http.StatusNoContent)
}

func (h *PostHandler) indexPost(c echo.Context, post *models.Post) {
	if h.ES == nil {
		return
	}
	ctx := c.Request().Context()
	if err := search.IndexPost(ctx, h.ES, h.Index, post); err != nil {
		logging.FromContext(ctx).Warn("post_index_failed", "post_id", post.ID, "error", err)
	}
}
