package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emberapp/discovery/internal/app"
	"github.com/emberapp/discovery/internal/db"
	svcErr "github.com/emberapp/discovery/internal/errors"
	"github.com/emberapp/discovery/internal/service/discovery"
)

type handler struct {
	appCtx *app.AppContext
	svc    *discovery.Service
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GET /v1/users/:id/candidates?page_size=N
func (h *handler) getCandidates(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "0"))

	views, err := h.svc.GetCandidates(c.Request.Context(), userID, pageSize)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidates": views})
}

type swipeRequest struct {
	TargetID uint64 `json:"target_id" binding:"required"`
	Type     string `json:"type" binding:"required"`
}

type swipeResponse struct {
	Matched bool   `json:"matched"`
	MatchID string `json:"match_id,omitempty"`
}

// POST /v1/users/:id/swipes
func (h *handler) postSwipe(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req swipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target_id and type are required"})
		return
	}

	result, err := h.svc.Swipe(c.Request.Context(), userID, req.TargetID, db.InteractionType(req.Type))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, swipeResponse{Matched: result.Matched, MatchID: result.MatchID})
}

// GET /v1/users/:id/liked-by?limit=N&token=...&new=true
func (h *handler) getLikedBy(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	newOnly := c.Query("new") == "true"

	var token *string
	if t := c.Query("token"); t != "" {
		token = &t
	}

	page, err := h.svc.LikedBy(c.Request.Context(), userID, token, limit, newOnly)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GET /v1/users/:id/liked-by/count
func (h *handler) getLikedByCount(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	count, err := h.svc.CountLikedBy(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// GET /v1/users/:id/preferences
func (h *handler) getPreferences(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	settings, err := h.svc.ResolvePreferences(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, preferencesBody{
		MinAge:          settings.MinAge,
		MaxAge:          settings.MaxAge,
		MaxDistanceKM:   settings.MaxDistanceKM,
		PreferredGender: settings.PreferredGender,
		HideDistance:    settings.HideDistance,
		HideAge:         settings.HideAge,
	})
}

type preferencesBody struct {
	MinAge          int     `json:"min_age"`
	MaxAge          int     `json:"max_age"`
	MaxDistanceKM   float64 `json:"max_distance_km"`
	PreferredGender string  `json:"preferred_gender"`
	HideDistance    bool    `json:"hide_distance"`
	HideAge         bool    `json:"hide_age"`
}

// PUT /v1/users/:id/preferences
func (h *handler) putPreferences(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req preferencesBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed preferences body"})
		return
	}

	err := h.svc.UpdatePreferences(c.Request.Context(), db.DiscoverySettings{
		UserID:          userID,
		MinAge:          req.MinAge,
		MaxAge:          req.MaxAge,
		MaxDistanceKM:   req.MaxDistanceKM,
		PreferredGender: req.PreferredGender,
		HideDistance:    req.HideDistance,
		HideAge:         req.HideAge,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) userID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user id must be a valid uint64"})
		return 0, false
	}
	return id, true
}

// fail maps a service error to its HTTP status and response body.
func (h *handler) fail(c *gin.Context, err error) {
	status := svcErr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.appCtx.Logger.Error("request failed",
			"path", c.FullPath(), "request_id", c.GetString("request_id"), "err", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}

	body := gin.H{"error": err.Error()}
	var quotaErr *svcErr.QuotaError
	if errors.As(err, &quotaErr) {
		body["resets_at"] = quotaErr.ResetsAt.UTC().Format(time.RFC3339)
	}
	c.JSON(status, body)
}
