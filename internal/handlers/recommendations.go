package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetRecommendations returns the ranked recommendation list for the
// authenticated user. The engine degrades internally, so this endpoint only
// ever answers 200 with a (possibly empty) list.
func (h *Handlers) GetRecommendations(c *gin.Context) {
	userID := c.GetString("user_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "15"))

	books := h.engine.Generate(c.Request.Context(), userID, limit)

	c.JSON(http.StatusOK, gin.H{
		"recommendations": books,
		"meta": gin.H{
			"limit": limit,
			"total": len(books),
		},
	})
}

// GetRecommendationProfile exposes the analyzed preference profile for the
// debug view.
func (h *Handlers) GetRecommendationProfile(c *gin.Context) {
	userID := c.GetString("user_id")

	profile, err := h.engine.Profile(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to analyze preferences"})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// ClearRecommendationCache drops the user's cached recommendations
func (h *Handlers) ClearRecommendationCache(c *gin.Context) {
	userID := c.GetString("user_id")

	h.engine.ClearCache(c.Request.Context(), userID)

	c.JSON(http.StatusOK, gin.H{"cleared": true})
}
