package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openbook/backend/internal/favorites"
	"github.com/openbook/backend/internal/models"
)

// GetFavorites lists the authenticated user's favorites
func (h *Handlers) GetFavorites(c *gin.Context) {
	userID := c.GetString("user_id")

	entries, err := h.favorites.ListFavorites(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list favorites"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"favorites": entries,
		"meta":      gin.H{"total": len(entries)},
	})
}

// AddFavorite marks a book as favorite and invalidates the user's cached
// recommendations, so the next list reflects the new signal.
func (h *Handlers) AddFavorite(c *gin.Context) {
	userID := c.GetString("user_id")

	var req struct {
		BookID    string `json:"book_id" binding:"required"`
		BookTitle string `json:"book_title" binding:"required"`
		CoverID   string `json:"cover_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	favorite, err := h.favorites.Add(c.Request.Context(), userID, models.FavoriteEntry{
		BookID:    req.BookID,
		BookTitle: req.BookTitle,
		CoverID:   req.CoverID,
	})
	if err != nil {
		if errors.Is(err, favorites.ErrAlreadyFavorited) {
			c.JSON(http.StatusConflict, gin.H{"error": "book already favorited"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add favorite"})
		return
	}

	h.engine.ClearCache(c.Request.Context(), userID)

	c.JSON(http.StatusCreated, favorite)
}

// RemoveFavorite unmarks a book and invalidates the user's cached
// recommendations.
func (h *Handlers) RemoveFavorite(c *gin.Context) {
	userID := c.GetString("user_id")
	bookID := c.Param("bookId")

	if err := h.favorites.Remove(c.Request.Context(), userID, bookID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove favorite"})
		return
	}

	h.engine.ClearCache(c.Request.Context(), userID)

	c.JSON(http.StatusOK, gin.H{"removed": bookID})
}
