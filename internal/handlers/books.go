package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apperrors "github.com/openbook/backend/internal/errors"
)

// SearchBooks proxies a free-text search to OpenLibrary. Keeping the proxy
// server-side means normalization happens once and the SPA never depends on
// OpenLibrary response shapes.
func (h *Handlers) SearchBooks(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter q"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	books, err := h.books.SearchGeneral(c.Request.Context(), query, limit)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"books": books,
		"meta": gin.H{
			"limit": limit,
			"total": len(books),
		},
	})
}

// GetBook returns normalized detail for one work
func (h *Handlers) GetBook(c *gin.Context) {
	bookID := c.Param("id")

	detail, err := h.books.GetDetails(c.Request.Context(), bookID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrBookNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "book not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch book"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"book":      detail,
		"cover_url": h.books.CoverURL(detail.CoverID),
	})
}

// GetBooksBySubject lists works in a category for the catalog page
func (h *Handlers) GetBooksBySubject(c *gin.Context) {
	subject := c.Param("subject")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	books, err := h.books.PopularInSubject(c.Request.Context(), subject, limit)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch subject"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"books": books,
		"meta": gin.H{
			"limit": limit,
			"total": len(books),
		},
	})
}
