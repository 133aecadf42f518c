package recommendations

import (
	"context"

	"github.com/openbook/backend/internal/models"
)

// BookLookup is the book-metadata surface the engine consumes. The
// OpenLibrary client implements it; tests substitute fakes. Every search
// method may fail, and callers here treat failure the same as zero results.
type BookLookup interface {
	GetDetails(ctx context.Context, bookID string) (*models.BookDetail, error)
	SearchByAuthor(ctx context.Context, author string, limit int) ([]models.BookSummary, error)
	SearchBySubject(ctx context.Context, subject string, limit int) ([]models.BookSummary, error)
	PopularInSubject(ctx context.Context, subject string, limit int) ([]models.BookSummary, error)
	SearchGeneral(ctx context.Context, term string, limit int) ([]models.BookSummary, error)

	// CoverURL derives the display cover image URL for a cover ID, or a
	// placeholder when the book has none.
	CoverURL(coverID int64) string
}
