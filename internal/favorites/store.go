package favorites

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/openbook/backend/internal/errors"
	"github.com/openbook/backend/internal/models"
	"gorm.io/gorm"
)

// ErrAlreadyFavorited is returned when a user favorites the same book twice.
var ErrAlreadyFavorited = errors.New("book already favorited")

// Store is the read surface the recommendation engine depends on.
type Store interface {
	ListFavorites(ctx context.Context, userID string) ([]models.FavoriteEntry, error)
}

// GormStore persists favorites in the relational database.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a favorites store backed by db.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// ListFavorites returns the user's favorites, newest first. A user with no
// favorites gets an empty slice; a missing session gets ErrUnauthenticated.
func (s *GormStore) ListFavorites(ctx context.Context, userID string) ([]models.FavoriteEntry, error) {
	if userID == "" {
		return nil, apperrors.ErrUnauthenticated
	}

	var favorites []models.Favorite
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&favorites).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}

	entries := make([]models.FavoriteEntry, 0, len(favorites))
	for _, f := range favorites {
		entries = append(entries, f.Entry())
	}
	return entries, nil
}

// Add records a favorite for the user.
func (s *GormStore) Add(ctx context.Context, userID string, entry models.FavoriteEntry) (*models.Favorite, error) {
	if userID == "" {
		return nil, apperrors.ErrUnauthenticated
	}

	var existing models.Favorite
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ?", userID, entry.BookID).
		First(&existing).Error
	if err == nil {
		return nil, ErrAlreadyFavorited
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check favorite: %w", err)
	}

	favorite := &models.Favorite{
		UserID:    userID,
		BookID:    entry.BookID,
		BookTitle: entry.BookTitle,
		CoverID:   entry.CoverID,
	}
	if err := s.db.WithContext(ctx).Create(favorite).Error; err != nil {
		return nil, fmt.Errorf("failed to create favorite: %w", err)
	}
	return favorite, nil
}

// Remove deletes a favorite. Removing a book that isn't favorited is not an
// error; unfavorite is idempotent from the UI's point of view.
func (s *GormStore) Remove(ctx context.Context, userID, bookID string) error {
	if userID == "" {
		return apperrors.ErrUnauthenticated
	}

	err := s.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Delete(&models.Favorite{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}
