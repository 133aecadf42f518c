package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an OpenBook reader account
type User struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	Username    string `gorm:"uniqueIndex;not null" json:"username"`
	DisplayName string `gorm:"not null" json:"display_name"`

	PasswordHash string `gorm:"type:text;not null" json:"-"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Favorite represents a book a user has marked for tracking. BookID is the
// OpenLibrary work ID (e.g. "OL45883W"); title and cover are denormalized so
// the favorites page renders without a lookup round-trip.
type Favorite struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string `gorm:"not null;uniqueIndex:idx_favorites_user_book" json:"user_id"`
	BookID    string `gorm:"not null;uniqueIndex:idx_favorites_user_book" json:"book_id"`
	BookTitle string `gorm:"not null" json:"book_title"`
	CoverID   string `json:"cover_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate assigns an ID so inserts work on Postgres and SQLite alike.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// BeforeCreate assigns an ID so inserts work on Postgres and SQLite alike.
func (f *Favorite) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

// Entry projects a Favorite into the shape the recommendation engine reads.
func (f Favorite) Entry() FavoriteEntry {
	return FavoriteEntry{
		BookID:    f.BookID,
		BookTitle: f.BookTitle,
		CoverID:   f.CoverID,
	}
}
