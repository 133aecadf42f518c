package models

// UnknownAuthor is the sentinel used when OpenLibrary has no author name
// for a work. Preference analysis skips it so it never dominates a profile.
const UnknownAuthor = "Unknown author"

// BookDetail is the canonical shape for a fully resolved OpenLibrary work.
// Every external representation (work JSON, search doc, subject listing) is
// normalized into this shape at the client boundary; nothing downstream
// branches on source format.
type BookDetail struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	AuthorNames      []string `json:"author_names"`
	Subjects         []string `json:"subjects"`
	FirstPublishDate string   `json:"first_publish_date,omitempty"`
	Languages        []string `json:"languages,omitempty"`
	CoverID          int64    `json:"cover_id,omitempty"`
}

// BookSummary is the canonical shape for a search or subject-listing result.
type BookSummary struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	AuthorNames      []string `json:"author_names"`
	Subjects         []string `json:"subjects,omitempty"`
	FirstPublishYear int      `json:"first_publish_year,omitempty"`
	CoverID          int64    `json:"cover_id,omitempty"`
}

// FavoriteEntry is the read-only projection of a stored favorite handed to
// the recommendation engine.
type FavoriteEntry struct {
	BookID    string `json:"book_id"`
	BookTitle string `json:"book_title"`
	CoverID   string `json:"cover_id,omitempty"`
}

// RecommendedBook is the display-ready projection of a scored candidate.
type RecommendedBook struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	AuthorNames []string `json:"author_names"`
	CoverURL    string   `json:"cover_url"`
	PublishYear int      `json:"publish_year,omitempty"`
	Reason      string   `json:"reason"`
	Score       float64  `json:"score"`
}
