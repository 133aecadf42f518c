package recommendations

import (
	"context"
	"fmt"
	"sync"

	"github.com/openbook/backend/internal/models"
)

// fakeLookup is an in-memory BookLookup that records call counts so tests
// can assert the engine really skipped network work on cache hits.
type fakeLookup struct {
	mu        sync.Mutex
	details   map[string]*models.BookDetail
	detailErr map[string]error
	byAuthor  map[string][]models.BookSummary
	authorErr map[string]error
	bySubject map[string][]models.BookSummary
	popular   map[string][]models.BookSummary
	general   map[string][]models.BookSummary
	calls     map[string]int
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{
		details:   make(map[string]*models.BookDetail),
		detailErr: make(map[string]error),
		byAuthor:  make(map[string][]models.BookSummary),
		authorErr: make(map[string]error),
		bySubject: make(map[string][]models.BookSummary),
		popular:   make(map[string][]models.BookSummary),
		general:   make(map[string][]models.BookSummary),
		calls:     make(map[string]int),
	}
}

func (f *fakeLookup) record(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
}

func (f *fakeLookup) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeLookup) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *fakeLookup) GetDetails(ctx context.Context, bookID string) (*models.BookDetail, error) {
	f.record("GetDetails")
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.detailErr[bookID]; ok {
		return nil, err
	}
	detail, ok := f.details[bookID]
	if !ok {
		return nil, fmt.Errorf("no detail configured for %s", bookID)
	}
	return detail, nil
}

func (f *fakeLookup) SearchByAuthor(ctx context.Context, author string, limit int) ([]models.BookSummary, error) {
	f.record("SearchByAuthor")
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.authorErr[author]; ok {
		return nil, err
	}
	return f.byAuthor[author], nil
}

func (f *fakeLookup) SearchBySubject(ctx context.Context, subject string, limit int) ([]models.BookSummary, error) {
	f.record("SearchBySubject")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bySubject[subject], nil
}

func (f *fakeLookup) PopularInSubject(ctx context.Context, subject string, limit int) ([]models.BookSummary, error) {
	f.record("PopularInSubject")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.popular[subject], nil
}

func (f *fakeLookup) SearchGeneral(ctx context.Context, term string, limit int) ([]models.BookSummary, error) {
	f.record("SearchGeneral")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.general[term], nil
}

func (f *fakeLookup) CoverURL(coverID int64) string {
	if coverID <= 0 {
		return "/images/default-cover.jpg"
	}
	return fmt.Sprintf("https://covers.test/%d-M.jpg", coverID)
}

func summaries(ids ...string) []models.BookSummary {
	out := make([]models.BookSummary, 0, len(ids))
	for _, id := range ids {
		out = append(out, summary(id, "Book "+id, "Writer", nil, 0))
	}
	return out
}

func summary(id, title, author string, subjects []string, year int) models.BookSummary {
	return models.BookSummary{
		ID:               id,
		Title:            title,
		AuthorNames:      []string{author},
		Subjects:         subjects,
		FirstPublishYear: year,
	}
}

// fakeStore is an in-memory favorites.Store with a switchable error.
type fakeStore struct {
	mu      sync.Mutex
	entries []models.FavoriteEntry
	err     error
	calls   int
}

func (s *fakeStore) ListFavorites(ctx context.Context, userID string) ([]models.FavoriteEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.entries, nil
}

func (s *fakeStore) setError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *fakeStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
