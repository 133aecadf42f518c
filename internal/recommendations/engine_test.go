package recommendations

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/openbook/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(store *fakeStore, lookup *fakeLookup, cache Cache) *Engine {
	score := 1.0
	rnd := func() float64 {
		score -= 0.001
		return score
	}
	return NewEngine(store, lookup, cache, DefaultTuning(), rnd)
}

// seedPersonalized configures one favorite (Dune) plus discovery results so
// the personalized flow has material to work with.
func seedPersonalized(store *fakeStore, lookup *fakeLookup) {
	store.entries = []models.FavoriteEntry{{BookID: "OL45883W", BookTitle: "Dune"}}
	lookup.details["OL45883W"] = &models.BookDetail{
		ID:               "OL45883W",
		Title:            "Dune",
		AuthorNames:      []string{"Frank Herbert"},
		Subjects:         []string{"science fiction"},
		FirstPublishDate: "1965",
	}
	lookup.byAuthor["Frank Herbert"] = []models.BookSummary{
		summary("OL45884W", "Dune Messiah", "Frank Herbert", []string{"science fiction"}, 1969),
	}
	lookup.bySubject["science fiction"] = []models.BookSummary{
		summary("OL20W", "Hyperion", "Dan Simmons", []string{"science fiction"}, 1989),
	}
	lookup.popular["science fiction"] = []models.BookSummary{
		summary("OL21W", "Foundation", "Isaac Asimov", []string{"science fiction"}, 1951),
	}
}

func TestGenerateServesCachedListWithoutLookups(t *testing.T) {
	store := &fakeStore{}
	lookup := newFakeLookup()
	seedPersonalized(store, lookup)

	engine := newTestEngine(store, lookup, NewMemoryCache(time.Hour))
	ctx := context.Background()

	first := engine.Generate(ctx, "user-1", 10)
	require.NotEmpty(t, first)

	callsAfterFirst := lookup.totalCalls()
	storeCallsAfterFirst := store.callCount()

	second := engine.Generate(ctx, "user-1", 10)
	assert.Equal(t, first, second)
	assert.Equal(t, callsAfterFirst, lookup.totalCalls(), "cached request must not hit the lookup")
	assert.Equal(t, storeCallsAfterFirst, store.callCount(), "cached request must not hit the store")
}

func TestGenerateRecomputesAfterTTL(t *testing.T) {
	store := &fakeStore{}
	lookup := newFakeLookup()
	seedPersonalized(store, lookup)

	cache := NewMemoryCache(time.Hour)
	offset := time.Duration(0)
	cache.now = func() time.Time { return time.Now().Add(offset) }

	engine := newTestEngine(store, lookup, cache)
	ctx := context.Background()

	engine.Generate(ctx, "user-1", 10)
	callsAfterFirst := lookup.totalCalls()

	offset = 2 * time.Hour
	engine.Generate(ctx, "user-1", 10)
	assert.Greater(t, lookup.totalCalls(), callsAfterFirst, "expired entry must trigger recomputation")
}

func TestGenerateExcludesFavorites(t *testing.T) {
	store := &fakeStore{}
	lookup := newFakeLookup()
	seedPersonalized(store, lookup)
	// The author search also returns the favorite itself.
	lookup.byAuthor["Frank Herbert"] = append(lookup.byAuthor["Frank Herbert"],
		summary("OL45883W", "Dune", "Frank Herbert", []string{"science fiction"}, 1965))

	engine := newTestEngine(store, lookup, NewMemoryCache(time.Hour))
	got := engine.Generate(context.Background(), "user-1", 10)

	require.NotEmpty(t, got)
	for _, book := range got {
		assert.NotEqual(t, "OL45883W", book.ID, "favorited books must never be recommended")
	}
}

func TestGenerateFallsBackWithoutFavorites(t *testing.T) {
	store := &fakeStore{}
	lookup := newFakeLookup()
	tuning := DefaultTuning()
	lookup.general[tuning.FallbackTerms[0]] = summaries("OL1W", "OL2W", "OL3W")

	engine := newTestEngine(store, lookup, NewMemoryCache(time.Hour))
	ctx := context.Background()

	got := engine.Generate(ctx, "user-1", 3)
	require.Len(t, got, 3)
	for _, book := range got {
		assert.Equal(t, "general recommendation", book.Reason)
	}

	// The empty-favorites outcome is a legitimate result and gets cached.
	callsAfterFirst := lookup.callCount("SearchGeneral")
	engine.Generate(ctx, "user-1", 3)
	assert.Equal(t, callsAfterFirst, lookup.callCount("SearchGeneral"))
}

func TestGenerateStoreFailureServesFallbackUncached(t *testing.T) {
	store := &fakeStore{}
	lookup := newFakeLookup()
	seedPersonalized(store, lookup)
	lookup.general[DefaultTuning().FallbackTerms[0]] = summaries("OL1W", "OL2W")

	store.setError(errors.New("database down"))

	engine := newTestEngine(store, lookup, NewMemoryCache(time.Hour))
	ctx := context.Background()

	degraded := engine.Generate(ctx, "user-1", 10)
	require.NotEmpty(t, degraded)
	for _, book := range degraded {
		assert.Equal(t, "general recommendation", book.Reason)
	}

	// Once the store recovers, the next request personalizes immediately
	// because the degraded result was never cached.
	store.setError(nil)
	recovered := engine.Generate(ctx, "user-1", 10)
	require.NotEmpty(t, recovered)
	assert.NotEqual(t, "general recommendation", recovered[0].Reason)
}

func TestGenerateFallsBackWhenAllDetailFetchesFail(t *testing.T) {
	store := &fakeStore{entries: []models.FavoriteEntry{{BookID: "OL45883W"}}}
	lookup := newFakeLookup()
	lookup.detailErr["OL45883W"] = errors.New("openlibrary down")
	lookup.general[DefaultTuning().FallbackTerms[0]] = summaries("OL1W")

	engine := newTestEngine(store, lookup, NewMemoryCache(time.Hour))
	got := engine.Generate(context.Background(), "user-1", 10)

	require.NotEmpty(t, got)
	assert.Equal(t, "general recommendation", got[0].Reason)
}

func TestGenerateDefaultsLimit(t *testing.T) {
	store := &fakeStore{}
	lookup := newFakeLookup()
	many := make([]string, 0, 30)
	for i := 0; i < 30; i++ {
		many = append(many, fmt.Sprintf("OL%dW", i))
	}
	lookup.general[DefaultTuning().FallbackTerms[0]] = summaries(many...)

	engine := newTestEngine(store, lookup, NewMemoryCache(time.Hour))
	got := engine.Generate(context.Background(), "user-1", 0)
	assert.Len(t, got, DefaultLimit)
}

func TestGenerateProjectsCoverURLs(t *testing.T) {
	store := &fakeStore{}
	lookup := newFakeLookup()
	tuning := DefaultTuning()
	book := summary("OL1W", "Dune", "Frank Herbert", nil, 1965)
	book.CoverID = 11481354
	lookup.general[tuning.FallbackTerms[0]] = []models.BookSummary{book}

	engine := newTestEngine(store, lookup, NewMemoryCache(time.Hour))
	got := engine.Generate(context.Background(), "user-1", 5)

	require.Len(t, got, 1)
	assert.Equal(t, lookup.CoverURL(11481354), got[0].CoverURL)
	assert.Equal(t, 1965, got[0].PublishYear)
}

func TestClearCacheForcesRecompute(t *testing.T) {
	store := &fakeStore{}
	lookup := newFakeLookup()
	seedPersonalized(store, lookup)

	engine := newTestEngine(store, lookup, NewMemoryCache(time.Hour))
	ctx := context.Background()

	engine.Generate(ctx, "user-1", 10)
	callsAfterFirst := store.callCount()

	engine.ClearCache(ctx, "user-1")
	engine.Generate(ctx, "user-1", 10)
	assert.Greater(t, store.callCount(), callsAfterFirst)

	// Clearing an absent entry is fine.
	engine.ClearCache(ctx, "missing-user")
}

func TestProfilePassesThroughStoreErrors(t *testing.T) {
	store := &fakeStore{}
	lookup := newFakeLookup()
	store.setError(errors.New("database down"))

	engine := newTestEngine(store, lookup, NewMemoryCache(time.Hour))
	_, err := engine.Profile(context.Background(), "user-1")
	assert.Error(t, err)
}
