package recommendations

import (
	"context"
	"sync"
	"time"

	"github.com/openbook/backend/internal/favorites"
	"github.com/openbook/backend/internal/logger"
	"github.com/openbook/backend/internal/metrics"
	"github.com/openbook/backend/internal/models"
	"go.uber.org/zap"
)

// Engine is the public entry point of the recommendation subsystem. It owns
// the cache and decides between the personalized and general flows. One
// engine serves all users; collaborators are injected so tests can
// substitute fakes.
type Engine struct {
	favorites favorites.Store
	lookup    BookLookup
	analyzer  *Analyzer
	finder    *Finder
	cache     Cache
	tuning    Tuning

	// userLocks serializes generation per user so two concurrent requests
	// cannot interleave partial cache writes.
	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

// NewEngine creates a recommendation engine. rnd seeds the fallback shuffle
// and may be nil outside tests.
func NewEngine(store favorites.Store, lookup BookLookup, cache Cache, tuning Tuning, rnd func() float64) *Engine {
	return &Engine{
		favorites: store,
		lookup:    lookup,
		analyzer:  NewAnalyzer(lookup, tuning),
		finder:    NewFinder(lookup, tuning, rnd),
		cache:     cache,
		tuning:    tuning,
		userLocks: make(map[string]*sync.Mutex),
	}
}

// Generate returns up to limit ranked recommendations for the user. It
// never fails: any upstream error degrades to the general fallback list,
// and total failure yields an empty list the caller renders as an empty
// state. limit <= 0 means DefaultLimit.
func (e *Engine) Generate(ctx context.Context, userID string, limit int) []models.RecommendedBook {
	if limit <= 0 {
		limit = DefaultLimit
	}
	start := time.Now()

	if entry, ok := e.cache.Get(ctx, userID); ok {
		metrics.RecordGeneration("cache", time.Since(start))
		return e.project(entry.Items, limit)
	}

	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	// A concurrent request may have filled the cache while we waited.
	if entry, ok := e.cache.Get(ctx, userID); ok {
		metrics.RecordGeneration("cache", time.Since(start))
		return e.project(entry.Items, limit)
	}

	favs, err := e.favorites.ListFavorites(ctx, userID)
	if err != nil {
		// Can't see favorites (no session, store down): serve the general
		// list but don't cache it, so recovery is picked up immediately.
		logger.Warn("Failed to fetch favorites, serving general recommendations",
			logger.WithUserID(userID),
			zap.Error(err),
		)
		items := e.finder.FindFallback(ctx, limit)
		metrics.RecordGeneration("general", time.Since(start))
		return e.project(items, limit)
	}

	items, path := e.compute(ctx, favs, limit)
	e.cache.Set(ctx, userID, CacheEntry{Items: items, ComputedAt: time.Now()})
	metrics.RecordGeneration(path, time.Since(start))
	return e.project(items, limit)
}

// compute picks the personalized or general flow for a favorites snapshot.
func (e *Engine) compute(ctx context.Context, favs []models.FavoriteEntry, limit int) ([]ScoredCandidate, string) {
	if len(favs) == 0 {
		return e.finder.FindFallback(ctx, limit), "general"
	}

	profile := e.analyzer.Analyze(ctx, favs)
	if profile.TotalAnalyzed == 0 {
		// Every detail fetch failed; no signal to personalize on.
		return e.finder.FindFallback(ctx, limit), "general"
	}

	exclude := make(map[string]struct{}, len(favs))
	for _, f := range favs {
		exclude[f.BookID] = struct{}{}
	}
	return e.finder.FindCandidates(ctx, profile, exclude, limit), "personalized"
}

// Profile exposes the analyzed preference profile, used by the debug
// endpoint and the CLI.
func (e *Engine) Profile(ctx context.Context, userID string) (Profile, error) {
	favs, err := e.favorites.ListFavorites(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	return e.analyzer.Analyze(ctx, favs), nil
}

// ClearCache drops the user's cached list, e.g. after a favorite changes.
// Idempotent and callable at any time.
func (e *Engine) ClearCache(ctx context.Context, userID string) {
	e.cache.Del(ctx, userID)
}

// project flattens scored candidates into the display-ready shape.
func (e *Engine) project(items []ScoredCandidate, limit int) []models.RecommendedBook {
	if len(items) > limit {
		items = items[:limit]
	}
	out := make([]models.RecommendedBook, 0, len(items))
	for _, c := range items {
		out = append(out, models.RecommendedBook{
			ID:          c.Book.ID,
			Title:       c.Book.Title,
			AuthorNames: c.Book.AuthorNames,
			CoverURL:    e.lookup.CoverURL(c.Book.CoverID),
			PublishYear: c.Book.FirstPublishYear,
			Reason:      c.Reason,
			Score:       c.Score,
		})
	}
	return out
}

func (e *Engine) userLock(userID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		e.userLocks[userID] = lock
	}
	return lock
}
