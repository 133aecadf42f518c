package recommendations

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/openbook/backend/internal/logger"
	"github.com/openbook/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ScoredCandidate is a proposed recommendation before final ranking. For a
// given request at most one candidate exists per book ID; when two discovery
// paths find the same book, the higher-scoring sighting keeps its reason.
type ScoredCandidate struct {
	Book   models.BookSummary `json:"book"`
	Score  float64            `json:"score"`
	Reason string             `json:"reason"`
}

// Finder turns a preference profile into a deduplicated, scored candidate
// list by querying the book lookup along several discovery passes.
type Finder struct {
	lookup BookLookup
	tuning Tuning

	// rnd supplies fallback-path shuffle scores. Injectable so tests get
	// reproducible ordering.
	rnd func() float64
}

// NewFinder creates a candidate finder. A nil rnd gets a time-seeded source.
func NewFinder(lookup BookLookup, tuning Tuning, rnd func() float64) *Finder {
	if rnd == nil {
		r := rand.New(rand.NewSource(time.Now().UnixNano()))
		rnd = r.Float64
	}
	return &Finder{lookup: lookup, tuning: tuning, rnd: rnd}
}

// FindCandidates runs the three discovery passes in priority order (author,
// subject, popular-in-subject), each fanning out its sub-queries
// concurrently. A failed sub-query contributes zero results and never aborts
// the rest. Books in exclude (the user's favorites) are never proposed.
func (f *Finder) FindCandidates(ctx context.Context, profile Profile, exclude map[string]struct{}, limit int) []ScoredCandidate {
	set := newCandidateSet(exclude)

	// Pass 1: by favorite author.
	authors := topAuthors(profile, f.tuning.AuthorPasses)
	f.runPass(ctx, len(authors), func(gctx context.Context, i int) {
		ac := authors[i]
		books, err := f.lookup.SearchByAuthor(gctx, ac.Author, f.tuning.AuthorSearchLimit)
		if err != nil {
			logger.Warn("Author search failed", zap.String("author", ac.Author), zap.Error(err))
			return
		}
		for _, book := range books {
			set.offer(ScoredCandidate{
				Book:   book,
				Score:  f.intrinsicScore(book, profile) + float64(ac.Count)*f.tuning.AuthorPassWeight,
				Reason: fmt.Sprintf("because you like %s", ac.Author),
			})
		}
	})

	// Pass 2: by favorite subject.
	subjects := topSubjects(profile, f.tuning.SubjectPasses)
	f.runPass(ctx, len(subjects), func(gctx context.Context, i int) {
		sc := subjects[i]
		books, err := f.lookup.SearchBySubject(gctx, sc.Subject, f.tuning.SubjectSearchLimit)
		if err != nil {
			logger.Warn("Subject search failed", zap.String("subject", sc.Subject), zap.Error(err))
			return
		}
		for _, book := range books {
			set.offer(ScoredCandidate{
				Book:   book,
				Score:  f.intrinsicScore(book, profile) + float64(sc.Count)*f.tuning.SubjectPassWeight,
				Reason: fmt.Sprintf("based on your interest in %s", sc.Subject),
			})
		}
	})

	// Pass 3: popular works in top subjects.
	popular := topSubjects(profile, f.tuning.PopularPasses)
	f.runPass(ctx, len(popular), func(gctx context.Context, i int) {
		sc := popular[i]
		books, err := f.lookup.PopularInSubject(gctx, sc.Subject, f.tuning.PopularSearchLimit)
		if err != nil {
			logger.Warn("Popular-in-subject lookup failed", zap.String("subject", sc.Subject), zap.Error(err))
			return
		}
		for _, book := range books {
			set.offer(ScoredCandidate{
				Book:   book,
				Score:  f.intrinsicScore(book, profile) + f.tuning.PopularPassWeight,
				Reason: fmt.Sprintf("popular in %s", sc.Subject),
			})
		}
	})

	return set.ranked(limit)
}

// FindFallback serves users without a usable profile: generic popularity
// terms, pseudo-random scores for variety, stopping once limit candidates
// are collected.
func (f *Finder) FindFallback(ctx context.Context, limit int) []ScoredCandidate {
	set := newCandidateSet(nil)

	for _, term := range f.tuning.FallbackTerms {
		books, err := f.lookup.SearchGeneral(ctx, term, f.tuning.FallbackSearchLimit)
		if err != nil {
			logger.Warn("General search failed", zap.String("term", term), zap.Error(err))
			continue
		}
		for _, book := range books {
			set.offer(ScoredCandidate{
				Book:   book,
				Score:  f.rnd(),
				Reason: "general recommendation",
			})
		}
		if set.size() >= limit {
			break
		}
	}

	return set.ranked(limit)
}

// runPass executes n sub-queries of one discovery pass concurrently and
// joins before the next pass starts.
func (f *Finder) runPass(ctx context.Context, n int, sub func(ctx context.Context, i int)) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.tuning.FetchConcurrency)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			sub(gctx, i)
			return nil
		})
	}
	g.Wait() //nolint:errcheck // sub-queries never return errors
}

// intrinsicScore measures how well a book matches the profile, independent
// of which pass discovered it.
func (f *Finder) intrinsicScore(book models.BookSummary, profile Profile) float64 {
	score := 0.0

	for _, author := range book.AuthorNames {
		for _, ac := range profile.TopAuthors {
			if ac.Author == author {
				score += float64(ac.Count) * f.tuning.AuthorMatchWeight
			}
		}
	}

	for _, subject := range book.Subjects {
		normalized := NormalizeSubject(subject)
		for _, sc := range profile.TopSubjects {
			if sc.Subject == normalized {
				score += float64(sc.Count) * f.tuning.SubjectMatchWeight
			}
		}
	}

	if book.FirstPublishYear > 0 {
		decade := book.FirstPublishYear / 10 * 10
		for _, dc := range profile.TopDecades {
			if dc.Decade == decade {
				score += float64(dc.Count) * f.tuning.DecadeMatchWeight
			}
		}
	}

	return score
}

func topAuthors(profile Profile, n int) []AuthorCount {
	if len(profile.TopAuthors) > n {
		return profile.TopAuthors[:n]
	}
	return profile.TopAuthors
}

func topSubjects(profile Profile, n int) []SubjectCount {
	if len(profile.TopSubjects) > n {
		return profile.TopSubjects[:n]
	}
	return profile.TopSubjects
}

// candidateSet deduplicates candidates by book ID under concurrent writes,
// keeping the highest-scoring sighting of each book.
type candidateSet struct {
	mu      sync.Mutex
	best    map[string]ScoredCandidate
	exclude map[string]struct{}
}

func newCandidateSet(exclude map[string]struct{}) *candidateSet {
	return &candidateSet{
		best:    make(map[string]ScoredCandidate),
		exclude: exclude,
	}
}

// offer records a sighting. The replacement rule is strictly-greater, so an
// earlier pass wins score ties and keeps its reason.
func (s *candidateSet) offer(c ScoredCandidate) {
	if c.Book.ID == "" {
		return
	}
	if _, excluded := s.exclude[c.Book.ID]; excluded {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if current, seen := s.best[c.Book.ID]; !seen || c.Score > current.Score {
		s.best[c.Book.ID] = c
	}
}

func (s *candidateSet) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.best)
}

// ranked returns candidates sorted by descending score, truncated to limit.
// Equal scores order by book ID to keep the output stable.
func (s *candidateSet) ranked(limit int) []ScoredCandidate {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ScoredCandidate, 0, len(s.best))
	for _, c := range s.best {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Book.ID < out[j].Book.ID
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
