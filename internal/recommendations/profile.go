package recommendations

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/openbook/backend/internal/logger"
	"github.com/openbook/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AuthorCount is one ranked author preference.
type AuthorCount struct {
	Author string `json:"author"`
	Count  int    `json:"count"`
}

// SubjectCount is one ranked (normalized) subject preference.
type SubjectCount struct {
	Subject string `json:"subject"`
	Count   int    `json:"count"`
}

// DecadeCount is one ranked publish-decade preference.
type DecadeCount struct {
	Decade int `json:"decade"`
	Count  int `json:"count"`
}

// LanguageCount is one ranked language preference.
type LanguageCount struct {
	Language string `json:"language"`
	Count    int    `json:"count"`
}

// Profile is the frequency-ranked summary of a user's favorite books. Each
// "top" list is sorted by descending count, ties broken by first-seen order,
// and truncated to its cap. A profile with TotalAnalyzed == 0 means "no
// signal"; the engine switches to the general path.
type Profile struct {
	TopAuthors    []AuthorCount   `json:"top_authors"`
	TopSubjects   []SubjectCount  `json:"top_subjects"`
	TopDecades    []DecadeCount   `json:"top_decades"`
	TopLanguages  []LanguageCount `json:"top_languages"`
	TotalAnalyzed int             `json:"total_analyzed"`
}

// Analyzer derives a Profile from a user's favorites.
type Analyzer struct {
	lookup BookLookup
	tuning Tuning
}

// NewAnalyzer creates a preference analyzer.
func NewAnalyzer(lookup BookLookup, tuning Tuning) *Analyzer {
	return &Analyzer{lookup: lookup, tuning: tuning}
}

// Analyze fetches detail for each favorite concurrently and builds the
// ranked preference profile. A favorite whose detail fetch fails is logged
// and skipped; Analyze itself never fails. Given fixed details it is a pure
// function of its input.
func (a *Analyzer) Analyze(ctx context.Context, favorites []models.FavoriteEntry) Profile {
	details := a.fetchDetails(ctx, favorites)

	authors := newFreq[string]()
	subjects := newFreq[string]()
	decades := newFreq[int]()
	languages := newFreq[string]()

	analyzed := 0
	for _, book := range details {
		if book == nil {
			continue
		}
		analyzed++

		for _, author := range book.AuthorNames {
			if author == "" || author == models.UnknownAuthor {
				continue
			}
			authors.add(author)
		}

		for _, subject := range book.Subjects {
			if normalized := NormalizeSubject(subject); normalized != "" {
				subjects.add(normalized)
			}
		}

		if decade, ok := ExtractDecade(book.FirstPublishDate); ok {
			decades.add(decade)
		}

		for _, lang := range book.Languages {
			if lang != "" {
				languages.add(lang)
			}
		}
	}

	profile := Profile{TotalAnalyzed: analyzed}
	for _, e := range authors.top(a.tuning.TopAuthorCap) {
		profile.TopAuthors = append(profile.TopAuthors, AuthorCount{Author: e.key, Count: e.count})
	}
	for _, e := range subjects.top(a.tuning.TopSubjectCap) {
		profile.TopSubjects = append(profile.TopSubjects, SubjectCount{Subject: e.key, Count: e.count})
	}
	for _, e := range decades.top(a.tuning.TopDecadeCap) {
		profile.TopDecades = append(profile.TopDecades, DecadeCount{Decade: e.key, Count: e.count})
	}
	for _, e := range languages.top(a.tuning.TopLanguageCap) {
		profile.TopLanguages = append(profile.TopLanguages, LanguageCount{Language: e.key, Count: e.count})
	}
	return profile
}

// fetchDetails fans out one detail lookup per favorite and joins. The result
// slice is indexed like the input so counting order stays deterministic;
// failed fetches leave a nil slot.
func (a *Analyzer) fetchDetails(ctx context.Context, favorites []models.FavoriteEntry) []*models.BookDetail {
	details := make([]*models.BookDetail, len(favorites))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.tuning.FetchConcurrency)
	for i, favorite := range favorites {
		g.Go(func() error {
			detail, err := a.lookup.GetDetails(gctx, favorite.BookID)
			if err != nil {
				logger.Warn("Failed to fetch favorite detail, skipping",
					logger.WithBookID(favorite.BookID),
					zap.Error(err),
				)
				return nil
			}
			details[i] = detail
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers never return errors

	return details
}

var (
	nonWordRe    = regexp.MustCompile(`[^\w\s]+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// NormalizeSubject canonicalizes a subject string so variants like
// "Science Fiction" and "science-fiction!" count as one preference:
// lowercase, strip punctuation, collapse whitespace, trim.
func NormalizeSubject(subject string) string {
	s := strings.ToLower(subject)
	s = nonWordRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ExtractDecade parses a leading year from a free-form publish date
// ("1965", "1965-06-01", "1965 June") and floors it to the decade.
func ExtractDecade(date string) (int, bool) {
	s := strings.TrimSpace(date)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	year, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return year / 10 * 10, true
}

// freq counts occurrences while remembering first-seen order so ranking
// ties break deterministically.
type freq[K comparable] struct {
	counts map[K]int
	order  []K
}

func newFreq[K comparable]() *freq[K] {
	return &freq[K]{counts: make(map[K]int)}
}

func (f *freq[K]) add(key K) {
	if _, seen := f.counts[key]; !seen {
		f.order = append(f.order, key)
	}
	f.counts[key]++
}

type counted[K comparable] struct {
	key   K
	count int
}

// top returns the n highest-count entries, descending, first-seen order
// breaking ties.
func (f *freq[K]) top(n int) []counted[K] {
	entries := make([]counted[K], 0, len(f.order))
	for _, key := range f.order {
		entries = append(entries, counted[K]{key: key, count: f.counts[key]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].count > entries[j].count
	})
	if n >= 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}
