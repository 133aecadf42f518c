package recommendations

import "time"

// DefaultLimit is the recommendation list size when the caller doesn't ask
// for one.
const DefaultLimit = 15

// Tuning holds the knobs of the recommendation engine. The weights are
// heuristics carried over from the original product; scores are only
// comparable within a single request, so callers must not depend on exact
// values.
type Tuning struct {
	// Per-pass weights applied on top of the intrinsic profile-match score.
	AuthorPassWeight  float64
	SubjectPassWeight float64
	PopularPassWeight float64

	// Intrinsic profile-match weights.
	AuthorMatchWeight  float64
	SubjectMatchWeight float64
	DecadeMatchWeight  float64

	// Profile caps.
	TopAuthorCap   int
	TopSubjectCap  int
	TopDecadeCap   int
	TopLanguageCap int

	// How many profile entries each discovery pass expands.
	AuthorPasses  int
	SubjectPasses int
	PopularPasses int

	// Result bounds per sub-query.
	AuthorSearchLimit   int
	SubjectSearchLimit  int
	PopularSearchLimit  int
	FallbackSearchLimit int

	// FetchConcurrency bounds the per-stage fan-out.
	FetchConcurrency int

	// CacheTTL bounds how long a computed list is served without recomputing.
	CacheTTL time.Duration

	// FallbackTerms drive the general path for users without a profile.
	FallbackTerms []string
}

// DefaultTuning returns the production defaults.
func DefaultTuning() Tuning {
	return Tuning{
		AuthorPassWeight:  0.4,
		SubjectPassWeight: 0.35,
		PopularPassWeight: 0.25,

		AuthorMatchWeight:  0.3,
		SubjectMatchWeight: 0.2,
		DecadeMatchWeight:  0.1,

		TopAuthorCap:   5,
		TopSubjectCap:  8,
		TopDecadeCap:   3,
		TopLanguageCap: 2,

		AuthorPasses:  3,
		SubjectPasses: 4,
		PopularPasses: 2,

		AuthorSearchLimit:   8,
		SubjectSearchLimit:  6,
		PopularSearchLimit:  5,
		FallbackSearchLimit: 2,

		FetchConcurrency: 8,

		CacheTTL: time.Hour,

		FallbackTerms: []string{
			"popular fiction",
			"bestseller",
			"classic literature",
			"fantasy adventure",
			"mystery thriller",
			"science fiction",
			"historical fiction",
			"contemporary fiction",
			"biography",
		},
	}
}
