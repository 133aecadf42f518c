package openlibrary

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/openbook/backend/internal/errors"
	"github.com/openbook/backend/internal/logger"
	"github.com/openbook/backend/internal/metrics"
	"github.com/openbook/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultBaseURL is the public OpenLibrary API host.
	DefaultBaseURL = "https://openlibrary.org"
	// DefaultCoverBaseURL serves book cover images by cover ID.
	DefaultCoverBaseURL = "https://covers.openlibrary.org/b/id"
	// DefaultCoverPath is the placeholder used when a book has no cover.
	DefaultCoverPath = "/images/default-cover.jpg"

	// authorFetchConcurrency bounds parallel author-name lookups per work.
	authorFetchConcurrency = 4
)

// Client talks to the OpenLibrary REST API and normalizes every response
// shape (work JSON, search docs, subject listings) into the canonical
// models.BookDetail / models.BookSummary types before anything downstream
// sees it.
type Client struct {
	baseURL      string
	coverBaseURL string
	defaultCover string
	client       *http.Client
}

// NewClient creates an OpenLibrary client. Empty arguments fall back to the
// public API endpoints.
func NewClient(baseURL, coverBaseURL, defaultCover string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if coverBaseURL == "" {
		coverBaseURL = DefaultCoverBaseURL
	}
	if defaultCover == "" {
		defaultCover = DefaultCoverPath
	}
	return &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		coverBaseURL: strings.TrimSuffix(coverBaseURL, "/"),
		defaultCover: defaultCover,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Wire shapes. Only the fields we normalize are declared.

type workDoc struct {
	Title            string   `json:"title"`
	Subjects         []string `json:"subjects"`
	FirstPublishDate string   `json:"first_publish_date"`
	Covers           []int64  `json:"covers"`
	Authors          []struct {
		Author struct {
			Key string `json:"key"`
		} `json:"author"`
	} `json:"authors"`
	Languages []struct {
		Key string `json:"key"`
	} `json:"languages"`
}

type authorDoc struct {
	Name string `json:"name"`
}

type searchResponse struct {
	Docs []searchDoc `json:"docs"`
}

type searchDoc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	Subject          []string `json:"subject"`
	FirstPublishYear int      `json:"first_publish_year"`
	CoverI           int64    `json:"cover_i"`
}

type subjectResponse struct {
	Works []subjectWork `json:"works"`
}

type subjectWork struct {
	Key     string `json:"key"`
	Title   string `json:"title"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	CoverID          int64 `json:"cover_id"`
	FirstPublishYear int   `json:"first_publish_year"`
}

// getJSON makes a GET request and decodes the JSON response
func (c *Client) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w: %w", apperrors.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("openlibrary: %w", apperrors.ErrBookNotFound)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("openlibrary: %w (status %d)", apperrors.ErrUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w: %w", apperrors.ErrUnavailable, err)
	}
	return nil
}

// GetDetails fetches a work by its OpenLibrary ID (e.g. "OL45883W") and
// resolves author references to names. An author whose record cannot be
// fetched is reported as the unknown-author sentinel rather than failing
// the whole work.
func (c *Client) GetDetails(ctx context.Context, bookID string) (*models.BookDetail, error) {
	var work workDoc
	endpoint := fmt.Sprintf("%s/works/%s.json", c.baseURL, url.PathEscape(bookID))
	if err := c.getJSON(ctx, endpoint, &work); err != nil {
		metrics.RecordLookupError("details")
		return nil, fmt.Errorf("get work %s: %w", bookID, err)
	}

	detail := &models.BookDetail{
		ID:               bookID,
		Title:            work.Title,
		AuthorNames:      c.resolveAuthors(ctx, work),
		Subjects:         work.Subjects,
		FirstPublishDate: work.FirstPublishDate,
	}
	if len(work.Covers) > 0 {
		detail.CoverID = work.Covers[0]
	}
	for _, lang := range work.Languages {
		detail.Languages = append(detail.Languages, strings.TrimPrefix(lang.Key, "/languages/"))
	}
	return detail, nil
}

// resolveAuthors fetches author names for a work's author references. The
// fetches run concurrently; results keep reference order.
func (c *Client) resolveAuthors(ctx context.Context, work workDoc) []string {
	if len(work.Authors) == 0 {
		return []string{models.UnknownAuthor}
	}

	names := make([]string, len(work.Authors))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(authorFetchConcurrency)
	for i, ref := range work.Authors {
		g.Go(func() error {
			key := ref.Author.Key
			if key == "" {
				names[i] = models.UnknownAuthor
				return nil
			}
			var author authorDoc
			if err := c.getJSON(gctx, c.baseURL+key+".json", &author); err != nil || author.Name == "" {
				logger.Warn("Failed to resolve author", zap.String("author_key", key), zap.Error(err))
				names[i] = models.UnknownAuthor
				return nil
			}
			names[i] = author.Name
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers never return errors
	return names
}

// search runs a free-text query against /search.json
func (c *Client) search(ctx context.Context, query string, limit int) ([]models.BookSummary, error) {
	endpoint := fmt.Sprintf("%s/search.json?q=%s&limit=%d", c.baseURL, url.QueryEscape(query), limit)
	var resp searchResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		metrics.RecordLookupError("search")
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	books := make([]models.BookSummary, 0, len(resp.Docs))
	for _, doc := range resp.Docs {
		books = append(books, doc.normalize())
	}
	return books, nil
}

func (d searchDoc) normalize() models.BookSummary {
	authors := d.AuthorName
	if len(authors) == 0 {
		authors = []string{models.UnknownAuthor}
	}
	return models.BookSummary{
		ID:               strings.TrimPrefix(d.Key, "/works/"),
		Title:            d.Title,
		AuthorNames:      authors,
		Subjects:         d.Subject,
		FirstPublishYear: d.FirstPublishYear,
		CoverID:          d.CoverI,
	}
}

// SearchGeneral searches by free-text term.
func (c *Client) SearchGeneral(ctx context.Context, term string, limit int) ([]models.BookSummary, error) {
	return c.search(ctx, term, limit)
}

// SearchByAuthor searches for works by an author name.
func (c *Client) SearchByAuthor(ctx context.Context, author string, limit int) ([]models.BookSummary, error) {
	books, err := c.search(ctx, fmt.Sprintf("author:%q", author), limit)
	if err != nil {
		return nil, err
	}
	// The search index sometimes omits author_name on sparse docs; the
	// query already scoped them to this author.
	for i := range books {
		if len(books[i].AuthorNames) == 1 && books[i].AuthorNames[0] == models.UnknownAuthor {
			books[i].AuthorNames = []string{author}
		}
	}
	return books, nil
}

// SearchBySubject searches for works tagged with a subject, retrying as
// free text when the scoped query matches nothing.
func (c *Client) SearchBySubject(ctx context.Context, subject string, limit int) ([]models.BookSummary, error) {
	books, err := c.search(ctx, fmt.Sprintf("subject:%q", subject), limit)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		books, err = c.search(ctx, subject, limit)
		if err != nil {
			return nil, err
		}
	}
	for i := range books {
		books[i].Subjects = appendMissing(books[i].Subjects, subject)
	}
	return books, nil
}

// PopularInSubject lists works from the curated subject endpoint, which
// orders by edition count (a reasonable popularity proxy).
func (c *Client) PopularInSubject(ctx context.Context, subject string, limit int) ([]models.BookSummary, error) {
	slug := subjectSlug(subject)
	endpoint := fmt.Sprintf("%s/subjects/%s.json?limit=%d", c.baseURL, url.PathEscape(slug), limit)
	var resp subjectResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		metrics.RecordLookupError("subject")
		return nil, fmt.Errorf("subject %q: %w", subject, err)
	}

	books := make([]models.BookSummary, 0, len(resp.Works))
	for _, work := range resp.Works {
		authors := make([]string, 0, len(work.Authors))
		for _, a := range work.Authors {
			if a.Name != "" {
				authors = append(authors, a.Name)
			}
		}
		if len(authors) == 0 {
			authors = []string{models.UnknownAuthor}
		}
		books = append(books, models.BookSummary{
			ID:               strings.TrimPrefix(work.Key, "/works/"),
			Title:            work.Title,
			AuthorNames:      authors,
			Subjects:         []string{subject},
			FirstPublishYear: work.FirstPublishYear,
			CoverID:          work.CoverID,
		})
	}
	return books, nil
}

// CoverURL builds the medium-size cover image URL for a cover ID, or the
// default placeholder when the book has none.
func (c *Client) CoverURL(coverID int64) string {
	if coverID <= 0 {
		return c.defaultCover
	}
	return c.coverBaseURL + "/" + strconv.FormatInt(coverID, 10) + "-M.jpg"
}

// subjectSlug converts a display subject into the /subjects/ path form.
func subjectSlug(subject string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(subject)), " ", "_")
}

func appendMissing(subjects []string, subject string) []string {
	for _, s := range subjects {
		if strings.EqualFold(s, subject) {
			return subjects
		}
	}
	return append(subjects, subject)
}
