package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/openbook/backend/internal/auth"
	apperrors "github.com/openbook/backend/internal/errors"
	"github.com/openbook/backend/internal/favorites"
	"github.com/openbook/backend/internal/models"
	"github.com/openbook/backend/internal/recommendations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// stubLookup serves canned OpenLibrary data so handler tests never touch the
// network.
type stubLookup struct{}

func (stubLookup) GetDetails(ctx context.Context, bookID string) (*models.BookDetail, error) {
	if bookID != "OL45883W" {
		return nil, fmt.Errorf("openlibrary: %w", apperrors.ErrBookNotFound)
	}
	return &models.BookDetail{
		ID:               "OL45883W",
		Title:            "Dune",
		AuthorNames:      []string{"Frank Herbert"},
		Subjects:         []string{"science fiction"},
		FirstPublishDate: "1965",
		CoverID:          11481354,
	}, nil
}

func (stubLookup) SearchByAuthor(ctx context.Context, author string, limit int) ([]models.BookSummary, error) {
	return []models.BookSummary{{
		ID: "OL45884W", Title: "Dune Messiah", AuthorNames: []string{author}, FirstPublishYear: 1969,
	}}, nil
}

func (stubLookup) SearchBySubject(ctx context.Context, subject string, limit int) ([]models.BookSummary, error) {
	return []models.BookSummary{{
		ID: "OL20W", Title: "Hyperion", AuthorNames: []string{"Dan Simmons"},
		Subjects: []string{subject}, FirstPublishYear: 1989,
	}}, nil
}

func (stubLookup) PopularInSubject(ctx context.Context, subject string, limit int) ([]models.BookSummary, error) {
	return []models.BookSummary{{
		ID: "OL46125W", Title: "Foundation", AuthorNames: []string{"Isaac Asimov"},
		Subjects: []string{subject}, FirstPublishYear: 1951,
	}}, nil
}

func (stubLookup) SearchGeneral(ctx context.Context, term string, limit int) ([]models.BookSummary, error) {
	return []models.BookSummary{{
		ID: "OL893415W", Title: "1984", AuthorNames: []string{"George Orwell"}, FirstPublishYear: 1949,
	}}, nil
}

func (stubLookup) CoverURL(coverID int64) string {
	if coverID <= 0 {
		return "/images/default-cover.jpg"
	}
	return fmt.Sprintf("https://covers.test/%d-M.jpg", coverID)
}

func setupRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Favorite{}))

	authService := auth.NewService([]byte("test-secret"), db)
	store := favorites.NewGormStore(db)
	lookup := stubLookup{}
	engine := recommendations.NewEngine(store, lookup, recommendations.NewMemoryCache(time.Hour), recommendations.DefaultTuning(), nil)
	h := NewHandlers(authService, store, lookup, engine)

	r := gin.New()
	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", h.Register)
	authGroup.POST("/login", h.Login)
	authGroup.GET("/me", h.Me)

	booksGroup := api.Group("/books")
	booksGroup.GET("/search", h.SearchBooks)
	booksGroup.GET("/subject/:subject", h.GetBooksBySubject)
	booksGroup.GET("/:id", h.GetBook)

	favGroup := api.Group("/favorites")
	favGroup.Use(h.AuthMiddleware())
	favGroup.GET("", h.GetFavorites)
	favGroup.POST("", h.AddFavorite)
	favGroup.DELETE("/:bookId", h.RemoveFavorite)

	recGroup := api.Group("/recommendations")
	recGroup.Use(h.AuthMiddleware())
	recGroup.GET("", h.GetRecommendations)
	recGroup.GET("/profile", h.GetRecommendationProfile)
	recGroup.DELETE("/cache", h.ClearRecommendationCache)

	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func registerUser(t *testing.T, r *gin.Engine) string {
	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":        "reader@example.com",
		"username":     "reader",
		"password":     "password123",
		"display_name": "Reader",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestRegisterAndLogin(t *testing.T) {
	r := setupRouter(t)
	registerUser(t, r)

	// Duplicate registration conflicts.
	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":        "reader@example.com",
		"username":     "reader2",
		"password":     "password123",
		"display_name": "Reader",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    "reader@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    "reader@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/favorites", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/recommendations", "bogus-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFavoriteLifecycle(t *testing.T) {
	r := setupRouter(t)
	token := registerUser(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/v1/favorites", token, gin.H{
		"book_id":    "OL45883W",
		"book_title": "Dune",
		"cover_id":   "11481354",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Favoriting the same book twice conflicts.
	w = doJSON(t, r, http.MethodPost, "/api/v1/favorites", token, gin.H{
		"book_id":    "OL45883W",
		"book_title": "Dune",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Missing required fields are rejected.
	w = doJSON(t, r, http.MethodPost, "/api/v1/favorites", token, gin.H{
		"book_id": "OL1W",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/favorites", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Favorites []models.FavoriteEntry `json:"favorites"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Favorites, 1)
	assert.Equal(t, "Dune", list.Favorites[0].BookTitle)

	w = doJSON(t, r, http.MethodDelete, "/api/v1/favorites/OL45883W", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/favorites", token, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Empty(t, list.Favorites)
}

func TestGetRecommendations(t *testing.T) {
	r := setupRouter(t)
	token := registerUser(t, r)

	// Without favorites the endpoint still answers 200 with general picks.
	w := doJSON(t, r, http.MethodGet, "/api/v1/recommendations", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Recommendations []models.RecommendedBook `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Recommendations)
	assert.Equal(t, "general recommendation", resp.Recommendations[0].Reason)

	// Favoriting a book invalidates the cache and personalizes the list.
	w = doJSON(t, r, http.MethodPost, "/api/v1/favorites", token, gin.H{
		"book_id":    "OL45883W",
		"book_title": "Dune",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/recommendations?limit=5", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Recommendations)
	for _, book := range resp.Recommendations {
		assert.NotEqual(t, "general recommendation", book.Reason)
		assert.NotEqual(t, "OL45883W", book.ID)
	}
}

func TestGetRecommendationProfile(t *testing.T) {
	r := setupRouter(t)
	token := registerUser(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/v1/favorites", token, gin.H{
		"book_id":    "OL45883W",
		"book_title": "Dune",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/recommendations/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var profile recommendations.Profile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, 1, profile.TotalAnalyzed)
	require.NotEmpty(t, profile.TopAuthors)
	assert.Equal(t, "Frank Herbert", profile.TopAuthors[0].Author)
}

func TestClearRecommendationCacheEndpoint(t *testing.T) {
	r := setupRouter(t)
	token := registerUser(t, r)

	w := doJSON(t, r, http.MethodDelete, "/api/v1/recommendations/cache", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSearchBooks(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/books/search", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/books/search?q=dystopia", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Books []models.BookSummary `json:"books"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Books, 1)
	assert.Equal(t, "1984", resp.Books[0].Title)
}

func TestGetBook(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/books/OL45883W", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Book     models.BookDetail `json:"book"`
		CoverURL string            `json:"cover_url"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Dune", resp.Book.Title)
	assert.Equal(t, "https://covers.test/11481354-M.jpg", resp.CoverURL)

	w = doJSON(t, r, http.MethodGet, "/api/v1/books/OLMISSINGW", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetBooksBySubject(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/books/subject/science_fiction", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Books []models.BookSummary `json:"books"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Books, 1)
	assert.Equal(t, "Foundation", resp.Books[0].Title)
}
