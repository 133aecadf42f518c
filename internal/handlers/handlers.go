package handlers

import (
	"github.com/openbook/backend/internal/auth"
	"github.com/openbook/backend/internal/favorites"
	"github.com/openbook/backend/internal/recommendations"
)

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	auth      *auth.Service
	favorites *favorites.GormStore
	books     recommendations.BookLookup
	engine    *recommendations.Engine
}

// NewHandlers creates the handler set with injected collaborators.
func NewHandlers(authService *auth.Service, store *favorites.GormStore, books recommendations.BookLookup, engine *recommendations.Engine) *Handlers {
	return &Handlers{
		auth:      authService,
		favorites: store,
		books:     books,
		engine:    engine,
	}
}
