// Package backend provides the OpenBook API server.

// This package contains the main application entry point. The actual API
// documentation is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and database schemas
// - internal/auth: Authentication and authorization services
// - internal/openlibrary: OpenLibrary API client and response normalization
// - internal/favorites: Favorite book persistence
// - internal/recommendations: Personalized recommendation engine
// - internal/middleware: Request ID, logging and rate-limit middleware
// - internal/cache: Redis connection and helpers
// - internal/database: Database connection and migrations
// - internal/logger: Structured logging setup
// - internal/metrics: Prometheus metrics

// See the individual package documentation for detailed API reference.
package backend
