package domain

import (
	"context"
	"errors"
)

// Provider hard ceilings; both strategies clamp rather than reject.
const (
	MaxRadiusM = 40000
	MaxLimit   = 50
)

var (
	ErrNotFound    = errors.New("not found")
	ErrBadRequest  = errors.New("bad request")
	ErrUnavailable = errors.New("service unavailable")
)

// SearchProvider is the capability interface both search strategies
// (commercial API and open data) implement. The strategy is chosen once at
// startup from configuration.
type SearchProvider interface {
	Search(ctx context.Context, p SearchParams) (SearchResult, error)
	GetDetails(ctx context.Context, externalID string) (BusinessDetails, error)
	GetReviews(ctx context.Context, externalID, locale string) (ReviewsResult, error)
	// ValidateConnection runs a minimal search and reports success; it never
	// returns an error.
	ValidateConnection(ctx context.Context) bool
}

type RestaurantRepository interface {
	// Write paths
	Create(ctx context.Context, r *Restaurant) error
	Update(ctx context.Context, r *Restaurant) error
	// UpsertByExternalID overwrites every mapped field of the row with the
	// given external id, creating it when absent.
	UpsertByExternalID(ctx context.Context, r *Restaurant) error
	Delete(ctx context.Context, id int64) error
	UpsertReviews(ctx context.Context, rs []Review) error
	AddFavorite(ctx context.Context, f *Favorite) error
	DeleteFavorite(ctx context.Context, id int64) error
	RecordSearch(ctx context.Context, rec SearchRecord) error

	// Read paths
	GetByID(ctx context.Context, id int64) (Restaurant, error)
	GetByExternalID(ctx context.Context, externalID string) (Restaurant, error)
	List(ctx context.Context) ([]Restaurant, error)
	ListGeotagged(ctx context.Context) ([]Restaurant, error)
	ListTrending(ctx context.Context, limit int) ([]Restaurant, error)
	ListFavorites(ctx context.Context, userID string) ([]Favorite, error)
	ListRecentSearches(ctx context.Context, limit int) ([]SearchRecord, error)
	Ping(ctx context.Context) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// ChatClient is the text-generation boundary. Enabled is false when no
// credential is configured; callers fall back to deterministic heuristics.
type ChatClient interface {
	Enabled() bool
	Complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error)
}

// ClampRadius caps a radius in meters to the provider ceiling; non-positive
// input gets the default 5 km.
func ClampRadius(m int) int {
	if m <= 0 {
		return 5000
	}
	if m > MaxRadiusM {
		return MaxRadiusM
	}
	return m
}

// ClampLimit caps a result count to the provider ceiling; non-positive input
// gets the default 20.
func ClampLimit(n int) int {
	if n <= 0 {
		return 20
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}
