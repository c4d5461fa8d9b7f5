package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"dinefinder/internal/domain"
	"dinefinder/internal/geo"
)

// Discovery is the application facade over the search provider and the
// store: provider search with insert-only persistence, explicit sync,
// nearby composition, trending, and plain CRUD.
type Discovery struct {
	repo         domain.RestaurantRepository
	provider     domain.SearchProvider
	cache        domain.Cache
	cacheTTL     time.Duration
	trendingDemo bool
}

func NewDiscovery(r domain.RestaurantRepository, p domain.SearchProvider, c domain.Cache, ttl time.Duration, trendingDemo bool) *Discovery {
	return &Discovery{repo: r, provider: p, cache: c, cacheTTL: ttl, trendingDemo: trendingDemo}
}

// Search runs a provider search and inserts any business not yet stored,
// keyed by external id. Existing rows are never refreshed here; only an
// explicit Sync overwrites them.
func (s *Discovery) Search(ctx context.Context, p domain.SearchParams) (domain.SearchResult, error) {
	started := time.Now()

	res, err := s.provider.Search(ctx, p)
	if err != nil {
		return domain.SearchResult{}, err
	}

	for _, b := range res.Businesses {
		_, lookupErr := s.repo.GetByExternalID(ctx, b.ID)
		if lookupErr == nil {
			continue
		}
		if !errors.Is(lookupErr, domain.ErrNotFound) {
			return domain.SearchResult{}, lookupErr
		}
		r := mapBusiness(b)
		if createErr := s.repo.Create(ctx, &r); createErr != nil {
			return domain.SearchResult{}, createErr
		}
	}

	s.recordSearch(ctx, p, res, time.Since(started))
	return res, nil
}

// Sync fetches fresh details for an external id and unconditionally
// overwrites every mapped field, creating the row when absent. Syncing the
// same id twice leaves exactly one row.
func (s *Discovery) Sync(ctx context.Context, externalID string) (domain.Restaurant, error) {
	d, err := s.provider.GetDetails(ctx, externalID)
	if err != nil {
		return domain.Restaurant{}, err
	}

	r := mapDetails(d)
	now := time.Now().UTC()
	r.LastSyncedAt = &now
	if err := s.repo.UpsertByExternalID(ctx, &r); err != nil {
		return domain.Restaurant{}, err
	}

	s.invalidateExternal(ctx, externalID)
	return s.repo.GetByExternalID(ctx, externalID)
}

// geoRestaurant carries the transient distance used for ordering; the
// distance is always stripped before results leave this package.
type geoRestaurant struct {
	domain.Restaurant
	distanceM float64
}

// Nearby merges locally stored geotagged restaurants, ordered by distance
// from the query point, with a live provider search when the local set falls
// short of the limit. Provider failures fall back to local-only results.
func (s *Discovery) Nearby(ctx context.Context, lat, lon float64, radiusM, limit int) ([]domain.Restaurant, error) {
	limit = domain.ClampLimit(limit)

	local, err := s.repo.ListGeotagged(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]geoRestaurant, 0, len(local))
	for _, r := range local {
		if !r.HasCoords() {
			continue
		}
		d := geo.DistanceM(lat, lon, *r.Lat, *r.Lon)
		if radiusM > 0 && d > float64(radiusM) {
			continue
		}
		candidates = append(candidates, geoRestaurant{Restaurant: r, distanceM: d})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].distanceM < candidates[j].distanceM })
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]domain.Restaurant, 0, limit)
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		out = append(out, c.Restaurant)
		if c.ExternalID != nil {
			seen[*c.ExternalID] = struct{}{}
		}
	}

	if len(out) < limit {
		res, perr := s.provider.Search(ctx, domain.SearchParams{
			Lat:     &lat,
			Lon:     &lon,
			RadiusM: radiusM,
			SortBy:  "distance",
			Limit:   limit,
		})
		if perr != nil {
			// Local results are still useful; the provider being down is
			// not the caller's problem here.
			log.Warn().Err(perr).Msg("nearby: provider search failed, returning local results only")
			return out, nil
		}
		for _, b := range res.Businesses {
			if len(out) >= limit {
				break
			}
			if _, dup := seen[b.ID]; dup {
				continue
			}
			out = append(out, mapBusiness(b))
			seen[b.ID] = struct{}{}
		}
	}
	return out, nil
}

// Trending returns the top stored restaurants by rating weighted with
// review volume. The demo fallback only applies when explicitly enabled.
func (s *Discovery) Trending(ctx context.Context, limit int) ([]domain.Restaurant, error) {
	limit = domain.ClampLimit(limit)

	key := fmt.Sprintf("trending:%d", limit)
	var cached []domain.Restaurant
	if ok, _ := s.cache.Get(ctx, key, &cached); ok {
		return cached, nil
	}

	rs, err := s.repo.ListTrending(ctx, limit)
	if err != nil {
		return nil, err
	}
	if len(rs) == 0 && s.trendingDemo {
		rs = demoTrending(limit)
	}
	_ = s.cache.Set(ctx, key, rs, int(s.cacheTTL.Seconds()))
	return rs, nil
}

// Details proxies the provider detail lookup, cached under the external id.
func (s *Discovery) Details(ctx context.Context, externalID string) (domain.BusinessDetails, error) {
	key := "details:" + externalID
	var cached domain.BusinessDetails
	if ok, _ := s.cache.Get(ctx, key, &cached); ok {
		return cached, nil
	}

	d, err := s.provider.GetDetails(ctx, externalID)
	if err != nil {
		return domain.BusinessDetails{}, err
	}
	_ = s.cache.Set(ctx, key, d, int(s.cacheTTL.Seconds()))
	return d, nil
}

// Reviews proxies the provider review lookup. When the business is already
// stored locally the reviews are persisted as well, best-effort.
func (s *Discovery) Reviews(ctx context.Context, externalID string) (domain.ReviewsResult, error) {
	res, err := s.provider.GetReviews(ctx, externalID, "en_US")
	if err != nil {
		return domain.ReviewsResult{}, err
	}

	if len(res.Reviews) > 0 {
		if r, lookupErr := s.repo.GetByExternalID(ctx, externalID); lookupErr == nil {
			if upErr := s.repo.UpsertReviews(ctx, mapBusinessReviews(r.ID, res.Reviews)); upErr != nil {
				log.Warn().Err(upErr).Str("external_id", externalID).Msg("persist reviews failed")
			}
		}
	}
	return res, nil
}

// Insights derives heuristic insights for a stored restaurant, cached under
// the external id so sync and patch invalidate them.
func (s *Discovery) Insights(ctx context.Context, id int64) (domain.Insights, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Insights{}, err
	}
	if r.ExternalID == nil {
		return InsightsFor(r), nil
	}

	key := "insights:" + *r.ExternalID
	var cached domain.Insights
	if ok, _ := s.cache.Get(ctx, key, &cached); ok {
		return cached, nil
	}
	ins := InsightsFor(r)
	_ = s.cache.Set(ctx, key, ins, int(s.cacheTTL.Seconds()))
	return ins, nil
}

// RecentSearches returns the newest recorded searches, newest first.
func (s *Discovery) RecentSearches(ctx context.Context, limit int) ([]domain.SearchRecord, error) {
	return s.repo.ListRecentSearches(ctx, limit)
}

// ValidateProvider reports whether the configured provider answers a
// minimal search.
func (s *Discovery) ValidateProvider(ctx context.Context) bool {
	return s.provider.ValidateConnection(ctx)
}

// ---- CRUD ----

func (s *Discovery) Create(ctx context.Context, r *domain.Restaurant) error {
	normalizeCollections(r)
	return s.repo.Create(ctx, r)
}

func (s *Discovery) Get(ctx context.Context, id int64) (domain.Restaurant, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Discovery) List(ctx context.Context) ([]domain.Restaurant, error) {
	return s.repo.List(ctx)
}

// Patch applies a shallow merge: only the given fields replace the stored
// ones.
func (s *Discovery) Patch(ctx context.Context, id int64, patch RestaurantPatch) (domain.Restaurant, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Restaurant{}, err
	}
	patch.apply(&r)
	if err := s.repo.Update(ctx, &r); err != nil {
		return domain.Restaurant{}, err
	}
	if r.ExternalID != nil {
		s.invalidateExternal(ctx, *r.ExternalID)
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Discovery) Delete(ctx context.Context, id int64) error {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if r.ExternalID != nil {
		s.invalidateExternal(ctx, *r.ExternalID)
	}
	return nil
}

// ---- favorites ----

func (s *Discovery) AddFavorite(ctx context.Context, f *domain.Favorite) error {
	if f.Priority == 0 {
		f.Priority = 3
	}
	if f.Tags == nil {
		f.Tags = []string{}
	}
	// The restaurant must exist; surfaces 404 instead of a FK error.
	if _, err := s.repo.GetByID(ctx, f.RestaurantID); err != nil {
		return err
	}
	return s.repo.AddFavorite(ctx, f)
}

func (s *Discovery) ListFavorites(ctx context.Context, userID string) ([]domain.Favorite, error) {
	return s.repo.ListFavorites(ctx, userID)
}

func (s *Discovery) DeleteFavorite(ctx context.Context, id int64) error {
	return s.repo.DeleteFavorite(ctx, id)
}

// ---- internals ----

// RestaurantPatch is the shallow-merge payload for manual updates; nil
// fields keep the stored value.
type RestaurantPatch struct {
	Name        *string
	Description *string
	Cuisine     *string
	Address     *string
	Phone       *string
	Rating      *float64
}

func (p RestaurantPatch) apply(r *domain.Restaurant) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Description != nil {
		r.Description = p.Description
	}
	if p.Cuisine != nil {
		r.Cuisine = *p.Cuisine
	}
	if p.Address != nil {
		r.Address = *p.Address
	}
	if p.Phone != nil {
		r.Phone = p.Phone
	}
	if p.Rating != nil {
		r.Rating = p.Rating
	}
}

func (s *Discovery) recordSearch(ctx context.Context, p domain.SearchParams, res domain.SearchResult, took time.Duration) {
	rec := domain.SearchRecord{
		Query:    p.Term,
		Location: p.Location,
		Lat:      p.Lat,
		Lon:      p.Lon,
		Filters: map[string]any{
			"categories": p.Categories,
			"price":      p.Price,
			"radius":     p.RadiusM,
			"openNow":    p.OpenNow,
			"sortBy":     p.SortBy,
		},
		ResultsCount: len(res.Businesses),
		ResponseMs:   took.Milliseconds(),
		SessionID:    uuid.NewString(),
	}
	if err := s.repo.RecordSearch(ctx, rec); err != nil {
		log.Warn().Err(err).Msg("record search failed")
	}
}

func (s *Discovery) invalidateExternal(ctx context.Context, externalID string) {
	_ = s.cache.Del(ctx, "details:"+externalID)
	_ = s.cache.Del(ctx, "insights:"+externalID)
}

func normalizeCollections(r *domain.Restaurant) {
	if r.Photos == nil {
		r.Photos = []string{}
	}
	if r.Categories == nil {
		r.Categories = []domain.Category{}
	}
	if r.Hours == nil {
		r.Hours = []domain.HoursSpan{}
	}
	if r.Transactions == nil {
		r.Transactions = []string{}
	}
	if r.Attributes == nil {
		r.Attributes = map[string]any{}
	}
	if r.DietaryTags == nil {
		r.DietaryTags = []string{}
	}
}

// demoTrending is the curated development/demo list served only when
// TRENDING_DEMO_FALLBACK is enabled and the store is empty.
func demoTrending(limit int) []domain.Restaurant {
	demo := []domain.Restaurant{
		{
			Name:       "Luigi's Trattoria",
			Cuisine:    "Italian",
			Address:    "412 Mulberry St",
			Rating:     ptrFloat(4.7),
			Categories: []domain.Category{{Alias: "italian", Title: "Italian"}},
			Photos:     []string{}, Hours: []domain.HoursSpan{}, Transactions: []string{},
			Attributes: map[string]any{}, DietaryTags: []string{},
		},
		{
			Name:       "Sakura Sushi Bar",
			Cuisine:    "Japanese, Sushi Bars",
			Address:    "88 Cherry Blossom Ave",
			Rating:     ptrFloat(4.6),
			Categories: []domain.Category{{Alias: "japanese", Title: "Japanese"}, {Alias: "sushi", Title: "Sushi Bars"}},
			Photos:     []string{}, Hours: []domain.HoursSpan{}, Transactions: []string{},
			Attributes: map[string]any{}, DietaryTags: []string{},
		},
		{
			Name:       "La Taqueria del Sol",
			Cuisine:    "Mexican",
			Address:    "23 Mission Rd",
			Rating:     ptrFloat(4.5),
			Categories: []domain.Category{{Alias: "mexican", Title: "Mexican"}},
			Photos:     []string{}, Hours: []domain.HoursSpan{}, Transactions: []string{},
			Attributes: map[string]any{}, DietaryTags: []string{},
		},
	}
	if len(demo) > limit {
		demo = demo[:limit]
	}
	return demo
}

func ptrFloat(f float64) *float64 { return &f }
