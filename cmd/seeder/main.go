package main

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"dinefinder/internal/adapters/observability"
	"dinefinder/internal/adapters/osm"
	redisad "dinefinder/internal/adapters/redis"
	"dinefinder/internal/adapters/yelp"
	"dinefinder/internal/app"
	"dinefinder/internal/domain"
	"dinefinder/internal/shared"
	mysqlrepo "dinefinder/internal/storage/mysql"
)

// The seeder searches each seed location once, then syncs every returned
// business through a bounded worker pool so the store starts warm.
func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	locations := shared.SeedLocations
	if v := os.Getenv("SEED_LOCATIONS"); v != "" {
		locations = locations[:0]
		for _, loc := range strings.Split(v, ",") {
			if loc = strings.TrimSpace(loc); loc != "" {
				locations = append(locations, loc)
			}
		}
	}

	log.Info().
		Str("provider", cfg.SearchProvider).
		Int("workers", cfg.Workers).
		Int("locations", len(locations)).
		Msg("seeder starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	var provider domain.SearchProvider
	switch cfg.SearchProvider {
	case "yelp":
		provider = yelp.New(cfg.YelpBase, cfg.YelpKey, 5)
	default:
		provider = osm.New(cfg.OverpassURL, cfg.NominatimURL, 2)
	}
	if !provider.ValidateConnection(ctx) {
		log.Fatal().Str("provider", cfg.SearchProvider).Msg("provider connectivity check failed")
	}

	discovery := app.NewDiscovery(repo, provider, cache, cfg.CacheTTL, cfg.TrendingDemoFallback)
	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup

	for _, loc := range locations {
		res, err := provider.Search(ctx, domain.SearchParams{Term: "restaurant", Location: loc, Limit: domain.MaxLimit})
		if err != nil {
			log.Warn().Str("location", loc).Err(err).Msg("seed search failed")
			continue
		}
		log.Info().Str("location", loc).Int("results", len(res.Businesses)).Msg("seed search ok")

		for _, b := range res.Businesses {
			// acquire before launching the goroutine; release inside it
			if err := sem.Acquire(ctx, 1); err != nil {
				log.Fatal().Err(err).Msg("semaphore acquire failed")
			}

			wg.Add(1)
			go func(externalID string) {
				defer wg.Done()
				defer sem.Release(1)

				if _, err := discovery.Sync(ctx, externalID); err != nil {
					log.Warn().Str("external_id", externalID).Err(err).Msg("sync failed")
					return
				}
				log.Info().Str("external_id", externalID).Msg("sync ok")
			}(b.ID)
		}
	}

	wg.Wait()
	log.Info().Msg("seeding completed")
}
