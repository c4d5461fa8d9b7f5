package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "dinefinder/internal/adapters/http_server"
	"dinefinder/internal/adapters/observability"
	"dinefinder/internal/adapters/openai"
	"dinefinder/internal/adapters/osm"
	redisad "dinefinder/internal/adapters/redis"
	"dinefinder/internal/adapters/yelp"
	"dinefinder/internal/app"
	"dinefinder/internal/domain"
	"dinefinder/internal/shared"
	mysqlrepo "dinefinder/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	var provider domain.SearchProvider
	switch cfg.SearchProvider {
	case "yelp":
		provider = yelp.New(cfg.YelpBase, cfg.YelpKey, 5)
	default:
		provider = osm.New(cfg.OverpassURL, cfg.NominatimURL, 2)
	}
	log.Info().Str("provider", cfg.SearchProvider).Msg("search provider selected")

	discovery := app.NewDiscovery(repo, provider, cache, cfg.CacheTTL, cfg.TrendingDemoFallback)
	ai := app.NewAIService(openai.New(cfg.OpenAIBase, cfg.OpenAIKey, cfg.OpenAIModel))

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{D: discovery, AI: ai, DB: repo, Cache: cache})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
