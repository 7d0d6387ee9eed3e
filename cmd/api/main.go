package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"play_reviews/internal/adapters/gplay"
	server "play_reviews/internal/adapters/http_server"
	"play_reviews/internal/adapters/llm"
	"play_reviews/internal/adapters/observability"
	redisad "play_reviews/internal/adapters/redis"
	"play_reviews/internal/app"
	"play_reviews/internal/prompts"
	"play_reviews/internal/shared"
	"play_reviews/internal/storage/csvstore"
	mysqlrepo "play_reviews/internal/storage/mysql"
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
	archive := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	source, err := gplay.New(cfg.FeedBase, cfg.FeedRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize review feed client")
	}

	registry, err := prompts.NewRegistry(cfg.PromptsDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load prompt templates")
	}
	log.Info().Strs("templates", registry.List()).Msg("prompt templates loaded")

	factory := &llm.Factory{
		GCPProject:    cfg.GCPProject,
		GCPToken:      cfg.GCPToken,
		GCPRegions:    cfg.GCPRegions,
		OpenAIAPIKey:  cfg.OpenAIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
	}
	model, err := factory.CreateClient(cfg.Provider)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize model client")
	}

	ingest := app.NewIngestService(source, csvstore.New(), archive, cfg.DataDir)
	analysis := app.NewAnalysisService(registry, model, cache,
		app.NewBuilder(cfg.InlineLimit, nil), cfg.CacheTTL)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Ingest:   ingest,
		Analysis: analysis,
		Registry: registry,
		Archive:  archive,
	})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
