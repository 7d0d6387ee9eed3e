package main

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"play_reviews/internal/adapters/gplay"
	"play_reviews/internal/adapters/observability"
	"play_reviews/internal/app"
	"play_reviews/internal/shared"
	"play_reviews/internal/storage/csvstore"
	mysqlrepo "play_reviews/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	if len(cfg.AppIDs) == 0 {
		log.Fatal().Msg("APP_IDS is empty; nothing to scrape")
	}

	log.Info().
		Str("base", cfg.FeedBase).
		Int("workers", cfg.Workers).
		Int("reviews", cfg.ReviewCount).
		Int("apps", len(cfg.AppIDs)).
		Msg("scraper starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	archive := mysqlrepo.New(db)

	source, err := gplay.New(cfg.FeedBase, cfg.FeedRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize review feed client")
	}
	ingest := app.NewIngestService(source, csvstore.New(), archive, cfg.DataDir)

	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup

	for _, id := range cfg.AppIDs {
		id := id

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(appID string) {
			defer wg.Done()
			defer sem.Release(1)

			batch, err := ingest.IngestApp(ctx, appID, cfg.ReviewCount, cfg.Lang, cfg.Country)
			if err != nil {
				log.Warn().Str("app", appID).Err(err).Msg("scrape failed")
				return
			}
			log.Info().Str("app", appID).Int("reviews", batch.Len()).Msg("scrape ok")
		}(id)
	}

	wg.Wait()
	log.Info().Msg("scrape completed")
}
