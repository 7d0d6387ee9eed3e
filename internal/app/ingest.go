package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"play_reviews/internal/domain"
	"play_reviews/internal/storage/csvstore"
)

// IngestService fetches a batch from the review source and persists it to
// the CSV store and, when configured, the archive.
type IngestService struct {
	source  domain.ReviewSource
	store   domain.ReviewStore
	archive domain.ReviewArchive
	dataDir string
}

func NewIngestService(src domain.ReviewSource, store domain.ReviewStore, archive domain.ReviewArchive, dataDir string) *IngestService {
	return &IngestService{source: src, store: store, archive: archive, dataDir: dataDir}
}

// IngestApp fetches up to count reviews and writes the batch file. An
// unknown app id is recorded as a miss and surfaced; other fetch errors
// bubble up untouched.
func (s *IngestService) IngestApp(ctx context.Context, appID string, count int, lang, country string) (domain.ReviewBatch, error) {
	batch, err := s.source.Fetch(ctx, appID, count, lang, country)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidAppID) && s.archive != nil {
			_ = s.archive.LogMiss(ctx, appID, 404, "app not found")
		}
		return domain.ReviewBatch{}, err
	}

	if batch.Truncated {
		log.Warn().Str("app", appID).Int("requested", count).Int("got", batch.Len()).
			Msg("feed exhausted before requested count")
	}

	path := csvstore.PathFor(s.dataDir, appID)
	if err := s.store.Save(batch, path); err != nil {
		return domain.ReviewBatch{}, fmt.Errorf("save batch for %s: %w", appID, err)
	}

	if s.archive != nil && batch.Len() > 0 {
		if err := s.archive.UpsertBatch(ctx, batch); err != nil {
			// surface archive failures; the CSV on disk stays valid either way
			return domain.ReviewBatch{}, fmt.Errorf("archive batch for %s: %w", appID, err)
		}
	}

	log.Info().Str("app", appID).Int("reviews", batch.Len()).Str("path", path).Msg("batch ingested")
	return batch, nil
}

// LoadBatch reloads a previously ingested batch from the CSV store.
func (s *IngestService) LoadBatch(appID string) (domain.ReviewBatch, error) {
	return s.store.Load(csvstore.PathFor(s.dataDir, appID))
}
