package app

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"play_reviews/internal/domain"
)

// AnalysisService runs one prompt template against one review batch and
// caches the result. The cache key carries a digest of the batch contents,
// so a re-fetched batch naturally misses stale entries.
type AnalysisService struct {
	registry domain.TemplateRegistry
	model    domain.ModelClient
	cache    domain.Cache
	builder  *Builder
	cacheTTL time.Duration
}

func NewAnalysisService(reg domain.TemplateRegistry, mc domain.ModelClient, cache domain.Cache, b *Builder, ttl time.Duration) *AnalysisService {
	return &AnalysisService{registry: reg, model: mc, cache: cache, builder: b, cacheTTL: ttl}
}

// Analyze builds and submits a request for templateID over batch.
func (s *AnalysisService) Analyze(ctx context.Context, batch domain.ReviewBatch, templateID string, params domain.ModelParams) (domain.AnalysisResult, error) {
	tpl, err := s.registry.Get(templateID)
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	key := analysisKey(batch, templateID, params)
	if s.cache != nil {
		var cached domain.AnalysisResult
		if ok, _ := s.cache.Get(ctx, key, &cached); ok {
			return cached, nil
		}
	}

	req, err := s.builder.BuildRequest(tpl, batch, params)
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	res, err := s.model.Run(ctx, req)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("analysis %s for %s: %w", templateID, batch.AppID, err)
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, res, int(s.cacheTTL.Seconds()))
	}
	return res, nil
}

func analysisKey(batch domain.ReviewBatch, templateID string, params domain.ModelParams) string {
	h := sha1.New()
	h.Write([]byte(batch.AppID))
	for _, rv := range batch.Reviews {
		h.Write([]byte(rv.ID))
	}
	h.Write([]byte(params.Model))
	keys := make([]string, 0, len(params.Vars))
	for k := range params.Vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte(params.Vars[k]))
	}
	return fmt.Sprintf("analysis:%s:%s:%s", batch.AppID, templateID, hex.EncodeToString(h.Sum(nil)))
}
