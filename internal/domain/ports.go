package domain

import "context"

// ReviewSource is the external paginated review feed.
type ReviewSource interface {
	Fetch(ctx context.Context, appID string, count int, lang, country string) (ReviewBatch, error)
}

// ReviewStore persists one batch as a flat tabular file and reads it back.
type ReviewStore interface {
	Save(batch ReviewBatch, path string) error
	Load(path string) (ReviewBatch, error)
}

// ReviewArchive keeps fetched reviews queryable across sessions.
type ReviewArchive interface {
	UpsertBatch(ctx context.Context, batch ReviewBatch) error
	ListReviews(ctx context.Context, appID string, limit int) ([]Review, error)
	LogMiss(ctx context.Context, appID string, status int, reason string) error
}

// TemplateRegistry exposes the prompt templates discovered at startup.
type TemplateRegistry interface {
	List() []string
	Get(id string) (PromptTemplate, error)
}

// ModelClient submits a rendered request to a generative-model endpoint.
// Implementations own provider-specific wire shapes, retries, and schema
// validation of the returned payload.
type ModelClient interface {
	Run(ctx context.Context, req AnalysisRequest) (AnalysisResult, error)
}

// Cache holds analysis results between invocations.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
