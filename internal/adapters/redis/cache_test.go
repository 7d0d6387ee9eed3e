package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	redisad "play_reviews/internal/adapters/redis"
	"play_reviews/internal/domain"
)

func newCache(t *testing.T) (*redisad.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return redisad.NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()})), mr
}

func TestCacheRoundTrip(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()
	key := "analysis:com.example.app:general_sentiment:abc123"

	var got domain.AnalysisResult
	ok, err := c.Get(ctx, key, &got)
	if err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}

	want := domain.AnalysisResult{Text: "mostly positive", Model: "gemini-1.5-flash-002"}
	if err := c.Set(ctx, key, want, 60); err != nil {
		t.Fatalf("set: %v", err)
	}

	ok, err = c.Get(ctx, key, &got)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got.Text != want.Text || got.Model != want.Model {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestCacheTTLExpiry(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "k", domain.AnalysisResult{Text: "x"}, 30); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(31 * time.Second)

	var got domain.AnalysisResult
	ok, err := c.Get(ctx, "k", &got)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("entry should have expired")
	}
}

func TestCacheDel(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	_ = c.Set(ctx, "k", domain.AnalysisResult{Text: "x"}, 60)
	if err := c.Del(ctx, "k"); err != nil {
		t.Fatalf("del: %v", err)
	}
	var got domain.AnalysisResult
	if ok, _ := c.Get(ctx, "k", &got); ok {
		t.Fatal("entry should be gone")
	}
}
