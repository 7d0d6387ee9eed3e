package gplay

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"play_reviews/internal/adapters/observability"
	"play_reviews/internal/domain"
)

// DefaultPageLimit is the provider's per-page maximum.
const DefaultPageLimit = 150

// fetchTimeout bounds one whole Fetch call across all of its pages.
const fetchTimeout = 2 * time.Minute

// Client fetches paginated review pages from a Play-style review feed.
type Client struct {
	base      string
	hc        *http.Client
	rl        *rate.Limiter
	pageLimit int
}

func New(base string, rps int) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("feed base URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base:      strings.TrimRight(base, "/"),
		hc:        &http.Client{Timeout: 20 * time.Second},
		rl:        rate.NewLimiter(rate.Limit(rps), rps),
		pageLimit: DefaultPageLimit,
	}, nil
}

// Fetch pulls review pages until count reviews are collected or the feed
// signals exhaustion (no continuation token). Pages may overlap at their
// edges, so results are deduplicated by review id; a page that contributes
// no new ids, or a continuation token that stops advancing, ends the fetch
// with a truncated batch rather than trusting the cursor forever.
func (c *Client) Fetch(ctx context.Context, appID string, count int, lang, country string) (domain.ReviewBatch, error) {
	if strings.TrimSpace(appID) == "" {
		return domain.ReviewBatch{}, fmt.Errorf("%w: empty app id", domain.ErrInvalidAppID)
	}
	if count <= 0 {
		return domain.ReviewBatch{}, fmt.Errorf("count must be positive, got %d", count)
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	batch := domain.ReviewBatch{
		AppID:     appID,
		Language:  lang,
		Country:   country,
		Requested: count,
	}
	seen := make(map[string]struct{}, count)
	token := ""

	for len(batch.Reviews) < count {
		num := count - len(batch.Reviews)
		if num > c.pageLimit {
			num = c.pageLimit
		}

		var page reviewPage
		if err := c.get(ctx, c.pageURL(appID, num, lang, country, token), &page); err != nil {
			if errors.Is(err, errNotFound) {
				return domain.ReviewBatch{}, fmt.Errorf("%w: %s", domain.ErrInvalidAppID, appID)
			}
			if ctx.Err() != nil {
				return domain.ReviewBatch{}, ctx.Err()
			}
			return domain.ReviewBatch{}, fmt.Errorf("%w: app %s: %v", domain.ErrSourceUnavailable, appID, err)
		}

		added := 0
		for _, raw := range page.Reviews {
			rv := mapReview(raw)
			if rv.ID == "" {
				continue
			}
			if _, dup := seen[rv.ID]; dup {
				continue
			}
			seen[rv.ID] = struct{}{}
			batch.Reviews = append(batch.Reviews, rv)
			added++
			if len(batch.Reviews) == count {
				break
			}
		}

		if page.NextToken == "" {
			break // feed exhausted
		}
		if page.NextToken == token || added == 0 {
			break // cursor stopped advancing; nothing more to gain
		}
		token = page.NextToken
	}

	batch.Truncated = len(batch.Reviews) < count
	return batch, nil
}

func (c *Client) pageURL(appID string, num int, lang, country, token string) string {
	q := url.Values{}
	q.Set("num", strconv.Itoa(num))
	if lang != "" {
		q.Set("lang", lang)
	}
	if country != "" {
		q.Set("country", country)
	}
	if token != "" {
		q.Set("token", token)
	}
	return fmt.Sprintf("%s/apps/%s/reviews?%s", c.base, url.PathEscape(appID), q.Encode())
}

// ---- Internals ----

var errNotFound = errors.New("gplay: not found")

// get performs a GET with client-side rate limiting, retries, and JSON decode
// into out. Retries on 429 and transient 5xx, honoring Retry-After.
func (c *Client) get(ctx context.Context, url string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "play-reviews/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			observability.ObserveExternal("gplay", "reviews", 0, time.Since(start))
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal("gplay", "reviews", resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusNotFound:
			resp.Body.Close()
			return errNotFound

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). Returns 0 if absent.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential delay (200ms, 400ms, 800ms...) with up to
// +50% jitter from crypto/rand to avoid thundering herds.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
