package gplay

import (
	"strconv"
	"strings"
	"time"

	"play_reviews/internal/domain"
)

type reviewPage struct {
	Reviews   []map[string]any `json:"reviews"`
	NextToken string           `json:"nextToken"`
}

/********** alias registry (single source of truth) **********/

// Field names drift between feed variants; resolve each domain field from
// the first alias that yields a value.
var reviewAliases = map[string][]string{
	"id":       {"reviewId", "review_id", "id"},
	"content":  {"content", "text", "body"},
	"score":    {"score", "rating", "stars"},
	"thumbs":   {"thumbsUpCount", "thumbs_up", "helpful_count"},
	"at":       {"at", "date", "createdAt", "created_at"},
	"version":  {"reviewCreatedVersion", "appVersion", "version"},
	"device":   {"device", "deviceName"},
	"android":  {"androidVersion", "android_version", "osVersion"},
	"userName": {"userName", "userImage"}, // dropped for confidentiality
}

func mapReview(r map[string]any) domain.Review {
	return domain.Review{
		ID:                   firstStr(r, reviewAliases["id"]...),
		Content:              firstStr(r, reviewAliases["content"]...),
		Score:                firstInt(r, reviewAliases["score"]...),
		ThumbsUpCount:        firstInt(r, reviewAliases["thumbs"]...),
		At:                   firstTime(r, reviewAliases["at"]...),
		ReviewCreatedVersion: firstStr(r, reviewAliases["version"]...),
		Device:               firstStr(r, reviewAliases["device"]...),
		AndroidVersion:       firstStr(r, reviewAliases["android"]...),
	}
}

func firstStr(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// firstInt accepts float64 (JSON numbers), int, or numeric strings.
func firstInt(m map[string]any, keys ...string) int {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			return int(v)
		case int:
			return v
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n
			}
		}
	}
	return 0
}

// firstTime accepts RFC 3339 strings or unix-seconds numbers.
func firstTime(m map[string]any, keys ...string) time.Time {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				return t
			}
		case float64:
			if v > 0 {
				return time.Unix(int64(v), 0).UTC()
			}
		}
	}
	return time.Time{}
}
