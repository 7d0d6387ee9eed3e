// Package csvstore persists review batches as flat CSV files with a fixed
// column set, so downstream tooling can rely on a stable schema.
package csvstore

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"play_reviews/internal/domain"
)

// Column order is part of the on-disk contract. The last two are optional
// extension columns; they are always written, empty when unknown.
var columns = []string{
	"reviewId", "content", "score", "thumbsUpCount",
	"at", "reviewCreatedVersion", "device", "androidVersion",
}

const requiredColumns = 6 // reviewId..reviewCreatedVersion

type Store struct{}

func New() *Store { return &Store{} }

// PathFor returns the canonical batch file path for an app id.
func PathFor(dir, appID string) string {
	return filepath.Join(dir, appID+"_reviews.csv")
}

// Marshal renders the batch to CSV bytes in the canonical column order.
// Used both for on-disk persistence and for inlining review data into
// analysis prompts.
func Marshal(batch domain.ReviewBatch) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return nil, err
	}
	for _, rv := range batch.Reviews {
		at := ""
		if !rv.At.IsZero() {
			at = rv.At.UTC().Format(time.RFC3339)
		}
		rec := []string{
			rv.ID,
			rv.Content,
			strconv.Itoa(rv.Score),
			strconv.Itoa(rv.ThumbsUpCount),
			at,
			rv.ReviewCreatedVersion,
			rv.Device,
			rv.AndroidVersion,
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the batch atomically: a temp file in the destination directory
// is renamed over the target, so an interrupted save never leaves a partial
// file behind.
func (s *Store) Save(batch domain.ReviewBatch, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir %s: %w", dir, err)
	}

	data, err := Marshal(batch)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".reviews-*.csv")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name()) // no-op after successful rename
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Load reads a batch back, restoring field types. Fetch parameters other
// than the app id (recovered from the file name) are not representable in
// the tabular format and stay zero.
func (s *Store) Load(path string) (domain.ReviewBatch, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.ReviewBatch{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // validated explicitly below

	header, err := r.Read()
	if err != nil {
		return domain.ReviewBatch{}, fmt.Errorf("%w: %s: empty or unreadable header", domain.ErrMalformedStore, path)
	}
	idx, err := columnIndex(header, path)
	if err != nil {
		return domain.ReviewBatch{}, err
	}

	batch := domain.ReviewBatch{AppID: appIDFromPath(path)}
	row := 1
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.ReviewBatch{}, fmt.Errorf("%w: %s row %d: %v", domain.ErrMalformedStore, path, row, err)
		}
		row++
		if len(rec) < requiredColumns {
			return domain.ReviewBatch{}, fmt.Errorf("%w: %s row %d: %d fields, want at least %d",
				domain.ErrMalformedStore, path, row, len(rec), requiredColumns)
		}

		rv := domain.Review{
			ID:                   field(rec, idx, "reviewId"),
			Content:              field(rec, idx, "content"),
			ReviewCreatedVersion: field(rec, idx, "reviewCreatedVersion"),
			Device:               field(rec, idx, "device"),
			AndroidVersion:       field(rec, idx, "androidVersion"),
		}
		if rv.Score, err = parseIntField(field(rec, idx, "score"), path, row, "score"); err != nil {
			return domain.ReviewBatch{}, err
		}
		if rv.ThumbsUpCount, err = parseIntField(field(rec, idx, "thumbsUpCount"), path, row, "thumbsUpCount"); err != nil {
			return domain.ReviewBatch{}, err
		}
		if at := field(rec, idx, "at"); at != "" {
			t, err := time.Parse(time.RFC3339, at)
			if err != nil {
				return domain.ReviewBatch{}, fmt.Errorf("%w: %s row %d: bad timestamp %q", domain.ErrMalformedStore, path, row, at)
			}
			rv.At = t
		}
		batch.Reviews = append(batch.Reviews, rv)
	}

	return batch, nil
}

func columnIndex(header []string, path string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, name := range columns[:requiredColumns] {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("%w: %s: missing column %q", domain.ErrMalformedStore, path, name)
		}
	}
	return idx, nil
}

func field(rec []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func parseIntField(v, path string, row int, col string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%w: %s row %d: column %s: %q is not an integer",
			domain.ErrMalformedStore, path, row, col, v)
	}
	return n, nil
}

func appIDFromPath(path string) string {
	base := filepath.Base(path)
	if id, ok := strings.CutSuffix(base, "_reviews.csv"); ok {
		return id
	}
	return ""
}
