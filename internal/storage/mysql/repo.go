package mysql

import (
	"context"
	"database/sql"
	"strings"

	"play_reviews/internal/domain"
)

func nulStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// UpsertBatch archives every review of a batch in one statement. Re-fetched
// reviews overwrite mutable fields (content, score, thumbs up); a review
// edited on the store surfaces with its latest text.
func (r *Repo) UpsertBatch(ctx context.Context, batch domain.ReviewBatch) error {
	if batch.Len() == 0 {
		return nil
	}
	values := make([]string, 0, batch.Len())
	args := make([]any, 0, batch.Len()*9)
	for _, rv := range batch.Reviews {
		values = append(values, "(?,?,?,?,?,?,?,?,?)")
		var at any
		if !rv.At.IsZero() {
			at = rv.At.UTC()
		}
		args = append(args,
			batch.AppID,
			rv.ID,
			rv.Content,
			rv.Score,
			rv.ThumbsUpCount,
			at,
			nulStr(rv.ReviewCreatedVersion),
			nulStr(rv.Device),
			nulStr(rv.AndroidVersion),
		)
	}
	sqlStr := insertReviewsPrefix + strings.Join(values, ",") + insertReviewsOnDup
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// ListReviews returns archived reviews for an app, newest first.
func (r *Repo) ListReviews(ctx context.Context, appID string, limit int) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, listReviewsSQL, appID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		var rv domain.Review
		var (
			at                       sql.NullTime
			version, device, android sql.NullString
		)
		if err := rows.Scan(
			&rv.ID,
			&rv.Content,
			&rv.Score,
			&rv.ThumbsUpCount,
			&at,
			&version,
			&device,
			&android,
		); err != nil {
			return nil, err
		}
		if at.Valid {
			rv.At = at.Time
		}
		if version.Valid {
			rv.ReviewCreatedVersion = version.String
		}
		if device.Valid {
			rv.Device = device.String
		}
		if android.Valid {
			rv.AndroidVersion = android.String
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LogMiss records a fetch against an app id the store does not know.
func (r *Repo) LogMiss(ctx context.Context, appID string, status int, reason string) error {
	_, err := r.db.ExecContext(ctx, insertMissSQL, appID, status, reason)
	return err
}
