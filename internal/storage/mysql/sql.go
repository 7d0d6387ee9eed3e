package mysql

// Multi-row upsert; one (?,?,...) group per review is appended between the
// prefix and the ON DUPLICATE clause.
const insertReviewsPrefix = "INSERT INTO reviews\n" +
	"  (app_id, review_id, content, score, thumbs_up, at, version, device, android_version)\n" +
	"VALUES "

// COALESCE keeps the stored value when a re-fetch returns NULL for a field.
const insertReviewsOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  content         = VALUES(content),\n" +
	"  score           = VALUES(score),\n" +
	"  thumbs_up       = VALUES(thumbs_up),\n" +
	"  at              = COALESCE(VALUES(at), reviews.at),\n" +
	"  version         = COALESCE(VALUES(version), reviews.version),\n" +
	"  device          = COALESCE(VALUES(device), reviews.device),\n" +
	"  android_version = COALESCE(VALUES(android_version), reviews.android_version)\n"

const insertMissSQL = `
INSERT INTO fetch_misses (app_id, http_status, reason)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE seen_at = CURRENT_TIMESTAMP, http_status = VALUES(http_status), reason = VALUES(reason)
`

const listReviewsSQL = `
SELECT review_id, content, score, thumbs_up, at, version, device, android_version
FROM reviews
WHERE app_id = ?
ORDER BY at DESC, review_id DESC
LIMIT ?
`
