//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"play_reviews/internal/domain"
	mysqlrepo "play_reviews/internal/storage/mysql"
)

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/sql)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func TestRepo_MySQL_UpsertAndList(t *testing.T) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=playreviews",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "playreviews")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)

	repo := mysqlrepo.New(db)
	ctx := context.Background()

	batch := domain.ReviewBatch{
		AppID: "com.example.app", Language: "en", Country: "us",
		Reviews: []domain.Review{
			{ID: "r-1", Content: "great", Score: 5, ThumbsUpCount: 3,
				At: time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC), ReviewCreatedVersion: "2.1.0"},
			{ID: "r-2", Content: "meh", Score: 3,
				At: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), Device: "Pixel 7"},
		},
	}
	if err := repo.UpsertBatch(ctx, batch); err != nil {
		t.Fatalf("UpsertBatch: %v", err)
	}

	// Re-fetch with an edited review; the upsert must overwrite content.
	batch.Reviews[0].Content = "great, fixed my issue"
	batch.Reviews[0].Score = 4
	if err := repo.UpsertBatch(ctx, batch); err != nil {
		t.Fatalf("UpsertBatch (second): %v", err)
	}

	out, err := repo.ListReviews(ctx, "com.example.app", 10)
	if err != nil {
		t.Fatalf("ListReviews: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(out))
	}
	// newest first
	if out[0].ID != "r-1" || out[0].Content != "great, fixed my issue" || out[0].Score != 4 {
		t.Fatalf("unexpected first review: %+v", out[0])
	}
	if out[1].Device != "Pixel 7" {
		t.Fatalf("device lost on round trip: %+v", out[1])
	}

	if err := repo.LogMiss(ctx, "com.gone.app", 404, "app not found"); err != nil {
		t.Fatalf("LogMiss: %v", err)
	}
	// idempotent on the same app id
	if err := repo.LogMiss(ctx, "com.gone.app", 404, "app not found"); err != nil {
		t.Fatalf("LogMiss (second): %v", err)
	}
}
