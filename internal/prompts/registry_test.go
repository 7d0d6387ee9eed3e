package prompts_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"play_reviews/internal/domain"
	"play_reviews/internal/prompts"
)

func writeTemplate(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestRegistry_DiscoversAndStripsPrefix(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "01_general_sentiment.md", "Summarize the overall sentiment.")
	writeTemplate(t, dir, "03_problems_suggestions.md", "List problems about {{focus_area}}.")
	writeTemplate(t, dir, "notes.txt", "not a template")

	reg, err := prompts.NewRegistry(dir)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	want := []string{"general_sentiment", "problems_suggestions"}
	if got := reg.List(); !reflect.DeepEqual(got, want) {
		t.Fatalf("list: got %v, want %v", got, want)
	}

	tpl, err := reg.Get("problems_suggestions")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if tpl.Text != "List problems about {{focus_area}}." {
		t.Fatalf("unexpected body: %q", tpl.Text)
	}
}

func TestRegistry_FrontMatter(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "06_version_comparison.md", `---
model: gemini-1.5-flash-002
temperature: 0.2
response_schema:
  type: object
  required: [historico_versoes]
---
Compare sentiment across app versions.`)

	reg, err := prompts.NewRegistry(dir)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	tpl, err := reg.Get("version_comparison")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if tpl.Model != "gemini-1.5-flash-002" {
		t.Fatalf("model: %q", tpl.Model)
	}
	if tpl.Temperature == nil || *tpl.Temperature != 0.2 {
		t.Fatalf("temperature: %v", tpl.Temperature)
	}
	if tpl.ResponseSchema["type"] != "object" {
		t.Fatalf("schema: %v", tpl.ResponseSchema)
	}
	if tpl.Text != "Compare sentiment across app versions." {
		t.Fatalf("body: %q", tpl.Text)
	}
}

func TestRegistry_UnknownID(t *testing.T) {
	reg, err := prompts.NewRegistry(t.TempDir())
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if _, err := reg.Get("nope"); !errors.Is(err, domain.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestRegistry_UnterminatedFrontMatter(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "01_bad.md", "---\nmodel: x\nno terminator")
	if _, err := prompts.NewRegistry(dir); err == nil {
		t.Fatalf("expected error for unterminated front matter")
	}
}
