// Package prompts discovers analysis prompt templates from a directory.
// One markdown file per template; an optional YAML front matter block
// carries model configuration, the rest of the file is the prompt body.
package prompts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"play_reviews/internal/domain"
)

type frontMatter struct {
	Model          string         `yaml:"model"`
	Temperature    *float64       `yaml:"temperature"`
	ResponseSchema map[string]any `yaml:"response_schema"`
}

type Registry struct {
	templates map[string]domain.PromptTemplate
}

// NewRegistry loads every *.md file under dir. The template identifier is
// the file stem with its ordering prefix (e.g. "03_") stripped, so
// "03_problems_suggestions.md" registers as "problems_suggestions".
func NewRegistry(dir string) (*Registry, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read template dir %s: %w", dir, err)
	}

	r := &Registry{templates: make(map[string]domain.PromptTemplate, len(ents))}
	for _, e := range ents {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		tpl, err := parseFile(path)
		if err != nil {
			return nil, err
		}
		r.templates[tpl.ID] = tpl
	}
	return r, nil
}

func (r *Registry) List() []string {
	ids := make([]string, 0, len(r.templates))
	for id := range r.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) Get(id string) (domain.PromptTemplate, error) {
	tpl, ok := r.templates[id]
	if !ok {
		return domain.PromptTemplate{}, fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, id)
	}
	return tpl, nil
}

func parseFile(path string) (domain.PromptTemplate, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return domain.PromptTemplate{}, fmt.Errorf("read template %s: %w", path, err)
	}

	var fm frontMatter
	body := string(b)
	if rest, ok := strings.CutPrefix(body, "---\n"); ok {
		meta, tail, found := strings.Cut(rest, "\n---\n")
		if !found {
			return domain.PromptTemplate{}, fmt.Errorf("template %s: unterminated front matter", path)
		}
		if err := yaml.Unmarshal([]byte(meta), &fm); err != nil {
			return domain.PromptTemplate{}, fmt.Errorf("template %s: bad front matter: %w", path, err)
		}
		body = tail
	}

	return domain.PromptTemplate{
		ID:             idFromName(filepath.Base(path)),
		Text:           strings.TrimSpace(body),
		Model:          fm.Model,
		Temperature:    fm.Temperature,
		ResponseSchema: fm.ResponseSchema,
	}, nil
}

func idFromName(name string) string {
	stem := strings.TrimSuffix(name, ".md")
	if i := strings.IndexByte(stem, '_'); i > 0 && isDigits(stem[:i]) {
		return stem[i+1:]
	}
	return stem
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
