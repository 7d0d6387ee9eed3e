package app

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"play_reviews/internal/domain"
)

func testBatch() domain.ReviewBatch {
	return domain.ReviewBatch{
		AppID:    "org.supertuxkart.stk",
		Language: "en",
		Country:  "us",
		Reviews: []domain.Review{
			{ID: "r1", Content: "fun racer", Score: 5, At: time.Date(2024, 11, 2, 0, 0, 0, 0, time.UTC)},
			{ID: "r2", Content: "laggy on my phone", Score: 2},
		},
	}
}

func TestCompileTemplate_Segments(t *testing.T) {
	ct := compileTemplate("Analyze {{app_id}} focusing on {{ focus_area }}. End.")
	if got := ct.placeholders(); !reflect.DeepEqual(got, []string{"app_id", "focus_area"}) {
		t.Fatalf("placeholders: %v", got)
	}

	out, err := ct.render(map[string]string{"app_id": "a.b.c", "focus_area": "stability"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "Analyze a.b.c focusing on stability. End." {
		t.Fatalf("rendered: %q", out)
	}
}

func TestCompileTemplate_EmptyPlaceholderIsError(t *testing.T) {
	for _, text := range []string{"before {{}} after", "before {{ }} after"} {
		ct := compileTemplate(text)
		if _, err := ct.render(map[string]string{"": "x"}); !errors.Is(err, domain.ErrUnresolvedPlaceholder) {
			t.Fatalf("%q: expected ErrUnresolvedPlaceholder, got %v", text, err)
		}
	}
}

func TestCompileTemplate_UnclosedMarkerIsLiteral(t *testing.T) {
	ct := compileTemplate("literal {{ unclosed")
	out, err := ct.render(nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "literal {{ unclosed" {
		t.Fatalf("rendered: %q", out)
	}
}

func TestBuildRequest_ResolvesAllPlaceholders(t *testing.T) {
	b := NewBuilder(0, nil)
	tpl := domain.PromptTemplate{
		ID:   "general_sentiment",
		Text: "Summarize {{review_count}} reviews of {{app_id}} in {{output_language}}.",
	}
	req, err := b.BuildRequest(tpl, testBatch(), domain.ModelParams{
		Model: "gemini-1.5-flash-002",
		Vars:  map[string]string{"output_language": "Portuguese"},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.HasPrefix(req.Prompt, "Summarize 2 reviews of org.supertuxkart.stk in Portuguese.") {
		t.Fatalf("prompt: %q", req.Prompt)
	}
	if !strings.Contains(req.Prompt, "\n\nData:\nreviewId,content,") {
		t.Fatalf("prompt should inline CSV data: %q", req.Prompt)
	}
	if req.Attachment != nil {
		t.Fatalf("small batch should be inlined")
	}
}

func TestBuildRequest_UnboundPlaceholder(t *testing.T) {
	b := NewBuilder(0, nil)
	tpl := domain.PromptTemplate{
		ID:   "problems_suggestions",
		Text: "List problems about {{focus_area}}.",
	}
	_, err := b.BuildRequest(tpl, testBatch(), domain.ModelParams{Model: "gemini-1.5-flash-002"})
	if !errors.Is(err, domain.ErrUnresolvedPlaceholder) {
		t.Fatalf("expected ErrUnresolvedPlaceholder, got %v", err)
	}
	if !strings.Contains(err.Error(), "focus_area") {
		t.Fatalf("error should name the placeholder: %v", err)
	}
}

func TestBuildRequest_ModelRequired(t *testing.T) {
	b := NewBuilder(0, nil)
	_, err := b.BuildRequest(domain.PromptTemplate{ID: "x", Text: "hi"}, testBatch(), domain.ModelParams{})
	if err == nil {
		t.Fatalf("expected error when neither params nor template carry a model")
	}
}

func TestBuildRequest_TemplateDefaultsApply(t *testing.T) {
	temp := 0.2
	b := NewBuilder(0, nil)
	tpl := domain.PromptTemplate{
		ID:             "version_comparison",
		Text:           "Compare versions.",
		Model:          "gemini-1.5-flash-002",
		Temperature:    &temp,
		ResponseSchema: map[string]any{"type": "object"},
	}
	req, err := b.BuildRequest(tpl, testBatch(), domain.ModelParams{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if req.Model != "gemini-1.5-flash-002" || req.Temperature == nil || *req.Temperature != 0.2 {
		t.Fatalf("template defaults not applied: %+v", req)
	}
	if req.ResponseSchema["type"] != "object" {
		t.Fatalf("schema not carried: %v", req.ResponseSchema)
	}
}

func TestBuildRequest_TemperatureRange(t *testing.T) {
	bad := 1.5
	b := NewBuilder(0, nil)
	_, err := b.BuildRequest(domain.PromptTemplate{ID: "x", Text: "hi"}, testBatch(),
		domain.ModelParams{Model: "m", Temperature: &bad})
	if err == nil {
		t.Fatalf("expected range error for temperature 1.5")
	}

	// a bad default from template front matter must be rejected the same way
	tpl := domain.PromptTemplate{ID: "x", Text: "hi", Model: "m", Temperature: &bad}
	if _, err := b.BuildRequest(tpl, testBatch(), domain.ModelParams{}); err == nil {
		t.Fatalf("expected range error for template temperature 1.5")
	}

	// caller's valid value wins over a bad template default
	good := 0.4
	req, err := b.BuildRequest(tpl, testBatch(), domain.ModelParams{Temperature: &good})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if req.Temperature == nil || *req.Temperature != 0.4 {
		t.Fatalf("expected caller temperature to apply: %+v", req.Temperature)
	}
}

func TestBuildRequest_OversizedBatch(t *testing.T) {
	batch := testBatch()
	batch.Reviews[0].Content = strings.Repeat("x", 4096)

	// no attachment mechanism -> hard error
	b := NewBuilder(1024, nil)
	_, err := b.BuildRequest(domain.PromptTemplate{ID: "x", Text: "hi"}, batch, domain.ModelParams{Model: "m"})
	if !errors.Is(err, domain.ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}

	// attachment mechanism configured -> reference instead of inline data
	attached := false
	b = NewBuilder(1024, func(bt domain.ReviewBatch, csv []byte) (domain.Attachment, error) {
		attached = true
		return domain.Attachment{URI: "file:///data/" + bt.AppID + "_reviews.csv", MIMEType: "text/csv"}, nil
	})
	req, err := b.BuildRequest(domain.PromptTemplate{ID: "x", Text: "hi"}, batch, domain.ModelParams{Model: "m"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !attached || req.Attachment == nil {
		t.Fatalf("expected attachment reference")
	}
	if strings.Contains(req.Prompt, "Data:") {
		t.Fatalf("oversized batch must not be inlined")
	}
}
