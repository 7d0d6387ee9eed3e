package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"play_reviews/internal/adapters/observability"
	"play_reviews/internal/domain"
)

// DefaultRegions is the failover order for Vertex AI calls. Capacity
// exhaustion in one region is routed to the next.
var DefaultRegions = []string{
	"us-east5",
	"northamerica-northeast1",
	"europe-west2",
	"europe-west3",
	"asia-northeast1",
	"asia-south1",
	"southamerica-east1",
	"australia-southeast1",
}

const (
	geminiEndpointFmt = "https://%s-aiplatform.googleapis.com/v1/projects/%s/locations/%s/publishers/google/models/%s:generateContent"
	maxOutputTokens   = 8192
	defaultTopP       = 0.95
)

type GeminiConfig struct {
	Project string
	Token   string
	Regions []string
	// Endpoint overrides the Vertex URL verbatim (all regions); used in tests.
	Endpoint string
}

// GeminiClient talks to the Vertex AI generateContent REST endpoint.
type GeminiClient struct {
	cfg GeminiConfig
	hc  *http.Client
}

func NewGemini(cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.Project == "" && cfg.Endpoint == "" {
		return nil, fmt.Errorf("gemini: project id is required")
	}
	if len(cfg.Regions) == 0 {
		cfg.Regions = DefaultRegions
	}
	return &GeminiClient{
		cfg: cfg,
		hc:  &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// ---- wire shapes ----

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text     string          `json:"text,omitempty"`
	FileData *geminiFileData `json:"fileData,omitempty"`
}

type geminiFileData struct {
	MIMEType string `json:"mimeType"`
	FileURI  string `json:"fileUri"`
}

type geminiGenConfig struct {
	Temperature      *float64       `json:"temperature,omitempty"`
	TopP             float64        `json:"topP"`
	MaxOutputTokens  int            `json:"maxOutputTokens"`
	ResponseMIMEType string         `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Run submits the request, rotating regions and retrying transient failures
// with backoff before giving up. Schema-constrained responses are validated
// before they are returned.
func (c *GeminiClient) Run(ctx context.Context, req domain.AnalysisRequest) (domain.AnalysisResult, error) {
	body, err := json.Marshal(c.wireRequest(req))
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		region := c.cfg.Regions[i%len(c.cfg.Regions)]
		text, err := c.generate(ctx, region, req.Model, body)
		if err == nil {
			return finishResult(text, req)
		}
		if ctx.Err() != nil {
			return domain.AnalysisResult{}, ctx.Err()
		}
		lastErr = err
		if !isTransient(err) {
			break
		}
		if i < 3 && !sleepCtx(ctx, backoff(i)) {
			return domain.AnalysisResult{}, ctx.Err()
		}
	}
	return domain.AnalysisResult{}, fmt.Errorf("%w: %v", domain.ErrProvider, lastErr)
}

func (c *GeminiClient) wireRequest(req domain.AnalysisRequest) geminiRequest {
	parts := []geminiPart{{Text: req.Prompt}}
	if req.Attachment != nil {
		parts = append(parts, geminiPart{FileData: &geminiFileData{
			MIMEType: req.Attachment.MIMEType,
			FileURI:  req.Attachment.URI,
		}})
	}
	gc := geminiGenConfig{
		Temperature:     req.Temperature,
		TopP:            defaultTopP,
		MaxOutputTokens: maxOutputTokens,
	}
	if req.ResponseSchema != nil {
		gc.ResponseMIMEType = "application/json"
		gc.ResponseSchema = req.ResponseSchema
	}
	return geminiRequest{
		Contents:         []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: gc,
	}
}

type transientError struct{ msg string }

func (e *transientError) Error() string { return e.msg }

func isTransient(err error) bool {
	_, ok := err.(*transientError)
	return ok
}

func (c *GeminiClient) generate(ctx context.Context, region, model string, body []byte) (string, error) {
	url := c.cfg.Endpoint
	if url == "" {
		url = fmt.Sprintf(geminiEndpointFmt, region, c.cfg.Project, region, model)
	}

	hr, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	hr.Header.Set("Content-Type", "application/json")
	if c.cfg.Token != "" {
		hr.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	start := time.Now()
	resp, err := c.hc.Do(hr)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		observability.ObserveExternal("gemini", region, 0, time.Since(start))
		return "", &transientError{msg: err.Error()}
	}
	defer resp.Body.Close()
	observability.ObserveExternal("gemini", region, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusOK:
		var gr geminiResponse
		if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
			return "", fmt.Errorf("decode response: %w", err)
		}
		if len(gr.Candidates) == 0 {
			return "", fmt.Errorf("no candidates returned")
		}
		var b strings.Builder
		for _, p := range gr.Candidates[0].Content.Parts {
			b.WriteString(p.Text)
		}
		return b.String(), nil

	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return "", &transientError{msg: fmt.Sprintf("region %s: status %d", region, resp.StatusCode)}

	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("region %s: status %d: %s", region, resp.StatusCode, strings.TrimSpace(string(b)))
	}
}

// finishResult validates schema-constrained output and assembles the result.
func finishResult(text string, req domain.AnalysisRequest) (domain.AnalysisResult, error) {
	res := domain.AnalysisResult{Text: text, Model: req.Model}
	if req.ResponseSchema == nil {
		return res, nil
	}
	structured, err := parseStructured(text, req.ResponseSchema)
	if err != nil {
		return domain.AnalysisResult{}, err
	}
	res.Structured = structured
	return res, nil
}
