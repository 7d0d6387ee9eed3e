package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"play_reviews/internal/domain"
)

// OpenAIClient runs analyses against an OpenAI-compatible chat endpoint.
// Useful when Vertex access is unavailable; the request builder stays
// provider-agnostic either way.
type OpenAIClient struct {
	client *openai.Client
}

func NewOpenAI(apiKey, baseURL string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg)}
}

func (c *OpenAIClient) Run(ctx context.Context, req domain.AnalysisRequest) (domain.AnalysisResult, error) {
	if req.Attachment != nil {
		return domain.AnalysisResult{}, fmt.Errorf("%w: chat endpoint has no file attachment channel", domain.ErrPayloadTooLarge)
	}

	ccr := openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
	}
	if req.Temperature != nil {
		ccr.Temperature = float32(*req.Temperature)
	}
	if req.ResponseSchema != nil {
		ccr.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	var resp openai.ChatCompletionResponse
	var err error
	for i := 0; i < 4; i++ {
		resp, err = c.client.CreateChatCompletion(ctx, ccr)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return domain.AnalysisResult{}, ctx.Err()
		}
		if !retryableAPIError(err) || i == 3 {
			return domain.AnalysisResult{}, fmt.Errorf("%w: %v", domain.ErrProvider, err)
		}
		if !sleepCtx(ctx, backoff(i)) {
			return domain.AnalysisResult{}, ctx.Err()
		}
	}
	if len(resp.Choices) == 0 {
		return domain.AnalysisResult{}, fmt.Errorf("%w: no choices returned", domain.ErrProvider)
	}

	return finishResult(resp.Choices[0].Message.Content, req)
}

func retryableAPIError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	// network-level failures are worth another attempt
	return true
}
