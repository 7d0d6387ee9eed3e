package app

import (
	"fmt"
	"strconv"

	"play_reviews/internal/domain"
	"play_reviews/internal/storage/csvstore"
)

// AttachFunc stores an oversized review payload out of band and returns a
// reference to it. Nil means no attachment mechanism is configured.
type AttachFunc func(batch domain.ReviewBatch, csv []byte) (domain.Attachment, error)

// Builder assembles analysis requests from a template, a review batch, and
// per-invocation model parameters. Pure transformation: no network, no
// persistence.
type Builder struct {
	inlineLimit int
	attach      AttachFunc
}

// DefaultInlineLimit bounds how much CSV is inlined into a prompt before
// switching to an attachment. Roughly proportional to the model context
// budget the original tool assumed.
const DefaultInlineLimit = 1 << 20 // 1 MiB

func NewBuilder(inlineLimit int, attach AttachFunc) *Builder {
	if inlineLimit <= 0 {
		inlineLimit = DefaultInlineLimit
	}
	return &Builder{inlineLimit: inlineLimit, attach: attach}
}

// BuildRequest renders the template and combines it with the batch data.
// Placeholder values come from params.Vars first, then from values derived
// from the batch (app_id, review_count, language, country) plus a default
// output_language of English.
func (b *Builder) BuildRequest(tpl domain.PromptTemplate, batch domain.ReviewBatch, params domain.ModelParams) (domain.AnalysisRequest, error) {
	model := params.Model
	if model == "" {
		model = tpl.Model
	}
	if model == "" {
		return domain.AnalysisRequest{}, fmt.Errorf("template %s: model is required", tpl.ID)
	}
	// Validate the effective temperature: a bad value in template front
	// matter is just as fatal as one passed by the caller.
	temperature := firstTemp(params.Temperature, tpl.Temperature)
	if temperature != nil {
		if t := *temperature; t < 0 || t > 1 {
			return domain.AnalysisRequest{}, fmt.Errorf("template %s: temperature %v out of range [0,1]", tpl.ID, t)
		}
	}

	vars := map[string]string{
		"app_id":          batch.AppID,
		"review_count":    strconv.Itoa(batch.Len()),
		"language":        batch.Language,
		"country":         batch.Country,
		"output_language": "English",
	}
	for k, v := range params.Vars {
		vars[k] = v
	}

	prompt, err := compileTemplate(tpl.Text).render(vars)
	if err != nil {
		return domain.AnalysisRequest{}, fmt.Errorf("template %s: %w", tpl.ID, err)
	}

	data, err := csvstore.Marshal(batch)
	if err != nil {
		return domain.AnalysisRequest{}, err
	}

	req := domain.AnalysisRequest{
		Model:          model,
		Temperature:    temperature,
		ResponseSchema: params.ResponseSchema,
	}
	if req.ResponseSchema == nil {
		req.ResponseSchema = tpl.ResponseSchema
	}

	if len(data) > b.inlineLimit {
		if b.attach == nil {
			return domain.AnalysisRequest{}, fmt.Errorf("%w: %d bytes of review data, inline limit %d and no attachment store",
				domain.ErrPayloadTooLarge, len(data), b.inlineLimit)
		}
		att, err := b.attach(batch, data)
		if err != nil {
			return domain.AnalysisRequest{}, fmt.Errorf("attach review data: %w", err)
		}
		req.Prompt = prompt
		req.Attachment = &att
		return req, nil
	}

	// Inline format matches what the analyses were tuned against.
	req.Prompt = prompt + "\n\nData:\n" + string(data)
	return req, nil
}

func firstTemp(ps ...*float64) *float64 {
	for _, p := range ps {
		if p != nil {
			return p
		}
	}
	return nil
}
