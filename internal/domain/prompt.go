package domain

// PromptTemplate is one named unit of analysis prompt text. Text may contain
// {{name}} placeholders; metadata comes from the template file's front
// matter and is read-only for the whole session.
type PromptTemplate struct {
	ID             string
	Text           string
	Model          string
	Temperature    *float64
	ResponseSchema map[string]any
}

// ModelParams is the per-invocation configuration merged over the template's
// own metadata. Model is required; Vars feed placeholder resolution.
type ModelParams struct {
	Model          string
	Temperature    *float64
	ResponseSchema map[string]any
	Vars           map[string]string
}

// AnalysisRequest is a fully rendered payload ready for a model provider.
// It is created per invocation and never persisted.
type AnalysisRequest struct {
	Prompt         string
	Model          string
	Temperature    *float64
	ResponseSchema map[string]any
	// Attachment references out-of-band review data when the batch was too
	// large to inline into Prompt.
	Attachment *Attachment
}

// Attachment points at review data stored outside the prompt text.
type Attachment struct {
	URI      string
	MIMEType string
}

// AnalysisResult is the provider's answer. Structured is populated only for
// schema-constrained requests, after validation.
type AnalysisResult struct {
	Text       string
	Structured map[string]any
	Model      string
}
