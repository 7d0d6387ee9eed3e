package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"play_reviews/internal/domain"
)

// stripFences removes a surrounding markdown code fence (```json ... ``` or
// ``` ... ```). Models routinely wrap structured answers this way even when
// asked for raw JSON.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		// drop the language tag line ("json", "JSON", or empty)
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// parseStructured parses schema-constrained model output and validates it.
// The model is not trusted to honor the schema; any mismatch, including
// unparseable JSON, is a schema violation.
func parseStructured(text string, schema map[string]any) (map[string]any, error) {
	clean := stripFences(text)

	var doc map[string]any
	if err := json.Unmarshal([]byte(clean), &doc); err != nil {
		return nil, fmt.Errorf("%w: output is not valid JSON: %v", domain.ErrSchemaViolation, err)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSchemaViolation, err)
	}
	if !result.Valid() {
		msgs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			msgs[i] = desc.String()
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrSchemaViolation, strings.Join(msgs, "; "))
	}
	return doc, nil
}
