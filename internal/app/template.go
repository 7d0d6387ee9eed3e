package app

import (
	"fmt"
	"strings"

	"play_reviews/internal/domain"
)

// A compiled template is a closed sequence of two segment kinds: literal
// text and {{name}} placeholders. Rendering resolves every placeholder or
// fails; there is no silent blank substitution.

type segment struct {
	lit  string // literal text for literal segments
	name string // placeholder name for placeholder segments
	ph   bool   // placeholder segment
}

type compiledTemplate struct {
	segments []segment
}

// compileTemplate splits text on {{name}} markers. A "{{" without a closing
// "}}" is kept as literal text; placeholder names are trimmed of spaces.
func compileTemplate(text string) compiledTemplate {
	var segs []segment
	for {
		open := strings.Index(text, "{{")
		if open < 0 {
			break
		}
		close := strings.Index(text[open:], "}}")
		if close < 0 {
			break
		}
		if open > 0 {
			segs = append(segs, segment{lit: text[:open]})
		}
		name := strings.TrimSpace(text[open+2 : open+close])
		segs = append(segs, segment{name: name, ph: true})
		text = text[open+close+2:]
	}
	if text != "" {
		segs = append(segs, segment{lit: text})
	}
	return compiledTemplate{segments: segs}
}

// render substitutes every placeholder from vars. Missing values and
// nameless markers are hard errors; nothing is ever substituted with a blank.
func (t compiledTemplate) render(vars map[string]string) (string, error) {
	var b strings.Builder
	for _, s := range t.segments {
		if !s.ph {
			b.WriteString(s.lit)
			continue
		}
		if s.name == "" {
			return "", fmt.Errorf("%w: empty placeholder {{}}", domain.ErrUnresolvedPlaceholder)
		}
		v, ok := vars[s.name]
		if !ok {
			return "", fmt.Errorf("%w: {{%s}}", domain.ErrUnresolvedPlaceholder, s.name)
		}
		b.WriteString(v)
	}
	return b.String(), nil
}

// placeholders lists distinct placeholder names in order of appearance.
func (t compiledTemplate) placeholders() []string {
	var out []string
	seen := map[string]bool{}
	for _, s := range t.segments {
		if s.ph && s.name != "" && !seen[s.name] {
			seen[s.name] = true
			out = append(out, s.name)
		}
	}
	return out
}
