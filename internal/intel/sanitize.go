package intel

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// CleanJSON strips Markdown code fences and surrounding prose from a model
// answer, returning the span from the first '{' to the last '}'. Text
// without both braces is returned fence-stripped and trimmed.
func CleanJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	// Inverted braces leave the text as is; decoding then reports it malformed.
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return text
}

// decodeTree parses sanitized text into an untyped JSON object.
func decodeTree(text string) (map[string]any, error) {
	var tree map[string]any
	if err := json.Unmarshal([]byte(text), &tree); err != nil {
		return nil, withKind(ErrProviderResponseMalformed, eris.Wrap(err, "intel: decode provider json"))
	}
	if tree == nil {
		return nil, withKind(ErrProviderResponseMalformed, eris.New("intel: provider json is null"))
	}
	return tree, nil
}
