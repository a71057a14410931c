package pipeline

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

var (
	fencedBlockRe = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")
	jsonSpanRe    = regexp.MustCompile(`(\{[\s\S]*\}|\[[\s\S]*\])`)
)

// decodeJSON extracts a JSON document from generation output and unmarshals
// it into v. Three shapes are attempted in order: a fenced code block, the
// first bare {...} or [...] span, then the whole trimmed text.
func decodeJSON(text string, v any) error {
	if m := fencedBlockRe.FindStringSubmatch(text); m != nil {
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), v); err == nil {
			return nil
		}
	}
	if m := jsonSpanRe.FindStringSubmatch(text); m != nil {
		if err := json.Unmarshal([]byte(m[1]), v); err == nil {
			return nil
		}
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), v); err != nil {
		return eris.Wrap(err, "pipeline: decode generation output")
	}
	return nil
}
