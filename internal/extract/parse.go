package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rcliao/memory-engine/internal/model"
)

// ErrInvalidExtraction marks output that failed to parse or validate. The
// caller treats it the same as a timeout.
var ErrInvalidExtraction = errors.New("invalid extraction")

// ParseExtraction decodes raw model output into a StructuredExtraction.
// Code fences and prose around the outermost JSON object are ignored. The
// result is all or nothing: summary must be a non-empty string, decisions
// must be an array, and lessons, preferences and tags must be arrays when
// present.
func ParseExtraction(raw string) (*model.StructuredExtraction, error) {
	body := stripFences(raw)
	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON object", ErrInvalidExtraction)
	}
	body = body[start : end+1]

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExtraction, err)
	}

	var summary string
	if err := json.Unmarshal(fields["summary"], &summary); err != nil || strings.TrimSpace(summary) == "" {
		return nil, fmt.Errorf("%w: summary must be a non-empty string", ErrInvalidExtraction)
	}
	if !isArray(fields["decisions"]) {
		return nil, fmt.Errorf("%w: decisions must be an array", ErrInvalidExtraction)
	}
	for _, name := range []string{"lessons", "preferences", "tags"} {
		v, ok := fields[name]
		if !ok || isNull(v) {
			continue
		}
		if !isArray(v) {
			return nil, fmt.Errorf("%w: %s must be an array", ErrInvalidExtraction, name)
		}
	}

	var x model.StructuredExtraction
	if err := json.Unmarshal([]byte(body), &x); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExtraction, err)
	}
	return &x, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

func isArray(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) > 0 && v[0] == '['
}

func isNull(v json.RawMessage) bool {
	return string(bytes.TrimSpace(v)) == "null"
}
