package ai

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrUnparsableResponse indicates the model output could not be interpreted
// as a grading verdict even after repair. Callers must surface this as an
// explicit failure, never as a zero grade.
var ErrUnparsableResponse = errors.New("unparsable grading response")

// ParseGradingResponse turns the raw model output into a GradingResult.
// Models frequently wrap the JSON object in a fenced code block or prefix it
// with a stray language tag, so the raw text is repaired first: every literal
// backtick is removed, and if the remainder starts with "json" or "[]" the
// first line is dropped.
func ParseGradingResponse(raw string) (GradingResult, error) {
	cleaned := strings.ReplaceAll(raw, "`", "")
	if strings.HasPrefix(cleaned, "json") || strings.HasPrefix(cleaned, "[]") {
		lines := strings.Split(cleaned, "\n")
		cleaned = strings.Join(lines[1:], "\n")
	}

	var result GradingResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return GradingResult{}, ErrUnparsableResponse
	}

	return result, nil
}
