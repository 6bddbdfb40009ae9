package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MalformedResponseError means the model's reply could not be decoded. Raw
// keeps the reply for logging.
type MalformedResponseError struct {
	Op  string
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("invalid model response in %s: %v", e.Op, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// StripFences removes a surrounding markdown code fence and its optional json
// language tag.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.Trim(s, "`")
	if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
		s = s[4:]
	}
	return strings.TrimSpace(s)
}

// Decode strips fences from raw and unmarshals the rest into v.
func Decode(op, raw string, v any) error {
	if err := json.Unmarshal([]byte(StripFences(raw)), v); err != nil {
		return &MalformedResponseError{Op: op, Raw: raw, Err: err}
	}
	return nil
}
