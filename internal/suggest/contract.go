package suggest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrUpstreamUnavailable is returned by the dispatch step when no generator is configured.
var ErrUpstreamUnavailable = errors.New("suggestion generator unavailable")

// ContractViolation reports a model response that does not match the expected JSON shape.
type ContractViolation struct {
	Reason string
}

func (e *ContractViolation) Error() string {
	return "response contract violation: " + e.Reason
}

// Draft is one validated suggestion from a model response.
type Draft struct {
	Title       string
	Description string
}

func violation(format string, args ...any) error {
	return &ContractViolation{Reason: fmt.Sprintf(format, args...)}
}

// Parse validates raw as a JSON array of exactly SuggestionCount objects with a non-empty string
// "title" and an optional string "description". One surrounding markdown code fence is stripped.
func Parse(raw string) ([]Draft, error) {
	body, err := stripFence(raw)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(strings.NewReader(body))
	var items []map[string]json.RawMessage
	if err := dec.Decode(&items); err != nil {
		return nil, violation("not a JSON array of objects: %v", err)
	}
	if items == nil {
		return nil, violation("not a JSON array of objects")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, violation("trailing data after array")
	}
	if len(items) != SuggestionCount {
		return nil, violation("expected %d items, got %d", SuggestionCount, len(items))
	}

	drafts := make([]Draft, 0, len(items))
	for i, item := range items {
		var draft Draft
		rawTitle, ok := item["title"]
		if !ok {
			return nil, violation("item %d has no title", i)
		}
		if err := json.Unmarshal(rawTitle, &draft.Title); err != nil || isNull(rawTitle) {
			return nil, violation("item %d title is not a string", i)
		}
		draft.Title = strings.TrimSpace(draft.Title)
		if draft.Title == "" {
			return nil, violation("item %d title is empty", i)
		}
		if rawDesc, ok := item["description"]; ok {
			if err := json.Unmarshal(rawDesc, &draft.Description); err != nil || isNull(rawDesc) {
				return nil, violation("item %d description is not a string", i)
			}
			draft.Description = strings.TrimSpace(draft.Description)
		}
		drafts = append(drafts, draft)
	}
	return drafts, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// stripFence removes a single ```lang ... ``` wrapper when present.
func stripFence(raw string) (string, error) {
	body := strings.TrimSpace(raw)
	if body == "" {
		return "", violation("empty response")
	}
	if !strings.HasPrefix(body, "```") {
		return body, nil
	}

	newline := strings.IndexByte(body, '\n')
	if newline < 0 {
		return "", violation("unterminated code fence")
	}
	inner := strings.TrimSpace(body[newline+1:])
	if !strings.HasSuffix(inner, "```") {
		return "", violation("unterminated code fence")
	}
	inner = strings.TrimSpace(strings.TrimSuffix(inner, "```"))
	if strings.Contains(inner, "```") {
		return "", violation("more than one code fence")
	}
	return inner, nil
}
