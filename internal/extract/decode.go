package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	logx "github.com/Chative-core-poc-v1/cookbook/pkg/logger"
)

// basic safety limits to avoid pathological answers
const (
	maxContentLen = 256 * 1024
	maxErrSnippet = 200
)

var fenced = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")

// extractJSON pulls a JSON document out of a model answer. Answers are often
// wrapped in markdown fences or a sentence of prose.
func extractJSON(content string) (json.RawMessage, error) {
	s := strings.TrimSpace(content)
	if s == "" {
		return nil, errors.New("empty response, expected a JSON object")
	}
	if len(s) > maxContentLen {
		return nil, fmt.Errorf("response too large (%d bytes, limit %d)", len(s), maxContentLen)
	}
	if !utf8.ValidString(s) {
		return nil, errors.New("response is not valid utf8")
	}
	if json.Valid([]byte(s)) {
		return json.RawMessage(s), nil
	}
	if m := fenced.FindStringSubmatch(s); m != nil {
		inner := strings.TrimSpace(m[1])
		if json.Valid([]byte(inner)) {
			return json.RawMessage(inner), nil
		}
	}
	if i, j := strings.IndexAny(s, "{["), strings.LastIndexAny(s, "}]"); i >= 0 && j > i {
		if cand := s[i : j+1]; json.Valid([]byte(cand)) {
			return json.RawMessage(cand), nil
		}
	}
	return nil, fmt.Errorf("response is not valid JSON: %s", snippet(s))
}

// decode resets target, fills it from content and validates the result.
// The cleaned JSON is returned even when validation fails so it can be
// replayed to the model.
func decode(target any, content string, hook func() error) (raw json.RawMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "decoder").Msgf("panic recovered: %v", r)
			err = fmt.Errorf("decode panic: %v", r)
		}
	}()

	raw, err = extractJSON(content)
	if err != nil {
		return nil, err
	}

	v := reflect.ValueOf(target).Elem()
	v.Set(reflect.Zero(v.Type()))

	if err := json.Unmarshal(raw, target); err != nil {
		return raw, fmt.Errorf("response does not match the schema: %w", err)
	}
	return raw, check(target, hook)
}

func snippet(s string) string {
	r := []rune(s)
	if len(r) <= maxErrSnippet {
		return s
	}
	return string(r[:maxErrSnippet]) + "..."
}
