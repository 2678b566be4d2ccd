package matching

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type rawVerdict struct {
	Score         float64
	Reasoning     string
	MissingSkills []string
}

// parseVerdict reads the first balanced JSON object out of a model reply.
func parseVerdict(raw string) (*rawVerdict, error) {
	block, ok := firstJSONObject(raw)
	if !ok {
		return nil, errors.New("no json object in response")
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(block), &data); err != nil {
		return nil, fmt.Errorf("parse match response: %w", err)
	}

	score := coerceFloat(data["score"])
	if math.IsNaN(score) {
		return nil, errors.New("match response has no numeric score")
	}

	reasoning := coerceString(data["reasoning"])
	if reasoning == "" {
		reasoning = coerceString(data["reason"])
	}

	return &rawVerdict{
		Score:         score,
		Reasoning:     reasoning,
		MissingSkills: coerceStrings(data["missingSkills"]),
	}, nil
}

// firstJSONObject returns the first {...} block with balanced braces,
// ignoring braces inside string literals. Code fences around it are fine.
func firstJSONObject(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(raw); i++ {
		ch := raw[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], true
			}
		}
	}

	return "", false
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSuffix(strings.TrimSpace(val), "%")
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case nil:
		return ""
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}

func coerceStrings(v any) []string {
	var items []string

	switch val := v.(type) {
	case []any:
		for _, item := range val {
			if s := coerceString(item); s != "" {
				items = append(items, s)
			}
		}
	case string:
		for _, item := range strings.Split(val, ",") {
			if s := strings.TrimSpace(item); s != "" {
				items = append(items, s)
			}
		}
	}

	return items
}
