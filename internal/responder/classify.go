package responder

import (
	"encoding/json"
	"strings"
)

// Closed vocabularies for ticket classification. Anything outside them falls
// back to the defaults.
var (
	Categories = []string{"portal_access", "it_support", "payroll", "hr", "billing", "general"}
	Urgencies  = []string{"low", "normal", "high", "urgent"}
)

const (
	DefaultCategory = "general"
	DefaultUrgency  = "normal"
)

// DefaultClassification is used whenever the model output cannot be parsed
// or validated.
func DefaultClassification() Classification {
	return Classification{Category: DefaultCategory, Urgency: DefaultUrgency}
}

// ParseClassification extracts a Classification from raw model output. The
// output may be wrapped in prose or markdown code fences; enum fields outside
// the closed vocabularies are replaced with defaults.
func ParseClassification(raw string) Classification {
	payload := extractJSONObject(raw)
	if payload == "" {
		return DefaultClassification()
	}

	var parsed Classification
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return DefaultClassification()
	}

	result := DefaultClassification()
	if cat := normalizeEnum(parsed.Category); contains(Categories, cat) {
		result.Category = cat
	}
	if urg := normalizeEnum(parsed.Urgency); contains(Urgencies, urg) {
		result.Urgency = urg
	}
	return result
}

// extractJSONObject returns the first balanced {...} object in raw, tolerating
// surrounding prose and ```json fences.
func extractJSONObject(raw string) string {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}
	return ""
}

func normalizeEnum(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func contains(vocab []string, v string) bool {
	for _, entry := range vocab {
		if entry == v {
			return true
		}
	}
	return false
}
