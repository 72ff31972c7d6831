package dialog

import (
	"regexp"
	"strings"
)

// normRule is one ordered normalization step applied to recognized names.
type normRule struct {
	pattern     *regexp.Regexp
	replacement string
}

// nameRules strip conversational wrapping from a spoken name: greeting
// fillers, self-introduction phrases, honorifics. Applied in order; the
// whole pipeline is idempotent on an already-clean name.
var nameRules = []normRule{
	{regexp.MustCompile(`(?i)^\s*(buenos días|buenas tardes|buenas noches|buenas|hola|qué tal)[,.!¡\s]*`), ""},
	{regexp.MustCompile(`(?i)\b(me llamo|mi nombre es|yo soy|le habla|soy|habla|aquí)\s+`), ""},
	{regexp.MustCompile(`(?i)\b(señor|señora|señorita|don|doña|sr|sra|srta|lic|ing)\.?\s+`), ""},
	{regexp.MustCompile(`[.,;:!?¡¿]+`), " "},
	{regexp.MustCompile(`\s+`), " "},
}

// NormalizeName cleans a recognized utterance down to the caller's name.
// Returns an empty string when nothing usable remains.
func NormalizeName(raw string) string {
	out := raw
	for _, r := range nameRules {
		out = r.pattern.ReplaceAllString(out, r.replacement)
	}
	return strings.TrimSpace(out)
}

// DisplayToken picks the word used to address the caller: the first word
// that is not purely numeric, falling back to the first word.
func DisplayToken(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	for _, f := range fields {
		if !isNumeric(f) {
			return f
		}
	}
	return fields[0]
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
