package utils

import (
	"regexp"
	"strings"
)

// sensitiveKeys are map keys whose values are always fully masked before
// logging, regardless of content.
var sensitiveKeys = map[string]struct{}{
	"password":   {},
	"secret":     {},
	"token":      {},
	"key":        {},
	"credential": {},
}

// Patterns scrubbed from string values. UUIDs are redacted before emails so
// the looser pattern never matches inside an already-masked id.
var (
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
)

// Redact returns a copy of data safe for structured logging: values under
// credential-like keys are replaced with a mask, and string values anywhere
// in the structure have obvious identifiers (emails, UUIDs) scrubbed.
// Non-map, non-slice, non-string values pass through unchanged.
//
// Redaction reduces but does not eliminate the risk of sensitive data
// reaching logs; callers should still avoid logging raw payloads at info
// level and above.
func Redact(data any) any {
	switch v := data.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, value := range v {
			if _, sensitive := sensitiveKeys[strings.ToLower(key)]; sensitive {
				out[key] = "******"
				continue
			}
			out[key] = Redact(value)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Redact(item)
		}
		return out
	case string:
		return RedactString(v)
	default:
		return v
	}
}

// RedactString scrubs email addresses and UUID-like identifiers from s.
func RedactString(s string) string {
	if s == "" {
		return s
	}
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return s
}
