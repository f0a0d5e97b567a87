package usecase

import (
	"regexp"
	"sort"
)

// Alerting is best-effort: oddly shaped params are trimmed into storable
// form instead of failing the whole alert.
const (
	maxParamCount    = 16
	maxParamKeyLen   = 64
	maxParamValueLen = 512
)

var paramKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)

func sanitizeParams(params map[string]interface{}) map[string]interface{} {
	if params == nil {
		return nil
	}

	keys := make([]string, 0, len(params))
	for key := range params {
		if len(key) > maxParamKeyLen || !paramKeyPattern.MatchString(key) {
			continue
		}
		keys = append(keys, key)
	}
	// Deterministic truncation when over the cap
	sort.Strings(keys)
	if len(keys) > maxParamCount {
		keys = keys[:maxParamCount]
	}

	sanitized := make(map[string]interface{}, len(keys))
	for _, key := range keys {
		sanitized[key] = sanitizeValue(params[key])
	}
	return sanitized
}

func sanitizeValue(value interface{}) interface{} {
	switch v := value.(type) {
	case string:
		// Length limits are in runes: a multibyte value is neither cut
		// mid-character nor allowed extra characters.
		if runes := []rune(v); len(runes) > maxParamValueLen {
			return string(runes[:maxParamValueLen])
		}
		return v
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = sanitizeValue(item)
		}
		return out
	default:
		return v
	}
}
