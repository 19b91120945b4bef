package domain

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var (
	bareIDRe  = regexp.MustCompile(`^\d{5,}$`)
	fbqInitRe = regexp.MustCompile(`fbq\(\s*['"]init['"]\s*,\s*['"](\d+)['"]\s*\)`)
)

// ExtractPixelIDs pulls ad pixel ids out of the free-form pixel_code column.
// Accepted shapes: a digits-only id, a tracking snippet containing one or
// more fbq('init', ...) calls, an object with id/pixel_id/ids fields, or an
// object wrapping a snippet under code/html/snippet. Order is preserved and
// duplicates removed.
func ExtractPixelIDs(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		v = string(raw)
	}
	// Unwrap one level of JSON-encoded-string payload.
	if s, ok := v.(string); ok {
		t := strings.TrimSpace(s)
		if strings.HasPrefix(t, "{") && strings.HasSuffix(t, "}") {
			var inner any
			if err := json.Unmarshal([]byte(t), &inner); err == nil {
				v = inner
			}
		}
	}

	seen := make(map[string]bool)
	var ids []string
	push := func(val any) {
		s := strings.TrimSpace(toIDString(val))
		if bareIDRe.MatchString(s) && !seen[s] {
			seen[s] = true
			ids = append(ids, s)
		}
	}
	fromSnippet := func(code string) {
		for _, m := range fbqInitRe.FindAllStringSubmatch(code, -1) {
			push(m[1])
		}
	}

	switch x := v.(type) {
	case string:
		push(x)
		fromSnippet(x)
	case float64:
		push(x)
	case map[string]any:
		push(x["id"])
		push(x["pixel_id"])
		push(x["pixelId"])
		if list, ok := x["ids"].([]any); ok {
			for _, it := range list {
				push(it)
			}
		}
		for _, field := range []string{"code", "html", "snippet"} {
			if code, ok := x[field].(string); ok {
				fromSnippet(code)
			}
		}
	}
	return ids
}

func toIDString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatInt(int64(x), 10)
	default:
		return ""
	}
}
