package completion

import (
	"bytes"
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"hotel_enricher/internal/domain"
	"hotel_enricher/internal/enrich"
)

// citationRe matches inline source markers such as "[1]" or "[2][3]".
var citationRe = regexp.MustCompile(`\s*\[\d+\]`)

// decodeFirst finds the first JSON value starting with open that decodes cleanly.
// Models wrap answers in prose and code fences; both are skipped.
func decodeFirst(text string, open byte, out any) error {
	for i := 0; i < len(text); i++ {
		if text[i] != open {
			continue
		}
		var raw json.RawMessage
		if err := json.NewDecoder(strings.NewReader(text[i:])).Decode(&raw); err != nil {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(out); err == nil {
			return nil
		}
	}
	return domain.ErrNoStructuredData
}

// parseFields turns a model answer into a FetchResult.
// Keys are normalised to snake_case and values coerced to strings. When two
// spellings collapse to one key, a non-empty value wins over an empty one.
func parseFields(text string) (domain.FetchResult, error) {
	var obj map[string]any
	if err := decodeFirst(text, '{', &obj); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(domain.FetchResult, len(obj))
	for _, k := range keys {
		nk := normalizeKey(k)
		v := coerce(obj[k])
		if prev, seen := out[nk]; seen && !enrich.IsEmpty(prev) {
			continue
		}
		out[nk] = v
	}
	return out, nil
}

type rawQA struct {
	Question any `json:"question"`
	Answer   any `json:"answer"`
}

// parseFAQ accepts either a bare array or an object with a "faqs" array.
func parseFAQ(text string) ([]domain.QA, error) {
	var items []rawQA
	if err := decodeFirst(text, '[', &items); err != nil {
		var wrapped struct {
			FAQs []rawQA `json:"faqs"`
		}
		if err2 := decodeFirst(text, '{', &wrapped); err2 != nil || wrapped.FAQs == nil {
			return nil, domain.ErrNoStructuredData
		}
		items = wrapped.FAQs
	}
	out := make([]domain.QA, 0, len(items))
	for _, it := range items {
		q, a := coerce(it.Question), coerce(it.Answer)
		if q == nil || a == nil || *q == "" || *a == "" || *a == domain.NotAvailable {
			continue
		}
		out = append(out, domain.QA{Question: *q, Answer: *a})
	}
	return out, nil
}

func normalizeKey(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(k)
}

// coerce renders a decoded JSON value as a trimmed string. null stays nil.
func coerce(v any) *string {
	var s string
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		s = t
	case json.Number:
		s = t.String()
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if p := coerce(e); p != nil && *p != "" {
				parts = append(parts, *p)
			}
		}
		s = strings.Join(parts, ", ")
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return nil
		}
		s = string(b)
	}
	s = strings.TrimSpace(citationRe.ReplaceAllString(s, ""))
	return &s
}
