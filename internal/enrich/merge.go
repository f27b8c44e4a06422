package enrich

import "hotel_enricher/internal/domain"

// IsEmpty reports whether v counts as missing: null, absent, "" or exactly "N/A".
// The sentinel is case-sensitive, so "n/a" is a filled value.
func IsEmpty(v *string) bool {
	return v == nil || *v == "" || *v == domain.NotAvailable
}

// EmptyFields returns, in input order, the names whose value in rec is empty.
// A nil record has every field empty.
func EmptyFields(rec domain.AttributeRecord, names []string) []string {
	if rec == nil {
		return append([]string(nil), names...)
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if IsEmpty(rec[n]) {
			out = append(out, n)
		}
	}
	return out
}

// Merge returns a copy of acc where every non-empty incoming value has been applied.
// Empty incoming values never overwrite, so a filled field never regresses.
func Merge(acc domain.AttributeRecord, in domain.FetchResult) domain.AttributeRecord {
	out := make(domain.AttributeRecord, len(acc)+len(in))
	for k, v := range acc {
		out[k] = v
	}
	for k, v := range in {
		if IsEmpty(v) {
			continue
		}
		out[k] = v
	}
	return out
}

// FilterValid keeps only schema fields, plus the identifier when includeID is set.
// Anything else coming back from the external source is dropped here.
func (s *Schema) FilterValid(data domain.AttributeRecord, includeID bool) domain.AttributeRecord {
	out := make(domain.AttributeRecord, len(data))
	for k, v := range data {
		if s.Has(k) || (includeID && k == domain.IDField) {
			out[k] = v
		}
	}
	return out
}
