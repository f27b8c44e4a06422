package domain

// IDField is the stable external identifier column of an attribute record.
const IDField = "hotel_uuid"

// NotAvailable is the sentinel the completion service uses for unknown values.
const NotAvailable = "N/A"

type Hotel struct {
	ID   *int64 // nil until first persisted
	UUID string
	Name string
}

// AttributeRecord maps field name to value. A nil value is null, a missing key is absent.
type AttributeRecord map[string]*string

// FetchResult is an untrusted subset of requested fields returned by an ExternalFetcher.
type FetchResult map[string]*string

// QA is one supplementary question/answer pair about a hotel.
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Clone returns a shallow copy; values are immutable strings so sharing pointers is fine.
func (r AttributeRecord) Clone() AttributeRecord {
	out := make(AttributeRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Str returns the value for k or "" when null/absent.
func (r AttributeRecord) Str(k string) string {
	if v := r[k]; v != nil {
		return *v
	}
	return ""
}
