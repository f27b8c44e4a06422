package completion

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"hotel_enricher/internal/domain"
	"hotel_enricher/internal/enrich"
)

// Completer is a search-grounded text completion backend.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

const faqCount = 8

// Fetcher adapts a Completer into the engine's external data source.
// Every failure, including unparsable answers, surfaces as *domain.FetchError.
type Fetcher struct {
	llm    Completer
	schema *enrich.Schema
}

func NewFetcher(llm Completer, schema *enrich.Schema) *Fetcher {
	return &Fetcher{llm: llm, schema: schema}
}

func (f *Fetcher) FetchFields(ctx context.Context, hotel string, fields []string) (domain.FetchResult, error) {
	if len(fields) == 0 {
		return nil, &domain.FetchError{Op: "fields", Err: errors.New("no fields requested")}
	}
	descs := make([]enrich.FieldDescriptor, 0, len(fields))
	for _, name := range fields {
		d, ok := f.schema.Descriptor(name)
		if !ok {
			d = enrich.FieldDescriptor{Name: name}
		}
		descs = append(descs, d)
	}

	text, err := f.llm.Complete(ctx, fieldsSystem, fieldsPrompt(hotel, descs))
	if err != nil {
		return nil, &domain.FetchError{Op: "fields", Err: err}
	}
	res, err := parseFields(text)
	if err != nil {
		log.Debug().Str("hotel", hotel).Str("answer", truncate(text, 300)).Msg("unparsable fields answer")
		return nil, &domain.FetchError{Op: "fields", Err: err}
	}
	return res, nil
}

func (f *Fetcher) FetchSupplementary(ctx context.Context, hotel string) ([]domain.QA, error) {
	text, err := f.llm.Complete(ctx, faqSystem, faqPrompt(hotel, faqCount))
	if err != nil {
		return nil, &domain.FetchError{Op: "faq", Err: err}
	}
	qas, err := parseFAQ(text)
	if err != nil {
		log.Debug().Str("hotel", hotel).Str("answer", truncate(text, 300)).Msg("unparsable faq answer")
		return nil, &domain.FetchError{Op: "faq", Err: err}
	}
	return qas, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// back up to a rune boundary
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
