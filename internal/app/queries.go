package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"hotel_enricher/internal/domain"
	"hotel_enricher/internal/enrich"
)

// QueryService serves persisted attributes and FAQs, cache-aside.
type QueryService struct {
	schema   *enrich.Schema
	store    domain.AttributeStore
	faqs     domain.FAQStore
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(s *enrich.Schema, st domain.AttributeStore, f domain.FAQStore, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{schema: s, store: st, faqs: f, cache: c, cacheTTL: ttl}
}

func (s *QueryService) GetAttributes(ctx context.Context, hotelUUID string) (domain.AttributesView, error) {
	key := attrsKey(hotelUUID)
	var v domain.AttributesView
	if s.cacheGet(ctx, key, &v) {
		return v, nil
	}

	rec, err := s.store.FindByUUID(ctx, hotelUUID)
	if err != nil {
		return domain.AttributesView{}, err
	}
	if rec == nil {
		return domain.AttributesView{}, domain.ErrNotFound
	}

	names := s.schema.Names()
	v = domain.AttributesView{UUID: hotelUUID, Attributes: map[string]string{}, Missing: enrich.EmptyFields(rec, names)}
	for _, n := range names {
		if p := rec[n]; !enrich.IsEmpty(p) {
			v.Attributes[n] = *p
		}
	}
	if v.Missing == nil {
		v.Missing = []string{}
	}

	s.cacheSet(ctx, key, v)
	return v, nil
}

func (s *QueryService) ListFAQs(ctx context.Context, hotelUUID string) ([]domain.QA, error) {
	key := faqsKey(hotelUUID)
	var out []domain.QA
	if s.cacheGet(ctx, key, &out) {
		return out, nil
	}
	out, err := s.faqs.ListFAQs(ctx, hotelUUID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.QA{}
	}
	s.cacheSet(ctx, key, out)
	return out, nil
}

func (s *QueryService) cacheGet(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	ok, err := s.cache.Get(ctx, key, dst)
	return err == nil && ok
}

func (s *QueryService) cacheSet(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, v, int(s.cacheTTL.Seconds())); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("cache set failed")
	}
}
