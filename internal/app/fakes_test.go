package app_test

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"hotel_enricher/internal/domain"
)

func ptr[T any](v T) *T { return &v }

// ---- fakes ----

type fakeSource struct {
	hotels []domain.Hotel
	err    error
}

func (f *fakeSource) ListActiveHotels(ctx context.Context) ([]domain.Hotel, error) {
	return f.hotels, f.err
}

func (f *fakeSource) GetHotelByUUID(ctx context.Context, uuid string) (domain.Hotel, error) {
	for _, h := range f.hotels {
		if h.UUID == uuid {
			return h, nil
		}
	}
	return domain.Hotel{}, domain.ErrNotFound
}

type insertCall struct{ rec domain.AttributeRecord }

type updateCall struct {
	id     int64
	fields domain.AttributeRecord
}

// memStore keeps one row per uuid; ids start at 1.
type memStore struct {
	mu       sync.Mutex
	rows     map[string]domain.AttributeRecord
	ids      map[string]int64
	inserts  []insertCall
	updates  []updateCall
	writeErr map[string]error // by uuid
	order    []string         // uuids in FindByUUID order
}

func newMemStore() *memStore {
	return &memStore{rows: map[string]domain.AttributeRecord{}, ids: map[string]int64{}, writeErr: map[string]error{}}
}

func (m *memStore) seed(uuid string, rec domain.AttributeRecord) {
	m.ids[uuid] = int64(len(m.ids) + 1)
	rec = rec.Clone()
	rec[domain.IDField] = ptr(uuid)
	m.rows[uuid] = rec
}

func (m *memStore) FindByUUID(ctx context.Context, uuid string) (domain.AttributeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.order = append(m.order, uuid)
	if r, ok := m.rows[uuid]; ok {
		return r.Clone(), nil
	}
	return nil, nil
}

func (m *memStore) FindIDByUUID(ctx context.Context, uuid string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ids[uuid], nil
}

func (m *memStore) Insert(ctx context.Context, rec domain.AttributeRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	uuid := rec.Str(domain.IDField)
	if err := m.writeErr[uuid]; err != nil {
		return 0, err
	}
	m.inserts = append(m.inserts, insertCall{rec: rec.Clone()})
	id := int64(len(m.ids) + 1)
	m.ids[uuid] = id
	m.rows[uuid] = rec.Clone()
	return id, nil
}

func (m *memStore) Update(ctx context.Context, id int64, fields domain.AttributeRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for uuid, rid := range m.ids {
		if rid != id {
			continue
		}
		if err := m.writeErr[uuid]; err != nil {
			return 0, err
		}
		m.updates = append(m.updates, updateCall{id: id, fields: fields.Clone()})
		for k, v := range fields {
			m.rows[uuid][k] = v
		}
		return 1, nil
	}
	return 0, nil
}

// scriptedFetcher answers per call index; a nil result with nil error is an empty answer.
type scriptedFetcher struct {
	mu      sync.Mutex
	calls   [][]string
	results []domain.FetchResult
	errs    []error
	always  domain.FetchResult
	onCall  func(n int)
}

func (f *scriptedFetcher) FetchFields(ctx context.Context, hotel string, fields []string) (domain.FetchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.calls)
	f.calls = append(f.calls, append([]string(nil), fields...))
	if f.onCall != nil {
		f.onCall(n)
	}
	if n < len(f.errs) && f.errs[n] != nil {
		return nil, f.errs[n]
	}
	if n < len(f.results) {
		return f.results[n], nil
	}
	return f.always, nil
}

func (f *scriptedFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeFAQ struct {
	qas     []domain.QA
	err     error
	saved   map[string][]domain.QA
	saveErr error
}

func (f *fakeFAQ) FetchSupplementary(ctx context.Context, hotel string) ([]domain.QA, error) {
	return f.qas, f.err
}

func (f *fakeFAQ) ReplaceFAQs(ctx context.Context, uuid string, qas []domain.QA) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.saved == nil {
		f.saved = map[string][]domain.QA{}
	}
	f.saved[uuid] = qas
	return nil
}

func (f *fakeFAQ) ListFAQs(ctx context.Context, uuid string) ([]domain.QA, error) {
	return f.saved[uuid], nil
}

// fakeCache round-trips through JSON like the redis adapter does.
type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	c.dels = append(c.dels, key)
	return nil
}

type fakeLocker struct {
	held     bool
	locked   []string
	unlocked []string
}

func (l *fakeLocker) TryLock(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	if l.held {
		return false, nil
	}
	l.locked = append(l.locked, owner)
	return true, nil
}

func (l *fakeLocker) Unlock(ctx context.Context, key, owner string) error {
	l.unlocked = append(l.unlocked, owner)
	return nil
}
