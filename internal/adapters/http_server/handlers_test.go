package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	server "hotel_enricher/internal/adapters/http_server"
	"hotel_enricher/internal/app"
	"hotel_enricher/internal/domain"
	"hotel_enricher/internal/enrich"
)

func pstr(s string) *string { return &s }

type fakeStore struct {
	rows map[string]domain.AttributeRecord
	faqs map[string][]domain.QA
	err  error
}

func (f *fakeStore) FindByUUID(ctx context.Context, uuid string) (domain.AttributeRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[uuid], nil
}
func (f *fakeStore) FindIDByUUID(ctx context.Context, uuid string) (int64, error) { return 0, nil }
func (f *fakeStore) Insert(ctx context.Context, rec domain.AttributeRecord) (int64, error) {
	return 0, nil
}
func (f *fakeStore) Update(ctx context.Context, id int64, fields domain.AttributeRecord) (int64, error) {
	return 0, nil
}
func (f *fakeStore) ReplaceFAQs(ctx context.Context, uuid string, qas []domain.QA) error { return nil }
func (f *fakeStore) ListFAQs(ctx context.Context, uuid string) ([]domain.QA, error) {
	return f.faqs[uuid], f.err
}

func newTestServer(t *testing.T, st *fakeStore) *httptest.Server {
	t.Helper()
	schema, err := enrich.NewSchema([]enrich.FieldDescriptor{{Name: "name"}, {Name: "email"}, {Name: "phone"}})
	require.NoError(t, err)

	q := app.NewQueryService(schema, st, st, nil, time.Minute)
	srv := server.New()
	srv.MountHandlers(&server.Handlers{Q: q})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts
}

func TestGetAttributes(t *testing.T) {
	st := &fakeStore{rows: map[string]domain.AttributeRecord{
		"u1": {domain.IDField: pstr("u1"), "name": pstr("Inn"), "email": pstr("N/A"), "phone": nil},
	}}
	ts := newTestServer(t, st)

	resp, err := http.Get(ts.URL + "/v1/hotels/u1/attributes")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var v domain.AttributesView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	assert.Equal(t, "u1", v.UUID)
	assert.Equal(t, map[string]string{"name": "Inn"}, v.Attributes)
	assert.Equal(t, []string{"email", "phone"}, v.Missing)

	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/v1/hotels/u1/attributes", nil)
	req.Header.Set("If-None-Match", etag)
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotModified, resp2.StatusCode)
}

func TestGetAttributes_NotFoundAndFailure(t *testing.T) {
	st := &fakeStore{}
	ts := newTestServer(t, st)

	resp, err := http.Get(ts.URL + "/v1/hotels/nope/attributes")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))

	st.err = errors.New("db down")
	resp, err = http.Get(ts.URL + "/v1/hotels/u1/attributes")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/v1/hotels/" + strings.Repeat("x", 65) + "/attributes")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListFAQs(t *testing.T) {
	st := &fakeStore{faqs: map[string][]domain.QA{"u1": {{Question: "Pets?", Answer: "Yes"}}}}
	ts := newTestServer(t, st)

	resp, err := http.Get(ts.URL + "/v1/hotels/u1/faqs")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		UUID string      `json:"uuid"`
		FAQs []domain.QA `json:"faqs"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "u1", body.UUID)
	assert.Equal(t, []domain.QA{{Question: "Pets?", Answer: "Yes"}}, body.FAQs)

	// unknown hotel has no FAQs rather than a 404
	resp2, err := http.Get(ts.URL + "/v1/hotels/u2/faqs")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&body))
	assert.Empty(t, body.FAQs)
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, &fakeStore{})
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
