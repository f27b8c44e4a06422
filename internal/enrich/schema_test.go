package enrich_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel_enricher/internal/domain"
	"hotel_enricher/internal/enrich"
)

func TestDefaultSchema(t *testing.T) {
	s := enrich.DefaultSchema()
	require.Greater(t, s.Len(), 10)

	names := s.Names()
	assert.Equal(t, "name", names[0])
	assert.True(t, s.Has("email"))
	assert.True(t, s.Has("dining_summary"))
	assert.False(t, s.Has(domain.IDField))

	d, ok := s.Descriptor("email")
	require.True(t, ok)
	assert.Equal(t, enrich.GroupPrimary, d.Group)
	assert.NotEmpty(t, d.Description)

	var thematic int
	for _, f := range s.Fields() {
		if f.Group == enrich.GroupThematic {
			thematic++
		}
	}
	assert.Positive(t, thematic)
}

func TestParseSchema(t *testing.T) {
	s, err := enrich.ParseSchema([]byte(`
fields:
  - name: b
    group: primary
    description: second letter
  - name: a
    group: thematic
    description: first letter
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, s.Names())
}

func TestNewSchema_Rejects(t *testing.T) {
	_, err := enrich.NewSchema([]enrich.FieldDescriptor{{Name: "a"}, {Name: "a"}})
	assert.Error(t, err)

	_, err = enrich.NewSchema([]enrich.FieldDescriptor{{Name: domain.IDField}})
	assert.Error(t, err)

	_, err = enrich.NewSchema([]enrich.FieldDescriptor{{Name: ""}})
	assert.Error(t, err)
}
