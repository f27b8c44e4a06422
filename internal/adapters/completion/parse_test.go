package completion

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel_enricher/internal/domain"
)

func TestParseFields_ProseAndFences(t *testing.T) {
	text := "Sure! Here is what I found {per sources}:\n```json\n{\"Email\": \"info@inn.com [1]\", \"star rating\": 4, \"phone\": null, \"pets\": true, \"amenities-summary\": [\"Pool\", \"\", \"Spa\"]}\n```\nHope that helps."

	got, err := parseFields(text)
	require.NoError(t, err)

	assert.Equal(t, "info@inn.com", *got["email"])
	assert.Equal(t, "4", *got["star_rating"])
	assert.Equal(t, "true", *got["pets"])
	assert.Equal(t, "Pool, Spa", *got["amenities_summary"])
	v, ok := got["phone"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestParseFields_KeepsSentinelAndTrims(t *testing.T) {
	got, err := parseFields(`{"website": "  N/A ", "room_count": 120.5}`)
	require.NoError(t, err)
	assert.Equal(t, domain.NotAvailable, *got["website"])
	assert.Equal(t, "120.5", *got["room_count"])
}

func TestParseFields_CollidingSpellingsKeepFilledValue(t *testing.T) {
	for i := 0; i < 50; i++ {
		got, err := parseFields(`{"email": "a@b.com", "Email": "N/A", "Phone": "+1 555", "phone": null}`)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "a@b.com", *got["email"])
		assert.Equal(t, "+1 555", *got["phone"])
	}
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	s := "hôtel"
	got := truncate(s, 2)
	assert.Equal(t, "h...", got)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "hô...", truncate(s, 3))
	assert.Equal(t, s, truncate(s, 10))
}

func TestParseFields_NoJSON(t *testing.T) {
	_, err := parseFields("I could not find this hotel.")
	assert.ErrorIs(t, err, domain.ErrNoStructuredData)

	_, err = parseFields(`{"broken": `)
	assert.ErrorIs(t, err, domain.ErrNoStructuredData)
}

func TestParseFAQ(t *testing.T) {
	text := `Answers [1]: [{"question":"Are pets allowed?","answer":"Yes, dogs only [2]"},{"question":"Parking?","answer":"N/A"},{"question":"","answer":"x"}]`

	got, err := parseFAQ(text)
	require.NoError(t, err)
	assert.Equal(t, []domain.QA{{Question: "Are pets allowed?", Answer: "Yes, dogs only"}}, got)
}

func TestParseFAQ_WrappedObject(t *testing.T) {
	got, err := parseFAQ(`{"faqs": [{"question":"Wifi?","answer":"Free"}]}`)
	require.NoError(t, err)
	assert.Equal(t, []domain.QA{{Question: "Wifi?", Answer: "Free"}}, got)

	_, err = parseFAQ(`{"other": 1}`)
	assert.ErrorIs(t, err, domain.ErrNoStructuredData)
}
