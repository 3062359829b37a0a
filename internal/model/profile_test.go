package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingProfile(t *testing.T) {
	t.Parallel()

	p := PendingProfile(ImporterSummary{
		ImporterName:       "Acme Imports LLC",
		Location:           "Houston, TX",
		PrimaryCommodities: "Steel",
		LastShipmentDate:   "2024-03-01",
	})

	assert.True(t, p.IsPending())
	assert.Equal(t, "Steel", p.Commodities)
	assert.Equal(t, PendingMarker, p.ShipmentCounts.LastMonth.String())
	assert.Equal(t, PendingRisk, p.RiskAssessment.GeopoliticalRisk)
	assert.Equal(t, PendingMarker, p.Contact.Email)

	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"lastMonth":"..."`)
	assert.Contains(t, string(b), `"shipmentHistory":[]`)
}

func TestSortVolumes(t *testing.T) {
	t.Parallel()

	in := []ShipmentVolume{{Year: 2023, Volume: 900}, {Year: 2022, Volume: 950}}
	got := SortVolumes(in)

	assert.Equal(t, []ShipmentVolume{{Year: 2022, Volume: 950}, {Year: 2023, Volume: 900}}, got)
	// input untouched
	assert.Equal(t, 2023, in[0].Year)
}

func TestSortVolumes_Stable(t *testing.T) {
	t.Parallel()

	in := []ShipmentVolume{{Year: 2024, Volume: 1}, {Year: 2020, Volume: 2}, {Year: 2024, Volume: 3}}
	got := ParsedImporterData{ShipmentVolumeHistory: in}.SortedVolumes()
	assert.Equal(t, []ShipmentVolume{{2020, 2}, {2024, 1}, {2024, 3}}, got)
}

func TestFindSummary(t *testing.T) {
	t.Parallel()

	primary := []ImporterSummary{{ImporterName: "A"}}
	similar := []ImporterSummary{{ImporterName: "B", Location: "here"}}

	s, ok := FindSummary("B", primary, similar)
	assert.True(t, ok)
	assert.Equal(t, "here", s.Location)

	_, ok = FindSummary("C", primary, similar)
	assert.False(t, ok)
}

func TestSearchFilters(t *testing.T) {
	t.Parallel()

	assert.True(t, SearchFilters{Query: "  "}.IsBlank())
	assert.False(t, SearchFilters{State: "TX"}.IsBlank())
	assert.Equal(t, "steel", SearchFilters{Industry: "steel"}.SimilarSeed())
	assert.Equal(t, "acme", SearchFilters{Query: "acme", Industry: "steel"}.SimilarSeed())
}

func TestNewSource(t *testing.T) {
	t.Parallel()

	s, ok := NewSource("https://x.io", "")
	assert.True(t, ok)
	assert.Equal(t, "https://x.io", s.Title)

	_, ok = NewSource("  ", "title")
	assert.False(t, ok)

	all := ConcatSources([]Source{s}, []Source{s})
	assert.Len(t, all, 2)
}
