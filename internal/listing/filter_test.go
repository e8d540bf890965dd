package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zatekoja/medbackoffice/internal/domain/entities"
)

func TestFilter_ActiveScenario(t *testing.T) {
	items := []entities.InternalCode{
		{ID: "1", CodeNumber: "A1", IsActive: true},
		{ID: "2", CodeNumber: "B2", IsActive: false},
	}
	filters := Filters{"search": "", "isActive": "true", "isBillable": All}

	got := ApplyFiltersAndSort(items, codePredicate, filters, nil, SortState{})

	assert.Len(t, got, 1)
	assert.Equal(t, "A1", got[0].CodeNumber)
}

func TestFilter_ConjunctionAndMonotonicity(t *testing.T) {
	items := []entities.InternalCode{
		{ID: "1", CodeNumber: "A1", DescriptionEn: "Knee scan", IsActive: true, IsBillable: true},
		{ID: "2", CodeNumber: "A2", DescriptionEn: "Knee surgery", IsActive: false, IsBillable: true},
		{ID: "3", CodeNumber: "B1", DescriptionEn: "Hip scan", IsActive: true, IsBillable: false},
		{ID: "4", CodeNumber: "B2", DescriptionEn: "Consult", IsActive: false, IsBillable: false},
	}
	full := Filters{"search": "knee", "isActive": "true", "isBillable": "true"}
	defaults := Filters{"search": "", "isActive": All, "isBillable": All}

	for _, item := range items {
		want := ContainsFold(item.DescriptionEn, "knee") && item.IsActive && item.IsBillable
		assert.Equal(t, want, codePredicate(item, full), "item %s", item.ID)
	}

	// Relaxing any single filter never drops a matching item.
	for key, def := range defaults {
		relaxed := full.Clone()
		relaxed[key] = def
		for _, item := range items {
			if codePredicate(item, full) {
				assert.True(t, codePredicate(item, relaxed), "relaxing %s dropped %s", key, item.ID)
			}
		}
	}
}

func TestFilter_Helpers(t *testing.T) {
	f := Filters{"q": "  Scan ", "status": "active", "min": "2", "max": "5", "from": "2026-01-01", "tag": "ORTHO", "bad": "maybe"}

	assert.True(t, MatchText(f, "q", "CT scan"))
	assert.False(t, MatchText(f, "q", "MRI", ""))
	assert.True(t, MatchText(f, "missing", "anything"))

	assert.True(t, MatchEnum(f, "status", "active"))
	assert.False(t, MatchEnum(f, "status", "inactive"))
	assert.True(t, MatchEnum(Filters{"status": All}, "status", "inactive"))

	assert.True(t, MatchBool(f, "bad", false))

	three, nine := 3.0, 9.0
	assert.True(t, MatchRange(f, "min", "max", &three))
	assert.False(t, MatchRange(f, "min", "max", &nine))
	assert.False(t, MatchRange(f, "min", "max", nil))
	assert.True(t, MatchRange(Filters{}, "min", "max", nil))

	assert.True(t, MatchDateRange(f, "from", "to", "2026-02-10"))
	assert.False(t, MatchDateRange(f, "from", "to", "2025-12-31"))
	assert.False(t, MatchDateRange(f, "from", "to", ""))

	assert.True(t, MatchTag(f, "tag", []string{"cardio", "ortho"}))
	assert.False(t, MatchTag(f, "tag", nil))
}
