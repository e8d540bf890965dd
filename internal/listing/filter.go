package listing

import (
	"maps"
	"slices"
	"strconv"
	"strings"
)

// All is the "no restriction" value of an enum filter.
const All = "all"

// Filters maps filter keys to their current values. Enum filters use All when
// unset, text filters use "".
type Filters map[string]string

// Predicate reports whether item passes every active filter.
type Predicate[T any] func(item T, filters Filters) bool

// Clone returns an independent copy.
func (f Filters) Clone() Filters {
	if f == nil {
		return Filters{}
	}
	return maps.Clone(f)
}

// Active returns the trimmed value of key when it restricts the list.
func (f Filters) Active(key string) (string, bool) {
	v := strings.TrimSpace(f[key])
	if v == "" || v == All {
		return "", false
	}
	return v, true
}

// ContainsFold reports whether s contains substr, ignoring case.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// MatchText passes when the filter is unset or any field contains its value.
func MatchText(f Filters, key string, fields ...string) bool {
	needle, ok := f.Active(key)
	if !ok {
		return true
	}
	for _, field := range fields {
		if ContainsFold(field, needle) {
			return true
		}
	}
	return false
}

// MatchEnum passes when the filter is unset or equals value.
func MatchEnum(f Filters, key, value string) bool {
	want, ok := f.Active(key)
	return !ok || want == value
}

// MatchBool passes when the filter is unset or its "true"/"false" value equals value.
// Unparseable values do not restrict.
func MatchBool(f Filters, key string, value bool) bool {
	raw, ok := f.Active(key)
	if !ok {
		return true
	}
	want, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return want == value
}

// MatchTag passes when the filter is unset or one of tags equals it, ignoring case.
func MatchTag(f Filters, key string, tags []string) bool {
	want, ok := f.Active(key)
	if !ok {
		return true
	}
	return slices.ContainsFunc(tags, func(tag string) bool {
		return strings.EqualFold(strings.TrimSpace(tag), want)
	})
}

// MatchRange passes when value lies within the optional numeric bounds stored
// under minKey and maxKey. A nil value fails as soon as either bound is set.
func MatchRange(f Filters, minKey, maxKey string, value *float64) bool {
	lo, hasLo := parseBound(f, minKey)
	hi, hasHi := parseBound(f, maxKey)
	if !hasLo && !hasHi {
		return true
	}
	if value == nil {
		return false
	}
	if hasLo && *value < lo {
		return false
	}
	if hasHi && *value > hi {
		return false
	}
	return true
}

// MatchDateRange passes when date ("2006-01-02") lies within the optional bounds
// stored under fromKey and toKey. An empty date fails as soon as either bound is set.
func MatchDateRange(f Filters, fromKey, toKey, date string) bool {
	from, hasFrom := f.Active(fromKey)
	to, hasTo := f.Active(toKey)
	if !hasFrom && !hasTo {
		return true
	}
	if date == "" {
		return false
	}
	if hasFrom && date < from {
		return false
	}
	if hasTo && date > to {
		return false
	}
	return true
}

func parseBound(f Filters, key string) (float64, bool) {
	raw, ok := f.Active(key)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
