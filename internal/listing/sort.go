package listing

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction of a sort.
type Direction string

const (
	Ascending  Direction = "ascending"
	Descending Direction = "descending"
)

// SortState is the {key, direction} pair behind the list order.
type SortState struct {
	Key       string    `json:"key"`
	Direction Direction `json:"direction"`
}

// Toggle returns the state after the operator picks key: the same key flips
// direction, a new key starts ascending.
func (s SortState) Toggle(key string) SortState {
	if s.Key == key && s.Direction == Ascending {
		return SortState{Key: key, Direction: Descending}
	}
	return SortState{Key: key, Direction: Ascending}
}

// SortKey extracts the value an item is ordered by. Returning nil (or a nil
// pointer) marks the value as missing.
type SortKey[T any] func(item T) any

// SortItems returns a stably sorted copy of items. Missing values go last in
// both directions. An unknown key leaves the order unchanged.
func SortItems[T any](items []T, fields map[string]SortKey[T], state SortState) []T {
	out := slices.Clone(items)
	key, ok := fields[state.Key]
	if !ok {
		return out
	}
	slices.SortStableFunc(out, func(a, b T) int {
		va, vb := normalize(key(a)), normalize(key(b))
		switch {
		case va == nil && vb == nil:
			return 0
		case va == nil:
			return 1
		case vb == nil:
			return -1
		}
		c := compareValues(va, vb)
		if state.Direction == Descending {
			return -c
		}
		return c
	})
	return out
}

// normalize dereferences pointers and widens numbers so values of one field compare directly.
func normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case *string:
		if x == nil {
			return nil
		}
		return *x
	case *int:
		if x == nil {
			return nil
		}
		return float64(*x)
	case *float64:
		if x == nil {
			return nil
		}
		return *x
	case *time.Time:
		if x == nil {
			return nil
		}
		return *x
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case decimal.Decimal:
		f, _ := x.Float64()
		return f
	default:
		return v
	}
}

func compareValues(a, b any) int {
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			if c := strings.Compare(strings.ToLower(x), strings.ToLower(y)); c != 0 {
				return c
			}
			return strings.Compare(x, y)
		}
	case float64:
		if y, ok := b.(float64); ok {
			return cmp.Compare(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	}
	return 0
}

// ApplyFiltersAndSort keeps the items matching predicate and orders them.
func ApplyFiltersAndSort[T any](items []T, predicate Predicate[T], filters Filters, fields map[string]SortKey[T], state SortState) []T {
	filtered := make([]T, 0, len(items))
	for _, item := range items {
		if predicate == nil || predicate(item, filters) {
			filtered = append(filtered, item)
		}
	}
	return SortItems(filtered, fields, state)
}
