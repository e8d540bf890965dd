package listing

import (
	"context"
	"sync"
	"time"

	"github.com/zatekoja/medbackoffice/internal/domain/entities"
	"github.com/zatekoja/medbackoffice/pkg/retry"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeStore is a hand-rolled EntityStore. listErrs are returned by successive
// List calls before items is served.
type fakeStore struct {
	mu         sync.Mutex
	items      []entities.InternalCode
	listErrs   []error
	listCalls  int
	deleteErrs map[string]error
	deleted    []string
	bulkErr    error
	bulkCalls  [][]string
}

func (s *fakeStore) List(ctx context.Context, sortSpec string) ([]entities.InternalCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if len(s.listErrs) > 0 {
		err := s.listErrs[0]
		s.listErrs = s.listErrs[1:]
		return nil, err
	}
	out := make([]entities.InternalCode, len(s.items))
	copy(out, s.items)
	return out, nil
}

func (s *fakeStore) Create(ctx context.Context, payload entities.InternalCode) (entities.InternalCode, error) {
	return payload, nil
}

func (s *fakeStore) Update(ctx context.Context, id string, payload entities.InternalCode) (entities.InternalCode, error) {
	return payload, nil
}

func (s *fakeStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.deleteErrs[id]; err != nil {
		return err
	}
	s.deleted = append(s.deleted, id)
	s.items = removeCode(s.items, id)
	return nil
}

func (s *fakeStore) BulkDelete(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bulkCalls = append(s.bulkCalls, ids)
	if s.bulkErr != nil {
		return s.bulkErr
	}
	for _, id := range ids {
		s.items = removeCode(s.items, id)
	}
	return nil
}

func (s *fakeStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

func removeCode(items []entities.InternalCode, id string) []entities.InternalCode {
	out := items[:0]
	for _, item := range items {
		if item.ID != id {
			out = append(out, item)
		}
	}
	return out
}

func codePredicate(item entities.InternalCode, f Filters) bool {
	return MatchText(f, "search", item.CodeNumber, item.DescriptionEn, item.DescriptionHe) &&
		MatchBool(f, "isActive", item.IsActive) &&
		MatchBool(f, "isBillable", item.IsBillable)
}

func codeConfig() Config[entities.InternalCode] {
	return Config[entities.InternalCode]{
		EntityType:     entities.TypeInternalCode,
		InitialFilters: Filters{"search": "", "isActive": All, "isBillable": All},
		Predicate:      codePredicate,
		SortFields: map[string]SortKey[entities.InternalCode]{
			"code_number":    func(c entities.InternalCode) any { return c.CodeNumber },
			"description_en": func(c entities.InternalCode) any { return c.DescriptionEn },
		},
		DefaultSort: SortState{Key: "code_number", Direction: Ascending},
		PageSize:    10,
		CacheTTL:    5 * time.Minute,
	}
}

func instantRetry(delays *[]time.Duration) retry.Config {
	cfg := retry.DefaultConfig()
	cfg.Sleep = func(ctx context.Context, d time.Duration) error {
		if delays != nil {
			*delays = append(*delays, d)
		}
		return ctx.Err()
	}
	return cfg
}

func codes(n int) []entities.InternalCode {
	out := make([]entities.InternalCode, n)
	for i := range out {
		out[i] = entities.InternalCode{
			ID:            string(rune('a'+i/26)) + string(rune('a'+i%26)),
			CodeNumber:    string(rune('A'+i/26)) + string(rune('A'+i%26)),
			DescriptionEn: "code",
			IsActive:      i%2 == 0,
		}
	}
	return out
}
