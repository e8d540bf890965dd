package migration_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/medbackoffice/internal/domain/entities"
	"github.com/zatekoja/medbackoffice/internal/migration"
)

type memStore[T entities.Entity] struct {
	items     []T
	created   []T
	updated   map[string]T
	updateErr map[string]error
	nextID    int
	setID     func(T, string) T
}

func (s *memStore[T]) List(ctx context.Context, sortSpec string) ([]T, error) { return s.items, nil }

func (s *memStore[T]) Create(ctx context.Context, p T) (T, error) {
	s.nextID++
	p = s.setID(p, fmt.Sprintf("new-%d", s.nextID))
	s.created = append(s.created, p)
	return p, nil
}

func (s *memStore[T]) Update(ctx context.Context, id string, p T) (T, error) {
	if err := s.updateErr[id]; err != nil {
		return p, err
	}
	if s.updated == nil {
		s.updated = map[string]T{}
	}
	s.updated[id] = p
	return p, nil
}

func (s *memStore[T]) Delete(ctx context.Context, id string) error        { return nil }
func (s *memStore[T]) BulkDelete(ctx context.Context, ids []string) error { return nil }

func fixtures() (*memStore[entities.Address], *memStore[entities.Doctor], *memStore[entities.Provider]) {
	addresses := &memStore[entities.Address]{
		items: []entities.Address{{ID: "a1", Street: "1 Herzl St", City: "Haifa"}},
		setID: func(a entities.Address, id string) entities.Address { a.ID = id; return a },
	}
	doctors := &memStore[entities.Doctor]{
		items: []entities.Doctor{
			{ID: "d1", City: "haifa", Address: "1  herzl st"},
			{ID: "d2", City: "Tel Aviv", Address: "5 Dizengoff"},
			{ID: "d3", AddressID: "a1"},
			{ID: "d4", AddressID: "a1", City: "Haifa"},
		},
	}
	provs := &memStore[entities.Provider]{
		items: []entities.Provider{
			{ID: "p1", City: "Tel Aviv", Address: "5 Dizengoff"},
			{ID: "p2", Address: "Kibbutz Yagur"},
		},
		updateErr: map[string]error{"p2": errors.New("locked")},
	}
	return addresses, doctors, provs
}

func TestAddressMigrator_Run(t *testing.T) {
	addresses, doctors, provs := fixtures()

	report, err := migration.NewAddressMigrator(addresses, doctors, provs, false).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, migration.Counts{Scanned: 4, Migrated: 3, Reused: 1, Created: 1, Skipped: 1}, report.Doctors)
	assert.Equal(t, migration.Counts{Scanned: 2, Migrated: 1, Reused: 1, Created: 1, Failed: 1}, report.Providers)

	assert.Equal(t, "a1", doctors.updated["d1"].AddressID)
	assert.Empty(t, doctors.updated["d1"].City)
	assert.Empty(t, doctors.updated["d1"].Address)
	assert.Equal(t, "new-1", doctors.updated["d2"].AddressID)
	assert.Equal(t, "a1", doctors.updated["d4"].AddressID)
	assert.Equal(t, "new-1", provs.updated["p1"].AddressID, "identical addresses are shared")

	require.Len(t, addresses.created, 2)
	assert.Equal(t, entities.Address{ID: "new-2", City: "Kibbutz Yagur"}, addresses.created[1])
}

func TestAddressMigrator_DryRunWritesNothing(t *testing.T) {
	addresses, doctors, provs := fixtures()

	report, err := migration.NewAddressMigrator(addresses, doctors, provs, true).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.Equal(t, 3, report.Doctors.Migrated)
	assert.Equal(t, 2, report.Providers.Migrated)
	assert.Empty(t, addresses.created)
	assert.Empty(t, doctors.updated)
	assert.Empty(t, provs.updated)
}
