package migration

import (
	"context"
	"fmt"
	"strings"

	"github.com/zatekoja/medbackoffice/internal/domain/entities"
	"github.com/zatekoja/medbackoffice/internal/domain/providers"
	"github.com/zatekoja/medbackoffice/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/medbackoffice/pkg/errors"
	"github.com/zatekoja/medbackoffice/pkg/retry"
)

// Counts tallies the migration of one entity type.
type Counts struct {
	Scanned  int `json:"scanned"`
	Migrated int `json:"migrated"`
	Reused   int `json:"reused_addresses"`
	Created  int `json:"created_addresses"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Report is the outcome of one migration run.
type Report struct {
	DryRun    bool   `json:"dry_run"`
	Doctors   Counts `json:"doctors"`
	Providers Counts `json:"providers"`
}

// AddressMigrator moves the legacy free-text city/address of doctors and
// providers into Address records referenced by address_id, then clears the
// legacy fields. Records are processed one at a time; a failed record is
// counted and the run continues.
type AddressMigrator struct {
	addresses providers.EntityStore[entities.Address]
	doctors   providers.EntityStore[entities.Doctor]
	providers providers.EntityStore[entities.Provider]
	retry     retry.Config
	dryRun    bool

	index map[string]string
}

// NewAddressMigrator creates a migrator. With dryRun set nothing is written.
func NewAddressMigrator(
	addresses providers.EntityStore[entities.Address],
	doctors providers.EntityStore[entities.Doctor],
	providerStore providers.EntityStore[entities.Provider],
	dryRun bool,
) *AddressMigrator {
	cfg := retry.DefaultConfig()
	cfg.Retryable = apperrors.IsRetryable
	return &AddressMigrator{
		addresses: addresses,
		doctors:   doctors,
		providers: providerStore,
		retry:     cfg,
		dryRun:    dryRun,
	}
}

// WithRetry overrides the retry policy of each entity API call.
func (m *AddressMigrator) WithRetry(cfg retry.Config) *AddressMigrator {
	if cfg.Retryable == nil {
		cfg.Retryable = apperrors.IsRetryable
	}
	m.retry = cfg
	return m
}

// Run migrates every doctor and provider still carrying legacy address fields.
func (m *AddressMigrator) Run(ctx context.Context) (Report, error) {
	logger := observability.LoggerFromContext(ctx)
	report := Report{DryRun: m.dryRun}

	existing, err := listWithRetry(ctx, m.retry, m.addresses)
	if err != nil {
		return report, fmt.Errorf("failed to list addresses: %w", err)
	}
	m.index = make(map[string]string, len(existing))
	for _, a := range existing {
		m.index[addressKey(a.Street, a.City)] = a.ID
	}

	doctors, err := listWithRetry(ctx, m.retry, m.doctors)
	if err != nil {
		return report, fmt.Errorf("failed to list doctors: %w", err)
	}
	for _, d := range doctors {
		report.Doctors.Scanned++
		if !d.HasLegacyAddress() {
			report.Doctors.Skipped++
			continue
		}
		addressID, err := m.resolve(ctx, d.AddressID, d.Address, d.City, &report.Doctors)
		if err == nil {
			d.AddressID, d.City, d.Address = addressID, "", ""
			err = m.save(ctx, func() error {
				_, err := m.doctors.Update(ctx, d.ID, d)
				return err
			})
		}
		if err != nil {
			report.Doctors.Failed++
			logger.Warn().Err(err).Str("doctor_id", d.ID).Msg("address migration failed")
			continue
		}
		report.Doctors.Migrated++
	}

	provs, err := listWithRetry(ctx, m.retry, m.providers)
	if err != nil {
		return report, fmt.Errorf("failed to list providers: %w", err)
	}
	for _, p := range provs {
		report.Providers.Scanned++
		if !p.HasLegacyAddress() {
			report.Providers.Skipped++
			continue
		}
		addressID, err := m.resolve(ctx, p.AddressID, p.Address, p.City, &report.Providers)
		if err == nil {
			p.AddressID, p.City, p.Address = addressID, "", ""
			err = m.save(ctx, func() error {
				_, err := m.providers.Update(ctx, p.ID, p)
				return err
			})
		}
		if err != nil {
			report.Providers.Failed++
			logger.Warn().Err(err).Str("provider_id", p.ID).Msg("address migration failed")
			continue
		}
		report.Providers.Migrated++
	}

	logger.Info().
		Bool("dry_run", m.dryRun).
		Int("doctors_migrated", report.Doctors.Migrated).
		Int("providers_migrated", report.Providers.Migrated).
		Int("failed", report.Doctors.Failed+report.Providers.Failed).
		Msg("address migration finished")
	return report, nil
}

// resolve returns the address id a record should point at. A record that already
// has one keeps it; otherwise an identical address is reused or a new one created.
func (m *AddressMigrator) resolve(ctx context.Context, current, street, city string, counts *Counts) (string, error) {
	if current != "" {
		return current, nil
	}
	street, city = strings.TrimSpace(street), strings.TrimSpace(city)
	if city == "" {
		// free text without a city: keep the whole line as the city so nothing is lost
		city, street = street, ""
	}

	key := addressKey(street, city)
	if id, ok := m.index[key]; ok {
		counts.Reused++
		return id, nil
	}

	if m.dryRun {
		counts.Created++
		id := "dry-run:" + key
		m.index[key] = id
		return id, nil
	}

	var created entities.Address
	err := retry.Do(ctx, m.retry, func() error {
		var err error
		created, err = m.addresses.Create(ctx, entities.Address{Street: street, City: city})
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to create address: %w", err)
	}
	if created.ID == "" {
		return "", apperrors.NewExternalError("address created without an id", nil)
	}
	counts.Created++
	m.index[key] = created.ID
	return created.ID, nil
}

func (m *AddressMigrator) save(ctx context.Context, fn func() error) error {
	if m.dryRun {
		return nil
	}
	return retry.Do(ctx, m.retry, fn)
}

func listWithRetry[T any](ctx context.Context, cfg retry.Config, store providers.EntityStore[T]) ([]T, error) {
	var items []T
	err := retry.Do(ctx, cfg, func() error {
		var err error
		items, err = store.List(ctx, "")
		return err
	})
	return items, err
}

func addressKey(street, city string) string {
	norm := func(s string) string { return strings.Join(strings.Fields(strings.ToLower(s)), " ") }
	return norm(street) + "|" + norm(city)
}
