package lookup

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zatekoja/medbackoffice/internal/domain/entities"
	"github.com/zatekoja/medbackoffice/internal/domain/providers"
	"github.com/zatekoja/medbackoffice/internal/listing"
	apperrors "github.com/zatekoja/medbackoffice/pkg/errors"
	"github.com/zatekoja/medbackoffice/pkg/retry"
)

// Option is one entry of a dropdown.
type Option struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

// Lists are the reference lists the edit forms pick from.
type Lists struct {
	Providers      []Option `json:"providers"`
	Doctors        []Option `json:"doctors"`
	InsuranceCodes []Option `json:"insurance_codes"`
}

// Loader fetches the lookup lists in parallel and keeps them for a short while.
type Loader struct {
	providers providers.EntityStore[entities.Provider]
	doctors   providers.EntityStore[entities.Doctor]
	insurance providers.EntityStore[entities.InsuranceCode]
	retry     retry.Config
	cache     *listing.Cache[Lists]
}

// NewLoader creates a loader caching results for ttl.
func NewLoader(
	providerStore providers.EntityStore[entities.Provider],
	doctorStore providers.EntityStore[entities.Doctor],
	insuranceStore providers.EntityStore[entities.InsuranceCode],
	ttl time.Duration,
	clock listing.Clock,
) *Loader {
	cfg := retry.DefaultConfig()
	cfg.Retryable = apperrors.IsRetryable
	return &Loader{
		providers: providerStore,
		doctors:   doctorStore,
		insurance: insuranceStore,
		retry:     cfg,
		cache:     listing.NewCache[Lists](ttl, clock),
	}
}

// WithRetry replaces the retry policy used for each list call.
func (l *Loader) WithRetry(cfg retry.Config) *Loader {
	if cfg.Retryable == nil {
		cfg.Retryable = apperrors.IsRetryable
	}
	l.retry = cfg
	return l
}

// Load returns the lookup lists. All three are fetched concurrently; the
// first failure cancels the others.
func (l *Loader) Load(ctx context.Context, force bool) (Lists, error) {
	if !force {
		if cached, ok := l.cache.Get(); ok && len(cached) == 1 {
			return cached[0], nil
		}
	}

	var lists Lists
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		opts, err := load(gctx, l.retry, l.providers, func(p entities.Provider) bool { return p.Status != entities.StatusInactive })
		if err != nil {
			return fmt.Errorf("providers: %w", err)
		}
		lists.Providers = opts
		return nil
	})
	g.Go(func() error {
		opts, err := load(gctx, l.retry, l.doctors, func(d entities.Doctor) bool { return d.Status != entities.StatusInactive })
		if err != nil {
			return fmt.Errorf("doctors: %w", err)
		}
		lists.Doctors = opts
		return nil
	})
	g.Go(func() error {
		opts, err := load(gctx, l.retry, l.insurance, func(c entities.InsuranceCode) bool { return c.IsActive })
		if err != nil {
			return fmt.Errorf("insurance codes: %w", err)
		}
		lists.InsuranceCodes = opts
		return nil
	})

	if err := g.Wait(); err != nil {
		return Lists{}, err
	}

	l.cache.Set([]Lists{lists})
	return lists, nil
}

// Invalidate drops the cached lists when entityType feeds one of them and
// reports whether it did.
func (l *Loader) Invalidate(entityType string) bool {
	switch entityType {
	case entities.TypeProvider, entities.TypeDoctor, entities.TypeInsuranceCode:
		l.cache.Invalidate()
		return true
	}
	return false
}

func load[T entities.Entity](ctx context.Context, cfg retry.Config, store providers.EntityStore[T], active func(T) bool) ([]Option, error) {
	if store == nil {
		return []Option{}, nil
	}
	var items []T
	err := retry.Do(ctx, cfg, func() error {
		var err error
		items, err = store.List(ctx, "")
		return err
	})
	if err != nil {
		return nil, err
	}
	return Options(items, active), nil
}

// Options turns records into dropdown entries ordered by label.
func Options[T entities.Entity](items []T, active func(T) bool) []Option {
	out := make([]Option, 0, len(items))
	for _, item := range items {
		label := item.DisplayName()
		if label == "" {
			label = item.EntityID()
		}
		out = append(out, Option{ID: item.EntityID(), Label: label, Active: active == nil || active(item)})
	}
	slices.SortStableFunc(out, func(a, b Option) int {
		return cmp.Compare(strings.ToLower(a.Label), strings.ToLower(b.Label))
	})
	return out
}
