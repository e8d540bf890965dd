package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zatekoja/medbackoffice/internal/catalog"
	"github.com/zatekoja/medbackoffice/internal/dialog"
	"github.com/zatekoja/medbackoffice/internal/domain/entities"
	"github.com/zatekoja/medbackoffice/internal/domain/providers"
	"github.com/zatekoja/medbackoffice/internal/export"
	"github.com/zatekoja/medbackoffice/internal/infrastructure/clients/entityapi"
	"github.com/zatekoja/medbackoffice/internal/infrastructure/observability"
	"github.com/zatekoja/medbackoffice/internal/listing"
	apperrors "github.com/zatekoja/medbackoffice/pkg/errors"
	"github.com/zatekoja/medbackoffice/pkg/retry"
)

// Tab is one entity screen: a list controller plus its edit dialog, with the
// entity type erased so screens of every type can be held together.
type Tab interface {
	Info() catalog.Info
	Fetch(ctx context.Context, force bool) error
	State() listing.LoadState
	// ListView returns a listing.View of the tab's entity type.
	ListView() any
	// DialogView returns a dialog.Snapshot of the tab's entity type.
	DialogView() any

	SetFilters(values map[string]string)
	ResetFilters()
	Filters() listing.Filters
	SortBy(key string) (listing.SortState, error)
	SetSort(state listing.SortState)
	Sort() listing.SortState
	SetPage(page int)
	SetPageSize(size int) error

	SetSelectionMode(active bool)
	ToggleSelection(id string) bool
	SelectAllVisible(scope listing.Scope)
	Selected() []string
	BulkDelete(ctx context.Context) (listing.BulkDeleteResult, error)

	// Edit resolves the selection and opens the dialog when exactly one record is selected.
	Edit(ctx context.Context) (listing.EditOutcome, error)
	Create() error
	// Submit decodes raw as the tab's entity type and submits it through the dialog.
	Submit(ctx context.Context, raw json.RawMessage) (any, error)
	CloseDialog(ctx context.Context) error

	Export() ([]byte, error)
	InvalidateLocal()
}

// TabDeps are the collaborators shared by every tab.
type TabDeps struct {
	Notifier  providers.Notifier
	Shared    providers.CacheProvider
	Metrics   *observability.Metrics
	Validator *dialog.Validator
	Clock     listing.Clock
	Retry     *retry.Config
	PageSize  int
	CacheTTL  time.Duration
	// OnChange is told about every successful mutation made through the tab.
	OnChange listing.ChangeFunc
}

type tab[T entities.Entity] struct {
	*listing.Controller[T]
	def    catalog.Definition[T]
	dialog *dialog.Dialog[T]
	deps   TabDeps
}

func newTab[T entities.Entity](def catalog.Definition[T], store providers.EntityStore[T], deps TabDeps) *tab[T] {
	cfg := def.Listing
	if deps.PageSize > 0 {
		cfg.PageSize = deps.PageSize
	}
	if deps.CacheTTL > 0 {
		cfg.CacheTTL = deps.CacheTTL
	}

	opts := []listing.Option{listing.WithMetrics(deps.Metrics)}
	if deps.Clock != nil {
		opts = append(opts, listing.WithClock(deps.Clock))
	}
	if deps.Retry != nil {
		opts = append(opts, listing.WithRetry(*deps.Retry))
	}
	if deps.Notifier != nil {
		opts = append(opts, listing.WithNotifier(deps.Notifier))
	}
	if deps.Shared != nil {
		opts = append(opts, listing.WithSharedCache(deps.Shared))
	}
	if deps.OnChange != nil {
		opts = append(opts, listing.WithChangeHook(deps.OnChange))
	}

	t := &tab[T]{
		Controller: listing.NewController(cfg, store, opts...),
		def:        def,
		deps:       deps,
	}
	t.dialog = dialog.New(dialog.Config[T]{
		EntityType: def.EntityType,
		Store:      store,
		Validator:  deps.Validator,
		Notifier:   deps.Notifier,
		Defaults:   def.Defaults,
		OnClose:    t.dialogClosed,
	})
	return t
}

func (t *tab[T]) Info() catalog.Info { return t.def.Info }

func (t *tab[T]) ListView() any { return t.View() }

func (t *tab[T]) DialogView() any { return t.dialog.Snapshot() }

func (t *tab[T]) Edit(ctx context.Context) (listing.EditOutcome, error) {
	outcome, record, err := t.EditSelection(ctx)
	if err != nil || outcome != listing.EditReady {
		return outcome, err
	}
	return outcome, t.dialog.OpenEdit(record)
}

func (t *tab[T]) Create() error {
	return t.dialog.OpenCreate()
}

func (t *tab[T]) Submit(ctx context.Context, raw json.RawMessage) (any, error) {
	var payload T
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("malformed %s payload: %v", t.def.EntityType, err))
	}
	saved, err := t.dialog.Submit(ctx, payload)
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (t *tab[T]) CloseDialog(ctx context.Context) error {
	return t.dialog.Close(ctx)
}

func (t *tab[T]) Export() ([]byte, error) {
	return export.XLSX(t.def.Title, t.def.Columns, t.Filtered())
}

// dialogClosed refetches after a save. Dismissals change nothing.
func (t *tab[T]) dialogClosed(ctx context.Context, refreshNeeded bool, op entities.ChangeOperation, displayName string) {
	if !refreshNeeded {
		return
	}
	t.Invalidate(ctx)
	if t.deps.OnChange != nil {
		t.deps.OnChange(ctx, op, nil)
	}
	if err := t.Fetch(ctx, true); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).
			Str("entity_type", t.def.EntityType).
			Str("record", displayName).
			Msg("refresh after save failed")
	}
}

// TabFactory builds tabs backed by the entity API.
type TabFactory struct {
	client *entityapi.Client
}

// NewTabFactory creates a new tab factory
func NewTabFactory(client *entityapi.Client) *TabFactory {
	return &TabFactory{client: client}
}

// NewTab builds the tab for the screen described by info.
func (f *TabFactory) NewTab(info catalog.Info, deps TabDeps) (Tab, error) {
	switch info.EntityType {
	case entities.TypeMedicalCode:
		return newTab(catalog.MedicalCodes(), resource[entities.MedicalCode](f, info), deps), nil
	case entities.TypeInternalCode:
		return newTab(catalog.InternalCodes(), resource[entities.InternalCode](f, info), deps), nil
	case entities.TypeInsuranceCode:
		return newTab(catalog.InsuranceCodes(), resource[entities.InsuranceCode](f, info), deps), nil
	case entities.TypeDiagnosisProcedureMapping:
		return newTab(catalog.DiagnosisProcedureMappings(), resource[entities.DiagnosisProcedureMapping](f, info), deps), nil
	case entities.TypeContract:
		return newTab(catalog.Contracts(), resource[entities.Contract](f, info), deps), nil
	case entities.TypeClaim:
		return newTab(catalog.Claims(), resource[entities.Claim](f, info), deps), nil
	case entities.TypeDoctor:
		return newTab(catalog.Doctors(), resource[entities.Doctor](f, info), deps), nil
	case entities.TypeProvider:
		return newTab(catalog.Providers(), resource[entities.Provider](f, info), deps), nil
	case entities.TypeBillOfMaterial:
		return newTab(catalog.BillsOfMaterial(), resource[entities.BillOfMaterial](f, info), deps), nil
	case entities.TypeDoctorProviderAffiliation:
		return newTab(catalog.Affiliations(), resource[entities.DoctorProviderAffiliation](f, info), deps), nil
	case entities.TypeAddress:
		return newTab(catalog.Addresses(), resource[entities.Address](f, info), deps), nil
	default:
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no screen for entity type %q", info.EntityType))
	}
}

func resource[T any](f *TabFactory, info catalog.Info) providers.EntityStore[T] {
	return entityapi.NewResource[T](f.client, info.EntityType)
}
