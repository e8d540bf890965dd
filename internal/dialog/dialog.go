package dialog

import (
	"context"
	"fmt"
	"sync"

	"github.com/zatekoja/medbackoffice/internal/domain/entities"
	"github.com/zatekoja/medbackoffice/internal/domain/providers"
	"github.com/zatekoja/medbackoffice/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/medbackoffice/pkg/errors"
)

// State is where the dialog is in its lifecycle.
type State string

const (
	StateClosed     State = "closed"
	StateOpenCreate State = "open-create"
	StateOpenEdit   State = "open-edit"
	StateSubmitting State = "submitting"
)

// CloseFunc is told how the dialog ended. refreshNeeded is true only after a
// successful save; op and displayName are empty when the dialog was dismissed.
type CloseFunc func(ctx context.Context, refreshNeeded bool, op entities.ChangeOperation, displayName string)

// Snapshot is what the form renders.
type Snapshot[T any] struct {
	State       State       `json:"state"`
	Record      *T          `json:"record,omitempty"`
	FieldErrors FieldErrors `json:"field_errors,omitempty"`
}

// Dialog edits one record of type T and saves it through the entity store.
// It never refreshes the list itself; onClose tells the owner to.
type Dialog[T entities.Entity] struct {
	entityType string
	store      providers.EntityStore[T]
	validator  *Validator
	notifier   providers.Notifier
	defaults   func() T
	onClose    CloseFunc

	mu       sync.Mutex
	state    State
	resume   State
	record   T
	editID   string
	problems FieldErrors
}

// Config wires a dialog.
type Config[T entities.Entity] struct {
	EntityType string
	Store      providers.EntityStore[T]
	Validator  *Validator
	Notifier   providers.Notifier
	// Defaults builds the record a create form starts from.
	Defaults func() T
	OnClose  CloseFunc
}

// New creates a closed dialog.
func New[T entities.Entity](cfg Config[T]) *Dialog[T] {
	if cfg.Validator == nil {
		cfg.Validator = NewValidator()
	}
	if cfg.Defaults == nil {
		cfg.Defaults = func() T {
			var zero T
			return zero
		}
	}
	return &Dialog[T]{
		entityType: cfg.EntityType,
		store:      cfg.Store,
		validator:  cfg.Validator,
		notifier:   cfg.Notifier,
		defaults:   cfg.Defaults,
		onClose:    cfg.OnClose,
		state:      StateClosed,
	}
}

// OpenCreate opens the form on the default record.
func (d *Dialog[T]) OpenCreate() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StateSubmitting {
		return apperrors.NewConflictError("a submission is in progress")
	}
	d.state = StateOpenCreate
	d.record = d.defaults()
	d.editID = ""
	d.problems = nil
	return nil
}

// OpenEdit opens the form on an existing record.
func (d *Dialog[T]) OpenEdit(record T) error {
	if record.EntityID() == "" {
		return apperrors.NewValidationError("cannot edit a record without an id")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StateSubmitting {
		return apperrors.NewConflictError("a submission is in progress")
	}
	d.state = StateOpenEdit
	d.record = record
	d.editID = record.EntityID()
	d.problems = nil
	return nil
}

// Snapshot returns the current form state.
func (d *Dialog[T]) Snapshot() Snapshot[T] {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := Snapshot[T]{State: d.state}
	if d.state != StateClosed {
		record := d.record
		s.Record = &record
		if len(d.problems) > 0 {
			s.FieldErrors = make(FieldErrors, len(d.problems))
			for k, v := range d.problems {
				s.FieldErrors[k] = v
			}
		}
	}
	return s
}

// State returns the lifecycle state.
func (d *Dialog[T]) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Submit validates payload and creates or updates it. Invalid payloads and
// store failures keep the dialog open with the entered data; success closes it
// and calls onClose with refreshNeeded set.
func (d *Dialog[T]) Submit(ctx context.Context, payload T) (T, error) {
	var zero T

	if p, ok := any(&payload).(entities.Preparer); ok {
		p.BeforeSubmit()
	}

	d.mu.Lock()
	switch d.state {
	case StateClosed:
		d.mu.Unlock()
		return zero, apperrors.NewConflictError("the dialog is not open")
	case StateSubmitting:
		d.mu.Unlock()
		return zero, apperrors.NewConflictError("a submission is in progress")
	}

	d.record = payload
	if problems := d.validator.Check(payload); problems != nil {
		d.problems = problems
		d.mu.Unlock()
		return zero, &ValidationError{Fields: problems}
	}

	d.problems = nil
	d.resume = d.state
	d.state = StateSubmitting
	editID := d.editID
	d.mu.Unlock()

	op := entities.ChangeCreate
	var saved T
	var err error
	if editID == "" {
		saved, err = d.store.Create(ctx, payload)
	} else {
		op = entities.ChangeUpdate
		saved, err = d.store.Update(ctx, editID, payload)
	}

	if err != nil {
		d.mu.Lock()
		d.state = d.resume
		d.mu.Unlock()

		observability.LoggerFromContext(ctx).Warn().Err(err).
			Str("entity_type", d.entityType).
			Str("operation", string(op)).
			Msg("dialog submission rejected")
		if d.notifier != nil {
			d.notifier.Notify(ctx, providers.Notice{
				Level:   providers.NoticeError,
				Title:   fmt.Sprintf("Could not %s %s", op, d.entityType),
				Message: err.Error(),
			})
		}
		return zero, err
	}

	d.mu.Lock()
	d.state = StateClosed
	d.record = zero
	d.editID = ""
	d.mu.Unlock()

	name := saved.DisplayName()
	if name == "" {
		name = payload.DisplayName()
	}
	if d.notifier != nil {
		d.notifier.Notify(ctx, providers.Notice{
			Level:   providers.NoticeSuccess,
			Title:   fmt.Sprintf("%s %sd", d.entityType, op),
			Message: name,
		})
	}
	if d.onClose != nil {
		d.onClose(ctx, true, op, name)
	}
	return saved, nil
}

// Close dismisses the dialog without saving. It is refused while submitting.
func (d *Dialog[T]) Close(ctx context.Context) error {
	d.mu.Lock()
	switch d.state {
	case StateSubmitting:
		d.mu.Unlock()
		return apperrors.NewConflictError("cannot close while a submission is in progress")
	case StateClosed:
		d.mu.Unlock()
		return nil
	}
	var zero T
	d.state = StateClosed
	d.record = zero
	d.editID = ""
	d.problems = nil
	d.mu.Unlock()

	if d.onClose != nil {
		d.onClose(ctx, false, "", "")
	}
	return nil
}
