package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/zatekoja/medbackoffice/internal/catalog"
	"github.com/zatekoja/medbackoffice/internal/domain/providers"
	"github.com/zatekoja/medbackoffice/internal/infrastructure/observability"
	"github.com/zatekoja/medbackoffice/internal/listing"
	apperrors "github.com/zatekoja/medbackoffice/pkg/errors"
)

// ListPreference is the saved filter and sort state of one screen.
type ListPreference struct {
	Filters listing.Filters   `json:"filters,omitempty"`
	Sort    listing.SortState `json:"sort"`
}

// PreferenceService reads and writes per-user screen preferences.
// Read failures fall back to defaults; a broken preference never blocks a screen.
type PreferenceService struct {
	store providers.PreferenceStore
}

// NewPreferenceService creates a new preference service
func NewPreferenceService(store providers.PreferenceStore) *PreferenceService {
	return &PreferenceService{store: store}
}

// ViewMode returns the saved view mode of the screen, or its default.
func (s *PreferenceService) ViewMode(ctx context.Context, userID string, info catalog.Info) catalog.ViewMode {
	value, err := s.store.Get(ctx, userID, info.ViewPreferenceKey())
	if err != nil {
		if !errors.Is(err, providers.ErrPreferenceNotFound) {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", info.ViewPreferenceKey()).Msg("failed to read view preference")
		}
		return info.DefaultView
	}
	mode := catalog.ViewMode(value)
	if !mode.Valid() {
		return info.DefaultView
	}
	return mode
}

// SetViewMode saves the view mode of the screen.
func (s *PreferenceService) SetViewMode(ctx context.Context, userID string, info catalog.Info, mode catalog.ViewMode) error {
	if !mode.Valid() {
		return apperrors.NewValidationError("view mode must be card or table")
	}
	return s.store.Set(ctx, userID, info.ViewPreferenceKey(), string(mode))
}

// ListState returns the saved filters and sort of the screen.
func (s *PreferenceService) ListState(ctx context.Context, userID string, info catalog.Info) (ListPreference, bool) {
	value, err := s.store.Get(ctx, userID, info.ListPreferenceKey())
	if err != nil {
		if !errors.Is(err, providers.ErrPreferenceNotFound) {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", info.ListPreferenceKey()).Msg("failed to read list preference")
		}
		return ListPreference{}, false
	}
	var pref ListPreference
	if err := json.Unmarshal([]byte(value), &pref); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", info.ListPreferenceKey()).Msg("ignoring unreadable list preference")
		return ListPreference{}, false
	}
	return pref, true
}

// SaveListState stores the filters and sort of the screen.
func (s *PreferenceService) SaveListState(ctx context.Context, userID string, info catalog.Info, pref ListPreference) error {
	raw, err := json.Marshal(pref)
	if err != nil {
		return apperrors.NewInternalError("failed to encode list preference", err)
	}
	return s.store.Set(ctx, userID, info.ListPreferenceKey(), string(raw))
}
