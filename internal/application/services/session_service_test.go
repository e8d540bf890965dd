package services_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/medbackoffice/internal/adapters/cache"
	"github.com/zatekoja/medbackoffice/internal/adapters/database"
	"github.com/zatekoja/medbackoffice/internal/application/services"
	"github.com/zatekoja/medbackoffice/internal/catalog"
	"github.com/zatekoja/medbackoffice/internal/dialog"
	"github.com/zatekoja/medbackoffice/internal/domain/entities"
	"github.com/zatekoja/medbackoffice/internal/domain/providers"
	"github.com/zatekoja/medbackoffice/internal/listing"
	apperrors "github.com/zatekoja/medbackoffice/pkg/errors"
)

func listOf(t *testing.T, view any) listing.View[entities.InternalCode] {
	t.Helper()
	v, ok := view.(listing.View[entities.InternalCode])
	require.True(t, ok, "unexpected list view %T", view)
	return v
}

func dialogOf(t *testing.T, view any) dialog.Snapshot[entities.InternalCode] {
	t.Helper()
	v, ok := view.(dialog.Snapshot[entities.InternalCode])
	require.True(t, ok, "unexpected dialog view %T", view)
	return v
}

func TestSessionService_OpenUnknownEntity(t *testing.T) {
	h := newHarness(t)

	_, err := h.sessions.Open(context.Background(), "Invoice", "u1")
	assert.Equal(t, apperrors.ErrorTypeNotFound, apperrors.TypeOf(err))
}

func TestSessionService_OpenLoadsList(t *testing.T) {
	h := newHarness(t)
	seedInternalCodes(h.api)

	sess, err := h.sessions.Open(context.Background(), "internalCode", "u1")
	require.NoError(t, err)

	view := sess.View()
	assert.Equal(t, entities.TypeInternalCode, view.Screen.EntityType)
	assert.Equal(t, catalog.ViewTable, view.ViewMode)

	list := listOf(t, view.List)
	assert.Equal(t, listing.StateReady, list.State)
	assert.Equal(t, 3, list.Page.TotalItems)
	assert.Equal(t, dialog.StateClosed, dialogOf(t, view.Dialog).State)
	assert.Equal(t, 1, h.sessions.Len())
}

func TestSessionService_RestoresPreferences(t *testing.T) {
	h := newHarness(t)
	seedInternalCodes(h.api)
	ctx := context.Background()

	first, err := h.sessions.Open(ctx, entities.TypeInternalCode, "u1")
	require.NoError(t, err)
	require.NoError(t, first.SetViewMode(ctx, catalog.ViewCard))
	first.SetFilters(ctx, map[string]string{"isActive": "true"})
	state, err := first.SortBy(ctx, "code_number")
	require.NoError(t, err)
	require.Equal(t, listing.Descending, state.Direction)

	saved, err := h.prefs.Get(ctx, "u1", "internalCodeView_viewPreference")
	require.NoError(t, err)
	assert.Equal(t, "card", saved)

	second, err := h.sessions.Open(ctx, entities.TypeInternalCode, "u1")
	require.NoError(t, err)
	view := second.View()
	assert.Equal(t, catalog.ViewCard, view.ViewMode)

	list := listOf(t, view.List)
	assert.Equal(t, "true", list.Filters["isActive"])
	assert.Equal(t, listing.SortState{Key: "code_number", Direction: listing.Descending}, list.Sort)
	require.Len(t, list.Page.Items, 2)
	assert.Equal(t, "C300", list.Page.Items[0].CodeNumber)

	other, err := h.sessions.Open(ctx, entities.TypeInternalCode, "u2")
	require.NoError(t, err)
	assert.Equal(t, catalog.ViewTable, other.ViewMode())
}

func TestSessionService_CreateRefreshesAndExpiresOtherSessions(t *testing.T) {
	h := newHarness(t)
	seedInternalCodes(h.api)
	ctx := context.Background()

	editor, err := h.sessions.Open(ctx, entities.TypeInternalCode, "u1")
	require.NoError(t, err)
	watcher, err := h.sessions.Open(ctx, entities.TypeInternalCode, "u2")
	require.NoError(t, err)
	require.Equal(t, 2, h.api.Calls(http.MethodGet, entities.TypeInternalCode))

	require.NoError(t, editor.Tab().Create())
	assert.Equal(t, dialog.StateOpenCreate, dialogOf(t, editor.View().Dialog).State)

	saved, err := editor.Tab().Submit(ctx, json.RawMessage(`{"code_number":"D400","description_en":"Follow-up"}`))
	require.NoError(t, err)
	assert.Equal(t, "D400", saved.(entities.InternalCode).CodeNumber)
	assert.Len(t, h.api.Records(entities.TypeInternalCode), 4)

	view := editor.View()
	assert.Equal(t, dialog.StateClosed, dialogOf(t, view.Dialog).State)
	assert.Equal(t, 4, listOf(t, view.List).Page.TotalItems)
	require.NotEmpty(t, view.Notices)
	assert.Equal(t, providers.NoticeSuccess, view.Notices[len(view.Notices)-1].Level)
	assert.Empty(t, editor.View().Notices, "notices are handed over once")
	assert.Equal(t, 3, h.api.Calls(http.MethodGet, entities.TypeInternalCode))

	require.NoError(t, watcher.Tab().Fetch(ctx, false))
	assert.Equal(t, 4, h.api.Calls(http.MethodGet, entities.TypeInternalCode))
	assert.Equal(t, 4, listOf(t, watcher.View().List).Page.TotalItems)
}

func TestSessionService_InvalidSubmitKeepsDialogOpen(t *testing.T) {
	h := newHarness(t)
	seedInternalCodes(h.api)
	ctx := context.Background()

	sess, err := h.sessions.Open(ctx, entities.TypeInternalCode, "u1")
	require.NoError(t, err)
	require.NoError(t, sess.Tab().Create())

	_, err = sess.Tab().Submit(ctx, json.RawMessage(`{"code_number":""}`))
	var verr *dialog.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "code_number")

	snap := dialogOf(t, sess.View().Dialog)
	assert.Equal(t, dialog.StateOpenCreate, snap.State)
	assert.Contains(t, snap.FieldErrors, "code_number")
	assert.Equal(t, 0, h.api.Calls(http.MethodPost, entities.TypeInternalCode))

	_, err = sess.Tab().Submit(ctx, json.RawMessage(`{"code_number":`))
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))

	require.NoError(t, sess.Tab().CloseDialog(ctx))
	assert.Equal(t, dialog.StateClosed, dialogOf(t, sess.View().Dialog).State)
}

func TestSessionService_EditAndBulkDelete(t *testing.T) {
	h := newHarness(t)
	seedInternalCodes(h.api)
	ctx := context.Background()

	sess, err := h.sessions.Open(ctx, entities.TypeInternalCode, "u1")
	require.NoError(t, err)
	tab := sess.Tab()

	outcome, err := tab.Edit(ctx)
	require.NoError(t, err)
	assert.Equal(t, listing.EditEnterSelection, outcome)

	tab.ToggleSelection("ic-2")
	outcome, err = tab.Edit(ctx)
	require.NoError(t, err)
	assert.Equal(t, listing.EditReady, outcome)
	snap := dialogOf(t, sess.View().Dialog)
	assert.Equal(t, dialog.StateOpenEdit, snap.State)
	assert.Equal(t, "B200", snap.Record.CodeNumber)

	_, err = tab.Submit(ctx, json.RawMessage(`{"code_number":"B201","description_en":"X-ray"}`))
	require.NoError(t, err)
	assert.Equal(t, "B201", h.api.Records(entities.TypeInternalCode)[1]["code_number"])

	tab.ToggleSelection("ic-3")
	result, err := tab.BulkDelete(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Succeeded)
	assert.True(t, result.Refreshed)
	assert.Len(t, h.api.Records(entities.TypeInternalCode), 1)
	assert.Equal(t, 1, listOf(t, sess.View().List).Page.TotalItems)
}

func TestSessionService_SelectAllFollowsViewMode(t *testing.T) {
	h := newHarness(t)
	for i := range 12 {
		h.api.Seed(entities.TypeInternalCode, entities.InternalCode{
			ID:            "ic-" + string(rune('a'+i)),
			CodeNumber:    "N" + string(rune('a'+i)),
			DescriptionEn: "code",
		})
	}
	ctx := context.Background()

	sess, err := h.sessions.Open(ctx, entities.TypeInternalCode, "u1")
	require.NoError(t, err)

	sess.SelectAll()
	assert.Len(t, sess.Tab().Selected(), 12)
	sess.SelectAll()
	assert.Empty(t, sess.Tab().Selected())

	require.NoError(t, sess.SetViewMode(ctx, catalog.ViewCard))
	sess.SelectAll()
	assert.Len(t, sess.Tab().Selected(), 10)

	assert.Error(t, sess.SetViewMode(ctx, catalog.ViewMode("grid")))
	assert.Equal(t, catalog.ViewCard, sess.ViewMode())
}

func TestSessionService_RetriesThrottledLoad(t *testing.T) {
	h := newHarness(t)
	seedInternalCodes(h.api)
	h.api.FailNext(http.MethodGet, entities.TypeInternalCode, http.StatusTooManyRequests, http.StatusTooManyRequests)

	sess, err := h.sessions.Open(context.Background(), entities.TypeInternalCode, "u1")
	require.NoError(t, err)

	view := sess.View()
	assert.Equal(t, listing.StateReady, listOf(t, view.List).State)
	assert.Equal(t, 3, h.api.Calls(http.MethodGet, entities.TypeInternalCode))
	retries := 0
	for _, n := range view.Notices {
		if n.Level == providers.NoticeInfo {
			retries++
		}
	}
	assert.Equal(t, 2, retries)
}

func TestSessionService_FailedLoadStillOpens(t *testing.T) {
	h := newHarness(t)
	h.api.FailNext(http.MethodGet, entities.TypeInternalCode, http.StatusForbidden)

	sess, err := h.sessions.Open(context.Background(), entities.TypeInternalCode, "u1")
	require.NoError(t, err)

	list := listOf(t, sess.View().List)
	assert.Equal(t, listing.StateFailed, list.State)
	assert.NotEmpty(t, list.Error)
	assert.Equal(t, 1, h.api.Calls(http.MethodGet, entities.TypeInternalCode))

	require.NoError(t, sess.Tab().Fetch(context.Background(), true))
	assert.Equal(t, listing.StateReady, sess.Tab().State())
}

func TestSessionService_GetAndClose(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	sess, err := h.sessions.Open(ctx, entities.TypeDoctor, "")
	require.NoError(t, err)
	assert.Equal(t, "anonymous", sess.UserID)

	got, err := h.sessions.Get(sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)

	require.NoError(t, h.sessions.Close(sess.ID))
	_, err = h.sessions.Get(sess.ID)
	assert.Equal(t, apperrors.ErrorTypeNotFound, apperrors.TypeOf(err))
	assert.Equal(t, apperrors.ErrorTypeNotFound, apperrors.TypeOf(h.sessions.Close(sess.ID)))
}

func TestTab_Export(t *testing.T) {
	h := newHarness(t)
	seedInternalCodes(h.api)

	sess, err := h.sessions.Open(context.Background(), entities.TypeInternalCode, "u1")
	require.NoError(t, err)

	data, err := sess.Tab().Export()
	require.NoError(t, err)
	require.Greater(t, len(data), 2)
	assert.Equal(t, "PK", string(data[:2]))
}

// announceRecorder records what the shared list cache held when each change was announced.
type announceRecorder struct {
	shared providers.CacheProvider
	key    string
	errs   []error
}

func (p *announceRecorder) PublishChange(ctx context.Context, event *entities.EntityChangedEvent) error {
	_, err := p.shared.Get(ctx, p.key)
	p.errs = append(p.errs, err)
	return nil
}

func TestSessionService_SaveExpiresSharedListBeforeAnnouncing(t *testing.T) {
	h := newHarness(t)
	seedInternalCodes(h.api)
	ctx := context.Background()

	shared := cache.NewMemoryAdapter(time.Now)
	key := "list:" + entities.TypeInternalCode
	publisher := &announceRecorder{shared: shared, key: key}
	sessions := services.NewSessionService(
		services.NewTabFactory(h.api.EntityClient()),
		services.NewPreferenceService(database.NewMemoryPreferenceStore()),
		services.TabDeps{Retry: instantRetry(), Shared: shared},
		publisher,
		time.Hour,
		10,
	)

	sess, err := sessions.Open(ctx, entities.TypeInternalCode, "u1")
	require.NoError(t, err)
	_, err = shared.Get(ctx, key)
	require.NoError(t, err)

	require.NoError(t, sess.Tab().Create())
	_, err = sess.Tab().Submit(ctx, json.RawMessage(`{"code_number":"D400","description_en":"Follow-up"}`))
	require.NoError(t, err)

	require.Len(t, publisher.errs, 1)
	assert.ErrorIs(t, publisher.errs[0], providers.ErrCacheMiss)
	assert.Equal(t, 4, listOf(t, sess.View().List).Page.TotalItems)
}
