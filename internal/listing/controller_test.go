package listing

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/medbackoffice/internal/adapters/cache"
	"github.com/zatekoja/medbackoffice/internal/adapters/notifications"
	"github.com/zatekoja/medbackoffice/internal/domain/entities"
	"github.com/zatekoja/medbackoffice/internal/domain/providers"
	apperrors "github.com/zatekoja/medbackoffice/pkg/errors"
	"github.com/zatekoja/medbackoffice/pkg/retry"
)

func TestController_FetchServesCacheUntilExpiry(t *testing.T) {
	clock := newFakeClock()
	store := &fakeStore{items: codes(3)}
	c := NewController(codeConfig(), store, WithClock(clock.Now), WithRetry(instantRetry(nil)))
	ctx := context.Background()

	require.NoError(t, c.Fetch(ctx, false))
	require.NoError(t, c.Fetch(ctx, false))
	assert.Equal(t, 1, store.calls())
	assert.Equal(t, StateReady, c.State())

	clock.Advance(5*time.Minute + time.Second)
	require.NoError(t, c.Fetch(ctx, false))
	assert.Equal(t, 2, store.calls())

	require.NoError(t, c.Fetch(ctx, true))
	assert.Equal(t, 3, store.calls())
}

func TestController_RetryScheduleThenHardError(t *testing.T) {
	var delays []time.Duration
	throttled := apperrors.FromStatus(http.StatusTooManyRequests, "slow down")
	store := &fakeStore{listErrs: []error{throttled, throttled, throttled, throttled}}
	recorder := notifications.NewRecorder(10)
	c := NewController(codeConfig(), store, WithRetry(instantRetry(&delays)), WithNotifier(recorder))

	err := c.Fetch(context.Background(), false)

	require.Error(t, err)
	assert.True(t, apperrors.IsRateLimited(err))
	assert.Equal(t, 4, store.calls())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, delays)

	view := c.View()
	assert.Equal(t, StateFailed, view.State)
	assert.NotEmpty(t, view.Error)

	notices := recorder.Notices()
	require.Len(t, notices, 4)
	assert.Equal(t, providers.NoticeInfo, notices[0].Level)
	assert.Equal(t, providers.NoticeError, notices[3].Level)
}

func TestController_NetworkErrorsShareRetryPolicy(t *testing.T) {
	var delays []time.Duration
	netErr := apperrors.NewNetworkError("list", errors.New("connection reset"))
	store := &fakeStore{items: codes(2), listErrs: []error{netErr}}
	c := NewController(codeConfig(), store, WithRetry(instantRetry(&delays)))

	require.NoError(t, c.Fetch(context.Background(), false))
	assert.Equal(t, 2, store.calls())
	assert.Equal(t, []time.Duration{time.Second}, delays)
	assert.Equal(t, 2, c.View().Page.TotalItems)
}

func TestController_NonRetryableErrorFailsImmediately(t *testing.T) {
	var delays []time.Duration
	store := &fakeStore{listErrs: []error{apperrors.FromStatus(http.StatusForbidden, "forbidden")}}
	c := NewController(codeConfig(), store, WithRetry(instantRetry(&delays)))

	err := c.Fetch(context.Background(), false)

	require.Error(t, err)
	assert.Equal(t, 1, store.calls())
	assert.Empty(t, delays)
	assert.Equal(t, StateFailed, c.State())
}

func TestController_PartialLoadKeepsStaleData(t *testing.T) {
	store := &fakeStore{items: codes(4)}
	c := NewController(codeConfig(), store, WithRetry(instantRetry(nil)))
	ctx := context.Background()
	require.NoError(t, c.Fetch(ctx, false))

	store.listErrs = []error{apperrors.FromStatus(http.StatusInternalServerError, "boom")}
	require.Error(t, c.Fetch(ctx, true))

	view := c.View()
	assert.Equal(t, StatePartial, view.State)
	assert.NotEmpty(t, view.Warning)
	assert.Equal(t, 4, view.Page.TotalItems)
}

func TestController_CancelledFetchDoesNotWriteState(t *testing.T) {
	store := &fakeStore{items: codes(2)}
	c := NewController(codeConfig(), store, WithRetry(instantRetry(nil)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Fetch(ctx, true)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateIdle, c.State())
	assert.Zero(t, c.View().Page.TotalItems)
}

func TestController_ConcurrentFetchesShareOneRequest(t *testing.T) {
	release := make(chan struct{})
	store := &blockingStore{fakeStore: fakeStore{items: codes(1)}, release: release, entered: make(chan struct{})}
	c := NewController(codeConfig(), store, WithRetry(instantRetry(nil)))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.Fetch(context.Background(), true))
		}()
	}
	<-store.entered
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, store.calls(), 5)
	assert.GreaterOrEqual(t, store.calls(), 1)
}

func TestController_CancelledCallerDoesNotFailSharedFetch(t *testing.T) {
	throttled := apperrors.FromStatus(http.StatusTooManyRequests, "slow down")
	store := &fakeStore{items: codes(3), listErrs: []error{throttled}}

	waiting := make(chan struct{})
	release := make(chan struct{})
	cfg := retry.DefaultConfig()
	cfg.Sleep = func(ctx context.Context, d time.Duration) error {
		close(waiting)
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	c := NewController(codeConfig(), store, WithRetry(cfg))

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() { first <- c.Fetch(firstCtx, true) }()
	<-waiting

	second := make(chan error, 1)
	go func() { second <- c.Fetch(context.Background(), true) }()

	cancelFirst()
	assert.ErrorIs(t, <-first, context.Canceled)

	time.Sleep(20 * time.Millisecond)
	close(release)

	require.NoError(t, <-second)
	assert.Equal(t, 2, store.calls())
	assert.Equal(t, StateReady, c.State())
	assert.Equal(t, 3, c.View().Page.TotalItems)
}

func TestController_RefetchDropsVanishedSelection(t *testing.T) {
	store := &fakeStore{items: codes(3)}
	c := NewController(codeConfig(), store, WithRetry(instantRetry(nil)))
	ctx := context.Background()
	require.NoError(t, c.Fetch(ctx, false))

	c.ToggleSelection("ab")
	store.mu.Lock()
	store.items = removeCode(store.items, "ab")
	store.mu.Unlock()
	require.NoError(t, c.Fetch(ctx, true))
	assert.Empty(t, c.Selected())

	c.ToggleSelection("aa")
	c.ToggleSelection("ac")
	store.mu.Lock()
	store.items = removeCode(store.items, "ac")
	store.mu.Unlock()
	require.NoError(t, c.Fetch(ctx, true))
	assert.Equal(t, []string{"aa"}, c.Selected())

	outcome, item, err := c.EditSelection(ctx)
	require.NoError(t, err)
	assert.Equal(t, EditReady, outcome)
	assert.Equal(t, "aa", item.ID)
}

type blockingStore struct {
	fakeStore
	release chan struct{}
	entered chan struct{}
	once    sync.Once
}

func (s *blockingStore) List(ctx context.Context, sortSpec string) ([]entities.InternalCode, error) {
	s.once.Do(func() { close(s.entered) })
	<-s.release
	return s.fakeStore.List(ctx, sortSpec)
}

func TestController_FilterSortPage(t *testing.T) {
	store := &fakeStore{items: codes(25)}
	c := NewController(codeConfig(), store, WithRetry(instantRetry(nil)))
	require.NoError(t, c.Fetch(context.Background(), false))

	c.SetPage(3)
	view := c.View()
	assert.Equal(t, 3, view.Page.Page)
	assert.Len(t, view.Page.Items, 5)
	assert.Equal(t, 3, view.Page.TotalPages)

	c.SetFilter("isActive", "true")
	view = c.View()
	assert.Equal(t, 1, view.Page.Page, "changing a filter returns to the first page")
	assert.Equal(t, 13, view.Page.TotalItems)

	state, err := c.SortBy("code_number")
	require.NoError(t, err)
	assert.Equal(t, Descending, state.Direction)
	view = c.View()
	assert.Equal(t, "AY", view.Page.Items[0].CodeNumber)

	_, err = c.SortBy("nope")
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))

	c.ResetFilters()
	assert.Equal(t, 25, c.View().Page.TotalItems)

	require.Error(t, c.SetPageSize(0))
	require.NoError(t, c.SetPageSize(20))
	assert.Equal(t, 2, c.View().Page.TotalPages)
}

func TestController_SelectAllVisibleScopes(t *testing.T) {
	store := &fakeStore{items: codes(25)}
	c := NewController(codeConfig(), store, WithRetry(instantRetry(nil)))
	require.NoError(t, c.Fetch(context.Background(), false))

	c.SelectAllVisible(ScopePage)
	assert.Len(t, c.Selected(), 10)
	c.SelectAllVisible(ScopePage)
	assert.Empty(t, c.Selected())

	c.SelectAllVisible(ScopeFiltered)
	assert.Len(t, c.Selected(), 25)
	assert.True(t, c.View().SelectionMode)
}

func TestController_EditSelection(t *testing.T) {
	store := &fakeStore{items: codes(3)}
	recorder := notifications.NewRecorder(10)
	c := NewController(codeConfig(), store, WithRetry(instantRetry(nil)), WithNotifier(recorder))
	ctx := context.Background()
	require.NoError(t, c.Fetch(ctx, false))

	outcome, _, err := c.EditSelection(ctx)
	require.NoError(t, err)
	assert.Equal(t, EditEnterSelection, outcome)
	assert.True(t, c.View().SelectionMode)

	c.ToggleSelection("aa")
	c.ToggleSelection("ab")
	outcome, _, err = c.EditSelection(ctx)
	require.NoError(t, err)
	assert.Equal(t, EditRequiresSingle, outcome)
	require.Len(t, recorder.Notices(), 1)
	assert.Equal(t, providers.NoticeWarning, recorder.Notices()[0].Level)

	c.ToggleSelection("ab")
	outcome, item, err := c.EditSelection(ctx)
	require.NoError(t, err)
	assert.Equal(t, EditReady, outcome)
	assert.Equal(t, "aa", item.ID)
}

func TestController_BulkDeleteAccounting(t *testing.T) {
	store := &fakeStore{
		items:      codes(5),
		deleteErrs: map[string]error{"ab": errors.New("locked"), "ad": errors.New("locked")},
	}
	recorder := notifications.NewRecorder(10)
	var changed []string
	c := NewController(codeConfig(), store,
		WithRetry(instantRetry(nil)),
		WithNotifier(recorder),
		WithChangeHook(func(ctx context.Context, op entities.ChangeOperation, ids []string) {
			changed = append(changed, ids...)
		}),
	)
	ctx := context.Background()
	require.NoError(t, c.Fetch(ctx, false))

	for _, id := range []string{"aa", "ab", "ac", "ad"} {
		c.ToggleSelection(id)
	}

	result, err := c.BulkDelete(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Requested)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 2, result.Failed)
	assert.Equal(t, []string{"ab", "ad"}, result.FailedIDs)
	assert.True(t, result.Refreshed)
	assert.Equal(t, []string{"aa", "ac"}, store.deleted)
	assert.Equal(t, []string{"aa", "ac"}, changed)
	assert.Equal(t, []string{"ab", "ad"}, c.Selected())
	assert.Equal(t, 2, store.calls(), "one refetch after the deletes")
	assert.Equal(t, 3, c.View().Page.TotalItems)

	notices := recorder.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, providers.NoticeWarning, notices[0].Level)
}

func TestController_BulkDeleteAllFailedDoesNotRefresh(t *testing.T) {
	store := &fakeStore{items: codes(2), deleteErrs: map[string]error{"aa": errors.New("no"), "ab": errors.New("no")}}
	c := NewController(codeConfig(), store, WithRetry(instantRetry(nil)))
	ctx := context.Background()
	require.NoError(t, c.Fetch(ctx, false))
	c.SelectAllVisible(ScopeFiltered)

	result, err := c.BulkDelete(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Succeeded)
	assert.Equal(t, 2, result.Failed)
	assert.False(t, result.Refreshed)
	assert.Equal(t, 1, store.calls())

	_, err = NewController(codeConfig(), store).BulkDelete(ctx)
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))
}

func TestController_BatchDelete(t *testing.T) {
	store := &fakeStore{items: codes(3)}
	cfg := codeConfig()
	cfg.BatchDelete = true
	c := NewController(cfg, store, WithRetry(instantRetry(nil)))
	ctx := context.Background()
	require.NoError(t, c.Fetch(ctx, false))
	c.ToggleSelection("aa")
	c.ToggleSelection("ac")

	result, err := c.BulkDelete(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, [][]string{{"aa", "ac"}}, store.bulkCalls)
	assert.Equal(t, 1, c.View().Page.TotalItems)
}

func TestController_SharedCacheTier(t *testing.T) {
	clock := newFakeClock()
	shared := cache.NewMemoryAdapter(clock.Now)
	ctx := context.Background()

	first := &fakeStore{items: codes(4)}
	a := NewController(codeConfig(), first, WithClock(clock.Now), WithSharedCache(shared), WithRetry(instantRetry(nil)))
	require.NoError(t, a.Fetch(ctx, false))

	second := &fakeStore{}
	b := NewController(codeConfig(), second, WithClock(clock.Now), WithSharedCache(shared), WithRetry(instantRetry(nil)))
	require.NoError(t, b.Fetch(ctx, false))

	assert.Zero(t, second.calls())
	assert.Equal(t, 4, b.View().Page.TotalItems)

	b.Invalidate(ctx)
	_, err := shared.Get(ctx, "list:"+entities.TypeInternalCode)
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
}

func TestController_BulkDeleteExpiresSharedEntryBeforeAnnouncing(t *testing.T) {
	clock := newFakeClock()
	shared := cache.NewMemoryAdapter(clock.Now)
	ctx := context.Background()
	key := "list:" + entities.TypeInternalCode

	var sharedErrAtAnnounce error
	announced := false
	store := &fakeStore{items: codes(3)}
	c := NewController(codeConfig(), store,
		WithClock(clock.Now),
		WithSharedCache(shared),
		WithRetry(instantRetry(nil)),
		WithChangeHook(func(ctx context.Context, op entities.ChangeOperation, ids []string) {
			announced = true
			_, sharedErrAtAnnounce = shared.Get(ctx, key)
		}),
	)
	require.NoError(t, c.Fetch(ctx, false))
	_, err := shared.Get(ctx, key)
	require.NoError(t, err)

	c.ToggleSelection("aa")
	_, err = c.BulkDelete(ctx)
	require.NoError(t, err)

	require.True(t, announced)
	assert.ErrorIs(t, sharedErrAtAnnounce, providers.ErrCacheMiss)
}
