package listing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/zatekoja/medbackoffice/internal/domain/entities"
	"github.com/zatekoja/medbackoffice/internal/domain/providers"
	"github.com/zatekoja/medbackoffice/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/medbackoffice/pkg/errors"
	"github.com/zatekoja/medbackoffice/pkg/retry"
)

// LoadState describes where the collection fetch stands.
type LoadState string

const (
	StateIdle     LoadState = "idle"
	StateLoading  LoadState = "loading"
	StateRetrying LoadState = "retrying"
	StateReady    LoadState = "ready"
	// StatePartial means the last refresh failed but stale data is still shown.
	StatePartial LoadState = "partial"
	// StateFailed means nothing could be loaded; the operator retries with a forced fetch.
	StateFailed LoadState = "failed"
)

// Scope selects which ids "select all" acts on.
type Scope string

const (
	// ScopePage is the current page (card view).
	ScopePage Scope = "page"
	// ScopeFiltered is the whole filtered list (table view).
	ScopeFiltered Scope = "filtered"
)

// EditOutcome is the result of asking to edit the current selection.
type EditOutcome string

const (
	EditEnterSelection EditOutcome = "enter_selection"
	EditRequiresSingle EditOutcome = "requires_single"
	EditReady          EditOutcome = "ready"
)

// Config parameterises a controller for one entity type.
type Config[T entities.Entity] struct {
	EntityType     string
	InitialFilters Filters
	Predicate      Predicate[T]
	SortFields     map[string]SortKey[T]
	DefaultSort    SortState
	// ListSort is passed to the entity API list call.
	ListSort string
	PageSize int
	CacheTTL time.Duration
	// BatchDelete sends one bulk-delete call instead of one delete per id.
	BatchDelete bool
}

// ChangeFunc is told about mutations made through the controller.
type ChangeFunc func(ctx context.Context, op entities.ChangeOperation, ids []string)

type options struct {
	clock    Clock
	retry    retry.Config
	notifier providers.Notifier
	shared   providers.CacheProvider
	metrics  *observability.Metrics
	onChange ChangeFunc
}

// Option customises a Controller.
type Option func(*options)

// WithClock injects the clock used by the cache.
func WithClock(clock Clock) Option { return func(o *options) { o.clock = clock } }

// WithRetry overrides the fetch retry policy.
func WithRetry(cfg retry.Config) Option { return func(o *options) { o.retry = cfg } }

// WithNotifier sets where operator notices go.
func WithNotifier(n providers.Notifier) Option { return func(o *options) { o.notifier = n } }

// WithSharedCache adds a second cache tier shared between instances.
func WithSharedCache(c providers.CacheProvider) Option { return func(o *options) { o.shared = c } }

// WithMetrics records fetch, retry, cache and delete metrics.
func WithMetrics(m *observability.Metrics) Option { return func(o *options) { o.metrics = m } }

// WithChangeHook is called after deletes that succeeded at least once.
func WithChangeHook(fn ChangeFunc) Option { return func(o *options) { o.onChange = fn } }

// Controller fetches one entity collection and lets the operator narrow, order,
// page and select it. It is safe for concurrent use.
type Controller[T entities.Entity] struct {
	cfg   Config[T]
	store providers.EntityStore[T]
	opts  options
	cache *Cache[T]
	group singleflight.Group

	mu           sync.Mutex
	filters      Filters
	sort         SortState
	page         int
	pageSize     int
	selection    *Selection
	state        LoadState
	lastErr      error
	retryAttempt int
}

// View is a snapshot of everything a list screen renders.
type View[T any] struct {
	EntityType    string    `json:"entity_type"`
	Page          Page[T]   `json:"page"`
	Sort          SortState `json:"sort"`
	Filters       Filters   `json:"filters"`
	State         LoadState `json:"state"`
	Error         string    `json:"error,omitempty"`
	Warning       string    `json:"warning,omitempty"`
	RetryAttempt  int       `json:"retry_attempt,omitempty"`
	SelectionMode bool      `json:"selection_mode"`
	Selected      []string  `json:"selected"`
	FetchedAt     time.Time `json:"fetched_at,omitzero"`
}

// BulkDeleteResult counts the outcome of a bulk delete.
type BulkDeleteResult struct {
	Requested int      `json:"requested"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	FailedIDs []string `json:"failed_ids,omitempty"`
	Refreshed bool     `json:"refreshed"`
}

// NewController creates a controller for cfg backed by store.
func NewController[T entities.Entity](cfg Config[T], store providers.EntityStore[T], opts ...Option) *Controller[T] {
	o := options{clock: time.Now, retry: retry.DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.retry.Retryable == nil {
		o.retry.Retryable = apperrors.IsRetryable
	}
	if cfg.PageSize < 1 {
		cfg.PageSize = 10
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}

	return &Controller[T]{
		cfg:       cfg,
		store:     store,
		opts:      o,
		cache:     NewCache[T](cfg.CacheTTL, o.clock),
		filters:   cfg.InitialFilters.Clone(),
		sort:      cfg.DefaultSort,
		page:      1,
		pageSize:  cfg.PageSize,
		selection: NewSelection(),
		state:     StateIdle,
	}
}

// EntityType returns the entity type this controller lists.
func (c *Controller[T]) EntityType() string { return c.cfg.EntityType }

// Fetch loads the collection. A valid cache entry is served unless force is set.
// Concurrent fetches share one in-flight request. Each caller waits only as long
// as its own ctx allows; the shared request keeps running for the others.
func (c *Controller[T]) Fetch(ctx context.Context, force bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !force {
		if _, ok := c.cache.Get(); ok {
			observability.RecordCacheHit(ctx, c.opts.metrics, c.cacheKey())
			c.mu.Lock()
			if c.state == StateIdle {
				c.state = StateReady
			}
			c.mu.Unlock()
			return nil
		}
		observability.RecordCacheMiss(ctx, c.opts.metrics, c.cacheKey())
		if c.loadShared(ctx) {
			return nil
		}
	}

	detached := context.WithoutCancel(ctx)
	result := c.group.DoChan("fetch", func() (any, error) {
		return nil, c.load(detached)
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-result:
		return res.Err
	}
}

func (c *Controller[T]) load(ctx context.Context) error {
	logger := observability.LoggerFromContext(ctx)

	c.mu.Lock()
	c.state = StateLoading
	c.retryAttempt = 0
	c.mu.Unlock()

	var items []T
	err := retry.DoWithLog(ctx, c.opts.retry, c.cfg.EntityType, func() error {
		var err error
		items, err = c.store.List(ctx, c.cfg.ListSort)
		return err
	}, func(attempt int, err error, next time.Duration) {
		c.mu.Lock()
		c.state = StateRetrying
		c.retryAttempt = attempt
		c.mu.Unlock()

		observability.RecordRetry(ctx, c.opts.metrics, c.cfg.EntityType, attempt)
		logger.Warn().Err(err).
			Str("entity_type", c.cfg.EntityType).
			Int("attempt", attempt).
			Dur("next_delay", next).
			Msg("list fetch throttled, retrying")
		c.notify(ctx, providers.Notice{
			Level:   providers.NoticeInfo,
			Title:   "Please wait",
			Message: fmt.Sprintf("%s is busy, retrying in %s", c.cfg.EntityType, next),
		})
	})

	if err != nil {
		observability.RecordFetch(ctx, c.opts.metrics, c.cfg.EntityType, false)
		_, hasStale := c.cache.Stale()

		c.mu.Lock()
		c.lastErr = err
		c.retryAttempt = 0
		if hasStale {
			c.state = StatePartial
		} else {
			c.state = StateFailed
		}
		c.mu.Unlock()

		logger.Error().Err(err).Str("entity_type", c.cfg.EntityType).Bool("stale_data", hasStale).Msg("list fetch failed")
		c.notify(ctx, providers.Notice{
			Level:   providers.NoticeError,
			Title:   "Failed to load " + c.cfg.EntityType,
			Message: err.Error(),
		})
		return err
	}

	if items == nil {
		items = []T{}
	}
	observability.RecordFetch(ctx, c.opts.metrics, c.cfg.EntityType, true)
	c.cache.Set(items)
	c.storeShared(ctx, items)

	c.mu.Lock()
	c.state = StateReady
	c.lastErr = nil
	c.retryAttempt = 0
	c.retainLoaded(items)
	c.mu.Unlock()

	logger.Debug().Str("entity_type", c.cfg.EntityType).Int("count", len(items)).Msg("list fetched")
	return nil
}

// retainLoaded drops selected ids that are no longer in the collection. Callers hold mu.
func (c *Controller[T]) retainLoaded(items []T) {
	keep := make(map[string]struct{}, len(items))
	for _, item := range items {
		keep[item.EntityID()] = struct{}{}
	}
	c.selection.Retain(keep)
}

func (c *Controller[T]) cacheKey() string {
	return "list:" + c.cfg.EntityType
}

func (c *Controller[T]) loadShared(ctx context.Context) bool {
	if c.opts.shared == nil {
		return false
	}
	raw, err := c.opts.shared.Get(ctx, c.cacheKey())
	if err != nil {
		if !errors.Is(err, providers.ErrCacheMiss) {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", c.cacheKey()).Msg("shared cache read failed")
		}
		return false
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", c.cacheKey()).Msg("discarding unreadable shared cache entry")
		return false
	}
	if items == nil {
		items = []T{}
	}
	c.cache.Set(items)

	c.mu.Lock()
	c.state = StateReady
	c.lastErr = nil
	c.retainLoaded(items)
	c.mu.Unlock()
	return true
}

func (c *Controller[T]) storeShared(ctx context.Context, items []T) {
	if c.opts.shared == nil {
		return
	}
	raw, err := json.Marshal(items)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("failed to encode list for shared cache")
		return
	}
	if err := c.opts.shared.Set(ctx, c.cacheKey(), raw, int(c.cfg.CacheTTL.Seconds())); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", c.cacheKey()).Msg("shared cache write failed")
	}
}

// Invalidate expires the cached collection here and in the shared tier.
// The stale data keeps rendering until the next fetch.
func (c *Controller[T]) Invalidate(ctx context.Context) {
	c.cache.Invalidate()
	if c.opts.shared != nil {
		if err := c.opts.shared.Delete(ctx, c.cacheKey()); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", c.cacheKey()).Msg("shared cache delete failed")
		}
	}
}

// InvalidateLocal expires only this instance's copy.
func (c *Controller[T]) InvalidateLocal() {
	c.cache.Invalidate()
}

// ApplyFiltersAndSort filters and orders items with the current filters and sort.
func (c *Controller[T]) ApplyFiltersAndSort(items []T) []T {
	c.mu.Lock()
	filters, sortState := c.filters.Clone(), c.sort
	c.mu.Unlock()
	return ApplyFiltersAndSort(items, c.cfg.Predicate, filters, c.cfg.SortFields, sortState)
}

// Filtered returns the cached collection after filtering and sorting.
func (c *Controller[T]) Filtered() []T {
	items, _ := c.cache.Stale()
	return c.ApplyFiltersAndSort(items)
}

// View returns the current page and list state.
func (c *Controller[T]) View() View[T] {
	items, _ := c.cache.Stale()

	c.mu.Lock()
	defer c.mu.Unlock()

	filtered := ApplyFiltersAndSort(items, c.cfg.Predicate, c.filters, c.cfg.SortFields, c.sort)
	page := Paginate(filtered, c.page, c.pageSize)
	c.page = page.Page

	view := View[T]{
		EntityType:    c.cfg.EntityType,
		Page:          page,
		Sort:          c.sort,
		Filters:       c.filters.Clone(),
		State:         c.state,
		RetryAttempt:  c.retryAttempt,
		SelectionMode: c.selection.Active(),
		Selected:      c.selection.IDs(),
		FetchedAt:     c.cache.Timestamp(),
	}
	if c.lastErr != nil {
		view.Error = c.lastErr.Error()
		if c.state == StatePartial {
			view.Warning = "Showing previously loaded data; the latest refresh failed."
		}
	}
	return view
}

// State returns the load state.
func (c *Controller[T]) State() LoadState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetFilter sets one filter and returns to the first page.
func (c *Controller[T]) SetFilter(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters[key] = value
	c.page = 1
}

// SetFilters merges values into the filters and returns to the first page.
func (c *Controller[T]) SetFilters(values map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range values {
		c.filters[k] = v
	}
	c.page = 1
}

// ResetFilters restores the initial filters.
func (c *Controller[T]) ResetFilters() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters = c.cfg.InitialFilters.Clone()
	c.page = 1
}

// Filters returns a copy of the current filters.
func (c *Controller[T]) Filters() Filters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters.Clone()
}

// SortBy toggles the sort on key.
func (c *Controller[T]) SortBy(key string) (SortState, error) {
	if _, ok := c.cfg.SortFields[key]; !ok {
		return SortState{}, apperrors.NewValidationError(fmt.Sprintf("%s cannot be sorted by %q", c.cfg.EntityType, key))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sort = c.sort.Toggle(key)
	return c.sort, nil
}

// SetSort replaces the sort state, e.g. from a saved preference. Unknown keys are ignored.
func (c *Controller[T]) SetSort(state SortState) {
	if _, ok := c.cfg.SortFields[state.Key]; !ok {
		return
	}
	if state.Direction != Descending {
		state.Direction = Ascending
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sort = state
}

// Sort returns the current sort state.
func (c *Controller[T]) Sort() SortState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sort
}

// SetPage moves to page; out of range values are clamped when the view is built.
func (c *Controller[T]) SetPage(page int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page = max(page, 1)
}

// SetPageSize changes the page size and returns to the first page.
func (c *Controller[T]) SetPageSize(size int) error {
	if size < 1 {
		return apperrors.NewValidationError("page size must be at least 1")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pageSize = size
	c.page = 1
	return nil
}

// SetSelectionMode turns selection mode on or off.
func (c *Controller[T]) SetSelectionMode(active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.SetActive(active)
}

// ToggleSelection toggles id and reports whether it is now selected.
// Selecting an item turns selection mode on.
func (c *Controller[T]) ToggleSelection(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.selection.Active() {
		c.selection.SetActive(true)
	}
	return c.selection.Toggle(id)
}

// SelectAllVisible toggles every id visible in scope.
func (c *Controller[T]) SelectAllVisible(scope Scope) {
	items, _ := c.cache.Stale()

	c.mu.Lock()
	defer c.mu.Unlock()

	visible := ApplyFiltersAndSort(items, c.cfg.Predicate, c.filters, c.cfg.SortFields, c.sort)
	if scope == ScopePage {
		visible = Paginate(visible, c.page, c.pageSize).Items
	}
	ids := make([]string, 0, len(visible))
	for _, item := range visible {
		ids = append(ids, item.EntityID())
	}
	if !c.selection.Active() {
		c.selection.SetActive(true)
	}
	c.selection.ToggleAll(ids)
}

// Selected returns the selected ids.
func (c *Controller[T]) Selected() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection.IDs()
}

// Find returns the loaded item with id.
func (c *Controller[T]) Find(id string) (T, bool) {
	items, _ := c.cache.Stale()
	for _, item := range items {
		if item.EntityID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// EditSelection resolves the selection into the single record to edit.
// No selection turns selection mode on; more than one selected is refused with a notice.
func (c *Controller[T]) EditSelection(ctx context.Context) (EditOutcome, T, error) {
	var zero T

	c.mu.Lock()
	ids := c.selection.IDs()
	switch len(ids) {
	case 0:
		c.selection.SetActive(true)
		c.mu.Unlock()
		return EditEnterSelection, zero, nil
	case 1:
		c.mu.Unlock()
	default:
		c.mu.Unlock()
		c.notify(ctx, providers.Notice{
			Level:   providers.NoticeWarning,
			Title:   "Select exactly one",
			Message: fmt.Sprintf("%d records are selected; select exactly one to edit", len(ids)),
		})
		return EditRequiresSingle, zero, nil
	}

	item, ok := c.Find(ids[0])
	if !ok {
		return "", zero, apperrors.NewNotFoundError(fmt.Sprintf("%s %s is not loaded", c.cfg.EntityType, ids[0]))
	}
	return EditReady, item, nil
}

// BulkDelete deletes every selected record one after another, continuing past
// failures, reports one summary notice and refetches when anything was deleted.
// Failed ids stay selected.
func (c *Controller[T]) BulkDelete(ctx context.Context) (BulkDeleteResult, error) {
	ids := c.Selected()
	if len(ids) == 0 {
		return BulkDeleteResult{}, apperrors.NewValidationError("nothing selected")
	}

	logger := observability.LoggerFromContext(ctx)
	result := BulkDeleteResult{Requested: len(ids)}
	var deleted []string

	if c.cfg.BatchDelete {
		if err := c.store.BulkDelete(ctx, ids); err != nil {
			logger.Error().Err(err).Str("entity_type", c.cfg.EntityType).Int("count", len(ids)).Msg("bulk delete failed")
			result.Failed = len(ids)
			result.FailedIDs = ids
		} else {
			result.Succeeded = len(ids)
			deleted = ids
		}
		for range ids {
			observability.RecordDelete(ctx, c.opts.metrics, c.cfg.EntityType, result.Succeeded > 0)
		}
	} else {
		for _, id := range ids {
			if err := c.store.Delete(ctx, id); err != nil {
				logger.Warn().Err(err).Str("entity_type", c.cfg.EntityType).Str("id", id).Msg("delete failed")
				observability.RecordDelete(ctx, c.opts.metrics, c.cfg.EntityType, false)
				result.Failed++
				result.FailedIDs = append(result.FailedIDs, id)
				continue
			}
			observability.RecordDelete(ctx, c.opts.metrics, c.cfg.EntityType, true)
			result.Succeeded++
			deleted = append(deleted, id)
		}
	}

	c.mu.Lock()
	c.selection.Remove(deleted...)
	c.mu.Unlock()

	c.notify(ctx, deleteSummary(c.cfg.EntityType, result))

	if result.Succeeded == 0 {
		return result, nil
	}

	// Expire the shared entry before announcing, so no other instance refills from it.
	c.Invalidate(ctx)
	if c.opts.onChange != nil {
		c.opts.onChange(ctx, entities.ChangeDelete, deleted)
	}
	result.Refreshed = true
	if err := c.Fetch(ctx, true); err != nil {
		return result, err
	}
	return result, nil
}

func deleteSummary(entityType string, r BulkDeleteResult) providers.Notice {
	switch {
	case r.Failed == 0:
		return providers.Notice{
			Level:   providers.NoticeSuccess,
			Title:   "Deleted",
			Message: fmt.Sprintf("Deleted %d %s record(s)", r.Succeeded, entityType),
		}
	case r.Succeeded == 0:
		return providers.Notice{
			Level:   providers.NoticeError,
			Title:   "Delete failed",
			Message: fmt.Sprintf("Could not delete %d %s record(s)", r.Failed, entityType),
		}
	default:
		return providers.Notice{
			Level:   providers.NoticeWarning,
			Title:   "Partially deleted",
			Message: fmt.Sprintf("Deleted %d %s record(s), %d failed", r.Succeeded, entityType, r.Failed),
		}
	}
}

func (c *Controller[T]) notify(ctx context.Context, n providers.Notice) {
	if c.opts.notifier != nil {
		c.opts.notifier.Notify(ctx, n)
	}
}
