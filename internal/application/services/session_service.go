package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/medbackoffice/internal/adapters/notifications"
	"github.com/zatekoja/medbackoffice/internal/catalog"
	"github.com/zatekoja/medbackoffice/internal/domain/entities"
	"github.com/zatekoja/medbackoffice/internal/domain/providers"
	"github.com/zatekoja/medbackoffice/internal/infrastructure/observability"
	"github.com/zatekoja/medbackoffice/internal/listing"
	apperrors "github.com/zatekoja/medbackoffice/pkg/errors"
)

const anonymousUser = "anonymous"

// ChangePublisher announces mutations so other screens drop their cached lists.
type ChangePublisher interface {
	PublishChange(ctx context.Context, event *entities.EntityChangedEvent) error
}

// TabBuilder builds the tab of a screen.
type TabBuilder interface {
	NewTab(info catalog.Info, deps TabDeps) (Tab, error)
}

// Session is one operator working one entity screen.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time

	tab     Tab
	notices *notifications.Recorder
	prefs   *PreferenceService

	mu       sync.Mutex
	viewMode catalog.ViewMode
}

// SessionView is everything the screen renders, plus notices raised since the last view.
type SessionView struct {
	ID       string             `json:"id"`
	Screen   catalog.Info       `json:"screen"`
	ViewMode catalog.ViewMode   `json:"view_mode"`
	List     any                `json:"list"`
	Dialog   any                `json:"dialog"`
	Notices  []providers.Notice `json:"notices,omitempty"`
}

// Tab returns the screen's tab.
func (s *Session) Tab() Tab { return s.tab }

// Info describes the screen.
func (s *Session) Info() catalog.Info { return s.tab.Info() }

// ViewMode returns the current view mode.
func (s *Session) ViewMode() catalog.ViewMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewMode
}

// View renders the session and hands over pending notices.
func (s *Session) View() SessionView {
	return SessionView{
		ID:       s.ID,
		Screen:   s.tab.Info(),
		ViewMode: s.ViewMode(),
		List:     s.tab.ListView(),
		Dialog:   s.tab.DialogView(),
		Notices:  s.notices.Drain(),
	}
}

// SetViewMode switches between card and table view and remembers the choice.
func (s *Session) SetViewMode(ctx context.Context, mode catalog.ViewMode) error {
	if err := s.prefs.SetViewMode(ctx, s.UserID, s.Info(), mode); err != nil {
		return err
	}
	s.mu.Lock()
	s.viewMode = mode
	s.mu.Unlock()
	return nil
}

// SetFilters merges filter values and remembers them.
func (s *Session) SetFilters(ctx context.Context, values map[string]string) {
	s.tab.SetFilters(values)
	s.saveListState(ctx)
}

// ResetFilters restores the initial filters and remembers them.
func (s *Session) ResetFilters(ctx context.Context) {
	s.tab.ResetFilters()
	s.saveListState(ctx)
}

// SortBy toggles the sort on key and remembers it.
func (s *Session) SortBy(ctx context.Context, key string) (listing.SortState, error) {
	state, err := s.tab.SortBy(key)
	if err != nil {
		return state, err
	}
	s.saveListState(ctx)
	return state, nil
}

// SelectAll toggles every visible record: the page in card view, the whole
// filtered list in table view.
func (s *Session) SelectAll() {
	s.tab.SelectAllVisible(s.ViewMode().SelectScope())
}

func (s *Session) saveListState(ctx context.Context) {
	pref := ListPreference{Filters: s.tab.Filters(), Sort: s.tab.Sort()}
	if err := s.prefs.SaveListState(ctx, s.UserID, s.Info(), pref); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("session_id", s.ID).Msg("failed to save list preference")
	}
}

func (s *Session) restore(ctx context.Context) {
	info := s.Info()
	s.viewMode = s.prefs.ViewMode(ctx, s.UserID, info)
	if pref, ok := s.prefs.ListState(ctx, s.UserID, info); ok {
		if len(pref.Filters) > 0 {
			s.tab.SetFilters(pref.Filters)
		}
		s.tab.SetSort(pref.Sort)
	}
}

// SessionService opens and tracks list sessions. Idle sessions expire.
type SessionService struct {
	builder   TabBuilder
	prefs     *PreferenceService
	deps      TabDeps
	publisher ChangePublisher
	sessions  *expirable.LRU[string, *Session]
	now       func() time.Time
}

// NewSessionService creates a new session service. Sessions idle for ttl are
// dropped, as are the least recently used ones beyond maxSessions.
func NewSessionService(
	builder TabBuilder,
	prefs *PreferenceService,
	deps TabDeps,
	publisher ChangePublisher,
	ttl time.Duration,
	maxSessions int,
) *SessionService {
	if maxSessions < 1 {
		maxSessions = 1000
	}
	onEvict := func(id string, s *Session) {
		log.Debug().Str("session_id", id).Str("entity_type", s.Info().EntityType).Msg("list session ended")
	}
	return &SessionService{
		builder:   builder,
		prefs:     prefs,
		deps:      deps,
		publisher: publisher,
		sessions:  expirable.NewLRU[string, *Session](maxSessions, onEvict, ttl),
		now:       time.Now,
	}
}

// Open starts a session on the screen named by entity (slug or entity type) and
// loads its list. A failed load still opens the session in the failed state.
func (s *SessionService) Open(ctx context.Context, entity, userID string) (*Session, error) {
	info, ok := catalog.Lookup(entity)
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("unknown entity type %q", entity))
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = anonymousUser
	}

	sess := &Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: s.now(),
		notices:   notifications.NewRecorder(50),
		prefs:     s.prefs,
	}

	deps := s.deps
	deps.Notifier = notifications.Multi{sess.notices, s.deps.Notifier}
	deps.OnChange = func(ctx context.Context, op entities.ChangeOperation, ids []string) {
		s.announce(ctx, sess.ID, info.EntityType, op, ids)
	}

	tab, err := s.builder.NewTab(info, deps)
	if err != nil {
		return nil, err
	}
	sess.tab = tab
	sess.restore(ctx)

	if err := tab.Fetch(ctx, false); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("entity_type", info.EntityType).Msg("initial list load failed")
	}

	s.sessions.Add(sess.ID, sess)
	log.Info().Str("session_id", sess.ID).Str("entity_type", info.EntityType).Str("user_id", userID).Msg("list session opened")
	return sess, nil
}

// Get returns a live session and extends its lifetime.
func (s *SessionService) Get(id string) (*Session, error) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("session %s not found or expired", id))
	}
	s.sessions.Add(id, sess)
	return sess, nil
}

// Close ends a session.
func (s *SessionService) Close(id string) error {
	if !s.sessions.Remove(id) {
		return apperrors.NewNotFoundError(fmt.Sprintf("session %s not found or expired", id))
	}
	return nil
}

// Len returns the number of live sessions.
func (s *SessionService) Len() int {
	return s.sessions.Len()
}

// HandleChange expires the cached list of every other session showing the
// changed entity type. The session that made the change has already refetched.
func (s *SessionService) HandleChange(event *entities.EntityChangedEvent) {
	count := 0
	for _, sess := range s.sessions.Values() {
		if sess.ID == event.Origin || sess.Info().EntityType != event.EntityType {
			continue
		}
		sess.tab.InvalidateLocal()
		count++
	}
	if count > 0 {
		log.Debug().Str("entity_type", event.EntityType).Int("sessions", count).Msg("expired cached lists after change")
	}
}

func (s *SessionService) announce(ctx context.Context, sessionID, entityType string, op entities.ChangeOperation, ids []string) {
	if s.publisher == nil {
		return
	}
	event := &entities.EntityChangedEvent{
		ID:         uuid.New().String(),
		EntityType: entityType,
		Operation:  op,
		EntityIDs:  ids,
		Origin:     sessionID,
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.PublishChange(ctx, event); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("entity_type", entityType).Msg("failed to announce change")
	}
}
