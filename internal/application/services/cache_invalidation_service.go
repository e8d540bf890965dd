package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/medbackoffice/internal/domain/entities"
	"github.com/zatekoja/medbackoffice/internal/domain/providers"
)

// ChangeHandler reacts to a mutation announced by any instance.
type ChangeHandler func(event *entities.EntityChangedEvent)

// CacheInvalidationService fans entity changes out to the caches that hold the
// changed collection. With an event bus, changes travel through it so every
// instance sees them; without one they are handled in process.
type CacheInvalidationService struct {
	eventBus providers.EventBus

	mu       sync.RWMutex
	handlers []ChangeHandler

	ctx    context.Context
	cancel context.CancelFunc
}

// NewCacheInvalidationService creates a new cache invalidation service. eventBus may be nil.
func NewCacheInvalidationService(eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Register adds a handler called for every change.
func (s *CacheInvalidationService) Register(handler ChangeHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// Start begins listening for changes on the event bus.
func (s *CacheInvalidationService) Start() error {
	if s.eventBus == nil {
		log.Info().Msg("cache invalidation running in process only")
		return nil
	}
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelEntityChanges)
	if err != nil {
		return fmt.Errorf("failed to subscribe to entity changes: %w", err)
	}

	go s.processEvents(eventChan)
	log.Info().Msg("cache invalidation service started")
	return nil
}

// Stop stops the cache invalidation service
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	log.Info().Msg("cache invalidation service stopped")
}

// PublishChange announces a change.
func (s *CacheInvalidationService) PublishChange(ctx context.Context, event *entities.EntityChangedEvent) error {
	if s.eventBus == nil {
		s.handleEvent(event)
		return nil
	}
	return s.eventBus.Publish(ctx, providers.EventChannelEntityChanges, event)
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.EntityChangedEvent) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

func (s *CacheInvalidationService) handleEvent(event *entities.EntityChangedEvent) {
	log.Debug().
		Str("event_id", event.ID).
		Str("entity_type", event.EntityType).
		Str("operation", string(event.Operation)).
		Msg("processing cache invalidation")

	s.mu.RLock()
	handlers := s.handlers
	s.mu.RUnlock()
	for _, handle := range handlers {
		handle(event)
	}
}
