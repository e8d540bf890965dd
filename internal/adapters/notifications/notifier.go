package notifications

import (
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/zatekoja/medbackoffice/internal/domain/providers"
	"github.com/zatekoja/medbackoffice/internal/infrastructure/observability"
)

// LogNotifier writes notices to the structured log.
type LogNotifier struct{}

// NewLogNotifier creates a notifier that only logs.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Notify logs the notice at a level matching its severity.
func (LogNotifier) Notify(ctx context.Context, notice providers.Notice) {
	logger := observability.LoggerFromContext(ctx)
	var event *zerolog.Event
	switch notice.Level {
	case providers.NoticeError:
		event = logger.Error()
	case providers.NoticeWarning:
		event = logger.Warn()
	default:
		event = logger.Info()
	}
	event.Str("level_hint", string(notice.Level)).Str("title", notice.Title).Msg(notice.Message)
}

// Recorder keeps the most recent notices so they can be handed to the operator
// on their next request.
type Recorder struct {
	mu      sync.Mutex
	limit   int
	notices []providers.Notice
}

// NewRecorder keeps at most limit notices; older ones are dropped first.
func NewRecorder(limit int) *Recorder {
	if limit < 1 {
		limit = 20
	}
	return &Recorder{limit: limit}
}

// Notify records the notice.
func (r *Recorder) Notify(_ context.Context, notice providers.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, notice)
	if over := len(r.notices) - r.limit; over > 0 {
		r.notices = slices.Delete(r.notices, 0, over)
	}
}

// Notices returns the recorded notices without clearing them.
func (r *Recorder) Notices() []providers.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.notices)
}

// Drain returns and clears the recorded notices.
func (r *Recorder) Drain() []providers.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.notices
	r.notices = nil
	return out
}

// Multi delivers each notice to every notifier in order.
type Multi []providers.Notifier

// Notify fans the notice out.
func (m Multi) Notify(ctx context.Context, notice providers.Notice) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, notice)
		}
	}
}
