package listener

import (
	"context"
	"sync"
	"time"

	"github.com/fekuna/mystery-kit-service/internal/feed"
	"github.com/fekuna/mystery-kit-service/internal/metrics"
	"github.com/fekuna/mystery-kit-service/internal/model"
	"github.com/fekuna/mystery-kit-service/internal/planner"
	"github.com/fekuna/mystery-kit-service/internal/transfer"
	"github.com/fekuna/mystery-kit-service/internal/transfer/dto"
	"github.com/fekuna/mystery-kit-service/pkg/logger"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

type windowKey struct {
	organizationID string
	start, end     time.Time
}

type watcher struct {
	key    windowKey
	mu     sync.Mutex
	ch     chan dto.CompletionSnapshot
	closed bool
	pushed bool
}

// push replaces any snapshot the watcher has not read yet.
func (w *watcher) push(snap dto.CompletionSnapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	select {
	case <-w.ch:
	default:
	}
	w.ch <- snap
	w.pushed = true
}

// offer sends snap only if no refresh has reached the watcher yet.
func (w *watcher) offer(snap dto.CompletionSnapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || w.pushed {
		return
	}
	w.ch <- snap
	w.pushed = true
}

func (w *watcher) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.closed = true
		close(w.ch)
	}
}

// CompletionListener turns change feed events into fresh completion
// snapshots for every watcher of the affected organization.
type CompletionListener struct {
	subscriber feed.Subscriber
	uc         transfer.CompletionUseCase
	metrics    *metrics.Metrics
	logger     logger.ZapLogger
	retryDelay time.Duration

	mu       sync.Mutex
	watchers map[*watcher]struct{}
}

func NewCompletionListener(subscriber feed.Subscriber, uc transfer.CompletionUseCase, m *metrics.Metrics, log logger.ZapLogger) *CompletionListener {
	return &CompletionListener{
		subscriber: subscriber,
		uc:         uc,
		metrics:    m,
		logger:     log,
		retryDelay: time.Second,
		watchers:   make(map[*watcher]struct{}),
	}
}

func (l *CompletionListener) Start(ctx context.Context) {
	l.logger.Info("Starting Completion Feed Listener")
	for {
		events, err := l.subscriber.Subscribe(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			l.logger.Error("Failed to subscribe to change feed", zap.Error(err))
			select {
			case <-time.After(l.retryDelay):
				continue
			case <-ctx.Done():
				return
			}
		}

		for ev := range events {
			if ev.Kind != feed.KindCompletion {
				continue
			}
			l.refresh(ctx, ev.OrganizationID)
		}
		if ctx.Err() != nil {
			l.logger.Info("Stopping Completion Feed Listener")
			return
		}
		l.logger.Warn("Change feed closed, resubscribing")
	}
}

// Watch streams full snapshots of the completions in [start, end] until ctx
// ends. The watcher is registered before the first snapshot is read, so a
// change landing during that read still reaches it.
func (l *CompletionListener) Watch(ctx context.Context, organizationID string, start, end time.Time) (<-chan dto.CompletionSnapshot, error) {
	key := windowKey{organizationID: organizationID, start: planner.Day(start), end: planner.Day(end)}
	w := &watcher{key: key, ch: make(chan dto.CompletionSnapshot, 1)}

	l.mu.Lock()
	l.watchers[w] = struct{}{}
	l.mu.Unlock()

	initial, err := l.fetch(ctx, key)
	if err != nil {
		l.remove(w)
		return nil, err
	}
	w.offer(initial)
	l.metrics.WatcherAdded()

	go func() {
		<-ctx.Done()
		l.remove(w)
		l.metrics.WatcherRemoved()
	}()
	return w.ch, nil
}

func (l *CompletionListener) remove(w *watcher) {
	l.mu.Lock()
	delete(l.watchers, w)
	l.mu.Unlock()
	w.close()
}

// WatcherCount reports connected watchers.
func (l *CompletionListener) WatcherCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.watchers)
}

func (l *CompletionListener) refresh(ctx context.Context, organizationID string) {
	byWindow := make(map[windowKey][]*watcher)
	l.mu.Lock()
	for w := range l.watchers {
		if w.key.organizationID == organizationID {
			byWindow[w.key] = append(byWindow[w.key], w)
		}
	}
	l.mu.Unlock()

	// One query per distinct window, shared by its watchers.
	for key, ws := range byWindow {
		snap, err := l.fetch(ctx, key)
		if err != nil {
			l.logger.Error("Failed to refetch completions",
				zap.String("organization_id", organizationID),
				zap.Error(err),
			)
			continue
		}
		for _, w := range ws {
			w.push(snap)
		}
	}
}

func (l *CompletionListener) fetch(ctx context.Context, key windowKey) (dto.CompletionSnapshot, error) {
	completions, err := l.uc.GetTransferCompletions(ctx, key.organizationID, key.start, key.end)
	if err != nil {
		return dto.CompletionSnapshot{}, err
	}
	if completions == nil {
		completions = []model.TransferCompletion{}
	}
	return dto.CompletionSnapshot{
		Start:       key.start.Format(dateLayout),
		End:         key.end.Format(dateLayout),
		Completions: completions,
		At:          time.Now(),
	}, nil
}
