// Package changebus carries committed change events from units of work to
// the reconciler. Delivery is best effort.
package changebus

import (
	"context"
	"log/slog"
	"sync"

	"groupbuy/internal/usecase/shared"
)

const subscriberBuffer = 256

// InProc fans events out to subscribers in the same process. A subscriber
// that falls behind loses events rather than blocking writers.
type InProc struct {
	mu   sync.RWMutex
	subs map[chan shared.ChangeEvent]struct{}
}

func NewInProc() *InProc {
	return &InProc{subs: make(map[chan shared.ChangeEvent]struct{})}
}

func (b *InProc) Publish(_ context.Context, events []shared.ChangeEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		for _, ev := range events {
			select {
			case ch <- ev:
			default:
				slog.Warn("change subscriber is full, dropping event", "entity", ev.Entity, "id", ev.ID)
			}
		}
	}
	return nil
}

func (b *InProc) Subscribe(ctx context.Context) (<-chan shared.ChangeEvent, error) {
	ch := make(chan shared.ChangeEvent, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		b.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}
