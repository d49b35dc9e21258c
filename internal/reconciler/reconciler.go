// Package reconciler keeps an in-process projection of offers fresh by
// refetching them whenever a change event names them.
package reconciler

import (
	"context"
	"log/slog"
	"sync"

	"groupbuy/internal/pkg/errs"
	"groupbuy/internal/usecase/queries"
	"groupbuy/internal/usecase/shared"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

type Reconciler struct {
	offers queries.OfferReadStore

	mu       sync.RWMutex
	views    map[uuid.UUID]*queries.OfferView
	watchers map[uuid.UUID]map[chan *queries.OfferView]struct{}

	inflight singleflight.Group
}

func New(offers queries.OfferReadStore) *Reconciler {
	return &Reconciler{
		offers:   offers,
		views:    make(map[uuid.UUID]*queries.OfferView),
		watchers: make(map[uuid.UUID]map[chan *queries.OfferView]struct{}),
	}
}

// Run consumes events until ctx is done or the source closes.
func (r *Reconciler) Run(ctx context.Context, source shared.ChangeSource) error {
	events, err := source.Subscribe(ctx)
	if err != nil {
		return err
	}
	slog.Info("reconciler started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("reconciler stopped")
			return nil
		case ev, ok := <-events:
			if !ok {
				slog.Warn("change source closed")
				return nil
			}
			r.Apply(ctx, ev)
		}
	}
}

// Apply treats every event as "refetch this offer". The event payload is
// never trusted as state.
func (r *Reconciler) Apply(ctx context.Context, ev shared.ChangeEvent) {
	if ev.Entity == shared.EntityOffer && ev.Op == shared.OpDelete {
		r.remove(ev.OfferID)
		return
	}
	if ev.OfferID == uuid.Nil {
		return
	}
	_, _ = r.Refresh(ctx, ev.OfferID)
}

// Refresh refetches one offer. Transient failures are logged and the last
// good view is kept. The fetch is shared by concurrent callers, so it does not
// stop when the caller that started it goes away.
func (r *Reconciler) Refresh(ctx context.Context, offerID uuid.UUID) (*queries.OfferView, error) {
	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := r.inflight.Do(offerID.String(), func() (any, error) {
		return r.offers.FindByID(flightCtx, offerID)
	})
	if err != nil {
		if errs.KindOf(err) == errs.KindNotFound {
			r.remove(offerID)
			return nil, err
		}
		slog.Warn("failed to refresh offer projection",
			"offer_id", offerID.String(),
			"kind", string(errs.KindOf(err)),
			"error", err.Error())
		return nil, err
	}

	view := publicCopy(v.(*queries.OfferView))
	r.store(view)
	return view, nil
}

func (r *Reconciler) Get(offerID uuid.UUID) (*queries.OfferView, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.views[offerID]
	return v, ok
}

// Watch streams the offer's projection, starting with the current one. Slow
// readers only ever see the latest view. The channel closes with ctx.
func (r *Reconciler) Watch(ctx context.Context, offerID uuid.UUID) (<-chan *queries.OfferView, error) {
	fetched, ok := r.Get(offerID)
	if !ok {
		var err error
		if fetched, err = r.Refresh(ctx, offerID); err != nil {
			return nil, err
		}
	}

	ch := make(chan *queries.OfferView, 1)

	// The first view and the registration happen under one lock so no
	// store in between is missed.
	r.mu.Lock()
	if current, ok := r.views[offerID]; ok {
		ch <- current
	} else {
		ch <- fetched
	}
	if r.watchers[offerID] == nil {
		r.watchers[offerID] = make(map[chan *queries.OfferView]struct{})
	}
	r.watchers[offerID][ch] = struct{}{}
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		r.mu.Lock()
		if set, ok := r.watchers[offerID]; ok {
			if _, still := set[ch]; still {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(r.watchers, offerID)
			}
		}
		r.mu.Unlock()
	}()
	return ch, nil
}

func (r *Reconciler) store(v *queries.OfferView) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.views[v.ID]; ok && prev.UpdatedAt.After(v.UpdatedAt) {
		return
	}
	r.views[v.ID] = v
	for ch := range r.watchers[v.ID] {
		offerLatest(ch, v)
	}
}

func (r *Reconciler) remove(offerID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.views, offerID)
	for ch := range r.watchers[offerID] {
		close(ch)
	}
	delete(r.watchers, offerID)
}

// offerLatest replaces any unread view with v.
func offerLatest(ch chan *queries.OfferView, v *queries.OfferView) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}

// The projection is served to anyone, so the offer's QR code is stripped.
func publicCopy(v *queries.OfferView) *queries.OfferView {
	cp := *v
	cp.QRCode = nil
	return &cp
}
