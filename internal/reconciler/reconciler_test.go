//go:build unit

package reconciler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"groupbuy/internal/infra"
	"groupbuy/internal/infra/changebus"
	"groupbuy/internal/usecase/queries"
	"groupbuy/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type fakeOffers struct {
	mu    sync.Mutex
	views map[uuid.UUID]*queries.OfferView
	err   error
	calls int
	// afterFind runs once the lookup is done, outside the lock.
	afterFind func()
}

func (f *fakeOffers) FindByID(ctx context.Context, id uuid.UUID) (*queries.OfferView, error) {
	v, err := f.find(ctx, id)
	if f.afterFind != nil {
		f.afterFind()
	}
	return v, err
}

func (f *fakeOffers) find(ctx context.Context, id uuid.UUID) (*queries.OfferView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.views[id]
	if !ok {
		return nil, infra.RepositoryErrorOf(infra.KindNotFound, "offer not found")
	}
	cp := *v
	return &cp, nil
}

func (f *fakeOffers) List(context.Context, queries.OfferListFilter) ([]*queries.OfferView, error) {
	return nil, nil
}

func (f *fakeOffers) set(v *queries.OfferView) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.views[v.ID] = v
}

type ReconcilerTestSuite struct {
	suite.Suite
	offers *fakeOffers
	rec    *Reconciler
	id     uuid.UUID
	now    time.Time
}

func (s *ReconcilerTestSuite) SetupTest() {
	s.now = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s.id = uuid.New()
	qr := uuid.New()
	s.offers = &fakeOffers{views: map[uuid.UUID]*queries.OfferView{
		s.id: {ID: s.id, Status: "ACTIVE", TargetUnits: 10, ReservedUnits: 2, UpdatedAt: s.now, QRCode: &qr},
	}}
	s.rec = New(s.offers)
}

func TestReconcilerTestSuite(t *testing.T) {
	suite.Run(t, new(ReconcilerTestSuite))
}

func (s *ReconcilerTestSuite) TestApply_RefetchesOfferForReservationEvents() {
	s.rec.Apply(context.Background(), shared.ReservationChanged(shared.OpInsert, uuid.New(), s.id, s.now))

	v, ok := s.rec.Get(s.id)
	s.Require().True(ok)
	s.Equal(2, v.ReservedUnits)
	s.Nil(v.QRCode, "projection must not leak the offer code")
}

func (s *ReconcilerTestSuite) TestApply_DeleteRemovesProjection() {
	s.rec.Apply(context.Background(), shared.OfferChanged(shared.OpUpdate, s.id, s.now))
	s.rec.Apply(context.Background(), shared.OfferChanged(shared.OpDelete, s.id, s.now))

	_, ok := s.rec.Get(s.id)
	s.False(ok)
}

func (s *ReconcilerTestSuite) TestApply_NotFoundRemovesProjection() {
	s.rec.Apply(context.Background(), shared.OfferChanged(shared.OpUpdate, s.id, s.now))
	s.offers.mu.Lock()
	delete(s.offers.views, s.id)
	s.offers.mu.Unlock()

	s.rec.Apply(context.Background(), shared.OfferChanged(shared.OpUpdate, s.id, s.now))

	_, ok := s.rec.Get(s.id)
	s.False(ok)
}

func (s *ReconcilerTestSuite) TestApply_TransientErrorKeepsLastView() {
	s.rec.Apply(context.Background(), shared.OfferChanged(shared.OpUpdate, s.id, s.now))
	s.offers.mu.Lock()
	s.offers.err = infra.RepositoryErrorOf(infra.KindUnavailable, "connection refused")
	s.offers.mu.Unlock()

	s.rec.Apply(context.Background(), shared.OfferChanged(shared.OpUpdate, s.id, s.now))

	v, ok := s.rec.Get(s.id)
	s.Require().True(ok)
	s.Equal(2, v.ReservedUnits)
}

func (s *ReconcilerTestSuite) TestStore_IgnoresOlderSnapshots() {
	s.rec.Apply(context.Background(), shared.OfferChanged(shared.OpUpdate, s.id, s.now))
	s.offers.set(&queries.OfferView{ID: s.id, Status: "ACTIVE", TargetUnits: 10, ReservedUnits: 1, UpdatedAt: s.now.Add(-time.Minute)})

	s.rec.Apply(context.Background(), shared.OfferChanged(shared.OpUpdate, s.id, s.now))

	v, _ := s.rec.Get(s.id)
	s.Equal(2, v.ReservedUnits)
}

func (s *ReconcilerTestSuite) TestWatch_StreamsLatestView() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := s.rec.Watch(ctx, s.id)
	s.Require().NoError(err)

	first := <-ch
	s.Equal(2, first.ReservedUnits)

	s.offers.set(&queries.OfferView{ID: s.id, Status: "PICKUP", TargetUnits: 10, ReservedUnits: 10, UpdatedAt: s.now.Add(time.Minute)})
	s.rec.Apply(ctx, shared.OfferChanged(shared.OpUpdate, s.id, s.now))

	select {
	case v := <-ch:
		s.Equal("PICKUP", v.Status)
		s.Equal(10, v.ReservedUnits)
	case <-time.After(time.Second):
		s.Fail("no update delivered")
	}

	cancel()
	s.Eventually(func() bool {
		_, open := <-ch
		return !open
	}, time.Second, 10*time.Millisecond)
}

func (s *ReconcilerTestSuite) TestWatch_StartsFromNewestView() {
	// A newer view lands while the watcher's own fetch is still returning.
	newer := &queries.OfferView{ID: s.id, Status: "PICKUP", TargetUnits: 10, ReservedUnits: 10, UpdatedAt: s.now.Add(time.Minute)}
	s.offers.afterFind = func() {
		s.offers.afterFind = nil
		s.rec.store(newer)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := s.rec.Watch(ctx, s.id)
	s.Require().NoError(err)

	first := <-ch
	s.Equal("PICKUP", first.Status)
	s.Equal(10, first.ReservedUnits)
}

func (s *ReconcilerTestSuite) TestRefresh_SurvivesCancelledCaller() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v, err := s.rec.Refresh(ctx, s.id)
	s.Require().NoError(err)
	s.Equal(2, v.ReservedUnits)

	_, ok := s.rec.Get(s.id)
	s.True(ok)
}

func (s *ReconcilerTestSuite) TestWatch_UnknownOffer() {
	_, err := s.rec.Watch(context.Background(), uuid.New())
	s.Error(err)
}

func TestRun_ConsumesBus(t *testing.T) {
	id := uuid.New()
	offers := &fakeOffers{views: map[uuid.UUID]*queries.OfferView{
		id: {ID: id, Status: "ACTIVE", TargetUnits: 3, ReservedUnits: 1},
	}}
	rec := New(offers)
	bus := changebus.NewInProc()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rec.Run(ctx, bus) }()

	require.Eventually(t, func() bool {
		_ = bus.Publish(context.Background(), []shared.ChangeEvent{shared.OfferChanged(shared.OpUpdate, id, time.Now())})
		_, ok := rec.Get(id)
		return ok
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop")
	}
}

type failingSource struct{}

func (failingSource) Subscribe(context.Context) (<-chan shared.ChangeEvent, error) {
	return nil, errors.New("listen failed")
}

func TestRun_SubscribeError(t *testing.T) {
	rec := New(&fakeOffers{views: map[uuid.UUID]*queries.OfferView{}})
	assert.Error(t, rec.Run(context.Background(), failingSource{}))
}
