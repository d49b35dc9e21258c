// Package memory is a single-process store behind the same unit-of-work and
// read-store ports as the Postgres driver.
package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"groupbuy/internal/domain/offer"
	"groupbuy/internal/domain/reservation"
	"groupbuy/internal/domain/user"
	"groupbuy/internal/pkg/metrics"
	"groupbuy/internal/usecase/shared"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// Job is a queued notification as written by NotificationRepository.
type Job struct {
	Kind    string
	Topic   string
	Payload []byte
	RunAt   time.Time
}

type idemKey struct {
	key    uuid.UUID
	userID uuid.UUID
}

type awardKey struct {
	userID    uuid.UUID
	dedupeKey string
}

type Store struct {
	mu           sync.RWMutex
	offers       map[uuid.UUID]*offer.Offer
	reservations map[uuid.UUID]*reservation.Reservation
	users        map[uuid.UUID]*user.User
	balances     map[uuid.UUID]int64
	awards       map[awardKey]struct{}
	idempotency  map[idemKey]shared.IdempotencyRecord
	jobs         []Job

	locks *keyedLocks

	publisher shared.ChangePublisher
	metrics   *metrics.Engine
}

func NewStore(publisher shared.ChangePublisher, m *metrics.Engine) *Store {
	return &Store{
		offers:       make(map[uuid.UUID]*offer.Offer),
		reservations: make(map[uuid.UUID]*reservation.Reservation),
		users:        make(map[uuid.UUID]*user.User),
		balances:     make(map[uuid.UUID]int64),
		awards:       make(map[awardKey]struct{}),
		idempotency:  make(map[idemKey]shared.IdempotencyRecord),
		locks:        newKeyedLocks(),
		publisher:    publisher,
		metrics:      m,
	}
}

// PutUser inserts or replaces a user and its balance.
func (s *Store) PutUser(u *user.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID()] = u
	s.balances[u.ID()] = u.Points()
}

// PutOffer stores an offer as-is; tests use it to seed arbitrary states.
func (s *Store) PutOffer(o *offer.Offer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offers[o.ID()] = o
}

func (s *Store) Jobs() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Job(nil), s.jobs...)
}

// Within stages every write and applies it on commit. Offers are serialized
// by a per-offer lock taken in GetForUpdate and held until the unit of work
// ends; unrelated offers run in parallel.
func (s *Store) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	tx := newTx(s)
	defer tx.release()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.commit(tx); err != nil {
		return err
	}

	if s.publisher != nil && len(tx.changes) > 0 {
		if err := s.publisher.Publish(context.WithoutCancel(ctx), tx.changes); err != nil {
			slog.Warn("failed to publish change events", "count", len(tx.changes), "error", err.Error())
			s.metrics.ChangeDropped()
		}
	}
	return nil
}

func (s *Store) commit(tx *memTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range tx.reservations {
		if r.IsLive() {
			if other := s.liveReservationLocked(r.OfferID(), r.UserID()); other != nil && other.ID() != r.ID() {
				return errDuplicateReservation
			}
		}
	}

	for id, o := range tx.offers {
		s.offers[id] = o
	}
	for id, r := range tx.reservations {
		s.reservations[id] = r
	}
	for id, u := range tx.users {
		s.users[id] = u
	}
	for _, c := range tx.credits {
		k := awardKey{userID: c.userID, dedupeKey: c.dedupeKey}
		if _, dup := s.awards[k]; dup {
			continue
		}
		s.awards[k] = struct{}{}
		s.balances[c.userID] += c.amount
	}
	if tx.purgeBefore != nil {
		for k, rec := range s.idempotency {
			if !rec.ExpiresAt.After(*tx.purgeBefore) {
				delete(s.idempotency, k)
			}
		}
	}
	for k, rec := range tx.idempotency {
		s.idempotency[k] = rec
	}
	s.jobs = append(s.jobs, tx.jobs...)
	return nil
}

func (s *Store) liveReservationLocked(offerID, userID uuid.UUID) *reservation.Reservation {
	for _, r := range s.reservations {
		if r.OfferID() == offerID && r.UserID() == userID && r.IsLive() {
			return r
		}
	}
	return nil
}

// userLocked rebuilds the user with its current balance.
func (s *Store) userLocked(id uuid.UUID) (*user.User, bool) {
	u, ok := s.users[id]
	if !ok {
		return nil, false
	}
	return withPoints(u, s.balances[id]), true
}

func withPoints(u *user.User, pts int64) *user.User {
	return user.ReconstructUser(
		u.ID(), u.Email(), u.PasswordHash(), u.Role(), u.StoreID(),
		pts, u.LastLogin(), u.IsActive(), u.CreatedAt(), u.UpdatedAt(),
	)
}

type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sem  *semaphore.Weighted
	refs int
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*keyedLock)}
}

// Acquire blocks until key is free or ctx is done.
func (k *keyedLocks) Acquire(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{sem: semaphore.NewWeighted(1)}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	if err := l.sem.Acquire(ctx, 1); err != nil {
		k.drop(key, l)
		return nil, err
	}
	return func() {
		l.sem.Release(1)
		k.drop(key, l)
	}, nil
}

func (k *keyedLocks) drop(key string, l *keyedLock) {
	k.mu.Lock()
	defer k.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
}
