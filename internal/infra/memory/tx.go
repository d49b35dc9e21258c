package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"groupbuy/internal/domain/offer"
	"groupbuy/internal/domain/points"
	"groupbuy/internal/domain/reservation"
	"groupbuy/internal/domain/user"
	"groupbuy/internal/infra"
	"groupbuy/internal/usecase/shared"

	"github.com/google/uuid"
)

var errDuplicateReservation = infra.RepositoryErrorOf(infra.KindDuplicateKey, "live reservation already exists")

type credit struct {
	userID    uuid.UUID
	dedupeKey string
	amount    int64
}

type memTx struct {
	s *Store

	offers       map[uuid.UUID]*offer.Offer
	reservations map[uuid.UUID]*reservation.Reservation
	users        map[uuid.UUID]*user.User
	credits      []credit
	idempotency  map[idemKey]shared.IdempotencyRecord
	purgeBefore  *time.Time
	jobs         []Job
	changes      []shared.ChangeEvent

	held    map[string]struct{}
	unlocks []func()
}

func newTx(s *Store) *memTx {
	return &memTx{
		s:            s,
		offers:       make(map[uuid.UUID]*offer.Offer),
		reservations: make(map[uuid.UUID]*reservation.Reservation),
		users:        make(map[uuid.UUID]*user.User),
		idempotency:  make(map[idemKey]shared.IdempotencyRecord),
		held:         make(map[string]struct{}),
	}
}

func (t *memTx) lock(ctx context.Context, key string) error {
	if _, ok := t.held[key]; ok {
		return nil
	}
	unlock, err := t.s.locks.Acquire(ctx, key)
	if err != nil {
		return err
	}
	t.held[key] = struct{}{}
	t.unlocks = append(t.unlocks, unlock)
	return nil
}

func (t *memTx) release() {
	for i := len(t.unlocks) - 1; i >= 0; i-- {
		t.unlocks[i]()
	}
	t.unlocks = nil
}

func (t *memTx) Offers() shared.OfferRepository               { return offerRepo{t} }
func (t *memTx) Reservations() shared.ReservationRepository   { return reservationRepo{t} }
func (t *memTx) Ledger() shared.LedgerRepository              { return ledgerRepo{t} }
func (t *memTx) Idempotency() shared.IdempotencyRepository    { return idempotencyRepo{t} }
func (t *memTx) Notifications() shared.NotificationRepository { return notificationRepo{t} }
func (t *memTx) Users() shared.UserRepository                 { return userRepo{t} }
func (t *memTx) Changes() shared.ChangeRecorder               { return t }
func (t *memTx) Record(events ...shared.ChangeEvent)          { t.changes = append(t.changes, events...) }

func (t *memTx) offer(id uuid.UUID) (*offer.Offer, bool) {
	if o, ok := t.offers[id]; ok {
		return o, true
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	o, ok := t.s.offers[id]
	return o, ok
}

// allOffers merges staged offers over committed ones.
func (t *memTx) allOffers() []*offer.Offer {
	t.s.mu.RLock()
	out := make([]*offer.Offer, 0, len(t.s.offers))
	for id, o := range t.s.offers {
		if _, staged := t.offers[id]; !staged {
			out = append(out, o)
		}
	}
	t.s.mu.RUnlock()
	for _, o := range t.offers {
		out = append(out, o)
	}
	return out
}

func (t *memTx) allReservations() []*reservation.Reservation {
	t.s.mu.RLock()
	out := make([]*reservation.Reservation, 0, len(t.s.reservations))
	for id, r := range t.s.reservations {
		if _, staged := t.reservations[id]; !staged {
			out = append(out, r)
		}
	}
	t.s.mu.RUnlock()
	for _, r := range t.reservations {
		out = append(out, r)
	}
	return out
}

func (t *memTx) user(id uuid.UUID) (*user.User, bool) {
	t.s.mu.RLock()
	u, ok := t.s.users[id]
	t.s.mu.RUnlock()
	if staged, found := t.users[id]; found {
		u, ok = staged, true
	}
	if !ok {
		return nil, false
	}
	total, _ := t.balance(id)
	return withPoints(u, total), true
}

func (t *memTx) balance(userID uuid.UUID) (int64, bool) {
	t.s.mu.RLock()
	_, exists := t.s.users[userID]
	total := t.s.balances[userID]
	t.s.mu.RUnlock()
	for _, c := range t.credits {
		if c.userID == userID {
			total += c.amount
		}
	}
	return total, exists
}

func (t *memTx) awarded(k awardKey) bool {
	for _, c := range t.credits {
		if c.userID == k.userID && c.dedupeKey == k.dedupeKey {
			return true
		}
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	_, ok := t.s.awards[k]
	return ok
}

func (t *memTx) idempotencyRecord(k idemKey) (shared.IdempotencyRecord, bool) {
	if rec, ok := t.idempotency[k]; ok {
		return rec, true
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	rec, ok := t.s.idempotency[k]
	return rec, ok
}

type offerRepo struct{ t *memTx }

func (r offerRepo) Create(_ context.Context, o *offer.Offer) error {
	if _, exists := r.t.offer(o.ID()); exists {
		return infra.RepositoryErrorOf(infra.KindDuplicateKey, "offer already exists")
	}
	r.t.offers[o.ID()] = o
	return nil
}

func (r offerRepo) Get(_ context.Context, id uuid.UUID) (*offer.Offer, error) {
	o, ok := r.t.offer(id)
	if !ok {
		return nil, infra.NotFound(offer.ErrNotFound, "offer not found", nil)
	}
	return o, nil
}

func (r offerRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*offer.Offer, error) {
	if err := r.t.lock(ctx, "offer:"+id.String()); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r offerRepo) GetByQRCode(_ context.Context, code uuid.UUID) (*offer.Offer, error) {
	for _, o := range r.t.allOffers() {
		if o.QRCode() == code {
			return o, nil
		}
	}
	return nil, infra.NotFound(offer.ErrNotFound, "offer not found", nil)
}

func (r offerRepo) UpdateCounters(_ context.Context, id uuid.UUID, delta shared.CounterDelta, expected offer.Status, at time.Time) error {
	o, ok := r.t.offer(id)
	if !ok || o.Status() != expected {
		return shared.ErrConditionFailed
	}
	reserved := o.ReservedUnits() + delta.Reserved
	validated := o.ValidatedUnits() + delta.Validated
	if validated < 0 || validated > reserved || reserved > o.TargetUnits() {
		return shared.ErrConditionFailed
	}
	r.t.offers[id] = offer.ReconstructOffer(
		o.ID(), o.StoreID(), o.QRCode(), o.ProductName(), o.NormalPrice(), o.GroupPrice(),
		o.TargetUnits(), reserved, validated, o.Status(),
		o.CreatedAt(), o.ExpiresAt(), at,
	)
	return nil
}

func (r offerRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to offer.Status, at time.Time) error {
	o, ok := r.t.offer(id)
	if !ok || o.Status() != from {
		return shared.ErrConditionFailed
	}
	r.t.offers[id] = offer.ReconstructOffer(
		o.ID(), o.StoreID(), o.QRCode(), o.ProductName(), o.NormalPrice(), o.GroupPrice(),
		o.TargetUnits(), o.ReservedUnits(), o.ValidatedUnits(), to,
		o.CreatedAt(), o.ExpiresAt(), at,
	)
	return nil
}

func (r offerRepo) ListOverdueActive(_ context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	var due []*offer.Offer
	for _, o := range r.t.allOffers() {
		if o.IsActive() && o.IsOverdue(now) {
			due = append(due, o)
		}
	}
	slices.SortFunc(due, func(a, b *offer.Offer) int { return a.ExpiresAt().Compare(b.ExpiresAt()) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	ids := make([]uuid.UUID, len(due))
	for i, o := range due {
		ids[i] = o.ID()
	}
	return ids, nil
}

type reservationRepo struct{ t *memTx }

func (r reservationRepo) Create(_ context.Context, res *reservation.Reservation) error {
	for _, other := range r.t.allReservations() {
		if other.ID() == res.ID() {
			return infra.RepositoryErrorOf(infra.KindDuplicateKey, "reservation already exists")
		}
		if res.IsLive() && other.IsLive() && other.OfferID() == res.OfferID() && other.UserID() == res.UserID() {
			return errDuplicateReservation
		}
	}
	r.t.reservations[res.ID()] = res
	return nil
}

func (r reservationRepo) Update(ctx context.Context, res *reservation.Reservation) error {
	if _, err := r.Get(ctx, res.ID()); err != nil {
		return shared.ErrConditionFailed
	}
	r.t.reservations[res.ID()] = res
	return nil
}

func (r reservationRepo) Get(_ context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	if res, ok := r.t.reservations[id]; ok {
		return res, nil
	}
	r.t.s.mu.RLock()
	defer r.t.s.mu.RUnlock()
	if res, ok := r.t.s.reservations[id]; ok {
		return res, nil
	}
	return nil, infra.NotFound(reservation.ErrNotFound, "reservation not found", nil)
}

func (r reservationRepo) FindLatest(_ context.Context, offerID, userID uuid.UUID) (*reservation.Reservation, error) {
	var latest *reservation.Reservation
	for _, res := range r.t.allReservations() {
		if res.OfferID() != offerID || res.UserID() != userID {
			continue
		}
		if res.IsLive() {
			return res, nil
		}
		if latest == nil || res.ReservedAt().After(latest.ReservedAt()) {
			latest = res
		}
	}
	if latest == nil {
		return nil, infra.NotFound(reservation.ErrNotFound, "reservation not found", nil)
	}
	return latest, nil
}

func (r reservationRepo) ListByOffer(_ context.Context, offerID uuid.UUID) ([]*reservation.Reservation, error) {
	var out []*reservation.Reservation
	for _, res := range r.t.allReservations() {
		if res.OfferID() == offerID {
			out = append(out, res)
		}
	}
	slices.SortFunc(out, func(a, b *reservation.Reservation) int {
		if c := strings.Compare(a.UserID().String(), b.UserID().String()); c != 0 {
			return c
		}
		return a.ReservedAt().Compare(b.ReservedAt())
	})
	return out, nil
}

type ledgerRepo struct{ t *memTx }

func (r ledgerRepo) Balance(_ context.Context, userID uuid.UUID) (points.Balance, error) {
	total, ok := r.t.balance(userID)
	if !ok {
		return points.Balance{}, infra.NotFound(user.ErrNotFound, "user not found", nil)
	}
	return points.Balance{UserID: userID, Points: total}, nil
}

// Apply holds the (user, dedupe key) lock until the unit of work ends so a
// concurrent duplicate waits and then sees the committed award.
func (r ledgerRepo) Apply(ctx context.Context, a points.Award, _ time.Time) (points.Balance, bool, error) {
	if err := r.t.lock(ctx, "award:"+a.UserID().String()+":"+a.DedupeKey()); err != nil {
		return points.Balance{}, false, err
	}
	if _, ok := r.t.balance(a.UserID()); !ok {
		return points.Balance{}, false, infra.NotFound(user.ErrNotFound, "user not found", nil)
	}
	if r.t.awarded(awardKey{userID: a.UserID(), dedupeKey: a.DedupeKey()}) {
		b, err := r.Balance(ctx, a.UserID())
		return b, false, err
	}
	r.t.credits = append(r.t.credits, credit{userID: a.UserID(), dedupeKey: a.DedupeKey(), amount: a.Amount()})
	b, err := r.Balance(ctx, a.UserID())
	return b, err == nil, err
}

type idempotencyRepo struct{ t *memTx }

func (r idempotencyRepo) TryInsert(ctx context.Context, key, userID uuid.UUID, endpoint, requestHash string, now, expiresAt time.Time) (bool, error) {
	if err := r.t.lock(ctx, "idem:"+key.String()+":"+userID.String()); err != nil {
		return false, err
	}
	k := idemKey{key: key, userID: userID}
	if rec, ok := r.t.idempotencyRecord(k); ok && rec.ExpiresAt.After(now) {
		return false, nil
	}
	r.t.idempotency[k] = shared.IdempotencyRecord{
		Key:         key,
		UserID:      userID,
		Endpoint:    endpoint,
		Status:      shared.IdempotencyStatusProcessing,
		RequestHash: requestHash,
		ExpiresAt:   expiresAt,
	}
	return true, nil
}

func (r idempotencyRepo) Get(_ context.Context, key, userID uuid.UUID) (*shared.IdempotencyRecord, error) {
	rec, ok := r.t.idempotencyRecord(idemKey{key: key, userID: userID})
	if !ok {
		return nil, infra.NotFound(shared.ErrIdempotencyRecordNotFound, "idempotency key not found", nil)
	}
	return &rec, nil
}

func (r idempotencyRepo) MarkCompleted(_ context.Context, key, userID uuid.UUID, _ string, reservationID uuid.UUID) error {
	k := idemKey{key: key, userID: userID}
	rec, ok := r.t.idempotencyRecord(k)
	if !ok {
		return nil
	}
	rec.Status = shared.IdempotencyStatusCompleted
	rec.ResultReservationID = &reservationID
	r.t.idempotency[k] = rec
	return nil
}

func (r idempotencyRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.t.s.mu.RLock()
	defer r.t.s.mu.RUnlock()
	var n int64
	for k, rec := range r.t.s.idempotency {
		if _, staged := r.t.idempotency[k]; !staged && !rec.ExpiresAt.After(now) {
			n++
		}
	}
	r.t.purgeBefore = &now
	return n, nil
}

type notificationRepo struct{ t *memTx }

func (r notificationRepo) CreateJob(_ context.Context, kind, topic string, payload []byte, runAt time.Time) error {
	r.t.jobs = append(r.t.jobs, Job{Kind: kind, Topic: topic, Payload: payload, RunAt: runAt})
	return nil
}

type userRepo struct{ t *memTx }

func (r userRepo) Get(_ context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := r.t.user(id)
	if !ok {
		return nil, infra.NotFound(user.ErrNotFound, "user not found", nil)
	}
	return u, nil
}

func (r userRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	r.t.s.mu.RLock()
	var id uuid.UUID
	found := false
	for _, u := range r.t.s.users {
		if u.IsActive() && u.Email().Value() == email {
			id, found = u.ID(), true
			break
		}
	}
	r.t.s.mu.RUnlock()
	if !found {
		return nil, infra.NotFound(user.ErrNotFound, "user not found", nil)
	}
	return r.Get(ctx, id)
}

func (r userRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	u, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	r.t.users[id] = user.ReconstructUser(
		u.ID(), u.Email(), u.PasswordHash(), u.Role(), u.StoreID(),
		u.Points(), &at, u.IsActive(), u.CreatedAt(), at,
	)
	return nil
}
