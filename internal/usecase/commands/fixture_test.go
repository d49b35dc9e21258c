//go:build unit

package commands_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"groupbuy/internal/domain/offer"
	"groupbuy/internal/domain/user"
	"groupbuy/internal/infra/changebus"
	"groupbuy/internal/infra/memory"
	"groupbuy/internal/pkg/clock"
	"groupbuy/internal/usecase/commands"
	"groupbuy/internal/usecase/shared"
	"groupbuy/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC)

// engine wires every command onto one in-memory store.
type engine struct {
	store        *memory.Store
	bus          *changebus.InProc
	clock        *clock.MockClock
	reservations commands.ReservationCommands
	validations  commands.ValidationCommands
	offers       commands.OfferCommands
	points       commands.PointsCommands

	storeID  uuid.UUID
	merchant user.Session
}

func newEngine(t *testing.T, cache *fakeTokenCache) *engine {
	t.Helper()
	bus := changebus.NewInProc()
	store := memory.NewStore(bus, nil)
	clk := clock.NewMockClock(baseTime)

	var tc shared.TokenCache
	if cache != nil {
		tc = cache
	}

	e := &engine{
		store:        store,
		bus:          bus,
		clock:        clk,
		reservations: commands.NewReservationCommands(store, clk, nil, time.Hour),
		validations:  commands.NewValidationCommands(store, tc, clk, nil, time.Minute),
		offers:       commands.NewOfferCommands(store, clk, nil, 10),
		points:       commands.NewPointsCommands(store, clk, nil, time.UTC),
		storeID:      uuid.New(),
	}
	e.merchant = e.addUser(builder.NewUserBuilder().WithEmail("merchant@example.com").AsMerchant(e.storeID))
	return e
}

func (e *engine) addUser(b *builder.UserBuilder) user.Session {
	e.store.PutUser(b.BuildStored())
	return b.BuildSession()
}

// shopper registers a shopper holding pts points.
func (e *engine) shopper(email string, pts int64) user.Session {
	return e.addUser(builder.NewUserBuilder().WithEmail(email).WithPoints(pts))
}

func (e *engine) seedOffer(b *builder.OfferBuilder) *offer.Offer {
	o := b.WithStore(e.storeID).BuildDomain()
	e.store.PutOffer(o)
	return o
}

func (e *engine) offer(t *testing.T, id uuid.UUID) *offer.Offer {
	t.Helper()
	var o *offer.Offer
	require.NoError(t, e.store.Within(context.Background(), func(ctx context.Context, tx shared.Tx) error {
		var err error
		o, err = tx.Offers().Get(ctx, id)
		return err
	}))
	return o
}

func (e *engine) balance(t *testing.T, userID uuid.UUID) int64 {
	t.Helper()
	v, err := memory.NewUserReadStore(e.store).FindByID(context.Background(), userID)
	require.NoError(t, err)
	return v.Points
}

// fakeTokenCache records calls so tests can assert cache behavior.
type fakeTokenCache struct {
	mu      sync.Mutex
	entries map[string]uuid.UUID
	sets    int
	deletes int
}

func newFakeTokenCache() *fakeTokenCache {
	return &fakeTokenCache{entries: make(map[string]uuid.UUID)}
}

func (c *fakeTokenCache) Get(_ context.Context, token string) (uuid.UUID, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.entries[token]
	return id, ok, nil
}

func (c *fakeTokenCache) Set(_ context.Context, token string, id uuid.UUID, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[token] = id
	c.sets++
	return nil
}

func (c *fakeTokenCache) Delete(_ context.Context, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, token)
	c.deletes++
	return nil
}
