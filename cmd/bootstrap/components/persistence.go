package components

import (
	"fmt"
	"log/slog"

	"groupbuy/internal/domain/user"
	"groupbuy/internal/infra/cache"
	"groupbuy/internal/infra/changebus"
	"groupbuy/internal/infra/memory"
	"groupbuy/internal/infra/readstore"
	"groupbuy/internal/infra/uow"
	"groupbuy/internal/pkg/config"
	"groupbuy/internal/pkg/metrics"
	"groupbuy/internal/pkg/password"
	"groupbuy/internal/usecase/queries"
	"groupbuy/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		NewChangeBus,
		NewPersistence,
		NewTokenCache,
		func(p *Persistence) shared.UnitOfWork { return p.UoW },
		func(p *Persistence) queries.OfferReadStore { return p.Offers },
		func(p *Persistence) queries.ReservationReadStore { return p.Reservations },
		func(p *Persistence) queries.UserReadStore { return p.Users },
	),
)

// Persistence groups the write and read sides of the selected store driver.
type Persistence struct {
	UoW          shared.UnitOfWork
	Offers       queries.OfferReadStore
	Reservations queries.ReservationReadStore
	Users        queries.UserReadStore
}

// NewChangeBus returns the publisher the unit of work writes to and the
// source the reconciler reads from.
func NewChangeBus(cfg config.Config, pool *pgxpool.Pool, rdb *redis.Client) (shared.ChangePublisher, shared.ChangeSource, error) {
	topic := cfg.Engine.ChangeTopic
	if topic == "" {
		topic = config.DefaultChangeTopic
	}
	switch cfg.Engine.ChangeBus {
	case config.ChangeBusInProc, "":
		bus := changebus.NewInProc()
		return bus, bus, nil
	case config.ChangeBusRedis:
		if rdb == nil {
			return nil, nil, fmt.Errorf("change bus %q requires REDIS_ADDR", cfg.Engine.ChangeBus)
		}
		bus := changebus.NewRedis(rdb, topic)
		return bus, bus, nil
	case config.ChangeBusPostgres:
		if pool == nil {
			return nil, nil, fmt.Errorf("change bus %q requires the postgres store driver", cfg.Engine.ChangeBus)
		}
		return changebus.NewPGNotify(pool, topic), changebus.NewPQListener(cfg.DB.BuildDSN(), topic), nil
	default:
		return nil, nil, fmt.Errorf("unknown change bus %q", cfg.Engine.ChangeBus)
	}
}

func NewPersistence(cfg config.Config, pool *pgxpool.Pool, publisher shared.ChangePublisher, m *metrics.Engine) (*Persistence, error) {
	switch cfg.Engine.StoreDriver {
	case config.StoreDriverPostgres:
		if pool == nil {
			return nil, fmt.Errorf("postgres store driver has no database pool")
		}
		return &Persistence{
			UoW:          uow.NewPostgresUoW(pool, publisher, m),
			Offers:       readstore.NewOfferReadStore(pool),
			Reservations: readstore.NewReservationReadStore(pool),
			Users:        readstore.NewUserReadStore(pool),
		}, nil
	case config.StoreDriverMemory:
		store := memory.NewStore(publisher, m)
		if err := seedDemoUsers(store, cfg.Engine.SeedPassword); err != nil {
			return nil, err
		}
		slog.Warn("using the in-memory store; data is lost on restart")
		return &Persistence{
			UoW:          store,
			Offers:       memory.NewOfferReadStore(store),
			Reservations: memory.NewReservationReadStore(store),
			Users:        memory.NewUserReadStore(store),
		}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Engine.StoreDriver)
	}
}

// NewTokenCache returns a nil cache without Redis so validation always
// resolves tokens from the store.
func NewTokenCache(rdb *redis.Client) shared.TokenCache {
	if rdb == nil {
		return nil
	}
	return cache.NewTokenCache(rdb)
}

// seedDemoUsers adds one merchant and one shopper so a memory-backed server
// can be used right away. Nothing is seeded without a password.
func seedDemoUsers(store *memory.Store, pw string) error {
	if pw == "" {
		return nil
	}
	hash, err := password.HashPassword(pw)
	if err != nil {
		return err
	}
	storeID := uuid.New()
	demo := []struct {
		email   string
		role    user.Role
		storeID *uuid.UUID
	}{
		{email: "merchant@example.com", role: user.RoleMerchant, storeID: &storeID},
		{email: "shopper@example.com", role: user.RoleShopper},
	}
	for _, d := range demo {
		email, err := user.NewEmail(d.email)
		if err != nil {
			return err
		}
		u, err := user.NewUser(email, hash, d.role, d.storeID)
		if err != nil {
			return err
		}
		store.PutUser(u)
		slog.Info("seeded demo user", "email", d.email, "role", d.role.String(), "user_id", u.ID().String())
	}
	return nil
}
