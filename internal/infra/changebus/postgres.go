package changebus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"groupbuy/internal/infra/db"
	"groupbuy/internal/usecase/shared"

	"github.com/lib/pq"
)

// PGNotify publishes through pg_notify on the pool, after the writing
// transaction has committed.
type PGNotify struct {
	db      db.DBTX
	channel string
}

func NewPGNotify(db db.DBTX, channel string) *PGNotify {
	return &PGNotify{db: db, channel: channel}
}

func (p *PGNotify) Publish(ctx context.Context, events []shared.ChangeEvent) error {
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("failed to marshal change event: %w", err)
		}
		if _, err := p.db.Exec(ctx, `SELECT pg_notify($1, $2)`, p.channel, string(payload)); err != nil {
			return fmt.Errorf("failed to notify %s: %w", p.channel, err)
		}
	}
	return nil
}

// PQListener receives LISTEN/NOTIFY payloads on a dedicated lib/pq connection
// that reconnects on its own.
type PQListener struct {
	dsn     string
	channel string
}

func NewPQListener(dsn, channel string) *PQListener {
	return &PQListener{dsn: dsn, channel: channel}
}

func (l *PQListener) Subscribe(ctx context.Context) (<-chan shared.ChangeEvent, error) {
	listener := pq.NewListener(l.dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			slog.Warn("change listener connection event", "event", int(ev), "error", err.Error())
		}
	})
	if err := listener.Listen(l.channel); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", l.channel, err)
	}

	out := make(chan shared.ChangeEvent, subscriberBuffer)
	go func() {
		defer close(out)
		defer listener.Close()

		ping := time.NewTicker(90 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case n := <-listener.Notify:
				// nil after a reconnect; anything sent meanwhile is lost.
				if n == nil {
					continue
				}
				ev, err := decode(n.Extra)
				if err != nil {
					slog.Warn("discarding malformed change event", "channel", l.channel, "error", err.Error())
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			case <-ping.C:
				if err := listener.Ping(); err != nil {
					slog.Warn("change listener ping failed", "error", err.Error())
				}
			}
		}
	}()
	return out, nil
}
