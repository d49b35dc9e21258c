//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// bcrypt hash of "password123"
const PasswordHash = "$2a$12$uhAjVE9f92IGYv3E25pJNetg.27lVt0p7jmLWjqjmhOg92ldPS0A."

const DefaultStoreName = "Default Store"

// CreateTestUser inserts an active user. Merchants are attached to the
// default store unless storeID is given.
func CreateTestUser(t *testing.T, db DBLike, email, role string, storeID *uuid.UUID) uuid.UUID {
	t.Helper()

	userID := uuid.New()
	ctx := context.Background()

	if role == "merchant" && storeID == nil {
		id := DefaultStoreID(t, db)
		storeID = &id
	}

	tag, err := db.Exec(ctx, "INSERT INTO users (id, email, password_hash, role, store_id, is_active) VALUES ($1, $2, $3, $4, $5, true) ON CONFLICT (email) WHERE is_active = true DO NOTHING",
		userID, email, PasswordHash, role, storeID)
	require.NoError(t, err)

	if tag.RowsAffected() == 0 {
		_ = db.QueryRow(ctx, "SELECT id FROM users WHERE email = $1 AND is_active = true", email).Scan(&userID)
	}

	return userID
}

func SetPoints(t *testing.T, db DBLike, userID uuid.UUID, points int64) {
	t.Helper()
	_, err := db.Exec(context.Background(), "UPDATE users SET points = $2 WHERE id = $1", userID, points)
	require.NoError(t, err)
}

func CreateTestStore(t *testing.T, db DBLike, name string) uuid.UUID {
	t.Helper()

	storeID := uuid.New()
	ctx := context.Background()

	tag, err := db.Exec(ctx, "INSERT INTO stores (id, name) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING", storeID, name)
	require.NoError(t, err)

	if tag.RowsAffected() == 0 {
		_ = db.QueryRow(ctx, "SELECT id FROM stores WHERE name = $1", name).Scan(&storeID)
	}

	return storeID
}

func DefaultStoreID(t *testing.T, db DBLike) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := db.QueryRow(context.Background(), "SELECT id FROM stores WHERE name = $1", DefaultStoreName).Scan(&id)
	require.NoError(t, err)
	return id
}

// inserts basic reference data needed by tests
func SeedReferenceData(pool *pgxpool.Pool) error {
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		INSERT INTO stores (id, name) VALUES
		    (gen_random_uuid(), 'Default Store'),
		    (gen_random_uuid(), 'Other Store')
		ON CONFLICT (name) DO NOTHING;
	`)
	if err != nil {
		return err
	}

	return nil
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables and reseeds reference data
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('schema_migrations')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	if _, err := pool.Exec(ctx, sqlAny.(string)); err != nil {
		return err
	}

	return SeedReferenceData(pool)
}
