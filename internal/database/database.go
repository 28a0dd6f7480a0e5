package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// DB wraps the connection pool
type DB struct {
	Pool   *pgxpool.Pool
	logger *zap.Logger
}

// querier is satisfied by both the pool and a transaction
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Connect creates a new database connection pool
func Connect(ctx context.Context, databaseURL string, logger *zap.Logger) (*DB, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database URL: %w", err)
	}

	// Configure pool
	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	logger.Info("database connected", zap.Int32("max_conns", poolConfig.MaxConns))
	return &DB{Pool: pool, logger: logger}, nil
}

// Close closes the database connection pool
func (db *DB) Close() {
	db.Pool.Close()
}

// withTx runs fn in a transaction, committing when it returns nil
func (db *DB) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return pgx.BeginFunc(ctx, db.Pool, fn)
}

// savepoint runs fn inside a nested transaction so a failed statement does
// not abort the enclosing one
func savepoint(ctx context.Context, tx pgx.Tx, fn func(q querier) error) error {
	sp, err := tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to create savepoint: %w", err)
	}
	if err := fn(sp); err != nil {
		if rbErr := sp.Rollback(ctx); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return sp.Commit(ctx)
}

// lockWeek serializes writers of one family's week within the current transaction
func lockWeek(ctx context.Context, q querier, scope string, familyID fmt.Stringer, weekStart time.Time) error {
	key := scope + ":" + familyID.String() + ":" + weekStart.UTC().Format("2006-01-02")
	_, err := q.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", key)
	return err
}

// RunMigrations applies pending migrations in version order
func RunMigrations(ctx context.Context, db *DB) error {
	// Create migrations table if it doesn't exist
	_, err := db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	versions := make([]int, 0, len(migrations))
	for v := range migrations {
		versions = append(versions, v)
	}
	sort.Ints(versions)

	for _, version := range versions {
		var exists bool
		err := db.Pool.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)",
			version,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check migration %d: %w", version, err)
		}

		if exists {
			continue
		}

		db.logger.Info("applying migration", zap.Int("version", version))
		err = db.withTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, migrations[version]); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", version)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", version, err)
		}
	}

	return nil
}

var migrations = map[int]string{
	1: migration001,
	2: migration002,
}

const migration001 = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	external_id VARCHAR(255) NOT NULL UNIQUE,
	email VARCHAR(255) NOT NULL DEFAULT '',
	first_name VARCHAR(100) NOT NULL DEFAULT '',
	last_name VARCHAR(100) NOT NULL DEFAULT '',
	role VARCHAR(20) NOT NULL DEFAULT 'PARENT' CHECK (role IN ('OWNER', 'ADMIN', 'PARENT', 'MEMBER')),
	family_id UUID,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS families (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	name VARCHAR(100) NOT NULL,
	owner_id UUID NOT NULL REFERENCES users(id),
	invite_code VARCHAR(16) UNIQUE,
	invite_expiry TIMESTAMPTZ,
	max_members INT NOT NULL DEFAULT 10 CHECK (max_members > 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

ALTER TABLE users
	ADD CONSTRAINT fk_users_family FOREIGN KEY (family_id) REFERENCES families(id) ON DELETE SET NULL;

CREATE INDEX IF NOT EXISTS idx_users_family ON users(family_id);

CREATE TABLE IF NOT EXISTS family_join_requests (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	family_id UUID NOT NULL REFERENCES families(id) ON DELETE CASCADE,
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	status VARCHAR(20) NOT NULL DEFAULT 'PENDING' CHECK (status IN ('PENDING', 'APPROVED', 'REJECTED')),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	responded_at TIMESTAMPTZ
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_join_requests_pending
	ON family_join_requests(family_id, user_id) WHERE status = 'PENDING';

CREATE TABLE IF NOT EXISTS meals (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	family_id UUID NOT NULL REFERENCES families(id) ON DELETE CASCADE,
	created_by UUID NOT NULL REFERENCES users(id),
	title VARCHAR(200) NOT NULL CHECK (title <> ''),
	description TEXT NOT NULL DEFAULT '',
	meal_type VARCHAR(20) NOT NULL CHECK (meal_type IN ('BREAKFAST', 'LUNCH', 'DINNER', 'SNACK')),
	date TIMESTAMPTZ NOT NULL,
	ingredients TEXT[] NOT NULL DEFAULT '{}',
	instructions TEXT NOT NULL DEFAULT '',
	calories INT CHECK (calories IS NULL OR calories >= 0),
	cuisine VARCHAR(100) NOT NULL DEFAULT '',
	is_ai_generated BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_meals_family_date ON meals(family_id, date);

CREATE TABLE IF NOT EXISTS shopping_lists (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	family_id UUID NOT NULL REFERENCES families(id) ON DELETE CASCADE,
	title VARCHAR(200) NOT NULL,
	week_start TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (family_id, week_start)
);

CREATE TABLE IF NOT EXISTS shopping_list_items (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	list_id UUID NOT NULL REFERENCES shopping_lists(id) ON DELETE CASCADE,
	position INT NOT NULL,
	name VARCHAR(200) NOT NULL,
	quantity VARCHAR(50) NOT NULL DEFAULT '1',
	category VARCHAR(50) NOT NULL DEFAULT 'Other',
	is_purchased BOOLEAN NOT NULL DEFAULT FALSE,
	is_manual BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_shopping_items_list ON shopping_list_items(list_id, position);
`

const migration002 = `
CREATE TABLE IF NOT EXISTS activities (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	family_id UUID NOT NULL REFERENCES families(id) ON DELETE CASCADE,
	created_by UUID NOT NULL REFERENCES users(id),
	title VARCHAR(200) NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	date TIMESTAMPTZ NOT NULL,
	location VARCHAR(200) NOT NULL DEFAULT '',
	status VARCHAR(20) NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'confirmed', 'completed', 'cancelled')),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_activities_family_date ON activities(family_id, date);
`
