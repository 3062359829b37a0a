package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/importer-intel/internal/model"
)

// Pool is the subset of *pgxpool.Pool the store uses. pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
	nowFunc func() time.Time
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close, nowFunc: time.Now}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS kv_state (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS profile_cache (
	importer_key TEXT PRIMARY KEY,
	importer     TEXT NOT NULL,
	profile      JSONB NOT NULL,
	cached_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_profile_cache_expires_at ON profile_cache(expires_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) LoadState(ctx context.Context) (State, error) {
	subs, err := s.getKV(ctx, KeySubscriptions)
	if err != nil {
		return State{}, err
	}
	notes, err := s.getKV(ctx, KeyNotifications)
	if err != nil {
		return State{}, err
	}
	return State{
		Subscriptions: decodeList[model.Subscription](KeySubscriptions, subs),
		Notifications: decodeList[model.Notification](KeyNotifications, notes),
	}, nil
}

func (s *PostgresStore) SaveSubscriptions(ctx context.Context, subs []model.Subscription) error {
	b, err := encodeList(subs)
	if err != nil {
		return err
	}
	return s.putKV(ctx, KeySubscriptions, b)
}

func (s *PostgresStore) SaveNotifications(ctx context.Context, notes []model.Notification) error {
	b, err := encodeList(notes)
	if err != nil {
		return err
	}
	return s.putKV(ctx, KeyNotifications, b)
}

func (s *PostgresStore) getKV(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.pool.QueryRow(ctx, `SELECT value FROM kv_state WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get state %s", key)
	}
	return value, nil
}

func (s *PostgresStore) putKV(ctx context.Context, key string, value []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO kv_state (key, value, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, value, s.nowFunc().UTC(),
	)
	return eris.Wrapf(err, "postgres: put state %s", key)
}

func (s *PostgresStore) GetCachedProfile(ctx context.Context, importerName string) (*model.DetailedImporterResult, error) {
	var profileJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT profile FROM profile_cache WHERE importer_key = $1 AND expires_at > $2`,
		cacheKey(importerName), s.nowFunc().UTC(),
	).Scan(&profileJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get cached profile")
	}

	var result model.DetailedImporterResult
	if err := json.Unmarshal(profileJSON, &result); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal cached profile")
	}
	return &result, nil
}

func (s *PostgresStore) SetCachedProfile(ctx context.Context, importerName string, result *model.DetailedImporterResult, ttl time.Duration) error {
	if result == nil {
		return eris.New("postgres: nil profile")
	}
	profileJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal profile")
	}

	now := s.nowFunc().UTC()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO profile_cache (importer_key, importer, profile, cached_at, expires_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (importer_key) DO UPDATE SET
			importer = EXCLUDED.importer, profile = EXCLUDED.profile,
			cached_at = EXCLUDED.cached_at, expires_at = EXCLUDED.expires_at`,
		cacheKey(importerName), importerName, profileJSON, now, now.Add(ttl),
	)
	return eris.Wrap(err, "postgres: set cached profile")
}

func (s *PostgresStore) DeleteExpiredProfiles(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM profile_cache WHERE expires_at <= $1`, s.nowFunc().UTC())
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired profiles")
	}
	return int(tag.RowsAffected()), nil
}
