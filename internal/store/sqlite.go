package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/importer-intel/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db      *sql.DB
	nowFunc func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, nowFunc: time.Now}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS kv_state (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS profile_cache (
	importer_key TEXT PRIMARY KEY,
	importer     TEXT NOT NULL,
	profile      TEXT NOT NULL,
	cached_at    INTEGER NOT NULL,
	expires_at   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_profile_cache_expires_at ON profile_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) LoadState(ctx context.Context) (State, error) {
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

func (s *SQLiteStore) SaveSubscriptions(ctx context.Context, subs []model.Subscription) error {
	b, err := encodeList(subs)
	if err != nil {
		return err
	}
	return s.putKV(ctx, KeySubscriptions, b)
}

func (s *SQLiteStore) SaveNotifications(ctx context.Context, notes []model.Notification) error {
	b, err := encodeList(notes)
	if err != nil {
		return err
	}
	return s.putKV(ctx, KeyNotifications, b)
}

func (s *SQLiteStore) getKV(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get state %s", key)
	}
	return []byte(value), nil
}

func (s *SQLiteStore) putKV(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_state (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value), s.nowFunc().UnixMilli(),
	)
	return eris.Wrapf(err, "sqlite: put state %s", key)
}

func (s *SQLiteStore) GetCachedProfile(ctx context.Context, importerName string) (*model.DetailedImporterResult, error) {
	var profileJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT profile FROM profile_cache WHERE importer_key = ? AND expires_at > ?`,
		cacheKey(importerName), s.nowFunc().UnixMilli(),
	).Scan(&profileJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cached profile")
	}

	var result model.DetailedImporterResult
	if err := json.Unmarshal([]byte(profileJSON), &result); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal cached profile")
	}
	return &result, nil
}

func (s *SQLiteStore) SetCachedProfile(ctx context.Context, importerName string, result *model.DetailedImporterResult, ttl time.Duration) error {
	if result == nil {
		return eris.New("sqlite: nil profile")
	}
	profileJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal profile")
	}

	now := s.nowFunc()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO profile_cache (importer_key, importer, profile, cached_at, expires_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(importer_key) DO UPDATE SET
			importer = excluded.importer, profile = excluded.profile,
			cached_at = excluded.cached_at, expires_at = excluded.expires_at`,
		cacheKey(importerName), importerName, string(profileJSON), now.UnixMilli(), now.Add(ttl).UnixMilli(),
	)
	return eris.Wrap(err, "sqlite: set cached profile")
}

func (s *SQLiteStore) DeleteExpiredProfiles(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM profile_cache WHERE expires_at <= ?`, s.nowFunc().UnixMilli(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired profiles")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}
