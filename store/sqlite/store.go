package sqlite

import (
	"database/sql"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for clients, grants, teams, and
// projects. Ephemeral flow state never lives here; it belongs to the TTL
// flow store.
type Store struct {
	sqlDB *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS oauth_clients (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	icon_url    TEXT NOT NULL DEFAULT '',
	max_scopes  INTEGER NOT NULL,
	secret_hash TEXT NOT NULL,
	created     INTEGER NOT NULL,
	created_by  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS oauth_client_redirect_uris (
	id        TEXT PRIMARY KEY,
	client_id TEXT NOT NULL REFERENCES oauth_clients(id) ON DELETE CASCADE,
	uri       TEXT NOT NULL,
	UNIQUE (client_id, uri)
);

CREATE TABLE IF NOT EXISTS oauth_client_authorizations (
	id        TEXT NOT NULL,
	client_id TEXT NOT NULL REFERENCES oauth_clients(id) ON DELETE CASCADE,
	user_id   TEXT NOT NULL,
	scopes    INTEGER NOT NULL,
	created   INTEGER NOT NULL,
	PRIMARY KEY (client_id, user_id)
);

CREATE TABLE IF NOT EXISTS teams (
	id         TEXT PRIMARY KEY,
	owner_kind TEXT NOT NULL CHECK (owner_kind IN ('project', 'organization')),
	owner_id   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS team_members (
	team_id         TEXT NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
	user_id         TEXT NOT NULL,
	permissions     INTEGER NOT NULL DEFAULT 0,
	org_permissions INTEGER NOT NULL DEFAULT 0,
	accepted        INTEGER NOT NULL DEFAULT 0,
	role            TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (team_id, user_id)
);

CREATE TABLE IF NOT EXISTS organizations (
	id      TEXT PRIMARY KEY,
	team_id TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS projects (
	id              TEXT PRIMARY KEY,
	team_id         TEXT NOT NULL,
	organization_id TEXT NOT NULL DEFAULT ''
);
`

// Open opens (creating if needed) a SQLite store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("[sqlite.Open] storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "[sqlite.Open] sql.Open")
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(err, "[sqlite.Open] ping")
	}
	// Writes are serialized through a single connection; SQLite allows one
	// writer at a time and this keeps the driver from returning SQLITE_BUSY
	// under concurrent transactions.
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(err, "[sqlite.Open] schema")
	}

	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}
