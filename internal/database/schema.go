package database

import "fmt"

// appSchema defines the tables for app.db: authenticated users, the cached
// agent views the dashboard paints from, and per-view sessions.
const appSchema = `
CREATE TABLE IF NOT EXISTS users (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    wallet      TEXT NOT NULL UNIQUE,
    created_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS agent_views (
    view        TEXT PRIMARY KEY,
    data        TEXT NOT NULL,
    message     TEXT NOT NULL DEFAULT '',
    updated_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS view_sessions (
    token       TEXT PRIMARY KEY,
    wallet      TEXT NOT NULL,
    created_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_view_sessions_wallet ON view_sessions(wallet);
`

// clientCacheSchema defines the tables for client_cache.db: JSON/msgpack blobs
// from external APIs with an expiration timestamp per row.
const clientCacheSchema = `
CREATE TABLE IF NOT EXISTS mobula_portfolio (
    wallet      TEXT PRIMARY KEY,
    data        TEXT NOT NULL,
    expires_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS token_balances (
    wallet      TEXT PRIMARY KEY,
    data        TEXT NOT NULL,
    expires_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS portfolio_snapshots (
    wallet      TEXT PRIMARY KEY,
    data        BLOB NOT NULL,
    expires_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_mobula_portfolio_expires ON mobula_portfolio(expires_at);
CREATE INDEX IF NOT EXISTS idx_token_balances_expires ON token_balances(expires_at);
CREATE INDEX IF NOT EXISTS idx_portfolio_snapshots_expires ON portfolio_snapshots(expires_at);
`

// InitAppSchema creates the app.db tables if they do not exist.
func (db *DB) InitAppSchema() error {
	if _, err := db.conn.Exec(appSchema); err != nil {
		return fmt.Errorf("failed to initialize %s schema: %w", db.name, err)
	}
	return nil
}

// InitClientCacheSchema creates the client_cache.db tables if they do not exist.
func (db *DB) InitClientCacheSchema() error {
	if _, err := db.conn.Exec(clientCacheSchema); err != nil {
		return fmt.Errorf("failed to initialize %s schema: %w", db.name, err)
	}
	return nil
}
