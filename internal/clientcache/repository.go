// Package clientcache provides persistent caching for external API client
// responses. All data is stored as blobs with expiration timestamps for
// cache-first behavior.
package clientcache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// AllTables lists all tables in client_cache.db for cleanup operations.
var AllTables = []string{
	"mobula_portfolio",
	"token_balances",
	"portfolio_snapshots",
}

// validTables is a set for O(1) table name validation.
var validTables = func() map[string]bool {
	m := make(map[string]bool, len(AllTables))
	for _, t := range AllTables {
		m[t] = true
	}
	return m
}()

// Repository provides cache operations for client data.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new client cache repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// validateTable ensures the table name is in our allowed list.
// This prevents SQL injection through table names.
func validateTable(table string) error {
	if !validTables[table] {
		return fmt.Errorf("invalid table name: %s", table)
	}
	return nil
}

// Store saves data with expiration = now + ttl.
// Uses INSERT OR REPLACE to upsert data.
func (r *Repository) Store(table, wallet string, data interface{}, ttl time.Duration) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}
	return r.StoreRaw(table, wallet, jsonData, ttl)
}

// StoreRaw saves pre-encoded bytes (JSON or msgpack) with expiration = now + ttl.
func (r *Repository) StoreRaw(table, wallet string, data []byte, ttl time.Duration) error {
	if err := validateTable(table); err != nil {
		return err
	}

	expiresAt := time.Now().Add(ttl).Unix()

	query := fmt.Sprintf(
		"INSERT OR REPLACE INTO %s (wallet, data, expires_at) VALUES (?, ?, ?)",
		table,
	)

	if _, err := r.db.Exec(query, wallet, data, expiresAt); err != nil {
		return fmt.Errorf("failed to store data in %s: %w", table, err)
	}

	return nil
}

// GetIfFresh returns data only if expires_at > now, nil otherwise.
// Returns nil, nil if the key doesn't exist or data is expired.
// Use Get() to retrieve stale data as a fallback when API calls fail.
func (r *Repository) GetIfFresh(table, wallet string) ([]byte, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	query := fmt.Sprintf("SELECT data FROM %s WHERE wallet = ? AND expires_at > ?", table)

	var data []byte
	err := r.db.QueryRow(query, wallet, now).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get data from %s: %w", table, err)
	}

	return data, nil
}

// Get returns data regardless of expiration status.
// Use this as a fallback when API calls fail - stale data is better than no data.
// Returns nil, nil if the key doesn't exist.
func (r *Repository) Get(table, wallet string) ([]byte, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT data FROM %s WHERE wallet = ?", table)

	var data []byte
	err := r.db.QueryRow(query, wallet).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get data from %s: %w", table, err)
	}

	return data, nil
}

// Delete removes a specific entry.
func (r *Repository) Delete(table, wallet string) error {
	if err := validateTable(table); err != nil {
		return err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE wallet = ?", table)

	if _, err := r.db.Exec(query, wallet); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}

	return nil
}

// DeleteExpired removes all expired entries from a table and returns the count.
func (r *Repository) DeleteExpired(table string) (int64, error) {
	if err := validateTable(table); err != nil {
		return 0, err
	}

	now := time.Now().Unix()
	query := fmt.Sprintf("DELETE FROM %s WHERE expires_at <= ?", table)

	result, err := r.db.Exec(query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired from %s: %w", table, err)
	}

	return result.RowsAffected()
}

// TableStats reports how many wallets a cache table holds and how many of
// those rows are still fresh.
type TableStats struct {
	Wallets int64
	Fresh   int64
}

// Stats returns per-table occupancy for every cache table.
func (r *Repository) Stats() (map[string]TableStats, error) {
	now := time.Now().Unix()
	stats := make(map[string]TableStats, len(AllTables))
	for _, table := range AllTables {
		query := fmt.Sprintf("SELECT COUNT(*), COALESCE(SUM(expires_at > ?), 0) FROM %s", table)
		var s TableStats
		if err := r.db.QueryRow(query, now).Scan(&s.Wallets, &s.Fresh); err != nil {
			return stats, fmt.Errorf("failed to count rows in %s: %w", table, err)
		}
		stats[table] = s
	}
	return stats, nil
}

// DeleteAllExpired removes expired entries from every table, returning the
// per-table deletion counts.
func (r *Repository) DeleteAllExpired() (map[string]int64, error) {
	results := make(map[string]int64, len(AllTables))
	for _, table := range AllTables {
		count, err := r.DeleteExpired(table)
		if err != nil {
			return results, err
		}
		results[table] = count
	}
	return results, nil
}
