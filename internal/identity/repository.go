// Package identity tracks who is logged in: dashboard sessions keyed by
// wallet address, and the users table updated once per login transition.
// The wallet-provider SDK itself lives in the browser; this side only stores
// the resolved address.
package identity

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/zapdeck/zapdeck/internal/domain"
)

// UserRepository persists dashboard users in app.db.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert inserts the wallet if unseen and returns the stored user either way.
func (r *UserRepository) Upsert(wallet string) (*domain.User, error) {
	now := time.Now().Unix()

	_, err := r.db.Exec(
		"INSERT INTO users (wallet, created_at) VALUES (?, ?) ON CONFLICT(wallet) DO NOTHING",
		wallet, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return r.GetByWallet(wallet)
}

// GetByWallet returns the user for a wallet, or nil when unknown.
func (r *UserRepository) GetByWallet(wallet string) (*domain.User, error) {
	var (
		user      domain.User
		createdAt int64
	)
	err := r.db.QueryRow(
		"SELECT id, wallet, created_at FROM users WHERE wallet = ?",
		wallet,
	).Scan(&user.ID, &user.Wallet, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &user, nil
}

// Count returns the number of known users.
func (r *UserRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
