package identity

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zapdeck/zapdeck/internal/domain"
)

// Session is one authenticated dashboard session. The token doubles as the
// view-session key for the portfolio fetch guard.
type Session struct {
	Token         string    `json:"token"`
	WalletAddress string    `json:"walletAddress"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Service manages login/logout and the once-per-login user upsert.
type Service struct {
	db    *sql.DB
	users *UserRepository
	log   zerolog.Logger
}

// NewService creates the identity service over app.db.
func NewService(db *sql.DB, log zerolog.Logger) *Service {
	return &Service{
		db:    db,
		users: NewUserRepository(db),
		log:   log.With().Str("service", "identity").Logger(),
	}
}

// Login records a login transition: the user row is upserted exactly once and
// a fresh session token is issued.
func (s *Service) Login(wallet string) (*Session, error) {
	user, err := s.users.Upsert(wallet)
	if err != nil {
		return nil, err
	}

	session := &Session{
		Token:         uuid.NewString(),
		WalletAddress: wallet,
		CreatedAt:     time.Now().UTC(),
	}

	_, err = s.db.Exec(
		"INSERT INTO view_sessions (token, wallet, created_at) VALUES (?, ?, ?)",
		session.Token, wallet, session.CreatedAt.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	s.log.Info().Str("wallet", wallet).Int64("user_id", user.ID).Msg("User logged in")
	return session, nil
}

// Logout removes the session. Unknown tokens are a no-op.
func (s *Service) Logout(token string) error {
	if _, err := s.db.Exec("DELETE FROM view_sessions WHERE token = ?", token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Resolve returns the session for a token, or nil when not authenticated.
func (s *Service) Resolve(token string) (*Session, error) {
	if token == "" {
		return nil, nil
	}

	var (
		session   Session
		createdAt int64
	)
	err := s.db.QueryRow(
		"SELECT token, wallet, created_at FROM view_sessions WHERE token = ?",
		token,
	).Scan(&session.Token, &session.WalletAddress, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}

	session.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &session, nil
}

// Authenticated reports whether a token belongs to a live session.
func (s *Service) Authenticated(token string) bool {
	session, err := s.Resolve(token)
	return err == nil && session != nil
}

// User returns the stored user for a wallet.
func (s *Service) User(wallet string) (*domain.User, error) {
	return s.users.GetByWallet(wallet)
}

// ActiveWallets returns the distinct wallets with at least one live session.
// The background refresh polls agent lists for these.
func (s *Service) ActiveWallets() ([]string, error) {
	rows, err := s.db.Query("SELECT DISTINCT wallet FROM view_sessions")
	if err != nil {
		return nil, fmt.Errorf("failed to list session wallets: %w", err)
	}
	defer rows.Close()

	var wallets []string
	for rows.Next() {
		var wallet string
		if err := rows.Scan(&wallet); err != nil {
			return nil, fmt.Errorf("failed to scan session wallet: %w", err)
		}
		wallets = append(wallets, wallet)
	}
	return wallets, rows.Err()
}
