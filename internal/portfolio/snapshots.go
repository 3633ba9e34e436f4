package portfolio

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/zapdeck/zapdeck/internal/clientcache"
)

const snapshotTable = "portfolio_snapshots"

// SnapshotStore persists combined portfolios as msgpack blobs in the client
// cache database so the dashboard can paint instantly on reload.
type SnapshotStore struct {
	repo *clientcache.Repository
}

// NewSnapshotStore creates a snapshot store over the client cache repository.
func NewSnapshotStore(repo *clientcache.Repository) *SnapshotStore {
	return &SnapshotStore{repo: repo}
}

// Save encodes and upserts the snapshot for a wallet.
func (s *SnapshotStore) Save(wallet string, p *EnhancedWalletPortfolio) error {
	data, err := msgpack.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return s.repo.StoreRaw(snapshotTable, wallet, data, clientcache.TTLSnapshot)
}

// Load returns the stored snapshot for a wallet, or nil when none exists.
// Expired snapshots are still returned - a stale paint beats an empty one.
func (s *SnapshotStore) Load(wallet string) (*EnhancedWalletPortfolio, error) {
	data, err := s.repo.Get(snapshotTable, wallet)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	var p EnhancedWalletPortfolio
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &p, nil
}
