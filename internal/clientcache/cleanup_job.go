package clientcache

import (
	"github.com/rs/zerolog"
)

// CleanupJob sweeps expired rows out of the three dashboard cache tables
// (portfolio, token balances, snapshots) and reports what each still holds,
// so cache occupancy per wallet shows up in the logs.
type CleanupJob struct {
	repo *Repository
	log  zerolog.Logger
}

// NewCleanupJob creates a new client cache cleanup job.
func NewCleanupJob(repo *Repository, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		repo: repo,
		log:  log.With().Str("job", "client_cache_cleanup").Logger(),
	}
}

// Run executes the cleanup job, removing all expired entries from all tables.
func (j *CleanupJob) Run() error {
	results, err := j.repo.DeleteAllExpired()
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to delete expired client cache data")
		return err
	}

	stats, err := j.repo.Stats()
	if err != nil {
		j.log.Warn().Err(err).Msg("Failed to read cache table stats")
		stats = map[string]TableStats{}
	}

	var totalDeleted int64
	for _, table := range AllTables {
		deleted := results[table]
		totalDeleted += deleted
		if deleted == 0 && stats[table].Wallets == 0 {
			continue
		}
		j.log.Info().
			Str("table", table).
			Int64("deleted", deleted).
			Int64("wallets", stats[table].Wallets).
			Int64("fresh", stats[table].Fresh).
			Msg("Swept cache table")
	}

	if totalDeleted > 0 {
		j.log.Info().
			Int64("total_deleted", totalDeleted).
			Msg("Client cache cleanup completed")
	}

	return nil
}

// Name returns the job name for scheduling and logging.
func (j *CleanupJob) Name() string {
	return "client_cache_cleanup"
}
