package reliability

import (
	"context"
	"time"
)

// BackupJob runs a full backup cycle: snapshot, upload, rotate. It satisfies
// the scheduler's Job interface.
type BackupJob struct {
	Service *BackupService
}

func (j *BackupJob) Name() string { return "r2-backup" }

func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := j.Service.CreateAndUploadBackup(ctx); err != nil {
		return err
	}
	return j.Service.RotateOldBackups(ctx)
}
