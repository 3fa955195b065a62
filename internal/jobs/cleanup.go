package jobs

import (
	"context"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/dmitrymomot/soon/internal/models"
	"github.com/dmitrymomot/soon/internal/web"
	"github.com/dmitrymomot/soon/pkg/storage"
	"github.com/dmitrymomot/soon/pkg/view"
)

// FileCleanup returns a delete hook removing each doomed job's spec
// file from storage. A file already gone is not an error.
func FileCleanup(store storage.Storage) view.BeforeDeleteHook[models.Job] {
	return func(c web.Context, objs []models.Job) error {
		for _, job := range objs {
			if job.Spec == "" {
				continue
			}
			if err := store.Delete(c, job.Spec); err != nil {
				return err
			}
		}
		return nil
	}
}

// OrphanSweeper removes files under the jobs upload directory that no
// job row references. It backstops any delete path that bypassed the
// per-row cleanup hook.
type OrphanSweeper struct {
	db    *gorm.DB
	media *storage.Local
	log   *slog.Logger
}

// NewOrphanSweeper creates a sweeper over the local media store.
func NewOrphanSweeper(db *gorm.DB, media *storage.Local, log *slog.Logger) *OrphanSweeper {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &OrphanSweeper{db: db, media: media, log: log}
}

// Schedule registers an hourly sweep on the given cron runner.
func (s *OrphanSweeper) Schedule(c *cron.Cron) (cron.EntryID, error) {
	return c.AddFunc("@hourly", func() {
		if err := s.Sweep(context.Background()); err != nil {
			s.log.Error("orphan sweep failed", slog.String("error", err.Error()))
		}
	})
}

// Sweep deletes unreferenced files under jobs/. Missing directory
// means nothing was ever uploaded.
func (s *OrphanSweeper) Sweep(ctx context.Context) error {
	entries, err := os.ReadDir(filepath.Join(s.media.Root(), uploadDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var keys []string
	if err := s.db.WithContext(ctx).
		Model(&models.Job{}).
		Pluck("spec", &keys).Error; err != nil {
		return err
	}
	referenced := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		referenced[key] = struct{}{}
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		key := path.Join(uploadDir, entry.Name())
		if _, ok := referenced[key]; ok {
			continue
		}
		if err := s.media.Delete(ctx, key); err != nil {
			return err
		}
		s.log.Info("removed orphaned media file", slog.String("key", key))
	}
	return nil
}
