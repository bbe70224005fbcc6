package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/licitamatch/backend/internal/domain"
)

// Maintenance runs periodic cache housekeeping: entries written under an
// older cache schema version are dead weight once the version tag changes,
// so they are purged on a schedule instead of at request time.
type Maintenance struct {
	cron          *cron.Cron
	store         domain.CacheStore
	schemaVersion string
	log           *zap.Logger
}

// NewMaintenance creates the scheduler; Start must be called to run it.
func NewMaintenance(store domain.CacheStore, schemaVersion string, log *zap.Logger) *Maintenance {
	if log == nil {
		log = zap.NewNop()
	}
	return &Maintenance{
		cron:          cron.New(),
		store:         store,
		schemaVersion: schemaVersion,
		log:           log,
	}
}

// Start registers the purge job (daily at 03:00) and starts the scheduler.
func (m *Maintenance) Start() error {
	_, err := m.cron.AddFunc("0 3 * * *", m.purge)
	if err != nil {
		return err
	}
	m.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (m *Maintenance) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
}

func (m *Maintenance) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	removed, err := m.store.PurgeOtherVersions(ctx, m.schemaVersion)
	if err != nil {
		m.log.Warn("cache purge failed", zap.Error(err))
		return
	}
	if removed > 0 {
		m.log.Info("purged stale cache entries", zap.Int64("removed", removed), zap.String("schema", m.schemaVersion))
	}
}
