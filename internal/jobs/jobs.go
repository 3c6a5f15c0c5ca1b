package jobs

import (
	"context"

	"go.uber.org/zap"

	"anoa.com/housecup/internal/entity"
	"anoa.com/housecup/internal/logger"
)

const (
	ViewSyncJobName         = "view-sync"
	StandingsRebuildJobName = "standings-rebuild"
)

type ViewSyncer interface {
	SyncViews(ctx context.Context) (int, error)
}

type StandingsRebuilder interface {
	RebuildStandings(ctx context.Context) ([]entity.WeeklyHouseStanding, error)
}

// ViewSyncJob flushes buffered post view counters into the post store.
type ViewSyncJob struct {
	views    ViewSyncer
	schedule string
}

func NewViewSyncJob(views ViewSyncer, schedule string) *ViewSyncJob {
	return &ViewSyncJob{views: views, schedule: schedule}
}

func (j *ViewSyncJob) Name() string     { return ViewSyncJobName }
func (j *ViewSyncJob) Schedule() string { return j.schedule }

func (j *ViewSyncJob) Run(ctx context.Context) error {
	n, err := j.views.SyncViews(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		logger.InfoCtx(ctx, "synced post views", zap.Int("posts", n))
	}
	return nil
}

// StandingsRebuildJob recomputes this week's standings from the ledger so
// drift from a failed incremental update heals on its own.
type StandingsRebuildJob struct {
	standings StandingsRebuilder
	schedule  string
}

func NewStandingsRebuildJob(standings StandingsRebuilder, schedule string) *StandingsRebuildJob {
	return &StandingsRebuildJob{standings: standings, schedule: schedule}
}

func (j *StandingsRebuildJob) Name() string     { return StandingsRebuildJobName }
func (j *StandingsRebuildJob) Schedule() string { return j.schedule }

func (j *StandingsRebuildJob) Run(ctx context.Context) error {
	_, err := j.standings.RebuildStandings(ctx)
	return err
}
