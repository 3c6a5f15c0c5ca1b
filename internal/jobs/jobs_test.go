package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anoa.com/housecup/internal/entity"
	"anoa.com/housecup/internal/fakes"
	"anoa.com/housecup/internal/jobs"
	standingsService "anoa.com/housecup/internal/modules/standings/service"
	view "anoa.com/housecup/internal/modules/view/service"
	"anoa.com/housecup/pkg/clock"
)

type countingJob struct {
	name string
	runs int
	err  error
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return "" }
func (j *countingJob) Run(ctx context.Context) error {
	j.runs++
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("run without deadline")
	}
	return j.err
}

func TestSchedulerRunByName(t *testing.T) {
	s := jobs.NewScheduler(time.Second)
	ok := &countingJob{name: "ok"}
	failing := &countingJob{name: "failing", err: errors.New("boom")}
	require.NoError(t, s.Register(ok))
	require.NoError(t, s.Register(failing))

	assert.Equal(t, []string{"ok", "failing"}, s.Names())

	require.NoError(t, s.RunByName(context.Background(), "ok"))
	assert.Equal(t, 1, ok.runs)

	assert.EqualError(t, s.RunByName(context.Background(), "failing"), "boom")
	assert.Error(t, s.RunByName(context.Background(), "missing"))
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	s := jobs.NewScheduler(time.Second)
	err := s.Register(jobs.NewViewSyncJob(nil, "every now and then"))
	assert.Error(t, err)
}

func TestSchedulerStartStop(t *testing.T) {
	s := jobs.NewScheduler(time.Second)
	require.NoError(t, s.Register(jobs.NewStandingsRebuildJob(nil, "@hourly")))
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

func TestViewSyncJob(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	posts := fakes.NewPosts()
	id := posts.Add(entity.CommunityPost{Title: "Study group"})
	views := view.NewViewService(client, posts)

	ctx := context.Background()
	require.NoError(t, views.IncrementView(ctx, id.Hex(), uuid.New()))
	require.NoError(t, views.IncrementView(ctx, id.Hex(), uuid.New()))

	job := jobs.NewViewSyncJob(views, "@every 1m")
	assert.Equal(t, jobs.ViewSyncJobName, job.Name())
	require.NoError(t, job.Run(ctx))

	post, err := posts.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, post.Views)
}

func TestStandingsRebuildJob(t *testing.T) {
	now := time.Date(2024, 5, 15, 14, 0, 0, 0, time.UTC)
	ledger := fakes.NewLedger()
	require.NoError(t, ledger.Append(context.Background(), &entity.PointTransaction{
		House: entity.HouseDragon, Reason: entity.ReasonPostCreated, Points: 10, CreatedAt: now,
	}))
	repo := fakes.NewStandings()
	svc := standingsService.NewStandingsService(repo, ledger, fakes.Members{}, &fakes.Invalidator{}, clock.Fixed(now), 2)

	s := jobs.NewScheduler(5 * time.Second)
	require.NoError(t, s.Register(jobs.NewStandingsRebuildJob(svc, "")))
	require.NoError(t, s.RunByName(context.Background(), jobs.StandingsRebuildJobName))

	start, _ := standingsService.WeekBoundaries(now)
	st, ok := repo.Get(entity.HouseDragon, start)
	require.True(t, ok)
	assert.Equal(t, 10, st.TotalPoints)
	assert.Equal(t, 1, st.PostCount)
}
