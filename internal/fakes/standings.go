package fakes

import (
	"context"
	"sync"
	"time"

	"anoa.com/housecup/internal/entity"
	standingRepo "anoa.com/housecup/internal/modules/standings/repository"
)

// Standings is an in-memory standingRepo.StandingRepository keyed like the
// real unique index.
type Standings struct {
	mu   sync.Mutex
	rows map[standingKey]entity.WeeklyHouseStanding

	Err     error
	Upserts int
}

type standingKey struct {
	house entity.House
	week  int64
}

var _ standingRepo.StandingRepository = (*Standings)(nil)

func NewStandings() *Standings {
	return &Standings{rows: map[standingKey]entity.WeeklyHouseStanding{}}
}

func (s *Standings) Upsert(_ context.Context, st *entity.WeeklyHouseStanding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Upserts++
	s.rows[standingKey{st.House, st.WeekStart.UnixNano()}] = *st
	return nil
}

func (s *Standings) ListByWeek(_ context.Context, weekStart time.Time) ([]entity.WeeklyHouseStanding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []entity.WeeklyHouseStanding
	for _, house := range entity.Houses {
		if st, ok := s.rows[standingKey{house, weekStart.UnixNano()}]; ok {
			out = append(out, st)
		}
	}
	return out, nil
}

// Get returns the row for (house, weekStart).
func (s *Standings) Get(house entity.House, weekStart time.Time) (entity.WeeklyHouseStanding, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.rows[standingKey{house, weekStart.UnixNano()}]
	return st, ok
}

// Members is a fixed per-house member count.
type Members map[entity.House]int64

func (m Members) CountByHouse(_ context.Context, house entity.House) (int64, error) {
	return m[house], nil
}

// Invalidator counts weekly cache invalidations.
type Invalidator struct {
	mu    sync.Mutex
	Calls int
}

func (i *Invalidator) InvalidateWeekly(context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.Calls++
	return nil
}
