// Package fakes holds in-memory repositories shared by service tests.
package fakes

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"anoa.com/housecup/internal/entity"
	pointsRepo "anoa.com/housecup/internal/modules/points/repository"
	"anoa.com/housecup/pkg/apperror"
)

// Ledger is an in-memory pointsRepo.LedgerRepository.
type Ledger struct {
	mu        sync.Mutex
	rows      []entity.PointTransaction
	usernames map[uuid.UUID]string

	// Err, when set, is returned by every call.
	Err error
}

var _ pointsRepo.LedgerRepository = (*Ledger)(nil)

func NewLedger() *Ledger {
	return &Ledger{usernames: map[uuid.UUID]string{}}
}

func (l *Ledger) SetUsername(id uuid.UUID, name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.usernames[id] = name
}

// Rows returns a copy of every appended row in insertion order.
func (l *Ledger) Rows() []entity.PointTransaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]entity.PointTransaction(nil), l.rows...)
}

func (l *Ledger) Append(_ context.Context, tx *entity.PointTransaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return l.Err
	}
	if tx.IdempotencyKey != nil {
		for _, row := range l.rows {
			if row.IdempotencyKey != nil && *row.IdempotencyKey == *tx.IdempotencyKey {
				return apperror.ErrAlreadyExists
			}
		}
	}
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	l.rows = append(l.rows, *tx)
	return nil
}

func within(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

func (l *Ledger) SumByHouseBetween(_ context.Context, house entity.House, start, end time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return 0, l.Err
	}
	total := 0
	for _, r := range l.rows {
		if r.House == house && within(r.CreatedAt, start, end) {
			total += r.Points
		}
	}
	return total, nil
}

func (l *Ledger) CountByReasonBetween(_ context.Context, house entity.House, start, end time.Time) (map[entity.Reason]int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return nil, l.Err
	}
	counts := map[entity.Reason]int{}
	for _, r := range l.rows {
		if r.House == house && within(r.CreatedAt, start, end) {
			counts[r.Reason]++
		}
	}
	return counts, nil
}

func (l *Ledger) SumAllByHouse(_ context.Context) (map[entity.House]int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return nil, l.Err
	}
	totals := map[entity.House]int{}
	for _, r := range l.rows {
		totals[r.House] += r.Points
	}
	return totals, nil
}

func (l *Ledger) TopContributors(_ context.Context, house entity.House, limit int) ([]pointsRepo.ContributorRow, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return nil, l.Err
	}
	sums := map[uuid.UUID]int{}
	for _, r := range l.rows {
		if r.House == house {
			sums[r.UserID] += r.Points
		}
	}
	rows := make([]pointsRepo.ContributorRow, 0, len(sums))
	for id, pts := range sums {
		rows = append(rows, pointsRepo.ContributorRow{UserID: id, Username: l.usernames[id], Points: pts})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		return rows[i].Username < rows[j].Username
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (l *Ledger) SumByUser(_ context.Context, userID uuid.UUID, since *time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return 0, l.Err
	}
	total := 0
	for _, r := range l.rows {
		if r.UserID != userID {
			continue
		}
		if since != nil && r.CreatedAt.Before(*since) {
			continue
		}
		total += r.Points
	}
	return total, nil
}

func (l *Ledger) ListByUser(_ context.Context, userID uuid.UUID, reason *entity.Reason, offset, limit int) ([]entity.PointTransaction, int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return nil, 0, l.Err
	}
	var matched []entity.PointTransaction
	for i := len(l.rows) - 1; i >= 0; i-- {
		r := l.rows[i]
		if r.UserID == userID && (reason == nil || r.Reason == *reason) {
			matched = append(matched, r)
		}
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return []entity.PointTransaction{}, total, nil
	}
	end := min(offset+limit, len(matched))
	return matched[offset:end], total, nil
}
