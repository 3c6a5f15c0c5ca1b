package fakes

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"anoa.com/housecup/internal/entity"
	progressRepo "anoa.com/housecup/internal/modules/progress/repository"
	"anoa.com/housecup/pkg/apperror"
)

// Progress is an in-memory progressRepo.ProgressRepository.
type Progress struct {
	mu   sync.Mutex
	logs []entity.ProgressLog

	Err error
}

var _ progressRepo.ProgressRepository = (*Progress)(nil)

func NewProgress() *Progress {
	return &Progress{}
}

func (p *Progress) EnsureIndexes(context.Context) error { return nil }

func (p *Progress) Insert(_ context.Context, log *entity.ProgressLog) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	for _, l := range p.logs {
		if l.UserID == log.UserID && l.Category == log.Category && l.Day == log.Day {
			return fmt.Errorf("%s log for %s: %w", log.Category, log.Day, apperror.ErrAlreadyExists)
		}
	}
	if log.ID.IsZero() {
		log.ID = primitive.NewObjectID()
	}
	p.logs = append(p.logs, *log)
	return nil
}

func (p *Progress) ListDays(_ context.Context, userID string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	seen := map[string]bool{}
	var days []string
	for _, l := range p.logs {
		if l.UserID == userID && !seen[l.Day] {
			seen[l.Day] = true
			days = append(days, l.Day)
		}
	}
	return days, nil
}

func (p *Progress) CountByUser(_ context.Context, userID string) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return 0, p.Err
	}
	var n int64
	for _, l := range p.logs {
		if l.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (p *Progress) ListByUser(_ context.Context, userID, from, to string, limit int64) ([]entity.ProgressLog, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	out := []entity.ProgressLog{}
	for _, l := range p.logs {
		if l.UserID != userID || (from != "" && l.Day < from) || (to != "" && l.Day > to) {
			continue
		}
		out = append(out, l)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Day > out[j].Day })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}
