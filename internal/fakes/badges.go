package fakes

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"anoa.com/housecup/internal/entity"
	badgeRepo "anoa.com/housecup/internal/modules/badge/repository"
	"anoa.com/housecup/pkg/apperror"
)

// Badges is an in-memory badgeRepo.BadgeRepository enforcing the
// (user, badge type) uniqueness the real table has.
type Badges struct {
	mu     sync.Mutex
	types  map[string]entity.BadgeType
	grants map[uuid.UUID]map[uint]entity.UserBadge

	GrantErr error
}

var _ badgeRepo.BadgeRepository = (*Badges)(nil)

func NewBadges() *Badges {
	return &Badges{
		types:  map[string]entity.BadgeType{},
		grants: map[uuid.UUID]map[uint]entity.UserBadge{},
	}
}

func (b *Badges) UpsertTypes(_ context.Context, types []entity.BadgeType) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range types {
		if existing, ok := b.types[t.Name]; ok {
			t.ID = existing.ID
		} else {
			t.ID = uint(len(b.types) + 1)
		}
		b.types[t.Name] = t
	}
	return nil
}

func (b *Badges) FindTypeByName(_ context.Context, name string) (*entity.BadgeType, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.types[name]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	return &t, nil
}

func (b *Badges) ListTypes(_ context.Context) ([]entity.BadgeType, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]entity.BadgeType, 0, len(b.types))
	for _, t := range b.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Requirement < out[j].Requirement
	})
	return out, nil
}

func (b *Badges) ListTypesByCategory(ctx context.Context, category string) ([]entity.BadgeType, error) {
	all, _ := b.ListTypes(ctx)
	var out []entity.BadgeType
	for _, t := range all {
		if t.Category == category {
			out = append(out, t)
		}
	}
	return out, nil
}

func (b *Badges) Grant(_ context.Context, badge *entity.UserBadge) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.GrantErr != nil {
		return false, b.GrantErr
	}
	held := b.grants[badge.UserID]
	if held == nil {
		held = map[uint]entity.UserBadge{}
		b.grants[badge.UserID] = held
	}
	if _, ok := held[badge.BadgeTypeID]; ok {
		return false, nil
	}
	badge.ID = uint(len(held) + 1)
	held[badge.BadgeTypeID] = *badge
	return true, nil
}

func (b *Badges) ListByUser(_ context.Context, userID uuid.UUID) ([]entity.UserBadge, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []entity.UserBadge
	for typeID, ub := range b.grants[userID] {
		for _, t := range b.types {
			if t.ID == typeID {
				ub.BadgeType = t
			}
		}
		out = append(out, ub)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BadgeType.Requirement < out[j].BadgeType.Requirement })
	return out, nil
}

// Notifier records notifications instead of delivering them.
type Notifier struct {
	mu   sync.Mutex
	Sent []entity.Notification
}

func (n *Notifier) CreateNotification(_ context.Context, notification *entity.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = append(n.Sent, *notification)
	return nil
}
