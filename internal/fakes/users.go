package fakes

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"anoa.com/housecup/internal/entity"
	userRepo "anoa.com/housecup/internal/modules/user/repository"
	"anoa.com/housecup/pkg/apperror"
)

// Users is an in-memory userRepo.UserRepository.
type Users struct {
	mu    sync.Mutex
	users map[uuid.UUID]entity.User
	roles map[string]entity.Role

	Err error
}

var _ userRepo.UserRepository = (*Users)(nil)

func NewUsers(users ...entity.User) *Users {
	u := &Users{
		users: map[uuid.UUID]entity.User{},
		roles: map[string]entity.Role{},
	}
	for _, user := range users {
		u.users[user.ID] = user
	}
	return u
}

func (u *Users) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Err != nil {
		return nil, u.Err
	}
	user, ok := u.users[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	if user.RoleID != nil {
		for _, r := range u.roles {
			if r.ID == *user.RoleID {
				user.Role = r
			}
		}
	}
	return &user, nil
}

func (u *Users) FindByIDs(_ context.Context, ids []uuid.UUID) ([]entity.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Err != nil {
		return nil, u.Err
	}
	var out []entity.User
	for _, id := range ids {
		if user, ok := u.users[id]; ok {
			out = append(out, user)
		}
	}
	return out, nil
}

func (u *Users) CountByHouse(_ context.Context, house entity.House) (int64, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Err != nil {
		return 0, u.Err
	}
	var n int64
	for _, user := range u.users {
		if user.House == house && user.IsActive {
			n++
		}
	}
	return n, nil
}

func (u *Users) CreateIfMissing(_ context.Context, user *entity.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Err != nil {
		return u.Err
	}
	if _, ok := u.users[user.ID]; !ok {
		u.users[user.ID] = *user
	}
	return nil
}

func (u *Users) FindRoleByName(_ context.Context, name string) (*entity.Role, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Err != nil {
		return nil, u.Err
	}
	role, ok := u.roles[name]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	return &role, nil
}

func (u *Users) EnsureRoles(_ context.Context, roles []entity.Role) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, r := range roles {
		if _, ok := u.roles[r.Name]; !ok {
			if r.ID == 0 {
				r.ID = uint(len(u.roles) + 1)
			}
			u.roles[r.Name] = r
		}
	}
	return nil
}
