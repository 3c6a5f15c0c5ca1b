package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"anoa.com/housecup/internal/entity"
	"anoa.com/housecup/internal/logger"
	"anoa.com/housecup/internal/modules/user/dto"
	"anoa.com/housecup/internal/modules/user/repository"
	"anoa.com/housecup/pkg/apperror"
)

type UserService interface {
	// Provision returns the local user for identity, creating it on first sight.
	Provision(ctx context.Context, identity dto.Identity) (*entity.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

type userService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("user %s: %w", id, apperror.ErrNotFound)
	}
	if err != nil {
		return nil, apperror.Storage("find user", err)
	}
	return user, nil
}

func (s *userService) Provision(ctx context.Context, identity dto.Identity) (*entity.User, error) {
	id, err := uuid.Parse(identity.Subject)
	if err != nil {
		return nil, fmt.Errorf("subject %q: %w", identity.Subject, apperror.ErrUnauthorized)
	}

	user, err := s.repo.FindByID(ctx, id)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.Storage("find user", err)
	}

	if !identity.House.Valid() {
		return nil, fmt.Errorf("house %q: %w", identity.House, apperror.ErrForbidden)
	}
	if identity.Username == "" || identity.Email == "" {
		return nil, fmt.Errorf("identity without username or email: %w", apperror.ErrUnauthorized)
	}

	roleName := identity.Role
	if roleName == "" {
		roleName = entity.RoleStudent
	}
	role, err := s.repo.FindRoleByName(ctx, roleName)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.Storage("find role", err)
	}

	user = &entity.User{
		ID:       id,
		Username: identity.Username,
		Email:    identity.Email,
		House:    identity.House,
		IsActive: true,
	}
	if role != nil {
		user.RoleID = &role.ID
	}

	if err := s.repo.CreateIfMissing(ctx, user); err != nil {
		return nil, apperror.Storage("create user", err)
	}

	logger.InfoCtx(ctx, "provisioned user",
		zap.String("user_id", id.String()),
		zap.String("house", identity.House.String()))

	// A concurrent request may have won the insert; read back the stored row.
	return s.GetByID(ctx, id)
}
