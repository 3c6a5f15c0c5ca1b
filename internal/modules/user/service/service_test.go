package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anoa.com/housecup/internal/entity"
	"anoa.com/housecup/internal/fakes"
	"anoa.com/housecup/internal/modules/user/dto"
	"anoa.com/housecup/internal/modules/user/service"
	"anoa.com/housecup/pkg/apperror"
)

func TestProvisionCreatesOnFirstSight(t *testing.T) {
	repo := fakes.NewUsers()
	require.NoError(t, repo.EnsureRoles(context.Background(), []entity.Role{{Name: entity.RoleStudent}, {Name: entity.RoleAdmin}}))
	svc := service.NewUserService(repo)

	id := uuid.New()
	identity := dto.Identity{Subject: id.String(), Username: "ada", Email: "ada@school.test", House: entity.HouseGriffin, Role: entity.RoleAdmin}

	user, err := svc.Provision(context.Background(), identity)
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, entity.HouseGriffin, user.House)
	assert.Equal(t, entity.RoleAdmin, user.Role.Name)
	assert.True(t, user.IsActive)

	// A second call with a different house keeps the stored membership.
	identity.House = entity.HouseKraken
	again, err := svc.Provision(context.Background(), identity)
	require.NoError(t, err)
	assert.Equal(t, entity.HouseGriffin, again.House)
}

func TestProvisionRejects(t *testing.T) {
	svc := service.NewUserService(fakes.NewUsers())
	ctx := context.Background()

	_, err := svc.Provision(ctx, dto.Identity{Subject: "not-a-uuid"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = svc.Provision(ctx, dto.Identity{Subject: uuid.NewString(), Username: "x", Email: "x@y", House: "ravenclaw"})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = svc.Provision(ctx, dto.Identity{Subject: uuid.NewString(), House: entity.HouseDragon})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestGetByID(t *testing.T) {
	id := uuid.New()
	repo := fakes.NewUsers(entity.User{ID: id, Username: "grace", House: entity.HousePhoenix})
	svc := service.NewUserService(repo)

	user, err := svc.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "grace", user.Username)

	_, err = svc.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	repo.Err = errors.New("pool exhausted")
	_, err = svc.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, apperror.ErrStorageUnavailable)
}
