package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/noscite/noscite-assistant/internal/domain"
)

func TestRoleService_HasRole(t *testing.T) {
	repo := new(MockRoleRepository)
	repo.On("HasRole", mock.Anything, "user-1", domain.RoleAdmin).Return(true, nil)
	svc := NewRoleService(repo)

	ok, err := svc.HasRole(context.Background(), "user-1", domain.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.HasRole(context.Background(), "", domain.RoleAdmin)
	require.NoError(t, err)
	assert.False(t, ok)
	repo.AssertNumberOfCalls(t, "HasRole", 1)
}

func TestRoleService_GrantRevoke(t *testing.T) {
	repo := new(MockRoleRepository)
	repo.On("Grant", mock.Anything, "user-1", domain.RoleEditor).Return(nil)
	repo.On("Revoke", mock.Anything, "user-1", domain.RoleEditor).Return(true, nil)
	svc := NewRoleService(repo)

	require.NoError(t, svc.Grant(context.Background(), "user-1", domain.RoleEditor))
	removed, err := svc.Revoke(context.Background(), "user-1", domain.RoleEditor)
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestRoleService_Validation(t *testing.T) {
	svc := NewRoleService(new(MockRoleRepository))

	err := svc.Grant(context.Background(), " ", domain.RoleAdmin)
	assert.Equal(t, domain.ErrCodeValidation, domain.CodeOf(err))

	_, err = svc.Revoke(context.Background(), "user-1", domain.Role("owner"))
	assert.Equal(t, domain.ErrCodeValidation, domain.CodeOf(err))
}
