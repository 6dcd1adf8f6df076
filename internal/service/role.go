package service

import (
	"context"
	"strings"

	"github.com/noscite/noscite-assistant/internal/domain"
)

// RoleRepositoryInterface stores role grants.
type RoleRepositoryInterface interface {
	HasRole(ctx context.Context, userID string, role domain.Role) (bool, error)
	Grant(ctx context.Context, userID string, role domain.Role) error
	Revoke(ctx context.Context, userID string, role domain.Role) (bool, error)
}

type RoleService struct {
	repo RoleRepositoryInterface
}

func NewRoleService(repo RoleRepositoryInterface) *RoleService {
	return &RoleService{repo: repo}
}

func (s *RoleService) HasRole(ctx context.Context, userID string, role domain.Role) (bool, error) {
	if strings.TrimSpace(userID) == "" {
		return false, nil
	}
	return s.repo.HasRole(ctx, userID, role)
}

func (s *RoleService) Grant(ctx context.Context, userID string, role domain.Role) error {
	if err := validateGrant(userID, role); err != nil {
		return err
	}
	return s.repo.Grant(ctx, userID, role)
}

// Revoke reports whether a grant existed.
func (s *RoleService) Revoke(ctx context.Context, userID string, role domain.Role) (bool, error) {
	if err := validateGrant(userID, role); err != nil {
		return false, err
	}
	return s.repo.Revoke(ctx, userID, role)
}

func validateGrant(userID string, role domain.Role) error {
	if strings.TrimSpace(userID) == "" {
		return domain.NewValidationError("user id è obbligatorio")
	}
	if !domain.IsValidRole(role) {
		return domain.NewValidationError("ruolo non valido: " + string(role))
	}
	return nil
}
