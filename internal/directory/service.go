package directory

import (
	"strings"

	"github.com/healthbridge/healthbridge/pkg/interfaces"
	"github.com/healthbridge/healthbridge/pkg/logger"
	"github.com/healthbridge/healthbridge/pkg/types"
)

// Service implements the DirectoryService interface on top of the user store
type Service struct {
	users  interfaces.UserRepository
	logger *logger.Logger
}

// NewService creates a new directory service
func NewService(users interfaces.UserRepository, log *logger.Logger) interfaces.DirectoryService {
	return &Service{
		users:  users,
		logger: log,
	}
}

// ListByRole lists active principals holding the given role. The role is
// matched case-insensitively, so "Doctor" and "doctor" select the same set.
func (s *Service) ListByRole(role string) ([]*types.DirectoryEntry, error) {
	normalized := types.UserRole(strings.ToLower(strings.TrimSpace(role)))
	if !normalized.Valid() {
		return nil, types.NewValidationError(
			types.ErrCodeInvalidInput,
			"role must be doctor or patient",
			map[string]interface{}{"role": role},
		)
	}

	entries, err := s.users.ListByRole(normalized)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*types.DirectoryEntry{}
	}
	return entries, nil
}
