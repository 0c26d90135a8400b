package interfaces

import (
	"github.com/healthbridge/healthbridge/pkg/types"
)

// DirectoryService defines the interface for principal directory lookups
type DirectoryService interface {
	ListByRole(role string) ([]*types.DirectoryEntry, error)
}
