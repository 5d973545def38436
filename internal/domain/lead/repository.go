package lead

import (
	"context"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// EntityRepository defines the interface for lead and client persistence
type EntityRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Entity, error)

	// FindByEmail finds a contact by its normalized email
	FindByEmail(ctx context.Context, email string) (*Entity, error)

	// FindAll finds contacts matching the filter. Supported filter keys:
	// stage, status, owner_id, campaign, source
	FindAll(ctx context.Context, filter shared.Filter) ([]Entity, error)

	// FindByStage loads every contact of a stage for in-memory list views
	FindByStage(ctx context.Context, stage Stage) ([]Entity, error)

	Count(ctx context.Context, filter shared.Filter) (int64, error)

	ExistsByEmail(ctx context.Context, email string) (bool, error)

	Save(ctx context.Context, entity *Entity) error

	// SaveWithLock saves with an optimistic version check
	SaveWithLock(ctx context.Context, entity *Entity) error

	Delete(ctx context.Context, id uuid.UUID) error
}
