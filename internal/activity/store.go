package activity

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/viefmoon/bite-sub001/internal/models"
)

const DefaultCapacity = 100

// Store is an append-only feed of sync activity, newest first on read.
type Store interface {
	Append(ctx context.Context, item models.SyncActivity) error
	Recent(ctx context.Context, limit int) ([]models.SyncActivity, error)
}

// NewActivity stamps an event with a fresh id and the current time.
func NewActivity(kind models.ActivityType, dir models.ActivityDirection, success bool) models.SyncActivity {
	return models.SyncActivity{
		ID:        uuid.NewString(),
		Type:      kind,
		Direction: dir,
		Success:   success,
		Timestamp: time.Now().UTC(),
	}
}

func normalizeCapacity(capacity int) int {
	if capacity <= 0 {
		return DefaultCapacity
	}
	return capacity
}

func clampLimit(limit, capacity int) int {
	if limit <= 0 || limit > capacity {
		return capacity
	}
	return limit
}
