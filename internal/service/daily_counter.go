package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/viefmoon/bite-sub001/internal/repository"
)

const counterDateLayout = "2006-01-02"

// DailyCounterAllocator hands out the per-day order numbers shown to staff.
// Days are calendar days in Location.
type DailyCounterAllocator struct {
	Repo     repository.CounterRepository
	Location *time.Location
}

func (a *DailyCounterAllocator) DateKey(at time.Time) string {
	loc := time.Local
	if a != nil && a.Location != nil {
		loc = a.Location
	}
	return at.In(loc).Format(counterDateLayout)
}

// NextNumber must run inside the caller's transaction; a rollback there
// returns the number to the pool.
func (a *DailyCounterAllocator) NextNumber(ctx context.Context, tx *gorm.DB, date time.Time) (int, error) {
	if a == nil || a.Repo == nil {
		return 0, errors.New("daily counter allocator is not configured")
	}
	return a.Repo.IncrementDailyCounterTx(ctx, tx, a.DateKey(date))
}
