package gormrepository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/viefmoon/bite-sub001/internal/models"
)

// IncrementDailyCounterTx is insert-if-missing followed by an in-place
// increment. The UPDATE takes the row lock, so concurrent transactions for
// the same date queue behind it and never read the same value.
func (s *Store) IncrementDailyCounterTx(ctx context.Context, tx *gorm.DB, date string) (int, error) {
	if s == nil || (s.db == nil && tx == nil) {
		return 0, errors.New("counter store unavailable")
	}
	date = strings.TrimSpace(date)
	if date == "" {
		return 0, errors.New("counter date is required")
	}
	db := s.conn(ctx, tx)

	seed := models.DailyOrderCounter{CounterDate: date}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "counter_date"}},
		DoNothing: true,
	}).Create(&seed).Error; err != nil {
		return 0, fmt.Errorf("seed counter %s: %w", date, err)
	}

	res := db.Model(&models.DailyOrderCounter{}).
		Where("counter_date = ?", date).
		Update("current_number", gorm.Expr("current_number + 1"))
	if res.Error != nil {
		return 0, fmt.Errorf("increment counter %s: %w", date, res.Error)
	}
	if res.RowsAffected != 1 {
		return 0, fmt.Errorf("increment counter %s: %d rows affected", date, res.RowsAffected)
	}

	var row models.DailyOrderCounter
	if err := db.Where("counter_date = ?", date).Take(&row).Error; err != nil {
		return 0, fmt.Errorf("read counter %s: %w", date, err)
	}
	return row.CurrentNumber, nil
}

func (s *Store) GetDailyCounter(ctx context.Context, date string) (*models.DailyOrderCounter, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var row models.DailyOrderCounter
	err := s.db.WithContext(ctx).Where("counter_date = ?", strings.TrimSpace(date)).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
