package gormrepository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/viefmoon/bite-sub001/internal/models"
	"github.com/viefmoon/bite-sub001/internal/repository"
)

func (s *Store) InsertSyncLog(ctx context.Context, item *models.SyncLog) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

// UpdateSyncLog writes the terminal fields of a run.
func (s *Store) UpdateSyncLog(ctx context.Context, item *models.SyncLog) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.ID) == "" {
		return errors.New("sync log id is required")
	}
	res := s.db.WithContext(ctx).
		Model(&models.SyncLog{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"status":       item.Status,
			"items_synced": item.ItemsSynced,
			"items_failed": item.ItemsFailed,
			"errors":       item.Errors,
			"completed_at": item.CompletedAt,
			"duration":     item.Duration,
			"metadata":     item.Metadata,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *Store) GetSyncLog(ctx context.Context, id string) (*models.SyncLog, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.SyncLog
	err := s.db.WithContext(ctx).Where("id = ?", strings.TrimSpace(id)).Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetLatestSyncLog returns the most recently completed run of syncType,
// optionally restricted to statuses.
func (s *Store) GetLatestSyncLog(ctx context.Context, syncType models.SyncType, statuses ...models.SyncStatus) (*models.SyncLog, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.SyncLog{}).
		Where("sync_type = ?", syncType).
		Where("completed_at IS NOT NULL")
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	var item models.SyncLog
	err := query.Order("completed_at desc").Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListSyncLogs(ctx context.Context, params repository.ListSyncLogsParams) ([]models.SyncLog, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applySyncLogFilters(s.db.WithContext(ctx).Model(&models.SyncLog{}), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "started_at")
	var items []models.SyncLog
	if err := query.
		Limit(normalizeLimit(params.Limit, 50)).
		Offset(normalizeOffset(params.Offset)).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountSyncLogs(ctx context.Context, params repository.ListSyncLogsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := applySyncLogFilters(s.db.WithContext(ctx).Model(&models.SyncLog{}), params).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func applySyncLogFilters(query *gorm.DB, params repository.ListSyncLogsParams) *gorm.DB {
	if v := trimmed(params.SyncType); v != "" {
		query = query.Where("sync_type = ?", strings.ToUpper(v))
	}
	if v := trimmed(params.Status); v != "" {
		query = query.Where("status = ?", strings.ToUpper(v))
	}
	return query
}
