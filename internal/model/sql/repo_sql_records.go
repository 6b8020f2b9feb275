package sql

import (
	"context"
	"fmt"
	"mediaforge/internal/entity"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateRecord persists a new generation record.
func (r *GormRepository) CreateRecord(ctx context.Context, record *entity.DbRecord) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if record == nil {
		return fmt.Errorf("record is nil")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Status == "" {
		record.Status = entity.RecordStatusWaiting
	}
	return r.db.WithContext(ctx).Create(record).Error
}

// GetRecord loads a record with its task and media rows.
func (r *GormRepository) GetRecord(ctx context.Context, id string) (*entity.DbRecord, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("record id is empty")
	}

	var record entity.DbRecord
	err := r.db.WithContext(ctx).
		Preload("Task").
		Preload("Medias", "is_delete = ?", false).
		Where("id = ? AND is_delete = ?", id, false).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// UpdateRecordStatus sets the dispatch status of a record.
func (r *GormRepository) UpdateRecordStatus(ctx context.Context, id string, status entity.RecordStatus) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("record id is empty")
	}

	result := r.db.WithContext(ctx).Model(&entity.DbRecord{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListRecords returns paginated records with tasks and media preloaded.
func (r *GormRepository) ListRecords(ctx context.Context, params *entity.RecordQuery) ([]entity.DbRecord, *entity.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("repository not initialised")
	}

	query := r.db.WithContext(ctx).Model(&entity.DbRecord{}).Where("is_delete = ?", false)
	if params != nil {
		if !params.IncludeAll {
			// 非管理员视角：本人记录加上公开记录。
			if params.UserID != 0 {
				query = query.Where("user_id = ? OR is_public = ?", params.UserID, true)
			} else {
				query = query.Where("is_public = ?", true)
			}
		}
		if trimmed := strings.TrimSpace(params.Tool); trimmed != "" {
			query = query.Where("tool = ?", trimmed)
		}
		if trimmed := strings.TrimSpace(params.Type); trimmed != "" {
			query = query.Where("type = ?", trimmed)
		}
		if trimmed := strings.TrimSpace(params.Status); trimmed != "" {
			query = query.Where("status = ?", trimmed)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, nil, err
	}

	page := 1
	pageSize := 20
	if params != nil {
		if params.Page > 0 {
			page = int(params.Page)
		}
		if params.PageSize > 0 {
			pageSize = int(params.PageSize)
		}
	}

	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}

	var records []entity.DbRecord
	err := query.
		Preload("Task").
		Preload("Medias", "is_delete = ?", false).
		Order("created_at DESC").
		Offset(offset).Limit(pageSize).
		Find(&records).Error
	if err != nil {
		return nil, nil, err
	}

	meta := r.calculatePagination(total, page, pageSize)
	return records, meta, nil
}

// SoftDeleteRecord marks a record as deleted. When userID is non-zero the
// delete only applies to records owned by that user.
func (r *GormRepository) SoftDeleteRecord(ctx context.Context, id string, userID uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("record id is empty")
	}

	query := r.db.WithContext(ctx).Model(&entity.DbRecord{}).Where("id = ?", id)
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	}
	result := query.Update("is_delete", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
