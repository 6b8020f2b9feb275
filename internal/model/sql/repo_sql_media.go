package sql

import (
	"context"
	"fmt"
	"mediaforge/internal/entity"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateMedia persists a new media asset.
func (r *GormRepository) CreateMedia(ctx context.Context, media *entity.DbMedia) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if media == nil {
		return fmt.Errorf("media is nil")
	}
	if media.ID == "" {
		media.ID = uuid.NewString()
	}
	if media.UploadSource == "" {
		media.UploadSource = entity.MediaUploadSourceUser
	}
	return r.db.WithContext(ctx).Create(media).Error
}

// ListMedia returns paginated media assets.
func (r *GormRepository) ListMedia(ctx context.Context, params *entity.MediaQuery) ([]entity.DbMedia, *entity.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("repository not initialised")
	}

	query := r.db.WithContext(ctx).Model(&entity.DbMedia{}).Where("is_delete = ?", false)
	if params != nil {
		if trimmed := strings.TrimSpace(params.Kind); trimmed != "" {
			query = query.Where("kind = ?", trimmed)
		}
		if trimmed := strings.TrimSpace(params.RecordID); trimmed != "" {
			query = query.Where("record_id = ?", trimmed)
		}
		if params.UserID != 0 {
			query = query.Where("user_id = ?", params.UserID)
		}
		if tag := strings.TrimSpace(params.Tag); tag != "" {
			// tags 以 JSON 文本存储，用包含匹配过滤。
			query = query.Where("tags LIKE ?", "%\""+tag+"\"%")
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

	var medias []entity.DbMedia
	if err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&medias).Error; err != nil {
		return nil, nil, err
	}

	meta := r.calculatePagination(total, page, pageSize)
	return medias, meta, nil
}

// ListMediaByRecord returns all live media rows of a record.
func (r *GormRepository) ListMediaByRecord(ctx context.Context, recordID string) ([]entity.DbMedia, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if strings.TrimSpace(recordID) == "" {
		return nil, fmt.Errorf("record id is empty")
	}

	var medias []entity.DbMedia
	err := r.db.WithContext(ctx).
		Where("record_id = ? AND is_delete = ?", recordID, false).
		Order("created_at ASC").
		Find(&medias).Error
	if err != nil {
		return nil, err
	}
	return medias, nil
}

// UpdateMedia updates an existing media asset.
func (r *GormRepository) UpdateMedia(ctx context.Context, id string, updates entity.MediaUpdates) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("media id is empty")
	}
	values := updates.ToMap()
	if len(values) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).Model(&entity.DbMedia{}).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SoftDeleteMedia marks a media asset as deleted.
func (r *GormRepository) SoftDeleteMedia(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("media id is empty")
	}

	result := r.db.WithContext(ctx).Model(&entity.DbMedia{}).
		Where("id = ?", id).
		Update("is_delete", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
