package sql

import (
	"context"
	"fmt"
	"mediaforge/internal/entity"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateTask persists a new third-party task.
func (r *GormRepository) CreateTask(ctx context.Context, task *entity.DbTask) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if task == nil {
		return fmt.Errorf("task is nil")
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Status == "" {
		task.Status = entity.GenerationStatusWaiting
	}
	if task.SubmitAt.IsZero() {
		task.SubmitAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(task).Error
}

// GetTaskWithRecord 在一次查询中取出任务及其所属记录。
// 轮询端点依赖该方法，避免两次独立查询带来的不一致窗口。
func (r *GormRepository) GetTaskWithRecord(ctx context.Context, recordID string) (*entity.DbTask, *entity.DbRecord, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("repository not initialised")
	}
	if strings.TrimSpace(recordID) == "" {
		return nil, nil, fmt.Errorf("record id is empty")
	}

	var task entity.DbTask
	err := r.db.WithContext(ctx).
		Joins("Record").
		Where("tasks.record_id = ?", recordID).
		First(&task).Error
	if err != nil {
		return nil, nil, err
	}
	if task.Record == nil || task.Record.IsDelete {
		return nil, nil, gorm.ErrRecordNotFound
	}
	return &task, task.Record, nil
}

// AdvanceTaskStatus 写入最近观察到的任务状态和结果。
// 条件更新排除已到终态的行，保证状态只会单调前进。
func (r *GormRepository) AdvanceTaskStatus(ctx context.Context, id string, status entity.GenerationStatus, result entity.JSONMap) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("task id is empty")
	}

	values := map[string]interface{}{
		"status": status,
	}
	if result != nil {
		values["result"] = result
	}

	terminal := []string{
		string(entity.GenerationStatusSucceed),
		string(entity.GenerationStatusFailed),
	}
	return r.db.WithContext(ctx).Model(&entity.DbTask{}).
		Where("id = ? AND status NOT IN ?", id, terminal).
		Updates(values).Error
}
