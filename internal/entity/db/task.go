package db

import (
	"mediaforge/internal/entity/common"
	"time"
)

// Task 存储调用第三方 API 产生的具体任务，与 Record 一一对应。
type Task struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	RecordID string  `gorm:"column:record_id;type:varchar(36);uniqueIndex;not null" json:"record_id"`
	Record   *Record `gorm:"foreignKey:RecordID" json:"-"`

	// ExternalTaskID 是第三方 API 返回的任务标识。
	ExternalTaskID string `gorm:"column:external_task_id;type:varchar(255);index;not null" json:"external_task_id"`

	// Status 由轮询端点单调推进到终态（succeed/failed），不会回退。
	Status common.GenerationStatus `gorm:"column:status;type:varchar(32);index;not null" json:"status"`

	// Result 保存最近一次观察到的归一化结果。
	Result common.JSONMap `gorm:"column:result;type:json" json:"result"`

	SubmitAt time.Time `gorm:"column:submit_at;not null" json:"submit_at"`
}

// TableName 指定表名。
func (Task) TableName() string {
	return "tasks"
}
