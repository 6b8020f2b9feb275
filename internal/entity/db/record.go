package db

import (
	"mediaforge/internal/entity/common"
	"time"
)

// Record 存储用户每次点击生成的请求记录。
type Record struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// UserID 为 0 表示匿名调用者。
	UserID uint  `gorm:"column:user_id;index" json:"user_id"`
	User   *User `gorm:"foreignKey:UserID" json:"-"`

	Tool string `gorm:"column:tool;type:varchar(255);index;not null" json:"tool"`
	// Type 是工具的输出类型（image/video）。
	Type string `gorm:"column:type;type:varchar(32);not null" json:"type"`

	Parameters common.JSONMap `gorm:"column:parameters;type:json" json:"parameters"`

	// Status 反映向第三方派发请求的结果（waiting/fail/success），
	// 不反映生成任务本身的进度。
	Status common.RecordStatus `gorm:"column:status;type:varchar(32);index;not null;default:waiting" json:"status"`

	ExpectedCount int `gorm:"column:expected_count;not null;default:1" json:"expected_count"`
	// PointsCount 是本次请求扣除的积分。
	PointsCount int `gorm:"column:points_count;not null;default:0" json:"points_count"`

	IsPublic bool `gorm:"column:is_public;not null;default:false" json:"is_public"`
	IsDelete bool `gorm:"column:is_delete;not null;default:false" json:"is_delete"`

	Task   *Task   `gorm:"foreignKey:RecordID" json:"task,omitempty"`
	Medias []Media `gorm:"foreignKey:RecordID" json:"medias,omitempty"`
}

// TableName 指定表名。
func (Record) TableName() string {
	return "records"
}
