package db

import (
	"mediaforge/internal/entity/common"
	"time"
)

const (
	MediaUploadSourceUser  = "user"
	MediaUploadSourceAdmin = "admin"
)

// Media 存储生成成功后转存到自有对象存储的媒体文件。
type Media struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID   uint   `gorm:"column:user_id;index" json:"user_id"`
	RecordID string `gorm:"column:record_id;type:varchar(36);index" json:"record_id"`
	TaskID   string `gorm:"column:task_id;type:varchar(36);index" json:"task_id"`

	// URL 是转存后的公开访问地址，Path 是存储后端内部的对象路径。
	URL  string `gorm:"column:url;type:text;not null" json:"url"`
	Path string `gorm:"column:path;type:text" json:"path"`

	MimeType string `gorm:"column:mime_type;type:varchar(128)" json:"mime_type"`
	// Kind 是媒体类型：image 或 video。
	Kind        string `gorm:"column:kind;type:varchar(32);index;not null" json:"kind"`
	AspectRatio string `gorm:"column:aspect_ratio;type:varchar(32)" json:"aspect_ratio"`

	UploadSource string `gorm:"column:upload_source;type:varchar(32);default:user" json:"upload_source"`

	Tags common.StringArray `gorm:"column:tags;type:json" json:"tags"`
	Meta common.JSONMap     `gorm:"column:meta;type:json" json:"meta"`

	IsDelete bool `gorm:"column:is_delete;not null;default:false" json:"is_delete"`
}

// TableName 指定表名。
func (Media) TableName() string {
	return "medias"
}
