package model

import (
	"context"
	"mediaforge/internal/entity"
)

// Repository 定义数据库操作接口
type Repository interface {
	// 用户管理
	CreateUser(ctx context.Context, user *entity.DbUser) error
	UpdateUser(ctx context.Context, id uint, updates entity.UserUpdates) error
	GetUserByEmail(ctx context.Context, email string) (*entity.DbUser, error)
	GetUserByID(ctx context.Context, id uint) (*entity.DbUser, error)
	ListUsers(ctx context.Context, params *entity.UserQuery) ([]entity.DbUser, *entity.Meta, error)
	DeleteUser(ctx context.Context, id uint) error
	CountUsers(ctx context.Context) (int64, error)

	// 积分：条件扣减，余额不足时返回 false 且不产生任何变更
	DebitUserPoints(ctx context.Context, userID uint, points int) (bool, error)
	CreditUserPoints(ctx context.Context, userID uint, points int) error

	// 生成记录
	CreateRecord(ctx context.Context, record *entity.DbRecord) error
	GetRecord(ctx context.Context, id string) (*entity.DbRecord, error)
	UpdateRecordStatus(ctx context.Context, id string, status entity.RecordStatus) error
	ListRecords(ctx context.Context, params *entity.RecordQuery) ([]entity.DbRecord, *entity.Meta, error)
	SoftDeleteRecord(ctx context.Context, id string, userID uint) error

	// 第三方任务
	CreateTask(ctx context.Context, task *entity.DbTask) error
	GetTaskWithRecord(ctx context.Context, recordID string) (*entity.DbTask, *entity.DbRecord, error)
	AdvanceTaskStatus(ctx context.Context, id string, status entity.GenerationStatus, result entity.JSONMap) error

	// 媒体
	CreateMedia(ctx context.Context, media *entity.DbMedia) error
	ListMedia(ctx context.Context, params *entity.MediaQuery) ([]entity.DbMedia, *entity.Meta, error)
	ListMediaByRecord(ctx context.Context, recordID string) ([]entity.DbMedia, error)
	UpdateMedia(ctx context.Context, id string, updates entity.MediaUpdates) error
	SoftDeleteMedia(ctx context.Context, id string) error
}
