package entity

// Re-export common, db and dto types so callers can use a single import.

import (
	"mediaforge/internal/entity/common"
	"mediaforge/internal/entity/db"
	"mediaforge/internal/entity/dto"
)

// Common types
type StringArray = common.StringArray
type JSONMap = common.JSONMap
type Meta = common.Meta
type BaseParams = common.BaseParams
type RecordStatus = common.RecordStatus
type GenerationStatus = common.GenerationStatus

const (
	RecordStatusWaiting = common.RecordStatusWaiting
	RecordStatusFail    = common.RecordStatusFail
	RecordStatusSuccess = common.RecordStatusSuccess

	GenerationStatusWaiting    = common.GenerationStatusWaiting
	GenerationStatusProcessing = common.GenerationStatusProcessing
	GenerationStatusSucceed    = common.GenerationStatusSucceed
	GenerationStatusFailed     = common.GenerationStatusFailed
	GenerationStatusUnknown    = common.GenerationStatusUnknown

	MediaKindImage = common.MediaKindImage
	MediaKindVideo = common.MediaKindVideo
)

// Database entities
type DbUser = db.User
type DbRecord = db.Record
type DbTask = db.Task
type DbMedia = db.Media

const (
	UserRoleSuperAdmin = db.UserRoleSuperAdmin
	UserRoleAdmin      = db.UserRoleAdmin
	UserRoleUser       = db.UserRoleUser
	AnonymousUserID    = db.AnonymousUserID

	MediaUploadSourceUser  = db.MediaUploadSourceUser
	MediaUploadSourceAdmin = db.MediaUploadSourceAdmin
)

// DTO types
type AuthStatusResponse = dto.AuthStatusResponse
type AuthLoginRequest = dto.AuthLoginRequest
type AuthRegisterRequest = dto.AuthRegisterRequest
type AuthResponse = dto.AuthResponse
type UserSummary = dto.UserSummary
type UserQuery = dto.UserQuery
type UserCreateRequest = dto.UserCreateRequest
type UserUpdateRequest = dto.UserUpdateRequest
type UserListResponse = dto.UserListResponse

type GenerateRequest = dto.GenerateRequest
type GenerateResponse = dto.GenerateResponse
type PollResult = dto.PollResult

type RecordQuery = dto.RecordQuery
type RecordMedia = dto.RecordMedia
type RecordItem = dto.RecordItem
type RecordListResponse = dto.RecordListResponse

type MediaQuery = dto.MediaQuery
type MediaUploadRequest = dto.MediaUploadRequest
type MediaUploadResponse = dto.MediaUploadResponse
type MediaUpdateRequest = dto.MediaUpdateRequest
