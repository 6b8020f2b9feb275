package dto

import (
	"mediaforge/internal/entity/common"
	"time"
)

// RecordQuery supports listing generation records with pagination.
type RecordQuery struct {
	common.BaseParams
	Tool       string `json:"tool" form:"tool" query:"tool"`
	Type       string `json:"type" form:"type" query:"type"`
	Status     string `json:"status" form:"status" query:"status"`
	UserID     uint   `json:"-" form:"-" query:"-"`
	IncludeAll bool   `json:"-" form:"-" query:"-"`
}

// RecordMedia is a media asset attached to a record.
type RecordMedia struct {
	ID          string   `json:"id"`
	URL         string   `json:"url"`
	MimeType    string   `json:"mime_type"`
	Kind        string   `json:"kind"`
	AspectRatio string   `json:"aspect_ratio,omitempty"`
	Tags        []string `json:"tags"`
}

// RecordItem is the record representation returned to clients.
type RecordItem struct {
	ID            string                  `json:"id"`
	Tool          string                  `json:"tool"`
	Type          string                  `json:"type"`
	Parameters    common.JSONMap          `json:"parameters"`
	Status        common.RecordStatus     `json:"status"`
	TaskStatus    common.GenerationStatus `json:"task_status,omitempty"`
	ExpectedCount int                     `json:"expected_count"`
	PointsCount   int                     `json:"points_count"`
	IsPublic      bool                    `json:"is_public"`
	CreatedAt     time.Time               `json:"created_at"`
	Medias        []RecordMedia           `json:"medias"`
}

// RecordListResponse is the response for listing records.
type RecordListResponse struct {
	Records []RecordItem `json:"records"`
	Meta    *common.Meta `json:"meta"`
}
