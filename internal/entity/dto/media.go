package dto

import "mediaforge/internal/entity/common"

// MediaQuery supports listing media assets with admin filters.
type MediaQuery struct {
	common.BaseParams
	Kind     string `json:"kind" form:"kind" query:"kind"`
	Tag      string `json:"tag" form:"tag" query:"tag"`
	RecordID string `json:"record_id" form:"record_id" query:"record_id"`
	UserID   uint   `json:"-" form:"-" query:"-"`
}

// MediaUploadRequest carries an inline base64 (or data URL) asset uploaded
// by an authenticated user, typically as input for a later generation.
type MediaUploadRequest struct {
	Payload  string   `json:"payload" binding:"required"`
	FileName string   `json:"file_name"`
	Tags     []string `json:"tags"`
}

// MediaUploadResponse returns the stored asset's identity and public URL.
type MediaUploadResponse struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Kind string `json:"kind"`
}

// MediaUpdateRequest is the payload for editing a media asset.
type MediaUpdateRequest struct {
	AspectRatio *string                 `json:"aspect_ratio,omitempty"`
	Tags        *[]string               `json:"tags,omitempty"`
	Meta        *map[string]interface{} `json:"meta,omitempty"`
}
