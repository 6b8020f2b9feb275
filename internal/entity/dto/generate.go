package dto

import "mediaforge/internal/entity/common"

// GenerateRequest is the payload for dispatching a generation task.
// Parameters are opaque here and validated by the resolved tool handler.
type GenerateRequest struct {
	Tool       string         `json:"tool" binding:"required"`
	Parameters common.JSONMap `json:"parameters" binding:"required"`
}

// GenerateResponse carries the created record id back to the caller.
type GenerateResponse struct {
	RecordID string `json:"record_id"`
}

// PollResult is the normalized status payload returned by the poll endpoint.
// URLs point at owned storage once the task reached terminal success.
type PollResult struct {
	URLs   []string                `json:"urls"`
	Status common.GenerationStatus `json:"status"`
	Type   string                  `json:"type"`
}
