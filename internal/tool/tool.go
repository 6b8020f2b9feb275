package tool

import (
	"encoding/json"
	"fmt"
	"mediaforge/internal/entity"
)

// RequestSpec 描述一次发往第三方平台的 HTTP 请求。
// 由 handler 声明，由调用方负责执行。
type RequestSpec struct {
	URL     string
	Method  string
	Headers map[string]string
	// Body 非 nil 时以 JSON 编码作为请求体。
	Body interface{}

	// DownloadHeaders 在下载生成产物时附加（部分平台的产物地址需要鉴权）。
	DownloadHeaders map[string]string
}

// StatusResult 是对第三方任务状态响应的归一化视图。
type StatusResult struct {
	URLs   []string
	Status entity.GenerationStatus
	Kind   string
}

// Handler 是单个生成工具的完整契约。
// 新增第三方平台时实现该接口并注册，不在端点里写分支。
type Handler interface {
	// Name returns the registry key.
	Name() string

	// ReturnType returns the media kind this tool produces (image/video).
	ReturnType() string

	// CalculatePoints returns the non-negative credit cost of a request.
	CalculatePoints(params entity.JSONMap) int

	// Validate checks parameters and returns them with defaults applied.
	Validate(params entity.JSONMap) (entity.JSONMap, error)

	// BuildTaskRequest builds the outbound generation request.
	BuildTaskRequest(params entity.JSONMap) (*RequestSpec, error)

	// ProcessTaskResponse extracts the external task id from a submit response.
	ProcessTaskResponse(body []byte) (string, error)

	// BuildTaskStatusRequest builds the status-check request for a task.
	BuildTaskStatusRequest(externalTaskID string) (*RequestSpec, error)

	// ProcessTaskStatusResponse normalises a status response. Each handler
	// encodes its own completion predicate.
	ProcessTaskStatusResponse(body []byte) (*StatusResult, error)
}

// decodeParams 把通用参数 map 解码到工具的类型化参数结构。
func decodeParams(params entity.JSONMap, out interface{}) error {
	raw, err := json.Marshal(map[string]interface{}(params))
	if err != nil {
		return fmt.Errorf("encode parameters: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode parameters: %w", err)
	}
	return nil
}

// encodeParams 把类型化参数结构编码回通用 map，保留应用过的默认值。
func encodeParams(in interface{}) (entity.JSONMap, error) {
	raw, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode parameters: %w", err)
	}
	var out entity.JSONMap
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode parameters: %w", err)
	}
	return out, nil
}

func jsonHeaders(extra map[string]string) map[string]string {
	headers := map[string]string{
		"Content-Type": "application/json",
	}
	for k, v := range extra {
		headers[k] = v
	}
	return headers
}
