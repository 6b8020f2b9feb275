package tool

import (
	"encoding/json"
	"fmt"
	"mediaforge/internal/entity"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	fluxSchnellName      = "ai-image-generator"
	fluxSubmitURL        = "https://api.replicate.com/v1/models/black-forest-labs/flux-schnell/predictions"
	fluxPredictionURLFmt = "https://api.replicate.com/v1/predictions/%s"
)

var fluxRatioOptions = []interface{}{
	"1:1", "16:9", "9:16", "21:9", "9:21",
	"3:2", "2:3", "4:5", "5:4", "3:4", "4:3",
}

var fluxFormatOptions = []interface{}{"webp", "png", "jpeg"}

// FluxSchnell 通过 Replicate 的 flux-schnell 模型生成图片。
type FluxSchnell struct {
	apiToken  string
	submitURL string
	statusURL string
}

type fluxParams struct {
	Prompt  string `json:"prompt"`
	Ratio   string `json:"ratio"`
	Count   int    `json:"count"`
	Format  string `json:"format"`
	Quality int    `json:"quality"`
	Steps   int    `json:"steps"`
}

func NewFluxSchnell(apiToken string) *FluxSchnell {
	return &FluxSchnell{
		apiToken:  strings.TrimSpace(apiToken),
		submitURL: fluxSubmitURL,
		statusURL: fluxPredictionURLFmt,
	}
}

func (t *FluxSchnell) Name() string {
	return fluxSchnellName
}

func (t *FluxSchnell) ReturnType() string {
	return entity.MediaKindImage
}

func (t *FluxSchnell) CalculatePoints(params entity.JSONMap) int {
	return 0
}

func (t *FluxSchnell) Validate(params entity.JSONMap) (entity.JSONMap, error) {
	var p fluxParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Count == 0 {
		p.Count = 1
	}
	if _, ok := params["quality"]; !ok {
		p.Quality = 60
	}
	if p.Steps == 0 {
		p.Steps = 3
	}

	err := validation.ValidateStruct(&p,
		validation.Field(&p.Prompt, validation.Required, validation.Length(8, 512)),
		validation.Field(&p.Ratio, validation.Required, validation.In(fluxRatioOptions...).Error("不支持的宽高比")),
		validation.Field(&p.Count, validation.Min(1), validation.Max(4)),
		validation.Field(&p.Format, validation.Required, validation.In(fluxFormatOptions...).Error("不支持的输出格式")),
		validation.Field(&p.Quality, validation.Min(0), validation.Max(100)),
		validation.Field(&p.Steps, validation.Min(1), validation.Max(4)),
	)
	if err != nil {
		return nil, err
	}
	return encodeParams(&p)
}

func (t *FluxSchnell) BuildTaskRequest(params entity.JSONMap) (*RequestSpec, error) {
	var p fluxParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	return &RequestSpec{
		URL:    t.submitURL,
		Method: http.MethodPost,
		Headers: jsonHeaders(map[string]string{
			"Authorization": "Bearer " + t.apiToken,
		}),
		Body: map[string]interface{}{
			"input": map[string]interface{}{
				"prompt":         p.Prompt,
				"aspect_ratio":   p.Ratio,
				"num_outputs":    p.Count,
				"output_format":  p.Format,
				"output_quality": p.Quality,
			},
		},
	}, nil
}

func (t *FluxSchnell) ProcessTaskResponse(body []byte) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("parse replicate response: %w", err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("replicate response has no prediction id")
	}
	return resp.ID, nil
}

func (t *FluxSchnell) BuildTaskStatusRequest(externalTaskID string) (*RequestSpec, error) {
	if strings.TrimSpace(externalTaskID) == "" {
		return nil, fmt.Errorf("external task id is empty")
	}
	return &RequestSpec{
		URL:    fmt.Sprintf(t.statusURL, externalTaskID),
		Method: http.MethodGet,
		Headers: jsonHeaders(map[string]string{
			"Authorization": "Bearer " + t.apiToken,
		}),
	}, nil
}

func (t *FluxSchnell) ProcessTaskStatusResponse(body []byte) (*StatusResult, error) {
	var resp struct {
		Output []string `json:"output"`
		Input  struct {
			NumOutputs int `json:"num_outputs"`
		} `json:"input"`
		Error interface{} `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse replicate status: %w", err)
	}

	// Replicate 失败时 error 非空，直接判失败，不再等产出。
	if resp.Error != nil {
		return &StatusResult{
			URLs:   []string{},
			Status: entity.GenerationStatusFailed,
			Kind:   entity.MediaKindImage,
		}, nil
	}

	// 产出数量追上 num_outputs 才算完成。
	if len(resp.Output) == 0 || len(resp.Output) < resp.Input.NumOutputs {
		return &StatusResult{
			URLs:   []string{},
			Status: entity.GenerationStatusProcessing,
			Kind:   entity.MediaKindImage,
		}, nil
	}

	return &StatusResult{
		URLs:   resp.Output,
		Status: entity.GenerationStatusSucceed,
		Kind:   entity.MediaKindImage,
	}, nil
}
