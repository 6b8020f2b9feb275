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
	veo3Name       = "veo-3-fast-generate-preview"
	veo3SubmitURL  = "https://generativelanguage.googleapis.com/v1beta/models/veo-3.0-fast-generate-preview:predictLongRunning"
	veo3BaseURLFmt = "https://generativelanguage.googleapis.com/v1beta/%s"

	veo3Points = 10
)

var veo3RatioOptions = []interface{}{"16:9"}

// Veo3FastPreview 通过 Google Generative Language 的长时操作接口生成视频。
type Veo3FastPreview struct {
	apiToken  string
	submitURL string
	statusURL string
}

type veo3Params struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negativePrompt,omitempty"`
	Ratio          string `json:"ratio"`
}

func NewVeo3FastPreview(apiToken string) *Veo3FastPreview {
	return &Veo3FastPreview{
		apiToken:  strings.TrimSpace(apiToken),
		submitURL: veo3SubmitURL,
		statusURL: veo3BaseURLFmt,
	}
}

func (t *Veo3FastPreview) Name() string {
	return veo3Name
}

func (t *Veo3FastPreview) ReturnType() string {
	return entity.MediaKindVideo
}

func (t *Veo3FastPreview) CalculatePoints(params entity.JSONMap) int {
	return veo3Points
}

func (t *Veo3FastPreview) Validate(params entity.JSONMap) (entity.JSONMap, error) {
	var p veo3Params
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	err := validation.ValidateStruct(&p,
		validation.Field(&p.Prompt, validation.Required, validation.Length(1, 512)),
		validation.Field(&p.NegativePrompt, validation.Length(0, 512)),
		validation.Field(&p.Ratio, validation.Required, validation.In(veo3RatioOptions...).Error("不支持的宽高比")),
	)
	if err != nil {
		return nil, err
	}
	return encodeParams(&p)
}

func (t *Veo3FastPreview) BuildTaskRequest(params entity.JSONMap) (*RequestSpec, error) {
	var p veo3Params
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	parameters := map[string]interface{}{
		"aspectRatio": p.Ratio,
	}
	if p.NegativePrompt != "" {
		parameters["negativePrompt"] = p.NegativePrompt
	}

	return &RequestSpec{
		URL:    t.submitURL,
		Method: http.MethodPost,
		Headers: jsonHeaders(map[string]string{
			"x-goog-api-key": t.apiToken,
		}),
		Body: map[string]interface{}{
			"instances": []map[string]interface{}{
				{"prompt": p.Prompt},
			},
			"parameters": parameters,
		},
	}, nil
}

func (t *Veo3FastPreview) ProcessTaskResponse(body []byte) (string, error) {
	var resp struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("parse operation response: %w", err)
	}
	if resp.Name == "" {
		return "", fmt.Errorf("operation response has no name")
	}
	return resp.Name, nil
}

// BuildTaskStatusRequest 的外部任务 ID 是完整的 operation name
// （形如 models/veo-3.0-fast-generate-preview/operations/xxx）。
func (t *Veo3FastPreview) BuildTaskStatusRequest(externalTaskID string) (*RequestSpec, error) {
	if strings.TrimSpace(externalTaskID) == "" {
		return nil, fmt.Errorf("external task id is empty")
	}
	return &RequestSpec{
		URL:    fmt.Sprintf(t.statusURL, externalTaskID),
		Method: http.MethodGet,
		Headers: jsonHeaders(map[string]string{
			"x-goog-api-key": t.apiToken,
		}),
	}, nil
}

func (t *Veo3FastPreview) ProcessTaskStatusResponse(body []byte) (*StatusResult, error) {
	var resp struct {
		Done  bool `json:"done"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
		Response struct {
			GenerateVideoResponse struct {
				GeneratedSamples []struct {
					Video struct {
						URI string `json:"uri"`
					} `json:"video"`
				} `json:"generatedSamples"`
			} `json:"generateVideoResponse"`
		} `json:"response"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse operation status: %w", err)
	}

	if !resp.Done {
		return &StatusResult{
			URLs:   []string{},
			Status: entity.GenerationStatusProcessing,
			Kind:   entity.MediaKindVideo,
		}, nil
	}

	if resp.Error != nil {
		return &StatusResult{
			URLs:   []string{},
			Status: entity.GenerationStatusFailed,
			Kind:   entity.MediaKindVideo,
		}, nil
	}

	urls := make([]string, 0, len(resp.Response.GenerateVideoResponse.GeneratedSamples))
	for _, sample := range resp.Response.GenerateVideoResponse.GeneratedSamples {
		if sample.Video.URI != "" {
			urls = append(urls, sample.Video.URI)
		}
	}

	return &StatusResult{
		URLs:   urls,
		Status: entity.GenerationStatusSucceed,
		Kind:   entity.MediaKindVideo,
	}, nil
}
