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
	animalsCameraName  = "animals-caught-on-camera"
	klingSubmitURL     = "https://api.apicore.ai/kling/v1/videos/multi-image2video"
	klingStatusURLFmt  = "https://api.apicore.ai/kling/v1/videos/multi-image2video/%s"
	klingEffectModel   = "kling-v1-6"
	animalsCameraCost  = 5
	animalsCameraScene = "Night-vision surveillance footage, backyard scene, the main figure from the reference image bouncing on a trampoline, grainy green-tinted CCTV aesthetic, motion blur, timestamp overlay, low-resolution quality."
)

// AnimalsCaughtOnCamera 是基于 Kling 多图生视频接口的固定场景特效工具：
// 用户只提供一张参考图，提示词由工具内置。
type AnimalsCaughtOnCamera struct {
	apiToken  string
	submitURL string
	statusURL string
}

type animalsCameraParams struct {
	Image string `json:"image"`
}

func NewAnimalsCaughtOnCamera(apiToken string) *AnimalsCaughtOnCamera {
	return &AnimalsCaughtOnCamera{
		apiToken:  strings.TrimSpace(apiToken),
		submitURL: klingSubmitURL,
		statusURL: klingStatusURLFmt,
	}
}

func (t *AnimalsCaughtOnCamera) Name() string {
	return animalsCameraName
}

func (t *AnimalsCaughtOnCamera) ReturnType() string {
	return entity.MediaKindVideo
}

func (t *AnimalsCaughtOnCamera) CalculatePoints(params entity.JSONMap) int {
	return animalsCameraCost
}

func (t *AnimalsCaughtOnCamera) Validate(params entity.JSONMap) (entity.JSONMap, error) {
	var p animalsCameraParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	err := validation.ValidateStruct(&p,
		validation.Field(&p.Image, validation.Required.Error("图片不能为空")),
	)
	if err != nil {
		return nil, err
	}
	return encodeParams(&p)
}

func (t *AnimalsCaughtOnCamera) BuildTaskRequest(params entity.JSONMap) (*RequestSpec, error) {
	var p animalsCameraParams
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
			"model_name": klingEffectModel,
			"image_list": []map[string]interface{}{
				{"image": p.Image},
			},
			"prompt": animalsCameraScene,
		},
	}, nil
}

func (t *AnimalsCaughtOnCamera) ProcessTaskResponse(body []byte) (string, error) {
	var resp struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    struct {
			TaskID string `json:"task_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("parse kling response: %w", err)
	}
	if resp.Data.TaskID == "" {
		if resp.Message != "" {
			return "", fmt.Errorf("kling submit failed: %s", resp.Message)
		}
		return "", fmt.Errorf("kling response has no task id")
	}
	return resp.Data.TaskID, nil
}

func (t *AnimalsCaughtOnCamera) BuildTaskStatusRequest(externalTaskID string) (*RequestSpec, error) {
	if strings.TrimSpace(externalTaskID) == "" {
		return nil, fmt.Errorf("external task id is empty")
	}
	return &RequestSpec{
		URL:    fmt.Sprintf(t.statusURL, externalTaskID),
		Method: http.MethodGet,
		Headers: jsonHeaders(map[string]string{
			"Authorization": "Bearer " + t.apiToken,
		}),
		// 产物地址同样挂在 APICore 域下，下载时需要带认证头。
		DownloadHeaders: map[string]string{
			"Authorization": "Bearer " + t.apiToken,
		},
	}, nil
}

func (t *AnimalsCaughtOnCamera) ProcessTaskStatusResponse(body []byte) (*StatusResult, error) {
	var resp struct {
		Code int `json:"code"`
		Data struct {
			TaskStatus string `json:"task_status"`
			TaskResult struct {
				Videos []struct {
					URL string `json:"url"`
				} `json:"videos"`
			} `json:"task_result"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse kling status: %w", err)
	}

	if resp.Code == 0 && (resp.Data.TaskStatus == "succeed" || resp.Data.TaskStatus == "failed") {
		if resp.Data.TaskStatus == "failed" {
			return &StatusResult{
				URLs:   []string{},
				Status: entity.GenerationStatusFailed,
				Kind:   entity.MediaKindVideo,
			}, nil
		}

		urls := make([]string, 0, len(resp.Data.TaskResult.Videos))
		for _, video := range resp.Data.TaskResult.Videos {
			if video.URL != "" {
				urls = append(urls, video.URL)
			}
		}
		return &StatusResult{
			URLs:   urls,
			Status: entity.GenerationStatusSucceed,
			Kind:   entity.MediaKindVideo,
		}, nil
	}

	return &StatusResult{
		URLs:   []string{},
		Status: entity.GenerationStatusProcessing,
		Kind:   entity.MediaKindVideo,
	}, nil
}
