package tool

import (
	"encoding/json"
	"mediaforge/internal/entity"
	"testing"
)

func TestAnimalsCameraValidate(t *testing.T) {
	tool := NewAnimalsCaughtOnCamera("test-token")

	if _, err := tool.Validate(entity.JSONMap{"image": "https://example.com/cat.png"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := tool.Validate(entity.JSONMap{}); err == nil {
		t.Fatal("expected error for missing image")
	}
	if _, err := tool.Validate(entity.JSONMap{"image": ""}); err == nil {
		t.Fatal("expected error for empty image")
	}
}

func TestAnimalsCameraBuildTaskRequest(t *testing.T) {
	tool := NewAnimalsCaughtOnCamera("test-token")

	spec, err := tool.BuildTaskRequest(entity.JSONMap{"image": "https://example.com/cat.png"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.URL != klingSubmitURL {
		t.Fatalf("unexpected url: %s", spec.URL)
	}
	if got := spec.Headers["Authorization"]; got != "Bearer test-token" {
		t.Fatalf("unexpected auth header: %q", got)
	}

	raw, err := json.Marshal(spec.Body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	var body struct {
		ModelName string `json:"model_name"`
		ImageList []struct {
			Image string `json:"image"`
		} `json:"image_list"`
		Prompt string `json:"prompt"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if body.ModelName != klingEffectModel {
		t.Fatalf("unexpected model: %q", body.ModelName)
	}
	if len(body.ImageList) != 1 || body.ImageList[0].Image != "https://example.com/cat.png" {
		t.Fatalf("unexpected image list: %#v", body.ImageList)
	}
	if body.Prompt == "" {
		t.Fatal("expected built-in scene prompt")
	}
}

func TestAnimalsCameraStatusRequestCarriesDownloadAuth(t *testing.T) {
	tool := NewAnimalsCaughtOnCamera("test-token")

	spec, err := tool.BuildTaskStatusRequest("task-42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := spec.DownloadHeaders["Authorization"]; got != "Bearer test-token" {
		t.Fatalf("expected download auth header, got %q", got)
	}
}

func TestAnimalsCameraProcessTaskResponse(t *testing.T) {
	tool := NewAnimalsCaughtOnCamera("test-token")

	id, err := tool.ProcessTaskResponse([]byte(`{"code":0,"data":{"task_id":"task-42"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "task-42" {
		t.Fatalf("expected task-42, got %q", id)
	}

	if _, err := tool.ProcessTaskResponse([]byte(`{"code":1,"message":"invalid token"}`)); err == nil {
		t.Fatal("expected error for failed submit")
	}
}

func TestAnimalsCameraProcessTaskStatusResponse(t *testing.T) {
	tool := NewAnimalsCaughtOnCamera("test-token")

	tests := []struct {
		name       string
		body       string
		wantStatus entity.GenerationStatus
		wantURLs   int
	}{
		{
			name:       "still processing",
			body:       `{"code":0,"data":{"task_status":"processing"}}`,
			wantStatus: entity.GenerationStatusProcessing,
			wantURLs:   0,
		},
		{
			name:       "non-zero code treated as processing",
			body:       `{"code":500,"data":{"task_status":"succeed"}}`,
			wantStatus: entity.GenerationStatusProcessing,
			wantURLs:   0,
		},
		{
			name:       "succeeded with video",
			body:       `{"code":0,"data":{"task_status":"succeed","task_result":{"videos":[{"url":"https://cdn.example.com/v.mp4"}]}}}`,
			wantStatus: entity.GenerationStatusSucceed,
			wantURLs:   1,
		},
		{
			name:       "failed",
			body:       `{"code":0,"data":{"task_status":"failed"}}`,
			wantStatus: entity.GenerationStatusFailed,
			wantURLs:   0,
		},
	}

	for _, tt := range tests {
		result, err := tool.ProcessTaskStatusResponse([]byte(tt.body))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if result.Status != tt.wantStatus {
			t.Fatalf("%s: expected status %s, got %s", tt.name, tt.wantStatus, result.Status)
		}
		if len(result.URLs) != tt.wantURLs {
			t.Fatalf("%s: expected %d urls, got %d", tt.name, tt.wantURLs, len(result.URLs))
		}
	}
}

func TestRegistryLookup(t *testing.T) {
	registry := NewEmptyRegistry()
	registry.Register(NewFluxSchnell("a"))
	registry.Register(NewVeo3FastPreview("b"))
	registry.Register(NewAnimalsCaughtOnCamera("c"))

	if _, ok := registry.Get("ai-image-generator"); !ok {
		t.Fatal("expected flux handler to be registered")
	}
	if _, ok := registry.Get("nonexistent-tool"); ok {
		t.Fatal("expected lookup miss for unknown tool")
	}

	names := registry.Names()
	if len(names) != 3 {
		t.Fatalf("expected 3 tools, got %d", len(names))
	}
}
