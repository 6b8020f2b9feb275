package tool

import (
	"mediaforge/internal/entity"
	"testing"
)

func TestVeo3Validate(t *testing.T) {
	tool := NewVeo3FastPreview("test-token")

	tests := []struct {
		name    string
		params  entity.JSONMap
		wantErr bool
	}{
		{
			name:    "valid params",
			params:  entity.JSONMap{"prompt": "a cat surfing", "ratio": "16:9"},
			wantErr: false,
		},
		{
			name:    "with negative prompt",
			params:  entity.JSONMap{"prompt": "a cat surfing", "negativePrompt": "blurry", "ratio": "16:9"},
			wantErr: false,
		},
		{
			name:    "unsupported ratio",
			params:  entity.JSONMap{"prompt": "a cat surfing", "ratio": "9:16"},
			wantErr: true,
		},
		{
			name:    "missing prompt",
			params:  entity.JSONMap{"ratio": "16:9"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		_, err := tool.Validate(tt.params)
		if tt.wantErr && err == nil {
			t.Fatalf("%s: expected error, got none", tt.name)
		}
		if !tt.wantErr && err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
	}
}

func TestVeo3BuildTaskRequest(t *testing.T) {
	tool := NewVeo3FastPreview("test-token")

	spec, err := tool.BuildTaskRequest(entity.JSONMap{
		"prompt": "a cat surfing",
		"ratio":  "16:9",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.URL != veo3SubmitURL {
		t.Fatalf("unexpected url: %s", spec.URL)
	}
	if got := spec.Headers["x-goog-api-key"]; got != "test-token" {
		t.Fatalf("unexpected api key header: %q", got)
	}
}

func TestVeo3ProcessTaskResponse(t *testing.T) {
	tool := NewVeo3FastPreview("test-token")

	name, err := tool.ProcessTaskResponse([]byte(`{"name":"models/veo-3.0-fast-generate-preview/operations/abc123"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "models/veo-3.0-fast-generate-preview/operations/abc123" {
		t.Fatalf("unexpected operation name: %q", name)
	}

	if _, err := tool.ProcessTaskResponse([]byte(`{}`)); err == nil {
		t.Fatal("expected error for missing name")
	}
}

func TestVeo3BuildTaskStatusRequest(t *testing.T) {
	tool := NewVeo3FastPreview("test-token")

	spec, err := tool.BuildTaskStatusRequest("models/veo-3.0-fast-generate-preview/operations/abc123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "https://generativelanguage.googleapis.com/v1beta/models/veo-3.0-fast-generate-preview/operations/abc123"
	if spec.URL != want {
		t.Fatalf("expected %s, got %s", want, spec.URL)
	}
}

func TestVeo3ProcessTaskStatusResponse(t *testing.T) {
	tool := NewVeo3FastPreview("test-token")

	tests := []struct {
		name       string
		body       string
		wantStatus entity.GenerationStatus
		wantURLs   int
	}{
		{
			name:       "not done",
			body:       `{"done":false}`,
			wantStatus: entity.GenerationStatusProcessing,
			wantURLs:   0,
		},
		{
			name:       "done with video",
			body:       `{"done":true,"response":{"generateVideoResponse":{"generatedSamples":[{"video":{"uri":"https://example.com/video.mp4"}}]}}}`,
			wantStatus: entity.GenerationStatusSucceed,
			wantURLs:   1,
		},
		{
			name:       "done with error",
			body:       `{"done":true,"error":{"message":"safety filter"}}`,
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
		if result.Kind != entity.MediaKindVideo {
			t.Fatalf("%s: expected video kind, got %s", tt.name, result.Kind)
		}
	}
}
