package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"mediaforge/internal/entity"
)

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/generate" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("unexpected authorization header: %q", got)
		}

		var req entity.GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Tool != "ai-image-generator" {
			t.Errorf("unexpected tool: %q", req.Tool)
		}
		if req.Parameters["prompt"] != "a red fox in the snow" {
			t.Errorf("unexpected prompt: %v", req.Parameters["prompt"])
		}

		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]string{"record_id": "rec-123"},
		})
	}))
	defer server.Close()

	c := New(server.URL, WithToken("test-token"))

	recordID, err := c.Generate(context.Background(), "ai-image-generator", entity.JSONMap{
		"prompt": "a red fox in the snow",
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if recordID != "rec-123" {
		t.Errorf("expected record id rec-123, got %q", recordID)
	}
}

func TestGenerateAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"code":    "ERR_INSUFFICIENT_POINTS",
			"message": "insufficient points",
		})
	}))
	defer server.Close()

	c := New(server.URL)

	_, err := c.Generate(context.Background(), "veo-3-fast-generate-preview", entity.JSONMap{"prompt": "ocean waves at dusk"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Code != "ERR_INSUFFICIENT_POINTS" {
		t.Errorf("unexpected error code: %q", apiErr.Code)
	}
	if apiErr.StatusCode != http.StatusPaymentRequired {
		t.Errorf("unexpected status code: %d", apiErr.StatusCode)
	}
}

func TestGenerateEmptyTool(t *testing.T) {
	c := New("http://localhost:0")
	if _, err := c.Generate(context.Background(), "  ", nil); err == nil {
		t.Fatal("expected error for empty tool")
	}
}

func TestWaitForRecordSucceeds(t *testing.T) {
	var calls atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/record/rec-9" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		n := calls.Add(1)
		result := entity.PollResult{Status: entity.GenerationStatusProcessing, URLs: []string{}, Type: "video"}
		if n >= 3 {
			result = entity.PollResult{
				Status: entity.GenerationStatusSucceed,
				URLs:   []string{"/files/outputs/rec-9.mp4"},
				Type:   "video",
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"success": true, "data": result})
	}))
	defer server.Close()

	c := New(server.URL)

	result, err := c.WaitForRecord(context.Background(), "rec-9", PollConfig{
		Interval:    10 * time.Millisecond,
		MaxAttempts: 10,
	})
	if err != nil {
		t.Fatalf("WaitForRecord returned error: %v", err)
	}
	if result.Status != entity.GenerationStatusSucceed {
		t.Errorf("expected status succeed, got %q", result.Status)
	}
	if len(result.URLs) != 1 || result.URLs[0] != "/files/outputs/rec-9.mp4" {
		t.Errorf("unexpected urls: %v", result.URLs)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 poll calls, got %d", got)
	}
}

func TestWaitForRecordFailedTask(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    entity.PollResult{Status: entity.GenerationStatusFailed, URLs: []string{}, Type: "image"},
		})
	}))
	defer server.Close()

	c := New(server.URL)

	result, err := c.WaitForRecord(context.Background(), "rec-1", PollConfig{
		Interval:    5 * time.Millisecond,
		MaxAttempts: 5,
	})
	if err == nil {
		t.Fatal("expected error for failed task")
	}
	if result == nil || result.Status != entity.GenerationStatusFailed {
		t.Errorf("expected failed poll result alongside error, got %+v", result)
	}
}

func TestWaitForRecordExhaustsAttempts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    entity.PollResult{Status: entity.GenerationStatusProcessing, URLs: []string{}, Type: "image"},
		})
	}))
	defer server.Close()

	c := New(server.URL)

	_, err := c.WaitForRecord(context.Background(), "rec-1", PollConfig{
		Interval:    5 * time.Millisecond,
		MaxAttempts: 3,
	})
	if !errors.Is(err, ErrPollExhausted) {
		t.Fatalf("expected ErrPollExhausted, got %v", err)
	}
}

func TestWaitForRecordContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    entity.PollResult{Status: entity.GenerationStatusProcessing, URLs: []string{}, Type: "image"},
		})
	}))
	defer server.Close()

	c := New(server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()

	_, err := c.WaitForRecord(ctx, "rec-1", PollConfig{
		Interval:    10 * time.Millisecond,
		MaxAttempts: 100,
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline error, got %v", err)
	}
}

func TestPollRecordRequiresID(t *testing.T) {
	c := New("http://localhost:0")
	if _, err := c.PollRecord(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty record id")
	}
}
