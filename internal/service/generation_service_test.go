package service

import (
	"bytes"
	"context"
	"encoding/json"
	"mediaforge/internal/entity"
	"mediaforge/internal/storage"
	"mediaforge/internal/tool"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"gorm.io/gorm"
)

// fakeRepo 是内存版仓储，供服务层测试使用。
type fakeRepo struct {
	mu      sync.Mutex
	users   map[uint]*entity.DbUser
	records map[string]*entity.DbRecord
	tasks   map[string]*entity.DbTask
	medias  []*entity.DbMedia
	nextID  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:   make(map[uint]*entity.DbUser),
		records: make(map[string]*entity.DbRecord),
		tasks:   make(map[string]*entity.DbTask),
	}
}

func (f *fakeRepo) CreateUser(ctx context.Context, user *entity.DbUser) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
	return nil
}

func (f *fakeRepo) UpdateUser(ctx context.Context, id uint, updates entity.UserUpdates) error {
	return nil
}

func (f *fakeRepo) GetUserByEmail(ctx context.Context, email string) (*entity.DbUser, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) GetUserByID(ctx context.Context, id uint) (*entity.DbUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeRepo) ListUsers(ctx context.Context, params *entity.UserQuery) ([]entity.DbUser, *entity.Meta, error) {
	return nil, nil, nil
}

func (f *fakeRepo) DeleteUser(ctx context.Context, id uint) error { return nil }

func (f *fakeRepo) CountUsers(ctx context.Context) (int64, error) { return 0, nil }

func (f *fakeRepo) DebitUserPoints(ctx context.Context, userID uint, points int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok || user.Points < points {
		return false, nil
	}
	user.Points -= points
	return true, nil
}

func (f *fakeRepo) CreditUserPoints(ctx context.Context, userID uint, points int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.Points += points
	return nil
}

func (f *fakeRepo) CreateRecord(ctx context.Context, record *entity.DbRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if record.ID == "" {
		f.nextID++
		record.ID = "record-" + strconv.Itoa(f.nextID)
	}
	f.records[record.ID] = record
	return nil
}

func (f *fakeRepo) GetRecord(ctx context.Context, id string) (*entity.DbRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return record, nil
}

func (f *fakeRepo) UpdateRecordStatus(ctx context.Context, id string, status entity.RecordStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	record.Status = status
	return nil
}

func (f *fakeRepo) ListRecords(ctx context.Context, params *entity.RecordQuery) ([]entity.DbRecord, *entity.Meta, error) {
	return nil, nil, nil
}

func (f *fakeRepo) SoftDeleteRecord(ctx context.Context, id string, userID uint) error { return nil }

func (f *fakeRepo) CreateTask(ctx context.Context, task *entity.DbTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if task.ID == "" {
		task.ID = "task-" + task.RecordID
	}
	if task.Status == "" {
		task.Status = entity.GenerationStatusWaiting
	}
	f.tasks[task.ID] = task
	return nil
}

func (f *fakeRepo) GetTaskWithRecord(ctx context.Context, recordID string) (*entity.DbTask, *entity.DbRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, task := range f.tasks {
		if task.RecordID == recordID {
			record, ok := f.records[recordID]
			if !ok {
				return nil, nil, gorm.ErrRecordNotFound
			}
			return task, record, nil
		}
	}
	return nil, nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) AdvanceTaskStatus(ctx context.Context, id string, status entity.GenerationStatus, result entity.JSONMap) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok {
		return nil
	}
	if task.Status.IsTerminal() {
		return nil
	}
	task.Status = status
	task.Result = result
	return nil
}

func (f *fakeRepo) CreateMedia(ctx context.Context, media *entity.DbMedia) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if media.ID == "" {
		media.ID = "media-" + media.RecordID
	}
	f.medias = append(f.medias, media)
	return nil
}

func (f *fakeRepo) ListMedia(ctx context.Context, params *entity.MediaQuery) ([]entity.DbMedia, *entity.Meta, error) {
	return nil, nil, nil
}

func (f *fakeRepo) ListMediaByRecord(ctx context.Context, recordID string) ([]entity.DbMedia, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.DbMedia
	for _, media := range f.medias {
		if media.RecordID == recordID {
			out = append(out, *media)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateMedia(ctx context.Context, id string, updates entity.MediaUpdates) error {
	return nil
}

func (f *fakeRepo) SoftDeleteMedia(ctx context.Context, id string) error { return nil }

// stubHandler 是可配置的工具实现，请求指向测试服务器。
type stubHandler struct {
	name            string
	kind            string
	cost            int
	validateErr     error
	submitURL       string
	statusURL       string
	downloadHeaders map[string]string
	statusResult    *tool.StatusResult
	statusCalls     int
}

func (h *stubHandler) Name() string { return h.name }

func (h *stubHandler) ReturnType() string { return h.kind }

func (h *stubHandler) CalculatePoints(params entity.JSONMap) int { return h.cost }

func (h *stubHandler) Validate(params entity.JSONMap) (entity.JSONMap, error) {
	if h.validateErr != nil {
		return nil, h.validateErr
	}
	return params, nil
}

func (h *stubHandler) BuildTaskRequest(params entity.JSONMap) (*tool.RequestSpec, error) {
	return &tool.RequestSpec{
		URL:     h.submitURL,
		Method:  http.MethodPost,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    map[string]interface{}{"params": map[string]interface{}(params)},
	}, nil
}

func (h *stubHandler) ProcessTaskResponse(body []byte) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (h *stubHandler) BuildTaskStatusRequest(externalTaskID string) (*tool.RequestSpec, error) {
	h.statusCalls++
	return &tool.RequestSpec{
		URL:             h.statusURL,
		Method:          http.MethodGet,
		Headers:         map[string]string{},
		DownloadHeaders: h.downloadHeaders,
	}, nil
}

func (h *stubHandler) ProcessTaskStatusResponse(body []byte) (*tool.StatusResult, error) {
	if h.statusResult != nil {
		return h.statusResult, nil
	}
	return &tool.StatusResult{URLs: []string{}, Status: entity.GenerationStatusProcessing, Kind: h.kind}, nil
}

func newTestService(t *testing.T, repo *fakeRepo, handlers ...tool.Handler) *GenerationService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("create storage: %v", err)
	}
	registry := tool.NewEmptyRegistry()
	for _, h := range handlers {
		registry.Register(h)
	}
	return NewGenerationService(repo, registry, store, "/files")
}

func TestGenerateUnsupportedTool(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)

	_, err := svc.Generate(context.Background(), 1, entity.GenerateRequest{
		Tool:       "nonexistent",
		Parameters: entity.JSONMap{},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if WorkflowKind(err) != ErrKindUnsupportedTool {
		t.Fatalf("expected %s, got %s", ErrKindUnsupportedTool, WorkflowKind(err))
	}
	if len(repo.records) != 0 {
		t.Fatalf("expected no records, got %d", len(repo.records))
	}
}

func TestGenerateInvalidParametersNoSideEffects(t *testing.T) {
	repo := newFakeRepo()
	handler := &stubHandler{name: "test-tool", kind: entity.MediaKindImage, validateErr: context.DeadlineExceeded}
	svc := newTestService(t, repo, handler)

	_, err := svc.Generate(context.Background(), 1, entity.GenerateRequest{
		Tool:       "test-tool",
		Parameters: entity.JSONMap{},
	})
	if WorkflowKind(err) != ErrKindInvalidParameters {
		t.Fatalf("expected %s, got %v", ErrKindInvalidParameters, err)
	}
	if len(repo.records) != 0 {
		t.Fatalf("expected no records, got %d", len(repo.records))
	}
}

func TestGenerateAnonymousPaidTool(t *testing.T) {
	repo := newFakeRepo()
	handler := &stubHandler{name: "paid-tool", kind: entity.MediaKindVideo, cost: 5}
	svc := newTestService(t, repo, handler)

	_, err := svc.Generate(context.Background(), entity.AnonymousUserID, entity.GenerateRequest{
		Tool:       "paid-tool",
		Parameters: entity.JSONMap{},
	})
	if WorkflowKind(err) != ErrKindUnauthenticated {
		t.Fatalf("expected %s, got %v", ErrKindUnauthenticated, err)
	}
	if len(repo.records) != 0 {
		t.Fatalf("expected no records before auth check, got %d", len(repo.records))
	}
}

func TestGenerateInsufficientPoints(t *testing.T) {
	repo := newFakeRepo()
	repo.users[1] = &entity.DbUser{ID: 1, Points: 3}
	handler := &stubHandler{name: "paid-tool", kind: entity.MediaKindVideo, cost: 5}
	svc := newTestService(t, repo, handler)

	_, err := svc.Generate(context.Background(), 1, entity.GenerateRequest{
		Tool:       "paid-tool",
		Parameters: entity.JSONMap{},
	})
	if WorkflowKind(err) != ErrKindInsufficientPoints {
		t.Fatalf("expected %s, got %v", ErrKindInsufficientPoints, err)
	}
	if repo.users[1].Points != 3 {
		t.Fatalf("expected balance unchanged, got %d", repo.users[1].Points)
	}

	// 记录在扣费之前已落库，失败路径要把它置为 fail。
	if len(repo.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(repo.records))
	}
	for _, record := range repo.records {
		if record.Status != entity.RecordStatusFail {
			t.Fatalf("expected record status fail, got %s", record.Status)
		}
	}
}

func TestGenerateSuccess(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"external-1"}`))
	}))
	defer provider.Close()

	repo := newFakeRepo()
	repo.users[1] = &entity.DbUser{ID: 1, Points: 10}
	handler := &stubHandler{name: "paid-tool", kind: entity.MediaKindVideo, cost: 5, submitURL: provider.URL}
	svc := newTestService(t, repo, handler)

	recordID, err := svc.Generate(context.Background(), 1, entity.GenerateRequest{
		Tool:       "paid-tool",
		Parameters: entity.JSONMap{"image": "https://example.com/cat.png"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recordID == "" {
		t.Fatal("expected record id")
	}

	record := repo.records[recordID]
	if record == nil || record.Status != entity.RecordStatusSuccess {
		t.Fatalf("expected record success, got %#v", record)
	}
	if record.PointsCount != 5 {
		t.Fatalf("expected points count 5, got %d", record.PointsCount)
	}
	if repo.users[1].Points != 5 {
		t.Fatalf("expected 5 points left, got %d", repo.users[1].Points)
	}

	var task *entity.DbTask
	for _, candidate := range repo.tasks {
		if candidate.RecordID == recordID {
			task = candidate
		}
	}
	if task == nil {
		t.Fatal("expected task row")
	}
	if task.ExternalTaskID != "external-1" {
		t.Fatalf("unexpected external task id: %q", task.ExternalTaskID)
	}
	if task.Status != entity.GenerationStatusWaiting {
		t.Fatalf("expected waiting task, got %s", task.Status)
	}
}

func TestGenerateDispatchFailureRefundsPoints(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer provider.Close()

	repo := newFakeRepo()
	repo.users[1] = &entity.DbUser{ID: 1, Points: 10}
	handler := &stubHandler{name: "paid-tool", kind: entity.MediaKindVideo, cost: 5, submitURL: provider.URL}
	svc := newTestService(t, repo, handler)

	_, err := svc.Generate(context.Background(), 1, entity.GenerateRequest{
		Tool:       "paid-tool",
		Parameters: entity.JSONMap{},
	})
	if WorkflowKind(err) != ErrKindDispatchFailed {
		t.Fatalf("expected %s, got %v", ErrKindDispatchFailed, err)
	}

	if repo.users[1].Points != 10 {
		t.Fatalf("expected refunded balance 10, got %d", repo.users[1].Points)
	}
	for _, record := range repo.records {
		if record.Status != entity.RecordStatusFail {
			t.Fatalf("expected record fail, got %s", record.Status)
		}
	}
}

func TestGenerateConcurrentDebits(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"external-1"}`))
	}))
	defer provider.Close()

	repo := newFakeRepo()
	repo.users[1] = &entity.DbUser{ID: 1, Points: 5}
	handler := &stubHandler{name: "paid-tool", kind: entity.MediaKindVideo, cost: 5, submitURL: provider.URL}
	svc := newTestService(t, repo, handler)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Generate(context.Background(), 1, entity.GenerateRequest{
				Tool:       "paid-tool",
				Parameters: entity.JSONMap{},
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		if WorkflowKind(err) != ErrKindInsufficientPoints {
			t.Fatalf("unexpected error kind: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly 1 successful debit, got %d", succeeded)
	}
	if repo.users[1].Points != 0 {
		t.Fatalf("expected balance 0, got %d", repo.users[1].Points)
	}
}

func TestPollRecordNotFound(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)

	_, err := svc.PollRecord(context.Background(), "missing")
	if WorkflowKind(err) != ErrKindRecordNotFound {
		t.Fatalf("expected %s, got %v", ErrKindRecordNotFound, err)
	}
}

func seedDispatched(repo *fakeRepo, handlerName, kind string) (string, string) {
	record := &entity.DbRecord{
		ID:     "record-1",
		UserID: 1,
		Tool:   handlerName,
		Type:   kind,
		Status: entity.RecordStatusSuccess,
	}
	repo.records[record.ID] = record
	task := &entity.DbTask{
		ID:             "task-1",
		RecordID:       record.ID,
		ExternalTaskID: "external-1",
		Status:         entity.GenerationStatusWaiting,
	}
	repo.tasks[task.ID] = task
	return record.ID, task.ID
}

func TestPollProcessingPersistsStatus(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"running"}`))
	}))
	defer provider.Close()

	repo := newFakeRepo()
	handler := &stubHandler{
		name:      "test-tool",
		kind:      entity.MediaKindVideo,
		statusURL: provider.URL,
		statusResult: &tool.StatusResult{
			URLs:   []string{},
			Status: entity.GenerationStatusProcessing,
			Kind:   entity.MediaKindVideo,
		},
	}
	svc := newTestService(t, repo, handler)
	recordID, taskID := seedDispatched(repo, handler.name, handler.kind)

	result, err := svc.PollRecord(context.Background(), recordID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != entity.GenerationStatusProcessing {
		t.Fatalf("expected processing, got %s", result.Status)
	}
	if len(result.URLs) != 0 {
		t.Fatalf("expected no urls, got %v", result.URLs)
	}
	if result.Type != entity.MediaKindVideo {
		t.Fatalf("expected video type, got %s", result.Type)
	}
	if repo.tasks[taskID].Status != entity.GenerationStatusProcessing {
		t.Fatalf("expected persisted processing status, got %s", repo.tasks[taskID].Status)
	}
}

func TestPollTerminalShortCircuits(t *testing.T) {
	repo := newFakeRepo()
	handler := &stubHandler{name: "test-tool", kind: entity.MediaKindImage}
	svc := newTestService(t, repo, handler)
	recordID, taskID := seedDispatched(repo, handler.name, handler.kind)

	repo.tasks[taskID].Status = entity.GenerationStatusSucceed
	repo.medias = append(repo.medias, &entity.DbMedia{
		ID:       "media-1",
		RecordID: recordID,
		URL:      "/files/outputs/a.webp",
		Kind:     entity.MediaKindImage,
	})

	result, err := svc.PollRecord(context.Background(), recordID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != entity.GenerationStatusSucceed {
		t.Fatalf("expected succeed, got %s", result.Status)
	}
	if len(result.URLs) != 1 || result.URLs[0] != "/files/outputs/a.webp" {
		t.Fatalf("expected stored media url, got %v", result.URLs)
	}
	if handler.statusCalls != 0 {
		t.Fatalf("expected no outbound status call, got %d", handler.statusCalls)
	}
}

func TestPollSucceedRehostsOutputs(t *testing.T) {
	assets := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer download-token" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		switch r.URL.Path {
		case "/good.mp4":
			w.Header().Set("Content-Type", "video/mp4")
			_, _ = w.Write([]byte("video-bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer assets.Close()

	status := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"done":true}`))
	}))
	defer status.Close()

	repo := newFakeRepo()
	handler := &stubHandler{
		name:            "test-tool",
		kind:            entity.MediaKindVideo,
		statusURL:       status.URL,
		downloadHeaders: map[string]string{"Authorization": "Bearer download-token"},
		statusResult: &tool.StatusResult{
			URLs:   []string{assets.URL + "/good.mp4", assets.URL + "/gone.mp4"},
			Status: entity.GenerationStatusSucceed,
			Kind:   entity.MediaKindVideo,
		},
	}
	svc := newTestService(t, repo, handler)
	recordID, taskID := seedDispatched(repo, handler.name, handler.kind)

	result, err := svc.PollRecord(context.Background(), recordID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != entity.GenerationStatusSucceed {
		t.Fatalf("expected succeed, got %s", result.Status)
	}

	// 两个产物一个下载失败，应该只落一条媒体并返回一个自有地址。
	if len(result.URLs) != 1 {
		t.Fatalf("expected 1 rehosted url, got %v", result.URLs)
	}
	if !strings.HasPrefix(result.URLs[0], "/files/") {
		t.Fatalf("expected owned storage url, got %q", result.URLs[0])
	}
	if len(repo.medias) != 1 {
		t.Fatalf("expected 1 media row, got %d", len(repo.medias))
	}
	if repo.medias[0].Kind != entity.MediaKindVideo {
		t.Fatalf("expected video media, got %s", repo.medias[0].Kind)
	}
	if repo.tasks[taskID].Status != entity.GenerationStatusSucceed {
		t.Fatalf("expected persisted succeed status, got %s", repo.tasks[taskID].Status)
	}
}

func TestPollRehostRejectsOversizedAsset(t *testing.T) {
	small := bytes.Repeat([]byte("a"), 32)
	big := bytes.Repeat([]byte("b"), 256)
	assets := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		switch r.URL.Path {
		case "/small.mp4":
			_, _ = w.Write(small)
		default:
			_, _ = w.Write(big)
		}
	}))
	defer assets.Close()

	status := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"done":true}`))
	}))
	defer status.Close()

	repo := newFakeRepo()
	handler := &stubHandler{
		name:      "test-tool",
		kind:      entity.MediaKindVideo,
		statusURL: status.URL,
		statusResult: &tool.StatusResult{
			URLs:   []string{assets.URL + "/small.mp4", assets.URL + "/big.mp4"},
			Status: entity.GenerationStatusSucceed,
			Kind:   entity.MediaKindVideo,
		},
	}

	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	if err != nil {
		t.Fatalf("create storage: %v", err)
	}
	registry := tool.NewEmptyRegistry()
	registry.Register(handler)
	svc := NewGenerationService(repo, registry, store, "/files")
	svc.maxAssetBytes = 64
	recordID, _ := seedDispatched(repo, handler.name, handler.kind)

	result, err := svc.PollRecord(context.Background(), recordID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 超限产物整体丢弃，剩下的小文件必须完整落盘。
	if len(result.URLs) != 1 || len(repo.medias) != 1 {
		t.Fatalf("expected 1 rehosted url and 1 media row, got %v / %d", result.URLs, len(repo.medias))
	}
	stored, err := os.ReadFile(filepath.Join(dir, repo.medias[0].Path))
	if err != nil {
		t.Fatalf("read stored asset: %v", err)
	}
	if !bytes.Equal(stored, small) {
		t.Fatalf("stored asset corrupted: got %d bytes, want %d", len(stored), len(small))
	}
}

func TestPollFailedTask(t *testing.T) {
	status := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":0}`))
	}))
	defer status.Close()

	repo := newFakeRepo()
	handler := &stubHandler{
		name:      "test-tool",
		kind:      entity.MediaKindVideo,
		statusURL: status.URL,
		statusResult: &tool.StatusResult{
			URLs:   []string{},
			Status: entity.GenerationStatusFailed,
			Kind:   entity.MediaKindVideo,
		},
	}
	svc := newTestService(t, repo, handler)
	recordID, taskID := seedDispatched(repo, handler.name, handler.kind)

	result, err := svc.PollRecord(context.Background(), recordID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != entity.GenerationStatusFailed {
		t.Fatalf("expected failed, got %s", result.Status)
	}
	if len(result.URLs) != 0 {
		t.Fatalf("expected no urls, got %v", result.URLs)
	}
	if repo.tasks[taskID].Status != entity.GenerationStatusFailed {
		t.Fatalf("expected persisted failed status, got %s", repo.tasks[taskID].Status)
	}
}

func TestNormalisePublicBase(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "空值退回默认", input: "", expected: "/files"},
		{name: "补全前导斜杠", input: "media", expected: "/media"},
		{name: "去掉尾部斜杠", input: "/media/", expected: "/media"},
		{name: "完整域名保留", input: "https://cdn.example.com/", expected: "https://cdn.example.com"},
	}

	for _, tt := range tests {
		if got := normalisePublicBase(tt.input); got != tt.expected {
			t.Fatalf("%s: expected %q, got %q", tt.name, tt.expected, got)
		}
	}
}

func TestExpectedOutputCount(t *testing.T) {
	if got := expectedOutputCount(nil); got != 1 {
		t.Fatalf("expected 1 for nil params, got %d", got)
	}
	if got := expectedOutputCount(entity.JSONMap{"count": float64(3)}); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
	if got := expectedOutputCount(entity.JSONMap{"count": "x"}); got != 1 {
		t.Fatalf("expected 1 for invalid count, got %d", got)
	}
}
