package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mediaforge/internal/entity"
	"mediaforge/internal/model"
	"mediaforge/internal/storage"
	"mediaforge/internal/tool"
	"mediaforge/internal/utils"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	dispatchTimeout  = 60 * time.Second
	downloadTimeout  = 5 * time.Minute
	cleanupTimeout   = 5 * time.Second
	pollLoadTimeout  = 5 * time.Second
	pollLoadRetries  = 2
	providerBodyMax  = 10 << 20
	assetBodyMax     = 512 << 20
	errorSnippetSize = 512
)

// GenerationService 封装生成任务的派发与轮询。
type GenerationService struct {
	repo           model.Repository
	registry       *tool.Registry
	storage        storage.Storage
	httpClient     *http.Client
	downloadClient *http.Client
	maxAssetBytes  int64
	publicBase     string
}

// NewGenerationService 创建生成服务实例。
func NewGenerationService(repo model.Repository, registry *tool.Registry, store storage.Storage, publicBase string) *GenerationService {
	return &GenerationService{
		repo:           repo,
		registry:       registry,
		storage:        store,
		httpClient:     &http.Client{Timeout: dispatchTimeout},
		downloadClient: &http.Client{Timeout: downloadTimeout},
		maxAssetBytes:  assetBodyMax,
		publicBase:     normalisePublicBase(publicBase),
	}
}

// Generate 创建一条生成记录并向第三方平台派发任务，返回记录 ID。
func (s *GenerationService) Generate(ctx context.Context, userID uint, req entity.GenerateRequest) (string, error) {
	handler, ok := s.registry.Get(req.Tool)
	if !ok {
		return "", NewWorkflowError(ErrKindUnsupportedTool, fmt.Sprintf("unsupported tool: %s", req.Tool))
	}

	params, err := handler.Validate(req.Parameters)
	if err != nil {
		return "", WrapWorkflowError(ErrKindInvalidParameters, "invalid parameters", err)
	}

	cost := handler.CalculatePoints(params)
	if cost > 0 && userID == entity.AnonymousUserID {
		return "", NewWorkflowError(ErrKindUnauthenticated, "login required for this tool")
	}

	record := &entity.DbRecord{
		UserID:        userID,
		Tool:          handler.Name(),
		Type:          handler.ReturnType(),
		Parameters:    params,
		Status:        entity.RecordStatusWaiting,
		ExpectedCount: expectedOutputCount(params),
		PointsCount:   cost,
	}
	if err := s.repo.CreateRecord(ctx, record); err != nil {
		return "", WrapWorkflowError(ErrKindInternal, "create record", err)
	}

	// 记录落库之后的任何退出路径（包括 panic）都把记录置为 fail
	// 并退还已扣积分，只有完整走到派发成功才跳过清理。
	dispatched := false
	debited := 0
	defer func() {
		if dispatched {
			return
		}
		s.failRecord(record.ID)
		if debited > 0 {
			s.refundPoints(userID, debited)
		}
	}()

	if cost > 0 {
		charged, err := s.repo.DebitUserPoints(ctx, userID, cost)
		if err != nil {
			return "", WrapWorkflowError(ErrKindInternal, "debit points", err)
		}
		if !charged {
			return "", NewWorkflowError(ErrKindInsufficientPoints, fmt.Sprintf("insufficient points, %d required", cost))
		}
		debited = cost
	}

	spec, err := handler.BuildTaskRequest(params)
	if err != nil {
		return "", WrapWorkflowError(ErrKindDispatchFailed, "build task request", err)
	}

	body, err := s.execute(ctx, spec)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"record_id": record.ID,
			"tool":      record.Tool,
		}).Error("failed to dispatch generation request")
		return "", WrapWorkflowError(ErrKindDispatchFailed, "dispatch generation request", err)
	}

	externalTaskID, err := handler.ProcessTaskResponse(body)
	if err != nil {
		return "", WrapWorkflowError(ErrKindDispatchFailed, "parse task response", err)
	}

	task := &entity.DbTask{
		RecordID:       record.ID,
		ExternalTaskID: externalTaskID,
		Status:         entity.GenerationStatusWaiting,
		SubmitAt:       time.Now(),
	}
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return "", WrapWorkflowError(ErrKindInternal, "create task", err)
	}

	if err := s.repo.UpdateRecordStatus(ctx, record.ID, entity.RecordStatusSuccess); err != nil {
		return "", WrapWorkflowError(ErrKindInternal, "update record status", err)
	}
	dispatched = true

	logrus.WithFields(logrus.Fields{
		"record_id":        record.ID,
		"tool":             record.Tool,
		"external_task_id": externalTaskID,
		"points":           cost,
	}).Info("generation task dispatched")

	return record.ID, nil
}

// PollRecord 查询一条记录的生成进度。任务到达终态后转为幂等短路：
// 直接返回库内状态和已转存的媒体地址，不再访问第三方。
func (s *GenerationService) PollRecord(ctx context.Context, recordID string) (*entity.PollResult, error) {
	task, record, err := s.loadTaskWithRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}

	if task.Status.IsTerminal() {
		urls, err := s.ownedMediaURLs(ctx, record.ID)
		if err != nil {
			return nil, WrapWorkflowError(ErrKindInternal, "load media", err)
		}
		return &entity.PollResult{URLs: urls, Status: task.Status, Type: record.Type}, nil
	}

	handler, ok := s.registry.Get(record.Tool)
	if !ok {
		return nil, NewWorkflowError(ErrKindUnsupportedTool, fmt.Sprintf("unsupported tool: %s", record.Tool))
	}

	spec, err := handler.BuildTaskStatusRequest(task.ExternalTaskID)
	if err != nil {
		return nil, WrapWorkflowError(ErrKindInternal, "build status request", err)
	}

	body, err := s.execute(ctx, spec)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"record_id": record.ID,
			"tool":      record.Tool,
		}).Error("failed to query task status")
		return nil, WrapWorkflowError(ErrKindProviderError, "query task status", err)
	}

	result, err := handler.ProcessTaskStatusResponse(body)
	if err != nil {
		return nil, WrapWorkflowError(ErrKindProviderError, "parse status response", err)
	}

	// 每次轮询都持久化观察到的状态；写入带单调保护，终态行不会被改写。
	var raw entity.JSONMap
	_ = json.Unmarshal(body, &raw)
	if err := s.repo.AdvanceTaskStatus(ctx, task.ID, result.Status, raw); err != nil {
		logrus.WithError(err).WithField("task_id", task.ID).Warn("failed to persist task status")
	}

	urls := []string{}
	if result.Status == entity.GenerationStatusSucceed && len(result.URLs) > 0 {
		urls = s.rehostOutputs(ctx, record, task, result.URLs, spec.DownloadHeaders)
	}

	return &entity.PollResult{URLs: urls, Status: result.Status, Type: record.Type}, nil
}

// loadTaskWithRecord 用单条联表查询加载任务与记录，带超时和有限重试。
func (s *GenerationService) loadTaskWithRecord(ctx context.Context, recordID string) (*entity.DbTask, *entity.DbRecord, error) {
	var (
		task   *entity.DbTask
		record *entity.DbRecord
	)

	operation := func() error {
		opCtx, cancel := context.WithTimeout(ctx, pollLoadTimeout)
		defer cancel()

		t, r, err := s.repo.GetTaskWithRecord(opCtx, recordID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return backoff.Permanent(err)
			}
			return err
		}
		task, record = t, r
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), pollLoadRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, NewWorkflowError(ErrKindRecordNotFound, "record not found")
		}
		return nil, nil, WrapWorkflowError(ErrKindInternal, "load record", err)
	}
	return task, record, nil
}

// rehostOutputs 把第三方产物并行转存到自有存储。
// 单个地址失败只记日志跳过，不影响其余产物。
func (s *GenerationService) rehostOutputs(ctx context.Context, record *entity.DbRecord, task *entity.DbTask, sourceURLs []string, downloadHeaders map[string]string) []string {
	results := make([]*entity.DbMedia, len(sourceURLs))

	var wg sync.WaitGroup
	for idx, src := range sourceURLs {
		wg.Add(1)
		go func(idx int, src string) {
			defer wg.Done()
			media, err := s.rehostOne(ctx, record, task, src, idx, downloadHeaders)
			if err != nil {
				logrus.WithError(err).WithFields(logrus.Fields{
					"record_id":  record.ID,
					"source_url": src,
				}).Warn("failed to rehost output")
				return
			}
			results[idx] = media
		}(idx, src)
	}
	wg.Wait()

	urls := make([]string, 0, len(sourceURLs))
	for _, media := range results {
		if media == nil {
			continue
		}
		if err := s.repo.CreateMedia(ctx, media); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"record_id": record.ID,
				"path":      media.Path,
			}).Warn("failed to persist media row")
			continue
		}
		urls = append(urls, media.URL)
	}
	return urls
}

func (s *GenerationService) rehostOne(ctx context.Context, record *entity.DbRecord, task *entity.DbTask, sourceURL string, idx int, downloadHeaders map[string]string) (*entity.DbMedia, error) {
	data, mimeType, err := s.downloadAsset(ctx, sourceURL, downloadHeaders)
	if err != nil {
		return nil, err
	}

	ext := utils.ExtensionFromMime(mimeType)
	if ext == "" {
		mimeType = http.DetectContentType(data)
		ext = utils.ExtensionFromMime(mimeType)
	}
	if ext == "" {
		ext = "bin"
	}

	path, err := s.storage.Save(ctx, data, storage.SaveOptions{
		Category:  "outputs",
		Extension: ext,
		BaseName:  buildOutputBaseName(record.Tool, idx),
	})
	if err != nil {
		return nil, fmt.Errorf("save output: %w", err)
	}

	return &entity.DbMedia{
		UserID:       record.UserID,
		RecordID:     record.ID,
		TaskID:       task.ID,
		URL:          s.publicURL(path),
		Path:         path,
		MimeType:     mimeType,
		Kind:         record.Type,
		AspectRatio:  aspectRatioFromParams(record.Parameters),
		UploadSource: entity.MediaUploadSourceUser,
	}, nil
}

func (s *GenerationService) downloadAsset(ctx context.Context, url string, headers map[string]string) ([]byte, string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create download request: %w", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := s.downloadClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download asset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download asset http %d", resp.StatusCode)
	}

	// 多读一个字节判超限，超限的产物整体放弃，不截断入库。
	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxAssetBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read asset body: %w", err)
	}
	if int64(len(data)) > s.maxAssetBytes {
		return nil, "", fmt.Errorf("asset body exceeds %d bytes", s.maxAssetBytes)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// execute 执行 handler 声明的请求并返回响应体，非 2xx 视为失败。
func (s *GenerationService) execute(ctx context.Context, spec *tool.RequestSpec) ([]byte, error) {
	var reader io.Reader
	if spec.Body != nil {
		raw, err := json.Marshal(spec.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	reqCtx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, spec.Method, spec.URL, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for key, value := range spec.Headers {
		req.Header.Set(key, value)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, providerBodyMax))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("provider http %d: %s", resp.StatusCode, bodySnippet(body))
	}
	return body, nil
}

func (s *GenerationService) ownedMediaURLs(ctx context.Context, recordID string) ([]string, error) {
	medias, err := s.repo.ListMediaByRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(medias))
	for _, media := range medias {
		if media.URL != "" {
			urls = append(urls, media.URL)
		}
	}
	return urls, nil
}

// failRecord 把记录置为 fail，使用独立超时上下文保证清理总能执行。
func (s *GenerationService) failRecord(recordID string) {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	if err := s.repo.UpdateRecordStatus(ctx, recordID, entity.RecordStatusFail); err != nil {
		logrus.WithError(err).WithField("record_id", recordID).Error("failed to mark record failed")
	}
}

// refundPoints 退还派发失败时已扣除的积分（尽力而为，失败记日志）。
func (s *GenerationService) refundPoints(userID uint, points int) {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	if err := s.repo.CreditUserPoints(ctx, userID, points); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"points":  points,
		}).Error("failed to refund points")
	}
}

func (s *GenerationService) publicURL(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed
	}
	base := s.publicBase
	if base == "" {
		base = "/files"
	}
	return fmt.Sprintf("%s/%s", strings.TrimRight(base, "/"), strings.TrimLeft(trimmed, "/"))
}

// normalisePublicBase 规范化公共 URL 基础路径。
func normalisePublicBase(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		trimmed = "/files"
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return strings.TrimRight(trimmed, "/")
	}
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	return strings.TrimRight(trimmed, "/")
}

// expectedOutputCount 从参数里取期望产出数量，缺省为 1。
func expectedOutputCount(params entity.JSONMap) int {
	if params == nil {
		return 1
	}
	if count, ok := params["count"].(float64); ok && count >= 1 {
		return int(count)
	}
	return 1
}

func aspectRatioFromParams(params entity.JSONMap) string {
	if params == nil {
		return ""
	}
	if ratio, ok := params["ratio"].(string); ok {
		return ratio
	}
	return ""
}

func buildOutputBaseName(toolName string, idx int) string {
	token := storage.SanitizeToken(toolName)
	if token == "" {
		token = "tool"
	}
	if len(token) > 32 {
		token = token[:32]
	}
	return fmt.Sprintf("%s_%d_%d", token, time.Now().UTC().UnixNano(), idx)
}

func bodySnippet(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > errorSnippetSize {
		return text[:errorSnippetSize] + "..."
	}
	return text
}
