package api

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"mediaforge/internal/entity"
	"mediaforge/internal/storage"
	"mediaforge/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// maxUploadBytes 限制单个内联上传解码后的大小。
const maxUploadBytes = 20 << 20

// UploadMedia 接收内联 base64 或 data URL 形式的媒体文件，转存到
// 对象存储并登记为用户上传的资源。
func (h *HTTPHandler) UploadMedia(c *gin.Context) {
	var req entity.MediaUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	data, ext, err := utils.DecodeMediaPayload(req.Payload)
	if err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid media payload")
		return
	}
	if len(data) > maxUploadBytes {
		BadRequest(c, ErrCodeInvalidRequest, "media payload too large")
		return
	}

	// 客户端文件名里的扩展名优先于嗅探结果
	if req.FileName != "" {
		if fromName := strings.TrimPrefix(strings.ToLower(filepath.Ext(req.FileName)), "."); fromName != "" {
			if utils.MimeFromExtension(fromName) != "" {
				ext = fromName
			}
		}
	}

	mimeType := utils.MimeFromExtension(ext)
	kind := entity.MediaKindImage
	if strings.HasPrefix(mimeType, "video/") {
		kind = entity.MediaKindVideo
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	path, err := h.storage.Save(ctx, data, storage.SaveOptions{
		Category:  "uploads",
		Extension: ext,
	})
	if err != nil {
		logrus.WithError(err).Error("failed to save uploaded media")
		InternalError(c, "failed to save media")
		return
	}

	media := &entity.DbMedia{
		UserID:       CurrentUserID(c),
		URL:          h.publicURL(path),
		Path:         path,
		MimeType:     mimeType,
		Kind:         kind,
		Tags:         entity.StringArray(req.Tags),
		UploadSource: entity.MediaUploadSourceUser,
	}
	if err := h.repo.CreateMedia(ctx, media); err != nil {
		logrus.WithError(err).Error("failed to register uploaded media")
		InternalError(c, "failed to save media")
		return
	}

	SuccessWithStatus(c, http.StatusCreated, entity.MediaUploadResponse{
		ID:   media.ID,
		URL:  media.URL,
		Kind: media.Kind,
	})
}

// ListMedia 返回媒体资源列表（管理端）。
func (h *HTTPHandler) ListMedia(c *gin.Context) {
	var query entity.MediaQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	medias, meta, err := h.repo.ListMedia(ctx, &query)
	if err != nil {
		logrus.WithError(err).Error("failed to list media")
		InternalError(c, "failed to list media")
		return
	}

	items := make([]entity.RecordMedia, 0, len(medias))
	for idx := range medias {
		media := medias[idx]
		items = append(items, entity.RecordMedia{
			ID:          media.ID,
			URL:         h.mediaURL(&media),
			MimeType:    media.MimeType,
			Kind:        media.Kind,
			AspectRatio: media.AspectRatio,
			Tags:        media.Tags.ToSlice(),
		})
	}

	Success(c, gin.H{"media": items, "meta": meta})
}

// UpdateMedia 编辑媒体资源的展示属性（管理端）。
func (h *HTTPHandler) UpdateMedia(c *gin.Context) {
	mediaID := strings.TrimSpace(c.Param("id"))
	if mediaID == "" {
		MissingField(c, "id")
		return
	}

	var req entity.MediaUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	var updates entity.MediaUpdates
	if req.AspectRatio != nil {
		updates.AspectRatio = req.AspectRatio
	}
	if req.Tags != nil {
		tags := entity.StringArray(*req.Tags)
		updates.Tags = &tags
	}
	if req.Meta != nil {
		meta := entity.JSONMap(*req.Meta)
		updates.Meta = &meta
	}
	if updates.IsEmpty() {
		BadRequest(c, ErrCodeInvalidRequest, "no fields to update")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.UpdateMedia(ctx, mediaID, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeMediaNotFound, "media not found")
			return
		}
		logrus.WithError(err).WithField("media_id", mediaID).Error("failed to update media")
		InternalError(c, "failed to update media")
		return
	}

	Success(c, gin.H{"id": mediaID})
}

// DeleteMedia 软删除一项媒体资源（管理端）。
func (h *HTTPHandler) DeleteMedia(c *gin.Context) {
	mediaID := strings.TrimSpace(c.Param("id"))
	if mediaID == "" {
		MissingField(c, "id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.SoftDeleteMedia(ctx, mediaID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeMediaNotFound, "media not found")
			return
		}
		logrus.WithError(err).WithField("media_id", mediaID).Error("failed to delete media")
		InternalError(c, "failed to delete media")
		return
	}

	Success(c, gin.H{"id": mediaID})
}
