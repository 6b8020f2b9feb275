package api

import (
	"context"
	"errors"
	"strings"
	"time"

	"mediaforge/internal/entity"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ListRecords 返回生成记录列表。普通用户只能看到本人及公开的记录，
// 管理员可以看到全部。
func (h *HTTPHandler) ListRecords(c *gin.Context) {
	var query entity.RecordQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		InvalidPayload(c)
		return
	}

	user := CurrentUser(c)
	query.UserID = CurrentUserID(c)
	query.IncludeAll = user.IsAdmin()

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	records, meta, err := h.repo.ListRecords(ctx, &query)
	if err != nil {
		logrus.WithError(err).Error("failed to list records")
		InternalError(c, "failed to list records")
		return
	}

	items := make([]entity.RecordItem, 0, len(records))
	for i := range records {
		items = append(items, h.makeRecordItem(&records[i]))
	}

	Success(c, entity.RecordListResponse{Records: items, Meta: meta})
}

// GetRecord 返回单条生成记录详情。
func (h *HTTPHandler) GetRecord(c *gin.Context) {
	recordID := strings.TrimSpace(c.Param("id"))
	if recordID == "" {
		MissingField(c, "id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	record, err := h.repo.GetRecord(ctx, recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeRecordNotFound, "record not found")
			return
		}
		logrus.WithError(err).WithField("record_id", recordID).Error("failed to load record")
		InternalError(c, "failed to load record")
		return
	}

	user := CurrentUser(c)
	if !record.IsPublic && record.UserID != CurrentUserID(c) && !user.IsAdmin() {
		NotFound(c, ErrCodeRecordNotFound, "record not found")
		return
	}

	Success(c, h.makeRecordItem(record))
}

// DeleteRecord 软删除一条生成记录。普通用户只能删除本人的记录。
func (h *HTTPHandler) DeleteRecord(c *gin.Context) {
	recordID := strings.TrimSpace(c.Param("id"))
	if recordID == "" {
		MissingField(c, "id")
		return
	}

	user := CurrentUser(c)
	ownerScope := CurrentUserID(c)
	if user.IsAdmin() {
		ownerScope = 0
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.SoftDeleteRecord(ctx, recordID, ownerScope); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeRecordNotFound, "record not found")
			return
		}
		logrus.WithError(err).WithField("record_id", recordID).Error("failed to delete record")
		InternalError(c, "failed to delete record")
		return
	}

	Success(c, gin.H{"id": recordID})
}

func (h *HTTPHandler) makeRecordItem(record *entity.DbRecord) entity.RecordItem {
	item := entity.RecordItem{
		ID:            record.ID,
		Tool:          record.Tool,
		Type:          record.Type,
		Parameters:    record.Parameters,
		Status:        record.Status,
		ExpectedCount: record.ExpectedCount,
		PointsCount:   record.PointsCount,
		IsPublic:      record.IsPublic,
		CreatedAt:     record.CreatedAt,
		Medias:        []entity.RecordMedia{},
	}
	if record.Task != nil {
		item.TaskStatus = record.Task.Status
	}
	for idx := range record.Medias {
		media := record.Medias[idx]
		item.Medias = append(item.Medias, entity.RecordMedia{
			ID:          media.ID,
			URL:         h.mediaURL(&media),
			MimeType:    media.MimeType,
			Kind:        media.Kind,
			AspectRatio: media.AspectRatio,
			Tags:        media.Tags.ToSlice(),
		})
	}
	return item
}
