package api

import (
	"strings"

	"mediaforge/internal/entity"

	"github.com/gin-gonic/gin"
)

// Generate 创建生成任务，返回可用于轮询的记录 ID。
func (h *HTTPHandler) Generate(c *gin.Context) {
	var req entity.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	recordID, err := h.generationService.Generate(c.Request.Context(), CurrentUserID(c), req)
	if err != nil {
		WorkflowErrorResponse(c, err)
		return
	}

	Success(c, entity.GenerateResponse{RecordID: recordID})
}

// PollRecord 查询生成进度；成功完成时返回转存后的自有媒体地址。
func (h *HTTPHandler) PollRecord(c *gin.Context) {
	recordID := strings.TrimSpace(c.Param("recordId"))
	if recordID == "" {
		MissingField(c, "recordId")
		return
	}

	result, err := h.generationService.PollRecord(c.Request.Context(), recordID)
	if err != nil {
		WorkflowErrorResponse(c, err)
		return
	}

	Success(c, result)
}

// ListTools 返回已注册的工具名称。
func (h *HTTPHandler) ListTools(c *gin.Context) {
	Success(c, gin.H{"tools": h.registry.Names()})
}
