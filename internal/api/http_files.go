package api

import (
	"fmt"
	"strings"

	"mediaforge/internal/entity"
)

func (h *HTTPHandler) publicURL(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed
	}
	base := h.storagePublicBase
	if base == "" {
		base = "/files"
	}
	return fmt.Sprintf("%s/%s", strings.TrimRight(base, "/"), strings.TrimLeft(trimmed, "/"))
}

// mediaURL 优先根据存储路径重建公开地址，兼容只有 URL 的历史数据。
func (h *HTTPHandler) mediaURL(media *entity.DbMedia) string {
	if media == nil {
		return ""
	}
	if strings.TrimSpace(media.Path) != "" {
		return h.publicURL(media.Path)
	}
	return media.URL
}
