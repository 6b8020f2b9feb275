package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"mediaforge/internal/entity"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	currentUserContextKey = "current-user"
)

// RequestUser 存储请求上下文中的认证用户信息
type RequestUser struct {
	ID          uint
	Email       string
	DisplayName string
	Role        string
}

// IsAdmin 判断用户是否具有管理员权限
func (u *RequestUser) IsAdmin() bool {
	if u == nil {
		return false
	}
	switch u.Role {
	case entity.UserRoleAdmin, entity.UserRoleSuperAdmin:
		return true
	default:
		return false
	}
}

// IsSuperAdmin 判断用户是否为超级管理员
func (u *RequestUser) IsSuperAdmin() bool {
	if u == nil {
		return false
	}
	return u.Role == entity.UserRoleSuperAdmin
}

// AuthMiddleware JWT 认证中间件
func (h *HTTPHandler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, errCode, status := h.resolveRequestUser(c)
		if errCode != "" {
			c.AbortWithStatusJSON(status, APIError{
				Code:    errCode,
				Message: authErrorMessage(errCode),
			})
			return
		}

		c.Set(currentUserContextKey, user)
		c.Next()
	}
}

// OptionalAuthMiddleware 可选认证：带合法 Token 时填充用户信息，
// 匿名请求放行。工作流端点用它支持免费工具的匿名调用。
func (h *HTTPHandler) OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.TrimSpace(c.GetHeader("Authorization")) == "" {
			c.Next()
			return
		}

		user, errCode, status := h.resolveRequestUser(c)
		if errCode != "" {
			c.AbortWithStatusJSON(status, APIError{
				Code:    errCode,
				Message: authErrorMessage(errCode),
			})
			return
		}

		c.Set(currentUserContextKey, user)
		c.Next()
	}
}

// resolveRequestUser 解析授权头并加载用户，返回错误码与对应状态码。
func (h *HTTPHandler) resolveRequestUser(c *gin.Context) (*RequestUser, string, int) {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader == "" {
		return nil, ErrCodeUnauthorized, http.StatusUnauthorized
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, ErrCodeUnauthorized, http.StatusUnauthorized
	}

	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		return nil, ErrCodeUnauthorized, http.StatusUnauthorized
	}

	claims, err := h.authManager.ParseToken(tokenString)
	if err != nil {
		logrus.WithError(err).Warn("failed to parse jwt token")
		return nil, ErrCodeSessionExpired, http.StatusUnauthorized
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user, err := h.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCodeUserNotFound, http.StatusUnauthorized
		}
		logrus.WithError(err).WithField("user_id", claims.UserID).Error("failed to load user")
		return nil, ErrCodeInternalError, http.StatusInternalServerError
	}

	if !user.IsActive {
		return nil, ErrCodeUserDisabled, http.StatusForbidden
	}

	return &RequestUser{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
	}, "", 0
}

func authErrorMessage(code string) string {
	switch code {
	case ErrCodeSessionExpired:
		return "Token 无效或已过期"
	case ErrCodeUserNotFound:
		return "用户不存在"
	case ErrCodeUserDisabled:
		return "账户已被禁用"
	case ErrCodeInternalError:
		return "验证用户失败"
	default:
		return "缺少或无效的授权头"
	}
}

// RequireAdmin 管理员权限守卫中间件
func (h *HTTPHandler) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, APIError{
				Code:    ErrCodeForbidden,
				Message: "需要管理员权限",
			})
			return
		}
		c.Next()
	}
}

// CurrentUser 从上下文获取当前认证用户
func CurrentUser(c *gin.Context) *RequestUser {
	value, exists := c.Get(currentUserContextKey)
	if !exists {
		return nil
	}
	user, ok := value.(*RequestUser)
	if !ok {
		return nil
	}
	return user
}

// CurrentUserID 返回当前用户 ID，匿名请求返回 AnonymousUserID。
func CurrentUserID(c *gin.Context) uint {
	user := CurrentUser(c)
	if user == nil {
		return entity.AnonymousUserID
	}
	return user.ID
}
