package entity

// UserUpdates 用户更新字段
type UserUpdates struct {
	DisplayName  *string
	Role         *string
	PasswordHash *string
	IsActive     *bool
	Points       *int
}

// ToMap 转换为 GORM 更新 map（内部使用）
func (u UserUpdates) ToMap() map[string]interface{} {
	updates := make(map[string]interface{})
	if u.DisplayName != nil {
		updates["display_name"] = *u.DisplayName
	}
	if u.Role != nil {
		updates["role"] = *u.Role
	}
	if u.PasswordHash != nil {
		updates["password_hash"] = *u.PasswordHash
	}
	if u.IsActive != nil {
		updates["is_active"] = *u.IsActive
	}
	if u.Points != nil {
		updates["points"] = *u.Points
	}
	return updates
}

// IsEmpty 检查是否没有任何更新字段
func (u UserUpdates) IsEmpty() bool {
	return len(u.ToMap()) == 0
}

// MediaUpdates 媒体更新字段
type MediaUpdates struct {
	AspectRatio *string
	Tags        *StringArray
	Meta        *JSONMap
	IsDelete    *bool
}

// ToMap 转换为 GORM 更新 map（内部使用）
func (u MediaUpdates) ToMap() map[string]interface{} {
	updates := make(map[string]interface{})
	if u.AspectRatio != nil {
		updates["aspect_ratio"] = *u.AspectRatio
	}
	if u.Tags != nil {
		updates["tags"] = *u.Tags
	}
	if u.Meta != nil {
		updates["meta"] = *u.Meta
	}
	if u.IsDelete != nil {
		updates["is_delete"] = *u.IsDelete
	}
	return updates
}

// IsEmpty 检查是否没有任何更新字段
func (u MediaUpdates) IsEmpty() bool {
	return len(u.ToMap()) == 0
}
