package dto

import "time"

// ── 账号模块 DTO ──

// SignupRequest 注册请求
type SignupRequest struct {
	Username  string `json:"username"   binding:"required,min=3,max=150"`
	Email     string `json:"email"      binding:"required,email,max=254,university_email"`
	Password  string `json:"password"   binding:"required,min=6,max=128"`
	FirstName string `json:"first_name" binding:"omitempty,max=150"`
	LastName  string `json:"last_name"  binding:"omitempty,max=150"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// VerifyEmailRequest 邮箱验证请求
type VerifyEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

// OnboardingRequest 引导资料请求；PUT 时未出现的字段保持不变
type OnboardingRequest struct {
	Majors           []string               `json:"majors"            binding:"omitempty,max=5,dive,min=1,max=100"`
	InterestsHobbies []string               `json:"interests_hobbies" binding:"omitempty,max=20,dive,min=1,max=100"`
	YearOfStudy      *string                `json:"year_of_study"     binding:"omitempty,max=50"`
	GraduationYear   *int                   `json:"graduation_year"   binding:"omitempty,min=1900,max=2100"`
	Privacy          map[string]interface{} `json:"privacy"`
}

// SearchUsersRequest 用户搜索参数
type SearchUsersRequest struct {
	Q string `form:"q" binding:"omitempty,max=100"`
}

// UserListRequest 管理端用户列表参数
type UserListRequest struct {
	PaginationRequest
}

// ── 账号模块响应 ──

// UserResponse 当前用户完整信息
type UserResponse struct {
	ID                  string                 `json:"id"`
	Username            string                 `json:"username"`
	Email               string                 `json:"email"`
	FirstName           string                 `json:"first_name"`
	LastName            string                 `json:"last_name"`
	IsVerified          bool                   `json:"is_verified"`
	IsStaff             bool                   `json:"is_staff"`
	IsSuperuser         bool                   `json:"is_superuser"`
	Majors              []string               `json:"majors"`
	InterestsHobbies    []string               `json:"interests_hobbies"`
	YearOfStudy         string                 `json:"year_of_study"`
	GraduationYear      *int                   `json:"graduation_year"`
	Privacy             map[string]interface{} `json:"privacy"`
	OnboardingCompleted bool                   `json:"onboarding_completed"`
	CreatedAt           time.Time              `json:"created_at"`
}

// UserSummary 对他人可见的用户信息
type UserSummary struct {
	ID               string   `json:"id"`
	Username         string   `json:"username"`
	FirstName        string   `json:"first_name"`
	LastName         string   `json:"last_name"`
	DisplayName      string   `json:"display_name"`
	Majors           []string `json:"majors,omitempty"`
	InterestsHobbies []string `json:"interests_hobbies,omitempty"`
	YearOfStudy      string   `json:"year_of_study,omitempty"`
}

// TaxonomyResponse 专业与兴趣分类
type TaxonomyResponse struct {
	Majors    []string `json:"majors"`
	Interests []string `json:"interests"`
}

// SessionResult 登录/注册结果，Token 由 handler 写入 Cookie
type SessionResult struct {
	User      *UserResponse
	Token     string
	ExpiresAt time.Time
}
