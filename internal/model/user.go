package model

import "time"

// 引导资料完成门槛
const (
	MinMajors    = 1
	MinInterests = 3
)

// User 用户表 — 对应 users
type User struct {
	ID                string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Username          string      `gorm:"type:varchar(150);not null;uniqueIndex"       json:"username"`
	Email             string      `gorm:"type:varchar(254);not null;uniqueIndex"       json:"email"`
	PasswordHash      string      `gorm:"type:varchar(255);not null"                   json:"-"`
	FirstName         string      `gorm:"type:varchar(150);not null;default:''"        json:"first_name"`
	LastName          string      `gorm:"type:varchar(150);not null;default:''"        json:"last_name"`
	IsStaff           bool        `gorm:"not null;default:false"                       json:"is_staff"`
	IsSuperuser       bool        `gorm:"not null;default:false"                       json:"is_superuser"`
	VerificationToken *string     `gorm:"type:varchar(64);uniqueIndex"                 json:"-"`
	VerifiedAt        *time.Time  `                                                    json:"verified_at,omitempty"`
	Majors            StringArray `gorm:"type:text[];not null;default:'{}'"            json:"majors"`
	InterestsHobbies  StringArray `gorm:"type:text[];not null;default:'{}'"            json:"interests_hobbies"`
	YearOfStudy       string      `gorm:"type:varchar(50);not null;default:''"         json:"year_of_study"`
	GraduationYear    *int        `                                                    json:"graduation_year,omitempty"`
	Privacy           JSONMap     `gorm:"type:jsonb;not null;default:'{}'"             json:"privacy"`
	LastLoginAt       *time.Time  `                                                    json:"last_login_at,omitempty"`
	Timestamps
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// IsVerified 邮箱是否已验证
func (u *User) IsVerified() bool { return u.VerifiedAt != nil }

// OnboardingCompleted 引导资料是否完成
func (u *User) OnboardingCompleted() bool {
	return len(u.Majors) >= MinMajors && len(u.InterestsHobbies) >= MinInterests
}

// IsElevated 是否具有 staff/superuser 权限
func (u *User) IsElevated() bool { return u.IsStaff || u.IsSuperuser }

// DisplayName 展示名
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Username
	}
}
