package model

import "time"

// 群组分类
const (
	CategoryClassYear           = "class_year"
	CategoryMajor               = "major"
	CategoryInterestsActivities = "interests_activities"
	CategoryOther               = "other"
)

// GroupCategories 全部合法分类
var GroupCategories = []string{
	CategoryClassYear,
	CategoryMajor,
	CategoryInterestsActivities,
	CategoryOther,
}

// IsValidCategory 分类是否合法
func IsValidCategory(c string) bool {
	for _, v := range GroupCategories {
		if v == c {
			return true
		}
	}
	return false
}

// Group 群组 — 对应 groups
type Group struct {
	ID          string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name        string      `gorm:"type:varchar(100);not null"                     json:"name"`
	Description string      `gorm:"type:text;not null;default:''"                  json:"description"`
	Category    string      `gorm:"type:varchar(50);not null"                      json:"category"`
	Tags        StringArray `gorm:"type:text[];not null;default:'{}'"              json:"tags"`
	CreatorID   *string     `gorm:"type:uuid"                                      json:"creator_id"`
	Timestamps

	Creator *User `gorm:"foreignKey:CreatorID" json:"-"`
}

// TableName 指定表名
func (Group) TableName() string { return "groups" }

// IsCreator 是否为创建者
func (g *Group) IsCreator(userID string) bool {
	return g.CreatorID != nil && *g.CreatorID == userID
}

// GroupMembership 群组成员 — 对应 group_memberships
type GroupMembership struct {
	ID       string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID   string    `gorm:"type:uuid;not null"                             json:"user_id"`
	GroupID  string    `gorm:"type:uuid;not null"                             json:"group_id"`
	JoinedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"joined_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

// TableName 指定表名
func (GroupMembership) TableName() string { return "group_memberships" }

// GroupModerator 群组版主 — 对应 group_moderators
type GroupModerator struct {
	ID      string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID  string    `gorm:"type:uuid;not null"                             json:"user_id"`
	GroupID string    `gorm:"type:uuid;not null"                             json:"group_id"`
	AddedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"added_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

// TableName 指定表名
func (GroupModerator) TableName() string { return "group_moderators" }
