package model

// 内容格式
const (
	ContentPlain    = "plain"
	ContentMarkdown = "markdown"
	ContentHTML     = "html"
)

// IsValidContentType 内容格式是否合法
func IsValidContentType(t string) bool {
	return t == ContentPlain || t == ContentMarkdown || t == ContentHTML
}

// Thread 论坛主题 — 对应 threads
type Thread struct {
	ID          string   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	GroupID     string   `gorm:"type:uuid;not null"                             json:"group_id"`
	AuthorID    string   `gorm:"type:uuid;not null"                             json:"author_id"`
	Title       string   `gorm:"type:varchar(200);not null"                     json:"title"`
	Content     string   `gorm:"type:text;not null"                             json:"content"`
	ContentType string   `gorm:"type:varchar(20);not null;default:'plain'"      json:"content_type"`
	Attachments JSONList `gorm:"type:jsonb;not null;default:'[]'"               json:"attachments"`
	Pinned      bool     `gorm:"not null;default:false"                         json:"pinned"`
	Locked      bool     `gorm:"not null;default:false"                         json:"locked"`
	Timestamps

	Author *User  `gorm:"foreignKey:AuthorID" json:"-"`
	Group  *Group `gorm:"foreignKey:GroupID"  json:"-"`
}

// TableName 指定表名
func (Thread) TableName() string { return "threads" }

// Reply 回复 — 对应 replies
type Reply struct {
	ID          string   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ThreadID    string   `gorm:"type:uuid;not null"                             json:"thread_id"`
	AuthorID    string   `gorm:"type:uuid;not null"                             json:"author_id"`
	Content     string   `gorm:"type:text;not null"                             json:"content"`
	ContentType string   `gorm:"type:varchar(20);not null;default:'plain'"      json:"content_type"`
	Attachments JSONList `gorm:"type:jsonb;not null;default:'[]'"               json:"attachments"`
	Timestamps

	Author *User   `gorm:"foreignKey:AuthorID" json:"-"`
	Thread *Thread `gorm:"foreignKey:ThreadID" json:"-"`
}

// TableName 指定表名
func (Reply) TableName() string { return "replies" }
