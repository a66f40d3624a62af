package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ── PostgreSQL TEXT[] 自定义类型 ──

// StringArray 对应 PostgreSQL TEXT[]，实现 GORM Scanner/Valuer 接口。
type StringArray []string

// Scan 解析 {a,"b c","d\"e"} 形式的数组文本。
func (a *StringArray) Scan(src interface{}) error {
	if src == nil {
		*a = StringArray{}
		return nil
	}
	var s string
	switch v := src.(type) {
	case []byte:
		s = string(v)
	case string:
		s = v
	default:
		return fmt.Errorf("StringArray.Scan: unsupported type %T", src)
	}
	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return fmt.Errorf("StringArray.Scan: invalid array literal %q", s)
	}
	body := s[1 : len(s)-1]
	arr := StringArray{}
	if body == "" {
		*a = arr
		return nil
	}

	var cur strings.Builder
	inQuotes, escaped, quoted := false, false, false
	for i := 0; i < len(body); i++ {
		ch := body[i]
		switch {
		case escaped:
			cur.WriteByte(ch)
			escaped = false
		case ch == '\\':
			escaped = true
		case ch == '"':
			inQuotes = !inQuotes
			quoted = true
		case ch == ',' && !inQuotes:
			arr = append(arr, element(cur.String(), quoted))
			cur.Reset()
			quoted = false
		default:
			cur.WriteByte(ch)
		}
	}
	arr = append(arr, element(cur.String(), quoted))
	*a = arr
	return nil
}

func element(raw string, quoted bool) string {
	if quoted {
		return raw
	}
	return strings.TrimSpace(raw)
}

// Value 序列化为 PostgreSQL 数组文本，元素统一加引号。
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "{}", nil
	}
	parts := make([]string, len(a))
	for i, s := range a {
		s = strings.ReplaceAll(s, `\`, `\\`)
		s = strings.ReplaceAll(s, `"`, `\"`)
		parts[i] = `"` + s + `"`
	}
	return "{" + strings.Join(parts, ",") + "}", nil
}

// Contains 是否包含指定元素
func (a StringArray) Contains(v string) bool {
	for _, s := range a {
		if s == v {
			return true
		}
	}
	return false
}

// ── JSONB 自定义类型 ──

// JSONMap 对应 JSONB 对象
type JSONMap map[string]interface{}

// Scan 实现 sql.Scanner
func (m *JSONMap) Scan(src interface{}) error {
	return scanJSON(src, m, "JSONMap")
}

// Value 实现 driver.Valuer
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	return string(b), err
}

// JSONList 对应 JSONB 数组
type JSONList []interface{}

// Scan 实现 sql.Scanner
func (l *JSONList) Scan(src interface{}) error {
	return scanJSON(src, l, "JSONList")
}

// Value 实现 driver.Valuer
func (l JSONList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

func scanJSON(src interface{}, dst interface{}, name string) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("%s.Scan: unsupported type %T", name, src)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("%s.Scan: %w", name, err)
	}
	return nil
}

// Timestamps 通用时间字段
type Timestamps struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}
