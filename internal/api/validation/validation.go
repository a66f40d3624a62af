package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// TagUniversityEmail 校验邮箱域名属于允许的高校
const TagUniversityEmail = "university_email"

// Register 向 gin 的校验引擎注册自定义规则
// domains 为空时接受任意 .edu 域名（含子域名）
func Register(domains []string) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return RegisterOn(v, domains)
}

// RegisterOn 在指定实例上注册，便于测试
func RegisterOn(v *validator.Validate, domains []string) error {
	allowed := normalizeDomains(domains)
	return v.RegisterValidation(TagUniversityEmail, func(fl validator.FieldLevel) bool {
		return IsUniversityEmail(fl.Field().String(), allowed)
	})
}

// IsUniversityEmail 判断邮箱域名是否允许
func IsUniversityEmail(email string, domains []string) bool {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := strings.ToLower(email[at+1:])

	if len(domains) == 0 {
		return strings.HasSuffix(domain, ".edu")
	}
	for _, d := range domains {
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}

func normalizeDomains(domains []string) []string {
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(d), "@"))
		if d != "" {
			out = append(out, d)
		}
	}
	return out
}

// FieldErrors 将校验错误转换为 字段 → 规则 的映射
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}
