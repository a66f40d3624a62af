package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/j-neeley/DawgPound/config"
)

// Mailer SMTP 邮件发送；未配置 SMTP 时只记录日志
type Mailer struct {
	cfg     config.MailConfig
	baseURL string
	logger  *zap.Logger
	send    func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewMailer 创建 Mailer
func NewMailer(cfg config.MailConfig, baseURL string, logger *zap.Logger) *Mailer {
	return &Mailer{
		cfg:     cfg,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		send:    smtp.SendMail,
	}
}

// VerificationLink 邮箱验证链接
func (m *Mailer) VerificationLink(token string) string {
	return fmt.Sprintf("%s/verify-email?token=%s", m.baseURL, token)
}

// SendVerification 发送邮箱验证邮件
func (m *Mailer) SendVerification(ctx context.Context, to, username, token string) error {
	link := m.VerificationLink(token)

	if !m.cfg.Enabled() {
		m.logger.Info("SMTP 未配置，跳过发送验证邮件",
			zap.String("to", to),
			zap.String("verification_link", link),
		)
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	subject := "Verify your DawgPound account"
	body := fmt.Sprintf("Hi %s,\r\n\r\nConfirm your university email by opening the link below:\r\n\r\n%s\r\n", username, link)
	msg := buildMessage(m.cfg.From, to, subject, body)

	addr := net.JoinHostPort(m.cfg.SMTPHost, strconv.Itoa(m.cfg.SMTPPort))
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.SMTPHost)
	}

	if err := m.send(addr, auth, m.cfg.From, []string{to}, msg); err != nil {
		m.logger.Error("发送验证邮件失败", zap.String("to", to), zap.Error(err))
		return fmt.Errorf("send verification mail: %w", err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
