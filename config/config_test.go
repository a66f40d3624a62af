package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Auth: AuthConfig{
			JWTSecret:  "0123456789abcdef0123",
			SessionTTL: time.Hour,
		},
		WebSocket: WebSocketConfig{
			PongWait:   60 * time.Second,
			PingPeriod: 54 * time.Second,
		},
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("期望校验通过，实际: %v", err)
	}
}

func TestValidate_Failures(t *testing.T) {
	cases := map[string]func(c *Config){
		"空密钥":     func(c *Config) { c.Auth.JWTSecret = "" },
		"密钥过短":    func(c *Config) { c.Auth.JWTSecret = "short" },
		"端口越界":    func(c *Config) { c.Server.Port = 70000 },
		"会话时长为0":  func(c *Config) { c.Auth.SessionTTL = 0 },
		"ping过长":  func(c *Config) { c.WebSocket.PingPeriod = 2 * time.Minute },
		"kafka无地址": func(c *Config) { c.Kafka.Enabled = true; c.Kafka.Brokers = nil },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := validConfig()
			mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("期望校验失败")
			}
		})
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("server:\n  port: 9090\nauth:\n  jwt_secret: file-secret-0123456789\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}

	t.Setenv("DAWGPOUND_DB_NAME", "from_env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 应成功: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("期望 port=9090，实际=%d", cfg.Server.Port)
	}
	if cfg.Database.Name != "from_env" {
		t.Errorf("期望 db.name=from_env，实际=%s", cfg.Database.Name)
	}
	if cfg.Auth.SessionTTL != 168*time.Hour {
		t.Errorf("期望默认 session_ttl=168h，实际=%s", cfg.Auth.SessionTTL)
	}
	if cfg.Auth.Cookie.Name != "dawgpound_session" {
		t.Errorf("期望默认 cookie 名 dawgpound_session，实际=%s", cfg.Auth.Cookie.Name)
	}
}
