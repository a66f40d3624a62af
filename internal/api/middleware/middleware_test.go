package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/j-neeley/DawgPound/config"
	"github.com/j-neeley/DawgPound/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testCookie = "dawgpound_session"

func newTestJWT() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:  "middleware-test-secret-0123456789",
		SessionTTL: time.Hour,
	})
}

type stubRevoked struct {
	revoked map[string]bool
	err     error
}

func (s *stubRevoked) IsSessionRevoked(_ context.Context, jti string) (bool, error) {
	return s.revoked[jti], s.err
}

type stubVerifier struct {
	verified bool
	err      error
}

func (s *stubVerifier) IsVerified(context.Context, string) (bool, error) {
	return s.verified, s.err
}

type stubPrivileges struct {
	staff map[string]bool
	err   error
}

func (s *stubPrivileges) Privileges(_ context.Context, userID string) (bool, bool, error) {
	return s.staff[userID], false, s.err
}

type stubLimiter struct {
	calls int
	limit int
	err   error
}

func (s *stubLimiter) CheckRateLimit(_ context.Context, _ string, limit int, _ time.Duration) (bool, error) {
	s.calls++
	s.limit = limit
	return s.calls <= limit, s.err
}

func whoami(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"user_id":  c.GetString(CtxUserID),
		"is_staff": c.GetBool(CtxIsStaff),
		"session":  c.GetString(CtxSessionID),
	})
}

func issueToken(t *testing.T, m *jwt.Manager, sub jwt.Subject) (string, string) {
	t.Helper()
	token, _, err := m.GenerateSessionToken(sub)
	if err != nil {
		t.Fatalf("GenerateSessionToken 应成功: %v", err)
	}
	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken 应成功: %v", err)
	}
	return token, claims.ID
}

// ── SessionAuth 测试 ──

func TestSessionAuth_CookieAndBearer(t *testing.T) {
	m := newTestJWT()
	token, _ := issueToken(t, m, jwt.Subject{UserID: "u1", Username: "husky"})

	r := gin.New()
	r.GET("/me", SessionAuth(m, testCookie, nil), whoami)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"user_id":"u1"`) {
		t.Errorf("Cookie 认证应成功，实际: %d %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Bearer 认证应成功，实际: %d", w.Code)
	}
}

func TestSessionAuth_Rejects(t *testing.T) {
	m := newTestJWT()
	token, jti := issueToken(t, m, jwt.Subject{UserID: "u1"})

	cases := []struct {
		name    string
		header  string
		revoked SessionChecker
	}{
		{"缺少凭证", "", nil},
		{"格式错误", "Token " + token, nil},
		{"伪造 token", "Bearer not-a-jwt", nil},
		{"已注销", "Bearer " + token, &stubRevoked{revoked: map[string]bool{jti: true}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/me", SessionAuth(m, testCookie, tc.revoked), whoami)
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != http.StatusUnauthorized {
				t.Errorf("期望 401，实际: %d", w.Code)
			}
		})
	}
}

func TestSessionAuth_RevocationStoreDown(t *testing.T) {
	m := newTestJWT()
	token, _ := issueToken(t, m, jwt.Subject{UserID: "u1"})

	r := gin.New()
	r.GET("/me", SessionAuth(m, testCookie, &stubRevoked{err: errors.New("redis down")}), whoami)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Redis 不可用时应降级放行，实际: %d", w.Code)
	}
}

func TestOptionalAuth(t *testing.T) {
	m := newTestJWT()
	r := gin.New()
	r.GET("/groups", OptionalAuth(m, testCookie, nil), whoami)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/groups", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"user_id":""`) {
		t.Errorf("匿名访问应放行，实际: %d %s", w.Code, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/groups", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("无效凭证应按匿名处理，实际: %d", w.Code)
	}
}

// ── RequireStaff / RequireVerified 测试 ──

func TestRequireStaff(t *testing.T) {
	m := newTestJWT()
	member, _ := issueToken(t, m, jwt.Subject{UserID: "u1"})
	staff, _ := issueToken(t, m, jwt.Subject{UserID: "u2", IsStaff: true})

	r := gin.New()
	r.GET("/admin", SessionAuth(m, testCookie, nil), RequireStaff(), whoami)

	for token, want := range map[string]int{member: http.StatusForbidden, staff: http.StatusOK} {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != want {
			t.Errorf("期望 %d，实际: %d", want, w.Code)
		}
	}
}

func TestRefreshPrivileges_DemotedStaff(t *testing.T) {
	m := newTestJWT()
	// 令牌签发时仍是 staff
	token, _ := issueToken(t, m, jwt.Subject{UserID: "u2", IsStaff: true})

	cases := []struct {
		name   string
		loader *stubPrivileges
		want   int
	}{
		{"仍是 staff", &stubPrivileges{staff: map[string]bool{"u2": true}}, http.StatusOK},
		{"已被降权", &stubPrivileges{staff: map[string]bool{}}, http.StatusForbidden},
		{"读取失败", &stubPrivileges{staff: map[string]bool{"u2": true}, err: errors.New("db down")}, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/admin", SessionAuth(m, testCookie, nil), RefreshPrivileges(tc.loader), RequireStaff(), whoami)

			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Errorf("期望 %d，实际: %d", tc.want, w.Code)
			}
		})
	}
}

func TestRequireVerified(t *testing.T) {
	cases := []struct {
		name     string
		enabled  bool
		method   string
		verifier *stubVerifier
		want     int
	}{
		{"未开启", false, http.MethodPost, &stubVerifier{}, http.StatusOK},
		{"只读请求", true, http.MethodGet, &stubVerifier{}, http.StatusOK},
		{"未验证", true, http.MethodPost, &stubVerifier{}, http.StatusForbidden},
		{"已验证", true, http.MethodPost, &stubVerifier{verified: true}, http.StatusOK},
		{"查询失败", true, http.MethodPost, &stubVerifier{err: errors.New("db")}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Handle(tc.method, "/x", func(c *gin.Context) { c.Set(CtxUserID, "u1") }, RequireVerified(tc.verifier, tc.enabled), whoami)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tc.method, "/x", nil))
			if w.Code != tc.want {
				t.Errorf("期望 %d，实际: %d", tc.want, w.Code)
			}
			if tc.want == http.StatusForbidden && !strings.Contains(w.Body.String(), "Email not verified") {
				t.Errorf("期望提示 Email not verified，实际: %s", w.Body.String())
			}
		})
	}
}

// ── RateLimit 测试 ──

func TestRateLimit(t *testing.T) {
	limiter := &stubLimiter{}
	r := gin.New()
	r.POST("/login", RateLimit(limiter, 2, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("期望 [200 200 429]，实际: %v", codes)
	}
}

func TestRateLimit_NilAndErrorPassThrough(t *testing.T) {
	for name, limiter := range map[string]RateLimiter{
		"未配置": nil,
		"出错":  &stubLimiter{err: errors.New("redis down")},
	} {
		t.Run(name, func(t *testing.T) {
			r := gin.New()
			r.POST("/login", RateLimit(limiter, 1, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })
			for i := 0; i < 3; i++ {
				w := httptest.NewRecorder()
				r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
				if w.Code != http.StatusOK {
					t.Fatalf("第 %d 次请求期望 200，实际: %d", i+1, w.Code)
				}
			}
		})
	}
}

// ── 其他中间件测试 ──

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.POST("/x", BodyLimit(8), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("0123456789")))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("期望 413，实际: %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("ok")))
	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际: %d", w.Code)
	}
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:3000/"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("预检期望 204，实际: %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Errorf("白名单 Origin 应被回显，实际: %q", w.Header().Get("Access-Control-Allow-Origin"))
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("非白名单 Origin 不应被回显")
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(requestIDKey)) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(requestIDHeader, "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "abc" || w.Header().Get(requestIDHeader) != "abc" {
		t.Errorf("应沿用传入的 Request-ID，实际: %q", w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(requestIDHeader, strings.Repeat("a", requestIDMaxLen+1))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if len(w.Body.String()) != 36 {
		t.Errorf("超长 Request-ID 应被替换为 UUID，实际: %q", w.Body.String())
	}
}

type recordedHTTP struct {
	route  string
	method string
	status int
}

type stubObserver struct{ got []recordedHTTP }

func (s *stubObserver) ObserveHTTP(route, method string, status int, _ time.Duration) {
	s.got = append(s.got, recordedHTTP{route, method, status})
}

func TestMetrics_UsesRouteTemplate(t *testing.T) {
	obs := &stubObserver{}
	r := gin.New()
	r.Use(Metrics(obs))
	r.GET("/api/v1/groups/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/groups/42", nil))

	if len(obs.got) != 1 {
		t.Fatalf("期望记录 1 次，实际: %d", len(obs.got))
	}
	want := recordedHTTP{"/api/v1/groups/:id", http.MethodGet, http.StatusTeapot}
	if obs.got[0] != want {
		t.Errorf("期望 %+v，实际: %+v", want, obs.got[0])
	}
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("缺少 X-Content-Type-Options 头")
	}
}
