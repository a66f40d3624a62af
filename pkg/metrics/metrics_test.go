package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveHTTP(t *testing.T) {
	m := New()
	m.ObserveHTTP("/api/v1/groups", "GET", 200, 15*time.Millisecond)
	m.ObserveHTTP("/api/v1/groups", "GET", 200, 5*time.Millisecond)
	m.ObserveHTTP("", "GET", 404, time.Millisecond)

	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/v1/groups", "GET", "200")); got != 2 {
		t.Errorf("期望计数 2，实际 %v", got)
	}
	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("unmatched", "GET", "404")); got != 1 {
		t.Errorf("未匹配路由期望计数 1，实际 %v", got)
	}
}

func TestConnectionsGauge(t *testing.T) {
	m := New()
	m.ConnectionOpened()
	m.ConnectionOpened()
	m.ConnectionClosed()

	if got := testutil.ToFloat64(m.wsConnections); got != 1 {
		t.Errorf("期望连接数 1，实际 %v", got)
	}
}

func TestHandler_Exposes(t *testing.T) {
	m := New()
	m.EventEmitted("group.created")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(w.Body)
	if !strings.Contains(string(body), `dawgpound_domain_events_total{type="group.created"} 1`) {
		t.Errorf("指标输出缺少领域事件计数:\n%s", body)
	}
}
