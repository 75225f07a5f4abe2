package httpapi

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	apimw "github.com/hamed0406/storecheck/internal/httpapi/middleware"
	"github.com/hamed0406/storecheck/internal/repo/memory"
)

func TestHealthzAndMetrics_Open(t *testing.T) {
	h, _ := setupRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Fatalf("metrics body missing default collectors")
	}
}

func TestSchema_ServesDDLForTable(t *testing.T) {
	store := memory.New()
	srv := NewServer(zap.NewNop(), store, &fakeChecks{store: store}, "probe_store")
	h := srv.Router(apimw.Keys{}, nil, 0, 0, 0, 0)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/schema", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("schema: %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "CREATE TABLE probe_store (") {
		t.Fatalf("DDL not rendered for table: %s", body)
	}
}

func TestCORS_RestrictedOrigins(t *testing.T) {
	store := memory.New()
	srv := NewServer(zap.NewNop(), store, &fakeChecks{store: store}, "")
	h := srv.Router(apimw.Keys{}, []string{"https://dash.example.com"}, 0, 0, 0, 0)

	cases := []struct {
		origin string
		want   string
	}{
		{"https://dash.example.com", "https://dash.example.com"},
		{"https://evil.example.com", ""},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("Origin", c.origin)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != c.want {
			t.Fatalf("origin %s: allow-origin=%q want %q", c.origin, got, c.want)
		}
	}
}
