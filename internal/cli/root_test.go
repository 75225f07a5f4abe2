package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tableServer answers like a PostgREST table holding a single-row map.
type tableServer struct {
	mu      sync.Mutex
	rows    map[string]json.RawMessage
	missing bool
}

func (s *tableServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.missing {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	key := strings.TrimPrefix(r.URL.Query().Get("key"), "eq.")
	switch r.Method {
	case http.MethodGet:
		out := []map[string]any{}
		for k, v := range s.rows {
			if key == "" || k == key {
				out = append(out, map[string]any{"key": k, "value": v})
			}
		}
		_ = json.NewEncoder(w).Encode(out)
	case http.MethodPost:
		var rec struct {
			Key   string          `json:"key"`
			Value json.RawMessage `json:"value"`
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &rec); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.rows[rec.Key] = rec.Value
		w.WriteHeader(http.StatusCreated)
	case http.MethodDelete:
		delete(s.rows, key)
		w.WriteHeader(http.StatusNoContent)
	}
}

func setEnv(t *testing.T, url string) {
	t.Helper()
	t.Setenv("SUPABASE_URL", url)
	t.Setenv("SUPABASE_ANON_KEY", url)
	t.Setenv("NEXT_PUBLIC_SUPABASE_URL", "")
	t.Setenv("NEXT_PUBLIC_SUPABASE_ANON_KEY", "")
	t.Setenv("DATA_STORE_TABLE", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LOG_DIR", t.TempDir())
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRoot_HappyPath(t *testing.T) {
	srv := &tableServer{rows: map[string]json.RawMessage{}}
	ts := httptest.NewServer(srv)
	defer ts.Close()
	setEnv(t, ts.URL)

	out, err := run(t)
	require.NoError(t, err)
	assert.Contains(t, out, "✅ Connection successful!")
	assert.Contains(t, out, "✅ Write operation successful!")
	assert.Contains(t, out, "✅ Read operation successful!")
	assert.Contains(t, out, "✅ Cleanup successful")
	assert.Contains(t, out, "🎉 All tests passed!")
	assert.Empty(t, srv.rows, "probe record should be deleted")
}

func TestRoot_MissingTableStillExitsZero(t *testing.T) {
	ts := httptest.NewServer(&tableServer{missing: true})
	defer ts.Close()
	setEnv(t, ts.URL)

	out, err := run(t, "--no-dns")
	require.NoError(t, err)
	assert.Contains(t, out, "does not exist yet")
	assert.Contains(t, out, "CREATE TABLE data_store (")
	assert.NotContains(t, out, "Testing write operation")
}

func TestRoot_MissingConfigFails(t *testing.T) {
	setEnv(t, "")

	_, err := run(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUPABASE_URL")
	assert.Contains(t, err.Error(), "SUPABASE_ANON_KEY")
}

func TestRoot_ConfigFile(t *testing.T) {
	srv := &tableServer{rows: map[string]json.RawMessage{}}
	ts := httptest.NewServer(srv)
	defer ts.Close()
	setEnv(t, "")

	file := filepath.Join(t.TempDir(), "storecheck.yaml")
	body := "supabase_url: " + ts.URL + "\nsupabase_anon_key: anon\n"
	require.NoError(t, os.WriteFile(file, []byte(body), 0o600))

	out, err := run(t, "--config", file)
	require.NoError(t, err)
	assert.Contains(t, out, "🎉 All tests passed!")
}

func TestSchemaCommand(t *testing.T) {
	setEnv(t, "")
	t.Setenv("DATA_STORE_TABLE", "probe_store")

	out, err := run(t, "schema")
	require.NoError(t, err)
	assert.Contains(t, out, "CREATE TABLE probe_store (")
	assert.Contains(t, out, "ENABLE ROW LEVEL SECURITY")
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "storecheck "+Version+"\n", out)
}
