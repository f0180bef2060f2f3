package report

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"specforge/internal/bias"
	"specforge/internal/corpus"
	"specforge/internal/intent"
	"specforge/internal/orchestrator"
)

func newTestServer(t *testing.T) (*Server, *orchestrator.RunLog, *corpus.Store) {
	t.Helper()
	dir := t.TempDir()

	runLog := orchestrator.NewRunLog(filepath.Join(dir, "spec_runs.jsonl"))

	store, err := corpus.Open(filepath.Join(dir, "corpus.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	adapter, err := bias.Load(filepath.Join(dir, "bias.json"),
		[]string{"iterative", "recursive", "stub"}, bias.DefaultOptions(), nil)
	require.NoError(t, err)

	return NewServer(runLog, store, adapter, 50), runLog, store
}

func getJSON(t *testing.T, srv *Server, path string, out any) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if out != nil && w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
	}
	return w.Code
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t)

	var body map[string]string
	code := getJSON(t, srv, "/healthz", &body)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestRunsEndpoint(t *testing.T) {
	srv, runLog, _ := newTestServer(t)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		require.NoError(t, runLog.Append(orchestrator.RunRecord{
			RunID: id, Status: "pass", OK: true, DurationMs: int64(i),
		}))
	}

	var body struct {
		Runs  []orchestrator.RunRecord `json:"runs"`
		Count int                      `json:"count"`
	}
	code := getJSON(t, srv, "/api/runs", &body)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 3, body.Count)

	code = getJSON(t, srv, "/api/runs?limit=2", &body)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, body.Runs, 2)
	assert.Equal(t, "run-b", body.Runs[0].RunID, "tail returns the most recent records")
	assert.Equal(t, "run-c", body.Runs[1].RunID)

	code = getJSON(t, srv, "/api/runs?limit=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRunsEndpointEmptyHistory(t *testing.T) {
	srv, _, _ := newTestServer(t)

	var body struct {
		Runs  []orchestrator.RunRecord `json:"runs"`
		Count int                      `json:"count"`
	}
	code := getJSON(t, srv, "/api/runs", &body)
	assert.Equal(t, http.StatusOK, code)
	assert.Zero(t, body.Count)
	assert.NotNil(t, body.Runs)
}

func TestLatestRunEndpoint(t *testing.T) {
	srv, runLog, _ := newTestServer(t)

	code := getJSON(t, srv, "/api/runs/latest", nil)
	assert.Equal(t, http.StatusNotFound, code)

	require.NoError(t, runLog.Append(orchestrator.RunRecord{RunID: "run-z", Status: "fail"}))

	var rec orchestrator.RunRecord
	code = getJSON(t, srv, "/api/runs/latest", &rec)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "run-z", rec.RunID)
}

func TestStatsEndpoint(t *testing.T) {
	srv, _, store := newTestServer(t)

	ir := intent.IR{
		Name:        "factorial",
		Params:      []intent.Param{{Name: "n", Type: "int"}},
		ReturnType:  "int",
		Tag:         "factorial",
		Description: "Compute the factorial of n.",
	}
	_, err := store.Upsert(ir, "def factorial(n): ...", "assert True", true, 1.0)
	require.NoError(t, err)

	var stats corpus.Stats
	code := getJSON(t, srv, "/api/stats", &stats)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, stats.TotalEntries)
	assert.Equal(t, 1.0, stats.PassRate)
}

func TestBiasEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	var body struct {
		Weights map[string]float64 `json:"weights"`
	}
	code := getJSON(t, srv, "/api/bias", &body)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, body.Weights, 3)
	for name, w := range body.Weights {
		assert.InDelta(t, 1.0/3.0, w, 1e-9, "uniform init for %s", name)
	}
}

func TestLiveChannelReceivesPublishedRecords(t *testing.T) {
	srv, _, _ := newTestServer(t)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/live"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// Registration races the dial returning; wait for the hub to see us.
	deadline := time.Now().Add(2 * time.Second)
	for srv.hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	require.Equal(t, 1, srv.hub.ClientCount())

	srv.Publish(orchestrator.RunRecord{RunID: "run-live", Status: "pass", OK: true})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var rec orchestrator.RunRecord
	require.NoError(t, conn.ReadJSON(&rec))
	assert.Equal(t, "run-live", rec.RunID)
}

func TestHubDropsDeadClients(t *testing.T) {
	srv, _, _ := newTestServer(t)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/live"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}

	deadline := time.Now().Add(2 * time.Second)
	for srv.hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	require.Equal(t, 1, srv.hub.ClientCount())

	conn.Close()

	// The read pump notices the close and unregisters.
	deadline = time.Now().Add(2 * time.Second)
	for srv.hub.ClientCount() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Zero(t, srv.hub.ClientCount())
}
