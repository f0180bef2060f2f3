package main

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"specforge/internal/orchestrator"
)

const factorialSpecMD = "# Factorial\n\n" +
	"## Signature\n\n" +
	"`factorial(n int) -> int`\n\n" +
	"## Description\n\n" +
	"Compute the factorial of n.\n\n" +
	"## Examples\n\n" +
	"| n | out |\n|---|---|\n| 5 | 120 |\n| 3 | 6 |\n"

func testWorkspace(t *testing.T) string {
	t.Helper()
	ws := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(ws, ".forge"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(ws, ".forge", "config.yaml"),
		[]byte("synthesis:\n  default_language: go\nreporting:\n  enabled: true\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(ws, "specs"), 0o755))

	prev := workspace
	workspace = ws
	t.Cleanup(func() { workspace = prev })
	return ws
}

func TestBuildPipelineWithoutReportingHasNoServer(t *testing.T) {
	testWorkspace(t)

	p, err := buildPipeline(nil, false)
	require.NoError(t, err)
	defer p.close()

	assert.Nil(t, p.server)
}

// Completed runs must reach live websocket clients through the same wiring
// the watch daemon uses: the orchestrator's publish hook feeding the
// reporting server's hub.
func TestBuildPipelineWiresLiveReporting(t *testing.T) {
	ws := testWorkspace(t)

	p, err := buildPipeline(nil, true)
	require.NoError(t, err)
	defer p.close()
	require.NotNil(t, p.server)
	assert.True(t, p.cfg.Reporting.Enabled)

	api := httptest.NewServer(p.server.Handler())
	defer api.Close()

	wsURL := "ws" + strings.TrimPrefix(api.URL, "http") + "/api/live"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	require.Eventually(t, func() bool { return p.server.ClientCount() == 1 },
		5*time.Second, 10*time.Millisecond)

	specPath := filepath.Join(ws, "specs", "factorial.md")
	require.NoError(t, os.WriteFile(specPath, []byte(factorialSpecMD), 0o644))

	rec := p.orch.CompileSpec(context.Background(), specPath)
	require.True(t, rec.OK)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var got orchestrator.RunRecord
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "factorial", got.Operation)
	assert.Equal(t, rec.RunID, got.RunID)
}
