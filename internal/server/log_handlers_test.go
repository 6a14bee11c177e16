package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLogFile(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	for i := 1; i <= 150; i++ {
		level := "info"
		if i%50 == 0 {
			level = "error"
		}
		fmt.Fprintf(&b, `{"level":"%s","component":"snapshot_store","message":"reload %d"}`+"\n", level, i)
	}
	path := filepath.Join(t.TempDir(), "scorecard.log")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))
	return path
}

func getLogs(t *testing.T, h *LogHandlers, target string) LogContentResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	h.HandleGetLogs(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp LogContentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandleGetLogs_DefaultTail(t *testing.T) {
	h := NewLogHandlers(zerolog.Nop(), writeLogFile(t))

	resp := getLogs(t, h, "/api/system/logs")

	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 100, resp.Total)
	require.Len(t, resp.Lines, 100)
	assert.Contains(t, resp.Lines[0], "reload 51")
	assert.Contains(t, resp.Lines[99], "reload 150")
}

func TestHandleGetLogs_Filters(t *testing.T) {
	h := NewLogHandlers(zerolog.Nop(), writeLogFile(t))

	resp := getLogs(t, h, "/api/system/logs?lines=500&level=ERROR")
	assert.Equal(t, 150, resp.Total)
	require.Len(t, resp.Lines, 3)
	assert.Contains(t, resp.Lines[2], "reload 150")

	resp = getLogs(t, h, "/api/system/logs?lines=20&search=RELOAD%2014")
	assert.Equal(t, 20, resp.Total)
	assert.Len(t, resp.Lines, 10, "reload 140 through 149")
}

func TestHandleGetLogs_NoFile(t *testing.T) {
	disabled := getLogs(t, NewLogHandlers(zerolog.Nop(), ""), "/api/system/logs")
	assert.Equal(t, "disabled", disabled.Status)
	assert.Empty(t, disabled.Lines)

	missing := getLogs(t, NewLogHandlers(zerolog.Nop(), filepath.Join(t.TempDir(), "absent.log")), "/api/system/logs")
	assert.Equal(t, "empty", missing.Status)
}

func TestTailFile_ShortFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.log")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\n"), 0644))

	lines, err := tailFile(path, 10)

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, lines)
}
