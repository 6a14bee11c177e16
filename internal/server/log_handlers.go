package server

import (
	"bufio"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/scorecard/pkg/respond"
)

// Line limits for log requests
const (
	defaultLogLines = 100
	maxLogLines     = 10000
)

// LogHandlers serves the tail of the rotated log file
type LogHandlers struct {
	log  zerolog.Logger
	path string // empty when logging to stdout only
}

// NewLogHandlers creates a new log handlers instance
func NewLogHandlers(log zerolog.Logger, path string) *LogHandlers {
	return &LogHandlers{
		log:  log.With().Str("component", "log_handlers").Logger(),
		path: path,
	}
}

// LogContentResponse represents log content
type LogContentResponse struct {
	Lines  []string `json:"lines" msgpack:"lines"`
	Total  int      `json:"total" msgpack:"total"`
	Status string   `json:"status" msgpack:"status"`
}

// HandleGetLogs returns the last lines of the log file
// GET /api/system/logs?lines=100&level=error&search=reload
func (h *LogHandlers) HandleGetLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lines := defaultLogLines
	if v := q.Get("lines"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			lines = parsed
			if lines > maxLogLines {
				lines = maxLogLines
			}
		}
	}
	level := q.Get("level")
	search := q.Get("search")

	if h.path == "" {
		h.write(w, r, http.StatusOK, LogContentResponse{Lines: []string{}, Status: "disabled"})
		return
	}

	h.log.Debug().
		Int("lines", lines).
		Str("level", level).
		Str("search", search).
		Msg("Reading log file")

	logLines, err := tailFile(h.path, lines)
	if errors.Is(err, os.ErrNotExist) {
		h.write(w, r, http.StatusOK, LogContentResponse{Lines: []string{}, Status: "empty"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read log file")
		if werr := respond.Error(w, r, http.StatusInternalServerError, "failed to read logs"); werr != nil {
			h.log.Error().Err(werr).Msg("Failed to encode error response")
		}
		return
	}

	h.write(w, r, http.StatusOK, LogContentResponse{
		Lines:  filterLogs(logLines, level, search),
		Total:  len(logLines),
		Status: "ok",
	})
}

// tailFile returns up to n trailing lines of the file at path
func tailFile(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ring := make([]string, 0, n)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if len(ring) == n {
			ring = append(ring[:0], ring[1:]...)
		}
		ring = append(ring, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ring, nil
}

// filterLogs filters log lines by level and search term
func filterLogs(lines []string, level string, search string) []string {
	filtered := make([]string, 0, len(lines))

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if level != "" && !lineMatchesLevel(line, level) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(line), strings.ToLower(search)) {
			continue
		}
		filtered = append(filtered, line)
	}

	return filtered
}

// lineMatchesLevel checks a zerolog JSON line against level
func lineMatchesLevel(line string, level string) bool {
	return strings.Contains(strings.ToLower(line), `"level":"`+strings.ToLower(level)+`"`)
}

func (h *LogHandlers) write(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	if err := respond.Write(w, r, status, data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
