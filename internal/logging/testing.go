package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// TestLogger captures JSON log output for assertions.
type TestLogger struct {
	Logger zerolog.Logger
	Buffer *bytes.Buffer
}

// NewTestLogger creates a trace-level JSON logger writing to a buffer.
func NewTestLogger(t testing.TB) *TestLogger {
	t.Helper()
	buf := &bytes.Buffer{}
	return &TestLogger{
		Logger: zerolog.New(buf).Level(zerolog.TraceLevel),
		Buffer: buf,
	}
}

// Entries decodes every captured line. Lines that are not JSON are skipped.
func (tl *TestLogger) Entries() []map[string]any {
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(tl.Buffer.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out
}

// AtLevel returns the captured entries logged at level.
func (tl *TestLogger) AtLevel(level string) []map[string]any {
	var out []map[string]any
	for _, e := range tl.Entries() {
		if e[zerolog.LevelFieldName] == level {
			out = append(out, e)
		}
	}
	return out
}
