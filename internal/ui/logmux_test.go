package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestLogMuxPrefixesWholeLines(t *testing.T) {
	var out bytes.Buffer
	mux := NewLogMux(&out)
	mux.now = func() time.Time { return time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC) }

	a := mux.Writer("8000")
	b := mux.Writer("8001")

	a.Write([]byte("listening on "))
	b.Write([]byte("GET /index.php\r\n\n"))
	a.Write([]byte("localhost:8000\nPHP 8.2"))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), out.String())
	}
	if !strings.Contains(lines[0], "[8001]") || !strings.HasSuffix(lines[0], "GET /index.php") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.Contains(lines[1], "[8000]") || !strings.HasSuffix(lines[1], "listening on localhost:8000") {
		t.Errorf("line 1 = %q", lines[1])
	}
	if !strings.Contains(lines[0], "09:30:00") {
		t.Errorf("line 0 missing timestamp: %q", lines[0])
	}

	mux.Flush()
	if !strings.HasSuffix(strings.TrimRight(out.String(), "\n"), "PHP 8.2") {
		t.Errorf("flush did not emit trailing partial line:\n%s", out.String())
	}
}
