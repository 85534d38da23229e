package ui

import (
	"bytes"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var labelColors = []lipgloss.AdaptiveColor{
	{Light: "#0066CC", Dark: "#00AAFF"},
	{Light: "#7D56F4", Dark: "#AD8EE6"},
	{Light: "#00AA00", Dark: "#00FF00"},
	{Light: "#CC6600", Dark: "#FFAA33"},
	{Light: "#AA0077", Dark: "#FF55CC"},
}

// LogMux interleaves line-oriented output from several servers onto one
// writer, prefixing each complete line with its source's label.
type LogMux struct {
	out        io.Writer
	mu         sync.Mutex
	writers    []*LineWriter
	timeFormat string
	now        func() time.Time
}

// NewLogMux returns a LogMux writing to out.
func NewLogMux(out io.Writer) *LogMux {
	return &LogMux{
		out:        out,
		timeFormat: "15:04:05",
		now:        time.Now,
	}
}

// Writer returns a new line writer for label.
func (m *LogMux) Writer(label string) *LineWriter {
	m.mu.Lock()
	defer m.mu.Unlock()

	style := lipgloss.NewStyle().Foreground(labelColors[len(m.writers)%len(labelColors)]).Bold(true)
	w := &LineWriter{mux: m, prefix: style.Render("["+label+"]") + " "}
	m.writers = append(m.writers, w)
	return w
}

// Flush writes out any partial lines still buffered.
func (m *LogMux) Flush() {
	m.mu.Lock()
	writers := append([]*LineWriter(nil), m.writers...)
	m.mu.Unlock()

	for _, w := range writers {
		w.Flush()
	}
}

func (m *LogMux) emit(prefix string, line []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ts := dimStyle.Render(m.now().Format(m.timeFormat))
	var b bytes.Buffer
	b.WriteString(ts)
	b.WriteByte(' ')
	b.WriteString(prefix)
	b.Write(line)
	b.WriteByte('\n')
	_, _ = m.out.Write(b.Bytes())
}

// LineWriter buffers until a newline and hands whole lines to its LogMux.
type LineWriter struct {
	mux    *LogMux
	prefix string
	mu     sync.Mutex
	buf    []byte
}

// Write implements io.Writer. It never fails.
func (w *LineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		line := bytes.TrimRight(w.buf[:i], "\r")
		if len(line) > 0 {
			w.mux.emit(w.prefix, line)
		}
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

// Flush emits a trailing line that never got its newline.
func (w *LineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.buf) > 0 {
		w.mux.emit(w.prefix, w.buf)
		w.buf = nil
	}
}
