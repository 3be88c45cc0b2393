package dwmblocks

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// recordingPublisher records every line it is asked to publish.
type recordingPublisher struct {
	mu    sync.Mutex
	lines []string
	fail  atomic.Bool
}

func (p *recordingPublisher) Publish(text string) error {
	if p.fail.Load() {
		return errors.New("display connection lost")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lines = append(p.lines, text)
	return nil
}

func (p *recordingPublisher) Lines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.lines...)
}

func (p *recordingPublisher) Last() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.lines) == 0 {
		return ""
	}
	return p.lines[len(p.lines)-1]
}

// syncBuffer is a bytes.Buffer safe for the writer sink and the test to share.
type syncBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testOptions(pub Publisher) *Options {
	opts := DefaultOptions()
	opts.Publisher = pub
	opts.Logger = NopLogger()
	opts.Metrics = NewMetrics()
	opts.ShutdownTimeout = 2 * time.Second
	return &opts
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "dwmblocks.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func newTestBar(t *testing.T, content string, opts *Options) Bar {
	t.Helper()
	b, err := NewFromReader(strings.NewReader(content), FormatYAML, opts)
	if err != nil {
		t.Fatalf("NewFromReader failed: %v", err)
	}
	t.Cleanup(func() { b.Stop() })
	return b
}

// waitFor polls cond until it holds or two seconds pass.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
