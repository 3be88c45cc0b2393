// Package render provides the sinks that make the composed status text
// visible: the X11 root window name and a plain writer for print mode.
package render

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// WriterSink writes every published status line to an io.Writer, one line
// per publish. It is used for print mode and for bars that are not dwm.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
	// stripColors removes statuscolors escape bytes before writing.
	stripColors bool
	// codes are configured color codes outside the control range.
	codes map[rune]bool
}

// NewWriterSink creates a WriterSink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// WithStripColors controls whether color escape bytes are removed.
func (s *WriterSink) WithStripColors(strip bool) *WriterSink {
	s.stripColors = strip
	return s
}

// SetColorCodes registers the configured color codes so that codes at or
// above 0x20 are stripped too. Such a code is an escape wherever it
// appears in the line, as it is for the bar that reads it.
func (s *WriterSink) SetColorCodes(codes []uint8) {
	set := make(map[rune]bool, len(codes))
	for _, c := range codes {
		if c >= 0x20 {
			set[rune(c)] = true
		}
	}
	s.mu.Lock()
	s.codes = set
	s.mu.Unlock()
}

// Publish writes text followed by a newline.
func (s *WriterSink) Publish(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stripColors {
		text = stripColors(text, s.codes)
	}
	if _, err := fmt.Fprintln(s.w, text); err != nil {
		return fmt.Errorf("failed to write status text: %w", err)
	}
	return nil
}

// StripColors removes statuscolors escape bytes (0x01..0x1f except tab and
// newline) from text.
func StripColors(text string) string {
	return stripColors(text, nil)
}

func stripColors(text string, codes map[rune]bool) string {
	return strings.Map(func(r rune) rune {
		if (r < 0x20 && r != '\t' && r != '\n') || codes[r] {
			return -1
		}
		return r
	}, text)
}
