package segment

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"
)

var testRange = SignalRange{Min: 34, Max: 64}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func newTestSegment(t *testing.T, cfg Config, defaults Defaults) *Segment {
	t.Helper()
	if cfg.Kind == nil {
		cfg.Kind = NewConstant("test")
	}
	s, err := New(cfg, defaults, testRange)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestSegmentRender(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		defaults Defaults
		want     string
	}{
		{"constant", Config{}, Defaults{}, "test"},
		{"left separator", Config{LeftSeparator: strPtr(">")}, Defaults{}, ">test"},
		{"right separator", Config{RightSeparator: strPtr("<")}, Defaults{}, "test<"},
		{"icon", Config{Icon: strPtr("$")}, Defaults{}, "$test"},
		{
			"all",
			Config{LeftSeparator: strPtr(">"), RightSeparator: strPtr("<"), Icon: strPtr("$")},
			Defaults{},
			">$test<",
		},
		{
			"empty value shown",
			Config{Kind: NewConstant(""), LeftSeparator: strPtr(">"), RightSeparator: strPtr("<"), Icon: strPtr("$")},
			Defaults{},
			">$<",
		},
		{
			"empty value hidden",
			Config{Kind: NewConstant(""), LeftSeparator: strPtr(">"), RightSeparator: strPtr("<"), Icon: strPtr("$"), HideIfEmpty: true},
			Defaults{},
			"",
		},
		{
			"hide if empty keeps non-empty",
			Config{LeftSeparator: strPtr(">"), HideIfEmpty: true},
			Defaults{},
			">test",
		},
		{"default left separator", Config{}, Defaults{LeftSeparator: ">"}, ">test"},
		{"override default separator", Config{LeftSeparator: strPtr("!")}, Defaults{LeftSeparator: ">"}, "!test"},
		{"explicit empty separator wins", Config{RightSeparator: strPtr("")}, Defaults{RightSeparator: "|"}, "test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSegment(t, tt.cfg, tt.defaults)
			if got := s.Render(context.Background()); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSegmentFormatIdentityWithoutColoring(t *testing.T) {
	s := newTestSegment(t, Config{
		LeftSeparator:  strPtr("[ "),
		RightSeparator: strPtr(" ]"),
		Icon:           strPtr("♪ "),
	}, Defaults{})

	for _, v := range []string{"", "x", "hello world", "\x01raw"} {
		want := "[ " + "♪ " + v + " ]"
		if got := s.Format(v); got != want {
			t.Errorf("Format(%q) = %q, want %q", v, got, want)
		}
	}
}

func TestSegmentColoring(t *testing.T) {
	s := newTestSegment(t, Config{
		LeftSeparator:  strPtr(">"),
		RightSeparator: strPtr("<"),
		Icon:           strPtr("$"),
		Coloring:       Coloring{RightSeparator: Colored(3)},
	}, Defaults{
		Coloring: Coloring{Text: Colored(2), LeftSeparator: Colored(2), Icon: Colored(2), RightSeparator: Colored(4)},
	})

	want := "\x02>\x01\x02$\x01\x02test\x01\x03<\x01"
	if got := s.Render(context.Background()); got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestSegmentSignals(t *testing.T) {
	s := newTestSegment(t, Config{SignalOffsets: []int{1, 2, 1}}, Defaults{UpdateAllSignal: intPtr(2)})

	got := s.Signals()
	want := []syscall.Signal{35, 36}
	if len(got) != len(want) {
		t.Fatalf("Signals() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Signals()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"missing kind", Config{Index: 3}, "kind"},
		{"negative interval", Config{Index: 1, Kind: NewConstant(""), Interval: -time.Second}, "update_interval"},
		{"offset above SIGRTMAX", Config{Kind: NewConstant(""), SignalOffsets: []int{31}}, "signals"},
		{"negative offset", Config{Kind: NewConstant(""), SignalOffsets: []int{-1}}, "signals"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, Defaults{}, testRange)
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("New() error = %v, want *ConfigError", err)
			}
			if ce.Field != tt.field {
				t.Errorf("ConfigError.Field = %q, want %q", ce.Field, tt.field)
			}
			if ce.Segment != tt.cfg.Index {
				t.Errorf("ConfigError.Segment = %d, want %d", ce.Segment, tt.cfg.Index)
			}
		})
	}
}

func TestNewRejectsUpdateAllSignalOutOfRange(t *testing.T) {
	_, err := New(Config{Kind: NewConstant("")}, Defaults{UpdateAllSignal: intPtr(40)}, testRange)
	if !IsConfigError(err) {
		t.Errorf("New() error = %v, want ConfigError", err)
	}
}

func TestSegmentStatic(t *testing.T) {
	static := newTestSegment(t, Config{}, Defaults{})
	if !static.Static() {
		t.Error("segment without interval and signals should be static")
	}

	polled := newTestSegment(t, Config{Interval: time.Second}, Defaults{})
	if polled.Static() {
		t.Error("segment with interval should not be static")
	}

	signalled := newTestSegment(t, Config{SignalOffsets: []int{0}}, Defaults{})
	if signalled.Static() {
		t.Error("segment with signals should not be static")
	}
}

func TestSignalRange(t *testing.T) {
	if sig, err := testRange.Resolve(0); err != nil || sig != 34 {
		t.Errorf("Resolve(0) = %d, %v; want 34, nil", sig, err)
	}
	if sig, err := testRange.Resolve(30); err != nil || sig != 64 {
		t.Errorf("Resolve(30) = %d, %v; want 64, nil", sig, err)
	}
	if _, err := testRange.Resolve(31); err == nil {
		t.Error("Resolve(31) should fail")
	}
	if _, err := (SignalRange{Min: 1, Max: 0}).Resolve(0); err == nil {
		t.Error("Resolve on empty range should fail")
	}
	if !testRange.Contains(64) || testRange.Contains(65) || testRange.Contains(33) {
		t.Error("Contains() boundaries are wrong")
	}
	if off := testRange.Offset(36); off != 2 {
		t.Errorf("Offset(36) = %d, want 2", off)
	}
}
