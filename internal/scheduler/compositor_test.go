package scheduler

import (
	"reflect"
	"testing"

	"github.com/opd-ai/go-dwmblocks/internal/segment"
)

func TestCompositorPublishesOnlyChanges(t *testing.T) {
	sink := &recordingSink{}
	c := NewCompositor(3, sink)
	c.Set(0, "a")
	c.Set(1, "")
	c.Set(2, "c")

	if got := c.Compose(); got != "ac" {
		t.Fatalf("Compose() = %q, want %q", got, "ac")
	}

	steps := []struct {
		id      int
		text    string
		changed bool
	}{
		{-1, "", true}, // first publish
		{0, "a", false},
		{1, "b", true},
		{1, "b", false},
		{2, "", true},
	}
	for i, st := range steps {
		if st.id >= 0 {
			c.Set(segment.ID(st.id), st.text)
		}
		changed, err := c.PublishIfChanged()
		if err != nil {
			t.Fatalf("step %d: PublishIfChanged() error = %v", i, err)
		}
		if changed != st.changed {
			t.Errorf("step %d: changed = %v, want %v", i, changed, st.changed)
		}
	}

	want := []string{"ac", "abc", "ab"}
	if got := sink.Published(); !reflect.DeepEqual(got, want) {
		t.Errorf("published = %q, want %q", got, want)
	}
	if c.Published() != "ab" {
		t.Errorf("Published() = %q, want %q", c.Published(), "ab")
	}
}

func TestCompositorEmptyLinePublishedOnce(t *testing.T) {
	sink := &recordingSink{}
	c := NewCompositor(1, sink)

	for i := 0; i < 3; i++ {
		if _, err := c.PublishIfChanged(); err != nil {
			t.Fatalf("PublishIfChanged() error = %v", err)
		}
	}
	if got := sink.Published(); !reflect.DeepEqual(got, []string{""}) {
		t.Errorf("published = %q, want one empty line", got)
	}
}

func TestCompositorRetriesAfterSinkError(t *testing.T) {
	sink := &recordingSink{}
	c := NewCompositor(1, sink)
	c.Set(0, "x")

	sink.fail.Store(true)
	changed, err := c.PublishIfChanged()
	if err == nil || !changed {
		t.Fatalf("PublishIfChanged() = (%v, %v), want (true, error)", changed, err)
	}
	if c.Published() != "" {
		t.Errorf("failed publish must not be recorded, got %q", c.Published())
	}

	sink.fail.Store(false)
	changed, err = c.PublishIfChanged()
	if err != nil || !changed {
		t.Fatalf("retry PublishIfChanged() = (%v, %v), want (true, nil)", changed, err)
	}
	if got := sink.Published(); !reflect.DeepEqual(got, []string{"x"}) {
		t.Errorf("published = %q, want [x]", got)
	}
}
