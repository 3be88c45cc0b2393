package scheduler

import (
	"strings"
	"time"

	"github.com/opd-ai/go-dwmblocks/internal/segment"
)

// Publisher makes the composed status text visible, e.g. as the root
// window name. Publish is expected to be synchronous and fast.
type Publisher interface {
	Publish(text string) error
}

// RetryAfterError is implemented by publish errors that know when the sink
// will accept text again. The scheduler publishes again at that point even
// if no segment changes in between.
type RetryAfterError interface {
	error
	RetryAfter() time.Duration
}

// Compositor joins the cached segment texts and publishes the result when
// it changes. It is not safe for concurrent use; the scheduler loop is its
// only writer.
type Compositor struct {
	texts     []string
	sink      Publisher
	published string
	// hasPublished is false until the first successful publish, so an
	// initial empty line is still written once.
	hasPublished bool
}

// NewCompositor creates a Compositor for n segments.
func NewCompositor(n int, sink Publisher) *Compositor {
	return &Compositor{
		texts: make([]string, n),
		sink:  sink,
	}
}

// Set stores the rendered text of segment id.
func (c *Compositor) Set(id segment.ID, text string) {
	c.texts[id] = text
}

// Compose returns the segment texts joined in configuration order.
func (c *Compositor) Compose() string {
	return strings.Join(c.texts, "")
}

// Published returns the last successfully published text.
func (c *Compositor) Published() string {
	return c.published
}

// PublishIfChanged publishes the composed text if it differs from the last
// published one. It reports whether the sink was called. On a sink error
// the text is not recorded, so the next call retries.
func (c *Compositor) PublishIfChanged() (bool, error) {
	text := c.Compose()
	if c.hasPublished && text == c.published {
		return false, nil
	}
	if err := c.sink.Publish(text); err != nil {
		return true, err
	}
	c.published = text
	c.hasPublished = true
	return true, nil
}
