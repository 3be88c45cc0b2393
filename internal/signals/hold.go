package signals

import (
	"os"
	"os/signal"
	"sync"
)

// Hold registers a throwaway channel for every subscribed signal and returns
// a function that unregisters it. While held, a signal that arrives with no
// Listen active is dropped instead of taking its default action, which for
// real-time signals terminates the process. Callers hold the next router's
// signals across the gap between stopping one listener and starting another.
func (r *Router) Hold() (release func()) {
	if len(r.order) == 0 {
		return func() {}
	}

	// Delivery to a full channel is dropped by os/signal, so a one-slot
	// channel that is never read is enough.
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, r.Signals()...)

	var once sync.Once
	return func() {
		once.Do(func() { signal.Stop(ch) })
	}
}
