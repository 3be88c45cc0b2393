// Package dwmblocks provides the public API for embedding the go-dwmblocks
// status bar. It allows other programs to run the bar as a library
// component with full lifecycle management and configuration flexibility.
//
// # Basic Usage
//
// The simplest way to use dwmblocks is to create an instance from a
// configuration file:
//
//	bar, err := dwmblocks.New("/path/to/dwmblocks.yaml", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer bar.Stop()
//
//	if err := bar.Start(); err != nil {
//		log.Fatal(err)
//	}
//
// # Configuration Sources
//
// A Bar can be configured from three sources:
//
//   - Disk file: Use [New] to load from a filesystem path
//   - Embedded FS: Use [NewFromFS] to load from an [io/fs.FS]
//   - io.Reader: Use [NewFromReader] for generated configurations
//
// Configurations are YAML, TOML or Lua; all three decode to the same
// structure and are validated before anything is published.
//
// # Where the Text Goes
//
// By default the status text becomes the name of the X11 root window,
// which is where dwm reads its status bar from. Set [Options.Print] to
// write lines to stdout instead, or [Options.Publisher] to receive them
// directly:
//
//	bar, _ := dwmblocks.New(path, &dwmblocks.Options{
//		Publisher: myPublisher,
//	})
//
// # Lifecycle Management
//
// The [Bar] interface provides full lifecycle control:
//
//   - [Bar.Start] computes every segment and publishes the first line
//   - [Bar.Stop] cancels running segment programs and shuts down
//   - [Bar.ReloadConfig] swaps in a new segment set on the same sink
//   - [Bar.Trigger] refreshes one segment, like its signal would
//
// All methods are thread-safe and can be called from any goroutine.
//
// # Error Handling
//
// Runtime errors are reported through [ErrorHandler]:
//
//	bar.SetErrorHandler(func(err error) {
//		log.Printf("dwmblocks error: %v", err)
//	})
//
// The handler is called asynchronously; do not block in the handler.
package dwmblocks
