package dwmblocks

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce is the default debounce interval for file watch events.
const DefaultWatchDebounce = 500 * time.Millisecond

// configWatcher reloads the bar when its configuration file changes.
type configWatcher struct {
	watcher   *fsnotify.Watcher
	absPath   string
	baseName  string
	debounce  time.Duration
	onReload  func() error
	onError   func(error)
	stopCh    chan struct{}
	stoppedCh chan struct{}
	once      sync.Once
}

// newConfigWatcher watches filePath. onReload runs on the watcher goroutine
// once the file has been quiet for debounce; its error and any watch error
// go to onError.
func newConfigWatcher(filePath string, debounce time.Duration, onReload func() error, onError func(error)) (*configWatcher, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory, not the file: editors that save by renaming a
	// temporary file over the original would otherwise drop the watch.
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return nil, err
	}

	cw := &configWatcher{
		watcher:   watcher,
		absPath:   absPath,
		baseName:  filepath.Base(absPath),
		debounce:  debounce,
		onReload:  onReload,
		onError:   onError,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
	go cw.watchLoop()
	return cw, nil
}

// Stop stops the watcher and waits for its goroutine. Safe to call more
// than once.
func (cw *configWatcher) Stop() {
	cw.once.Do(func() { close(cw.stopCh) })
	<-cw.stoppedCh
}

func (cw *configWatcher) matches(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	if filepath.Base(event.Name) == cw.baseName {
		return true
	}
	abs, err := filepath.Abs(event.Name)
	return err == nil && abs == cw.absPath
}

func (cw *configWatcher) watchLoop() {
	defer close(cw.stoppedCh)
	defer cw.watcher.Close()

	var debounceTimer *time.Timer
	var debounceCh <-chan time.Time

	for {
		select {
		case <-cw.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if !cw.matches(event) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(cw.debounce)
			debounceCh = debounceTimer.C

		case <-debounceCh:
			debounceTimer = nil
			debounceCh = nil
			if cw.onReload == nil {
				continue
			}
			if err := cw.onReload(); err != nil && cw.onError != nil {
				cw.onError(err)
			}

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			if cw.onError != nil {
				cw.onError(err)
			}
		}
	}
}
