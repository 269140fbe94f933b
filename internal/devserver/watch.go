package devserver

import (
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/spabuild/internal/bundle"
)

const DefaultDebounce = 100 * time.Millisecond

// Watcher triggers rebuilds for project files the engine does not track itself: the HTML
// template, the package manifest and the .env files.
type Watcher struct {
	watcher *fsnotify.Watcher
	match   func(string) bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// ProjectFiles returns the directories to watch and a matcher for the files in them that
// affect the build.
func ProjectFiles(cfg *bundle.Config) ([]string, func(string) bool) {
	appDir := filepath.Clean(cfg.Context)
	dirs := []string{appDir}
	files := []string{filepath.Join(appDir, "package.json")}

	if plugin, ok := cfg.Plugins.Find(bundle.HTMLPlugin{}.PluginName()); ok {
		if tmpl := plugin.(bundle.HTMLPlugin).Template; tmpl != "" {
			files = append(files, filepath.Clean(tmpl))
			if dir := filepath.Dir(tmpl); !slices.Contains(dirs, dir) {
				dirs = append(dirs, dir)
			}
		}
	}

	match := func(name string) bool {
		name = filepath.Clean(name)
		if slices.Contains(files, name) {
			return true
		}
		return filepath.Dir(name) == appDir && strings.HasPrefix(filepath.Base(name), ".env")
	}
	return dirs, match
}

// Watch watches dirs and calls onChange once per burst of matching events, after debounce.
func Watch(dirs []string, match func(string) bool, debounce time.Duration, onChange func()) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return nil, err
		}
	}

	w := &Watcher{
		watcher: watcher,
		match:   match,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	go w.loop(debounce, onChange)

	log.Debug().Strs("dirs", dirs).Dur("debounce", debounce).Msg("Watching project files")
	return w, nil
}

func (w *Watcher) loop(debounce time.Duration, onChange func()) {
	defer close(w.doneCh)

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	resetTimer := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerC = timer.C
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(debounce)
		timerC = timer.C
	}

	for {
		select {
		case <-w.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return
		case <-timerC:
			timerC = nil
			onChange()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("Project watcher error")
		case evt, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if shouldTrigger(evt) && w.match(evt.Name) {
				log.Debug().Str("file", evt.Name).Str("op", evt.Op.String()).Msg("Project file changed")
				resetTimer()
			}
		}
	}
}

func shouldTrigger(evt fsnotify.Event) bool {
	if evt.Name == "" {
		return false
	}
	return evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}

func (w *Watcher) Close() error {
	close(w.stopCh)
	err := w.watcher.Close()
	<-w.doneCh
	return err
}
