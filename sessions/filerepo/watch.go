package filerepo

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// changeDebounce folds the create and rename events of one Save into one call
const changeDebounce = 50 * time.Millisecond

// Watch calls onChange whenever another writer replaces or removes the
// record, until ctx is cancelled. The parent directory is watched since Save
// renames a temporary file into place. The watch is registered before Watch
// returns.
func (r *Repo) Watch(ctx context.Context, onChange func()) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "filerepo.Watch MkdirAll")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "filerepo.Watch NewWatcher")
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return errors.Wrap(err, "filerepo.Watch Add")
	}

	go r.watchLoop(ctx, watcher, onChange)
	return nil
}

func (r *Repo) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, onChange func()) {
	defer watcher.Close()

	target := filepath.Clean(r.path)
	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target || event.Op == fsnotify.Chmod {
				continue
			}
			debounce = time.After(changeDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Str("path", r.path).Msg("session file watch error")
		case <-debounce:
			debounce = nil
			onChange()
		}
	}
}
