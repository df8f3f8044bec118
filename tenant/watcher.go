package tenant

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/burrowcms/burrow/errors"
)

// Watcher auto-registers tenants for store files that appear in the base
// directory. A file named tenant-<id>.db registers <id> as an embedded
// tenant. Removal events are ignored: tenant deletion is an explicit
// operation, not a filesystem side effect.
type Watcher struct {
	registry *Registry
	baseDir  string
	logger   *zap.SugaredLogger
	fsw      *fsnotify.Watcher
}

// NewWatcher creates a discovery watcher over the registry's base directory.
func NewWatcher(registry *Registry, logger *zap.SugaredLogger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create fsnotify watcher")
	}

	return &Watcher{
		registry: registry,
		baseDir:  registry.cfg.Storage.BaseDir,
		logger:   logger.Named("discovery"),
		fsw:      fsw,
	}, nil
}

// Run scans existing store files, then watches for new ones until the
// context is cancelled. Blocks; run it in its own goroutine.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.scanExisting(); err != nil {
		return err
	}

	if err := w.fsw.Add(w.baseDir); err != nil {
		return errors.Wrapf(err, "watch %s", w.baseDir)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if event.Op.Has(fsnotify.Create) {
				w.maybeRegister(event.Name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warnw("Watcher error", "error", err.Error())
		}
	}
}

// Close stops the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// scanExisting registers tenants for store files already on disk.
func (w *Watcher) scanExisting() error {
	_, err := Discover(w.registry)
	return err
}

// Discover scans the registry's base directory and registers an embedded
// tenant for every tenant-<id>.db file found. Already-registered tenants
// are skipped. Returns the ids registered by this call.
func Discover(r *Registry) ([]string, error) {
	baseDir := r.cfg.Storage.BaseDir
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return nil, errors.Wrapf(err, "scan %s", baseDir)
	}

	var discovered []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, ok := idFromStorePath(filepath.Join(baseDir, entry.Name()))
		if !ok {
			continue
		}
		if _, err := r.Register(id, KindEmbedded); err == nil {
			discovered = append(discovered, id)
		}
	}
	return discovered, nil
}

// maybeRegister registers the tenant a store filename encodes, if any.
// Already-registered tenants and foreign filenames are skipped silently;
// files with an invalid embedded id are logged and skipped.
func (w *Watcher) maybeRegister(path string) {
	id, ok := idFromStorePath(path)
	if !ok {
		return
	}

	_, err := w.registry.Register(id, KindEmbedded)
	switch {
	case err == nil:
		w.logger.Infow("Discovered tenant store", "tenant", id, "path", path)
	case errors.IsDuplicateTenant(err):
		// already known
	default:
		w.logger.Warnw("Skipping store file", "path", path, "error", err.Error())
	}
}

// idFromStorePath extracts the tenant id from a tenant-<id>.db filename.
func idFromStorePath(path string) (string, bool) {
	name := filepath.Base(path)
	if !strings.HasPrefix(name, "tenant-") || !strings.HasSuffix(name, ".db") {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(name, "tenant-"), ".db")
	return id, id != ""
}
