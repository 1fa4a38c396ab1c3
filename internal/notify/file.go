package notify

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/KirkDiggler/rpg-sheet/internal/errors"
)

const (
	dropSuffix = ".json"
	tempSuffix = ".tmp"

	// DefaultRetention is how long drop files are kept before Publish prunes them
	DefaultRetention = time.Minute
)

// FileConfig configures a FileBroadcaster
type FileConfig struct {
	Dir       string
	Retention time.Duration
}

// Validate validates the configuration
func (c *FileConfig) Validate() error {
	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("dir", c.Dir, vb)
	if c.Retention < 0 {
		vb.Field("retention", "must not be negative")
	}
	return vb.Build()
}

// FileBroadcaster exchanges messages through drop files in a shared
// directory. Each Publish writes one JSON file; subscribers are woken by
// fsnotify and read every new drop file once.
type FileBroadcaster struct {
	dir       string
	retention time.Duration
}

// NewFile creates a file-drop broadcaster, creating dir when missing
func NewFile(cfg *FileConfig) (*FileBroadcaster, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid file broadcaster config")
	}

	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, errors.WrapWithCodef(err, errors.CodeUnavailable, "failed to create notify dir %s", cfg.Dir)
	}

	retention := cfg.Retention
	if retention == 0 {
		retention = DefaultRetention
	}

	return &FileBroadcaster{dir: cfg.Dir, retention: retention}, nil
}

// Publish writes msg as a new drop file. The file is written under a
// temporary name and renamed so watchers never read a partial message.
func (b *FileBroadcaster) Publish(_ context.Context, msg Message) error {
	raw, err := encode(msg)
	if err != nil {
		return err
	}

	name, err := dropName(msg.Source)
	if err != nil {
		return errors.Wrap(err, "failed to name drop file")
	}

	tmp := filepath.Join(b.dir, name+tempSuffix)
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return errors.WrapWithCodef(err, errors.CodeUnavailable, "failed to write drop file %s", tmp)
	}
	if err := os.Rename(tmp, filepath.Join(b.dir, name+dropSuffix)); err != nil {
		_ = os.Remove(tmp)
		return errors.WrapWithCodef(err, errors.CodeUnavailable, "failed to publish drop file %s", name)
	}

	b.prune(time.Now())
	return nil
}

// Subscribe watches the directory until cancel is called or ctx ends.
// Only files that appear after Subscribe returns are delivered.
func (b *FileBroadcaster) Subscribe(ctx context.Context, h Handler) (func(), error) {
	if h == nil {
		return nil, errors.InvalidArgument("handler is required")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "failed to create fsnotify watcher")
	}
	if err := watcher.Add(b.dir); err != nil {
		_ = watcher.Close()
		return nil, errors.WrapWithCodef(err, errors.CodeUnavailable, "failed to watch %s", b.dir)
	}

	subCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		b.watch(subCtx, watcher, h)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			_ = watcher.Close()
			wg.Wait()
		})
	}, nil
}

func (b *FileBroadcaster) watch(ctx context.Context, watcher *fsnotify.Watcher, h Handler) {
	seen := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, dropSuffix) {
				continue
			}

			switch {
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				delete(seen, event.Name)
			case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
				if _, done := seen[event.Name]; done {
					continue
				}
				msg, err := readDrop(event.Name)
				if err != nil {
					slog.WarnContext(ctx, "dropping unreadable notification",
						"path", event.Name,
						"error", err.Error())
					continue
				}
				seen[event.Name] = struct{}{}
				h(msg)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.WarnContext(ctx, "notify watcher error", "dir", b.dir, "error", err.Error())
		}
	}
}

// prune removes drop files older than the retention window
func (b *FileBroadcaster) prune(now time.Time) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		slog.Warn("failed to list notify dir", "dir", b.dir, "error", err.Error())
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), dropSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) > b.retention {
			_ = os.Remove(filepath.Join(b.dir, entry.Name()))
		}
	}
}

func readDrop(path string) (Message, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- path comes from our own watch dir
	if err != nil {
		return Message{}, err
	}
	return decode(raw)
}

// dropName orders files by creation time and keeps concurrent publishers apart
func dropName(source string) (string, error) {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d-%s-%s", time.Now().UnixNano(), sanitize(source), hex.EncodeToString(suffix)), nil
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
