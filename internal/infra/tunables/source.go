package tunables

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/yanqian/solarinfra/internal/domain/estimator"
	"github.com/yanqian/solarinfra/internal/infra/config"
)

const defaultDebounce = 200 * time.Millisecond

// Source serves estimator constants from a YAML file, swapping them in when the file changes.
type Source struct {
	path     string
	base     estimator.Config
	current  atomic.Pointer[estimator.Config]
	reloads  atomic.Int64
	debounce time.Duration
	logger   *slog.Logger
}

// NewSource loads path over base. An empty path serves base forever.
func NewSource(path string, base estimator.Config, logger *slog.Logger) (*Source, error) {
	if err := base.Validate(); err != nil {
		return nil, fmt.Errorf("base estimator config: %w", err)
	}
	s := &Source{
		base:     base,
		debounce: defaultDebounce,
		logger:   logger.With("component", "tunables.source"),
	}
	s.current.Store(&base)
	if path == "" {
		return s, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve tunables path: %w", err)
	}
	s.path = abs
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Current implements estimator.ConfigSource.
func (s *Source) Current() estimator.Config {
	return *s.current.Load()
}

// Reloads counts successful reloads, including the initial load.
func (s *Source) Reloads() int64 {
	return s.reloads.Load()
}

// Reload re-reads the file. Invalid content leaves the current constants untouched.
func (s *Source) Reload() error {
	if s.path == "" {
		return nil
	}
	cfg, err := ParseFile(s.path, s.base)
	if err != nil {
		return err
	}
	s.current.Store(&cfg)
	s.reloads.Add(1)
	s.logger.Info("estimator tunables loaded", "path", s.path,
		"yieldFactor", cfg.Sizing.YieldFactor, "tariffPerKWh", cfg.Heuristic.TariffPerKWh)
	return nil
}

// ParseFile overlays the YAML file at path on base and validates the result.
func ParseFile(path string, base estimator.Config) (estimator.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return estimator.Config{}, fmt.Errorf("read tunables: %w", err)
	}
	doc := config.EstimatorFrom(base)
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return estimator.Config{}, fmt.Errorf("parse tunables: %w", err)
	}
	cfg := doc.Domain()
	if err := cfg.Validate(); err != nil {
		return estimator.Config{}, fmt.Errorf("invalid tunables: %w", err)
	}
	return cfg, nil
}

// Watch reloads on file changes until ctx is done. The parent directory is watched so
// editors that replace the file by rename are handled.
func (s *Source) Watch(ctx context.Context) error {
	if s.path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(s.path), err)
	}
	go s.run(ctx, watcher)
	return nil
}

func (s *Source) run(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(s.debounce)
			fire = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("tunables watcher error", "error", err)
		case <-fire:
			fire = nil
			if err := s.Reload(); err != nil {
				s.logger.Warn("tunables reload rejected, keeping previous values", "path", s.path, "error", err)
			}
		}
	}
}

var _ estimator.ConfigSource = (*Source)(nil)
