package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Override adjusts a freshly loaded AgentConfig before it is handed over,
// typically to reapply command-line flags. An error rejects that reload.
type Override func(*AgentConfig) error

// Watch reloads the agent config at path whenever the file changes and calls
// onChange with the result, after overrides. It runs until ctx is cancelled.
//
// The parent directory is watched rather than the file, so an atomic save
// that renames a new file over path is seen as a Create of path. A reload
// that fails to parse, fails validation or is rejected by an override is
// logged and the previous config stays in effect. A reload that yields the
// same config as before does not call onChange.
func Watch(ctx context.Context, path string, onChange func(AgentConfig), overrides ...Override) error {
	target := filepath.Clean(path)

	initial, err := Load(target)
	if err != nil {
		return err
	}
	current := initial.Agent
	if err := applyAll(&current, overrides); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: watch %q: %w", path, err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("config: watch %q: %w", path, err)
	}

	slog.Info("config: watching for changes", "path", target)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}

			switch {
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				// The replacement arrives as a Create of the same name.
				slog.Debug("config: file moved away, waiting for replacement", "path", target, "op", event.Op.String())
				continue
			case !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create):
				continue
			}

			next, ok := reload(target, overrides)
			if !ok {
				continue
			}
			if next == current {
				slog.Debug("config: file touched, settings unchanged", "path", target)
				continue
			}
			current = next
			slog.Info("config: reloaded",
				"path", target,
				"endpoint", next.Endpoint,
				"format", next.Format,
				"interval", next.Interval,
			)
			onChange(next)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}

func reload(path string, overrides []Override) (AgentConfig, bool) {
	cfg, err := Load(path)
	if err != nil {
		slog.Error("config: reload failed, keeping previous config", "path", path, "err", err)
		return AgentConfig{}, false
	}
	a := cfg.Agent
	if err := applyAll(&a, overrides); err != nil {
		slog.Error("config: reload rejected, keeping previous config", "path", path, "err", err)
		return AgentConfig{}, false
	}
	return a, true
}

func applyAll(a *AgentConfig, overrides []Override) error {
	for _, o := range overrides {
		if err := o(a); err != nil {
			return fmt.Errorf("config: override: %w", err)
		}
	}
	return nil
}
