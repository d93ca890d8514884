package probe

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const commandTimeout = 5 * time.Second

// runFunc executes a command and returns stdout and stderr.
type runFunc func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

// Commands runs external commands and memoizes non-empty output, so each
// distinct command line runs at most once per instance while it keeps
// succeeding. Concurrent callers of a cold command line share one run.
type Commands struct {
	mu     sync.Mutex
	cache  map[string]string
	flight singleflight.Group
	run    runFunc // injectable for tests
}

// NewCommands returns an empty memo that executes real processes.
func NewCommands() *Commands {
	return &Commands{
		cache: make(map[string]string),
		run:   execRun,
	}
}

// Output returns the trimmed stdout of name args..., falling back to stderr
// when stdout is empty. Empty output is an error and is not cached.
func (c *Commands) Output(ctx context.Context, name string, args ...string) (string, error) {
	key := name + "\x00" + strings.Join(args, "\x00")

	c.mu.Lock()
	if out, ok := c.cache[key]; ok {
		c.mu.Unlock()
		return out, nil
	}
	c.mu.Unlock()

	v, err, _ := c.flight.Do(key, func() (interface{}, error) {
		c.mu.Lock()
		out, ok := c.cache[key]
		c.mu.Unlock()
		if ok {
			return out, nil
		}

		out, err := c.exec(ctx, name, args...)
		if err != nil {
			return "", err
		}

		c.mu.Lock()
		c.cache[key] = out
		c.mu.Unlock()
		return out, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Commands) exec(ctx context.Context, name string, args ...string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	stdout, stderr, err := c.run(runCtx, name, args...)
	out := strings.TrimSpace(string(stdout))
	if out == "" {
		out = strings.TrimSpace(string(stderr))
	}
	if out == "" {
		if err != nil {
			return "", fmt.Errorf("probe: run %s: %w", name, err)
		}
		return "", fmt.Errorf("probe: run %s: empty output", name)
	}
	return out, nil
}

func execRun(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
