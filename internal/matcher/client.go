package matcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/task"
	"github.com/hashicorp/go-plugin"
)

// DefaultCallTimeout bounds a single Match call to the plugin process.
const DefaultCallTimeout = 5 * time.Second

var (
	// ErrPluginPath is returned when the plugin binary cannot be used.
	ErrPluginPath = errors.New("invalid matcher plugin path")
	// ErrNotMatcher is returned when the dispensed plugin is not a Service.
	ErrNotMatcher = errors.New("plugin does not implement the matcher service")
)

// Matcher adapts a Service to task.Matcher. A failing call is logged and
// treated as no match, so reconciliation degrades to "no matching task".
type Matcher struct {
	svc     Service
	timeout time.Duration
	logger  *slog.Logger
	client  *plugin.Client
}

// NewMatcher wraps svc. It is used directly in tests and by Load.
func NewMatcher(svc Service, timeout time.Duration, logger *slog.Logger) *Matcher {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{svc: svc, timeout: timeout, logger: logger}
}

// Match implements task.Matcher.
func (m *Matcher) Match(key string, candidates []*task.Task) (*task.Task, bool) {
	if len(candidates) == 0 {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	wire := make([]Candidate, 0, len(candidates))
	for _, t := range candidates {
		wire = append(wire, Candidate{ID: t.ID, Content: t.Content})
	}
	id, found, err := m.svc.Match(ctx, key, wire)
	if err != nil {
		m.logger.Warn("matcher plugin call failed", "key", key, "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	for _, t := range candidates {
		if t.ID == id {
			return t, true
		}
	}
	m.logger.Warn("matcher plugin returned unknown task", "key", key, "task_id", id)
	return nil, false
}

// Close stops the plugin process, if any.
func (m *Matcher) Close() {
	if m.client != nil {
		m.client.Kill()
	}
}

var _ task.Matcher = (*Matcher)(nil)

// Load starts the matcher binary at path and connects to it.
func Load(path string, logger *slog.Logger) (*Matcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	binary, err := validatePath(path)
	if err != nil {
		return nil, err
	}

	logger.Info("loading matcher plugin", "binary", binary)

	// #nosec G204 -- binary path is validated by validatePath
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig: Handshake,
		Plugins:         PluginMap(nil),
		Cmd:             exec.Command(binary),
		Logger:          newHclogAdapter(logger),
		AllowedProtocols: []plugin.Protocol{
			plugin.ProtocolGRPC,
		},
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("connect matcher plugin: %w", err)
	}
	raw, err := rpcClient.Dispense(PluginName)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("dispense matcher plugin: %w", err)
	}
	svc, ok := raw.(Service)
	if !ok {
		client.Kill()
		return nil, ErrNotMatcher
	}

	m := NewMatcher(svc, DefaultCallTimeout, logger)
	m.client = client
	return m, nil
}

func validatePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty", ErrPluginPath)
	}
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPluginPath, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPluginPath, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrPluginPath, abs)
	}
	if info.Mode()&0o111 == 0 {
		return "", fmt.Errorf("%w: %s is not executable", ErrPluginPath, abs)
	}
	return abs, nil
}
