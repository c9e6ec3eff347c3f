// Package process serves invocations by running local commands.
//
// Only commands registered up front can run. The invocation input reaches
// the command through the environment (never as flags) and as JSON on
// stdin. Stdout that parses as a JSON object or array is returned decoded,
// anything else as trimmed text. A non-zero exit is an invocation error
// carrying stderr.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
	"strings"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/ports"
)

// EnvInput carries the whole input, JSON encoded unless it is a string.
const EnvInput = "PARLEY_INPUT"

// EnvArgPrefix prefixes one variable per key of a map input.
const EnvArgPrefix = "PARLEY_ARG_"

// ErrNotRegistered is returned for names missing from the allow-list.
var ErrNotRegistered = errors.New("process not registered")

// Runner holds the allow-list of commands.
type Runner struct {
	registry map[string]Config
	baseDir  string
	logger   *slog.Logger
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithRegistry populates the allow-list from configuration.
func WithRegistry(procs []Config) RunnerOption {
	return func(r *Runner) {
		for _, p := range procs {
			if p.Name != "" {
				r.registry[p.Name] = p
			}
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithLogger configures the structured logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = l
	}
}

// NewRunner creates a new process runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]Config),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list.
func (r *Runner) Register(name string, command string, args ...string) {
	r.registry[name] = Config{Name: name, Command: command, Args: args}
}

// Names lists the registered names, sorted.
func (r *Runner) Names() []string {
	names := make([]string, 0, len(r.registry))
	for name := range r.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoker adapts a registered command to ports.Invoker.
func (r *Runner) Invoker(name string) (ports.Invoker, error) {
	if _, ok := r.registry[name]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}
	return func(ctx context.Context, input any) (any, error) {
		return r.Execute(ctx, name, input)
	}, nil
}

// Execute runs the named command with input.
func (r *Runner) Execute(ctx context.Context, name string, input any) (any, error) {
	proc, ok := r.registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}
	if proc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, proc.Timeout)
		defer cancel()
	}

	stdin, env, err := encodeInput(input)
	if err != nil {
		return nil, fmt.Errorf("failed to encode input for %s: %w", name, err)
	}

	cmd := exec.CommandContext(ctx, proc.Command, proc.Args...)
	cmd.Dir = r.baseDir
	cmd.Env = cmd.Environ()
	for k, v := range proc.Environment {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Env = append(cmd.Env, env...)
	cmd.Stdin = bytes.NewReader(stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("Running process", "name", name, "command", proc.Command)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return decodeOutput(stdout.String()), nil
}

func encodeInput(input any) ([]byte, []string, error) {
	var whole string
	switch v := input.(type) {
	case nil:
	case string:
		whole = v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, nil, err
		}
		whole = string(data)
	}
	env := []string{EnvInput + "=" + whole}

	if m, ok := input.(map[string]any); ok {
		for k, v := range m {
			env = append(env, EnvArgPrefix+strings.ToUpper(k)+"="+argValue(v))
		}
	}
	return []byte(whole), env, nil
}

func argValue(v any) string {
	switch v.(type) {
	case string, int, int64, float64, bool:
		return fmt.Sprintf("%v", v)
	case nil:
		return ""
	}
	if data, err := json.Marshal(v); err == nil {
		return string(data)
	}
	return fmt.Sprintf("%v", v)
}

func decodeOutput(out string) any {
	trimmed := strings.TrimSpace(out)
	if (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
		var v any
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return v
		}
	}
	return trimmed
}
