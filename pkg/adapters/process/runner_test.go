package process_test

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/parley/pkg/adapters/process"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("process tests use sh")
	}
}

func TestRunner_Execute(t *testing.T) {
	requireShell(t)
	ctx := context.Background()

	r := process.NewRunner(process.WithRegistry([]process.Config{
		{Name: "echo", Command: "sh", Args: []string{"-c", "echo $PARLEY_INPUT"}},
		{Name: "stdin", Command: "cat"},
		{Name: "args", Command: "sh", Args: []string{"-c", "echo $PARLEY_ARG_SUBJECT-$GREETING"}, Environment: map[string]string{"GREETING": "hi"}},
		{Name: "json", Command: "sh", Args: []string{"-c", `echo '{"abstract": "A poet."}'`}},
		{Name: "fail", Command: "sh", Args: []string{"-c", "echo broken >&2; exit 3"}},
	}))

	t.Run("string input via env", func(t *testing.T) {
		out, err := r.Execute(ctx, "echo", "Ada Lovelace")
		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", out)
	})

	t.Run("JSON input on stdin", func(t *testing.T) {
		out, err := r.Execute(ctx, "stdin", map[string]any{"subject": "Ada"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"subject": "Ada"}, out)
	})

	t.Run("map keys as variables", func(t *testing.T) {
		out, err := r.Execute(ctx, "args", map[string]any{"subject": "Ada"})
		require.NoError(t, err)
		assert.Equal(t, "Ada-hi", out)
	})

	t.Run("JSON output is decoded", func(t *testing.T) {
		out, err := r.Execute(ctx, "json", nil)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"abstract": "A poet."}, out)
	})

	t.Run("non-zero exit carries stderr", func(t *testing.T) {
		_, err := r.Execute(ctx, "fail", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broken")
	})

	t.Run("unregistered", func(t *testing.T) {
		_, err := r.Execute(ctx, "rm", nil)
		assert.True(t, errors.Is(err, process.ErrNotRegistered))
	})
}

func TestRunner_Timeout(t *testing.T) {
	requireShell(t)
	r := process.NewRunner(process.WithRegistry([]process.Config{
		{Name: "slow", Command: "sleep", Args: []string{"5"}, Timeout: 50 * time.Millisecond},
	}))

	start := time.Now()
	_, err := r.Execute(context.Background(), "slow", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestRunner_Invoker(t *testing.T) {
	requireShell(t)
	r := process.NewRunner()
	r.Register("upper", "sh", "-c", "tr a-z A-Z")
	assert.Equal(t, []string{"upper"}, r.Names())

	inv, err := r.Invoker("upper")
	require.NoError(t, err)
	out, err := inv(context.Background(), "ada")
	require.NoError(t, err)
	assert.Equal(t, "ADA", out)

	_, err = r.Invoker("missing")
	assert.ErrorIs(t, err, process.ErrNotRegistered)
}
