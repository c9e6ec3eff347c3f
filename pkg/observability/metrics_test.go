package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/parley/internal/runtime"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/dsl"
)

func TestMetrics_RecordInterpreterActivity(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	b := dsl.New("app").Initial("idle")
	b.State("idle").On(domain.EventClick, "lookup")
	b.State("lookup").Invoke("knowledge", nil).On(domain.EventClick, "idle")
	c := b.MustBuild()

	i := runtime.NewInterpreter(c, runtime.WithLifecycleHooks(m.Hooks()))
	ctx := context.Background()
	_, err = i.Start(ctx)
	require.NoError(t, err)

	cmds, err := i.Send(ctx, domain.NewEvent(domain.EventClick))
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	inv := *cmds[0].Invocation

	_, err = i.Send(ctx, domain.NewEvent(domain.EventTimeout))
	require.NoError(t, err)
	_, err = i.Send(ctx, domain.NewEvent(domain.EventClick))
	require.NoError(t, err)
	_, err = i.Send(ctx, domain.ResultEvent(inv, nil, nil))
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.stateEntries.WithLabelValues("app.idle")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stateEntries.WithLabelValues("app.lookup")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("app.idle", "CLICK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dropped.WithLabelValues("TIMEOUT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.invocations.WithLabelValues("knowledge")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.discarded.WithLabelValues("owner inactive")))
}

func TestMetrics_DoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)

	_, err = NewMetrics(reg)
	assert.Error(t, err)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	b := dsl.New("app").Initial("idle")
	b.State("idle")
	i := runtime.NewInterpreter(b.MustBuild(), runtime.WithLifecycleHooks(LoggingHooks(logger)))
	_, err := i.Start(context.Background())
	require.NoError(t, err)
	_, err = i.Send(context.Background(), domain.NewEvent(domain.EventClick))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "event_dropped")
	assert.Contains(t, out, "event=CLICK")
	assert.NotContains(t, out, "state_enter", "debug hooks stay quiet at info level")
}
