package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/parley/internal/runtime"
	"github.com/aretw0/parley/pkg/chart"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/dsl"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/session"
)

func askChart() *chart.Chart {
	b := dsl.New("app").Initial("ask")
	b.State("ask").
		Entry(dsl.Speak("name?"), dsl.Listen()).
		On(domain.EventRecognised, "done", dsl.Assign("name", func(_ domain.Context, ev domain.Event) domain.Patch {
			rec, _ := ev.Recognition()
			return domain.Patch{"name": rec.Utterance, "confidence": rec.Confidence}
		}))
	b.Final("done")
	return b.MustBuild()
}

func newTestServer() *Server {
	c := askChart()
	n := 0
	m := session.NewManager(func(id string) ports.Interpreter {
		return runtime.NewInterpreter(c, runtime.WithSessionID(id))
	}, session.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("s%d", n)
	}))
	return NewServer(m, c, "test")
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func TestServer_Conversation(t *testing.T) {
	s := newTestServer()
	ctx := context.Background()

	turn, err := s.handleStart(ctx, mcp.CallToolRequest{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "s1", turn.SessionID)
	assert.Equal(t, []domain.Command{domain.Speak("name?"), domain.Listen()}, turn.Commands)

	turn, err = s.handleSend(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"session_id": "s1",
		"type":       "RECOGNISED",
		"utterance":  "Ada",
		"confidence": 0.8,
		"prediction": `{"topIntent": "", "entities": []}`,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, turn.Snapshot.Status)
	assert.Equal(t, "Ada", turn.Snapshot.Context["name"])
	assert.Equal(t, 0.8, turn.Snapshot.Context["confidence"])
	require.NotNil(t, turn.Diff)

	turn, err = s.handleRestart(ctx, mcp.CallToolRequest{}, map[string]interface{}{"session_id": "s1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"app.ask"}, turn.Snapshot.Configuration)
}

func TestServer_SendRejectsBadInput(t *testing.T) {
	s := newTestServer()
	ctx := context.Background()
	_, err := s.handleStart(ctx, mcp.CallToolRequest{}, nil)
	require.NoError(t, err)

	_, err = s.handleSend(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"session_id": "s1", "type": "RECOGNISED", "prediction": "not json",
	})
	assert.ErrorIs(t, err, session.ErrInvalidEvent)

	_, err = s.handleSend(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"session_id": "ghost", "type": "CLICK",
	})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestServer_SnapshotChartAndEnd(t *testing.T) {
	s := newTestServer()
	ctx := context.Background()
	_, err := s.handleStart(ctx, mcp.CallToolRequest{}, nil)
	require.NoError(t, err)

	res, err := s.handleSnapshot(ctx, callRequest(map[string]any{"session_id": "s1"}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	text := res.Content[0].(mcp.TextContent).Text
	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal([]byte(text), &snap))
	assert.Equal(t, []string{"app.ask"}, snap.Configuration)

	res, err = s.handleChart(ctx, callRequest(map[string]any{"session_id": "s1"}))
	require.NoError(t, err)
	chartText := res.Content[0].(mcp.TextContent).Text
	assert.Contains(t, chartText, "stateDiagram-v2")
	assert.Contains(t, chartText, "class app_ask current;")

	res, err = s.handleEnd(ctx, callRequest(map[string]any{"session_id": "s1"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	res, err = s.handleSnapshot(ctx, callRequest(map[string]any{"session_id": "s1"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleEnd(ctx, callRequest(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError, "session_id is required")
}
