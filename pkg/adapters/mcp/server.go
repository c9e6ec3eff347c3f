// Package mcp exposes dialogue sessions as Model Context Protocol tools, so
// an agent can hold a conversation with a chart: it starts a session, plays
// the SPEAK commands it receives, and answers LISTEN with send_event.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/internal/presentation/graph"
	"github.com/aretw0/parley/pkg/chart"
	"github.com/aretw0/parley/pkg/session"
)

// ChartURI addresses the Mermaid rendering of the chart.
const ChartURI = "parley://chart"

// Server wraps a session manager and exposes it as an MCP server.
type Server struct {
	sessions  *session.Manager
	chart     *chart.Chart
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a new MCP server for the sessions of one chart.
func NewServer(sessions *session.Manager, c *chart.Chart, version string, opts ...Option) *Server {
	s := &Server{
		sessions: sessions,
		chart:    c,
		logger:   logging.NewNop(),
		mcpServer: server.NewMCPServer("parley-mcp", version,
			server.WithToolCapabilities(true),
			server.WithResourceCapabilities(false, true),
			server.WithRecovery(),
			server.WithInstructions(instructions),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

const instructions = `Parley runs spoken dialogues as statecharts.
Call start_session, then say every SPEAK text to the user in order and call
send_event with type ENDSPEECH after each one. When a LISTEN command arrives,
send the user's answer as a RECOGNISED event, or TIMEOUT if they stay silent.
Stop when the snapshot status is "done".`

// MCPServer returns the underlying server, e.g. for custom transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Start a new conversation. Returns its id and the first commands."),
		mcp.WithOutputSchema[session.Turn](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("send_event",
		mcp.WithDescription("Deliver one event to a conversation and return the commands it produced."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation id from start_session")),
		mcp.WithString("type", mcp.Required(), mcp.Description("RECOGNISED, TIMEOUT, ENDSPEECH, CLICK, done.invoke or error.invoke")),
		mcp.WithString("utterance", mcp.Description("What the user said (RECOGNISED only)")),
		mcp.WithNumber("confidence", mcp.Description("Recognition confidence in [0, 1], default 1")),
		mcp.WithString("prediction", mcp.Description(`JSON object {"topIntent": "...", "entities": [...]}`)),
		mcp.WithString("result", mcp.Description("JSON invocation result for done.invoke / error.invoke")),
		mcp.WithOutputSchema[session.Turn](),
	), mcp.NewStructuredToolHandler(s.handleSend))

	s.mcpServer.AddTool(mcp.NewTool("restart_session",
		mcp.WithDescription("Force a conversation back to its initial state."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation id")),
		mcp.WithOutputSchema[session.Turn](),
	), mcp.NewStructuredToolHandler(s.handleRestart))

	s.mcpServer.AddTool(mcp.NewTool("get_snapshot",
		mcp.WithDescription("Return the active states and slots of a conversation."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation id")),
	), s.handleSnapshot)

	s.mcpServer.AddTool(mcp.NewTool("end_session",
		mcp.WithDescription("Discard a conversation."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation id")),
	), s.handleEnd)

	s.mcpServer.AddTool(mcp.NewTool("get_chart",
		mcp.WithDescription("Return the dialogue chart as a Mermaid state diagram, highlighting a conversation if given."),
		mcp.WithString("session_id", mcp.Description("Conversation to highlight (optional)")),
	), s.handleChart)
}

func (s *Server) handleStart(ctx context.Context, _ mcp.CallToolRequest, _ map[string]interface{}) (session.Turn, error) {
	turn, err := s.sessions.Create(ctx)
	if err != nil {
		return session.Turn{}, err
	}
	return *turn, nil
}

func (s *Server) handleSend(ctx context.Context, _ mcp.CallToolRequest, args map[string]interface{}) (session.Turn, error) {
	id, _ := args["session_id"].(string)

	// Nested objects arrive as JSON strings; everything else maps directly.
	raw := make(map[string]any, len(args))
	for k, v := range args {
		if k == "session_id" {
			continue
		}
		if str, ok := v.(string); ok && (k == "prediction" || k == "result") {
			var obj map[string]any
			if err := json.Unmarshal([]byte(str), &obj); err != nil {
				return session.Turn{}, fmt.Errorf("%w: %s is not a JSON object: %v", session.ErrInvalidEvent, k, err)
			}
			v = obj
		}
		raw[k] = v
	}

	ev, err := session.DecodeEvent(raw)
	if err != nil {
		s.logger.Warn("MCP send_event: event rejected", "session_id", id, "err", err)
		return session.Turn{}, err
	}
	return s.step(s.sessions.Send(ctx, id, ev))
}

func (s *Server) handleRestart(ctx context.Context, _ mcp.CallToolRequest, args map[string]interface{}) (session.Turn, error) {
	id, _ := args["session_id"].(string)
	return s.step(s.sessions.Restart(ctx, id))
}

func (s *Server) step(turn *session.Turn, err error) (session.Turn, error) {
	if err != nil {
		return session.Turn{}, err
	}
	return *turn, nil
}

func (s *Server) handleSnapshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap, err := s.sessions.Snapshot(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleEnd(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("session " + id + " ended"), nil
}

func (s *Server) handleChart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var overlay *graph.Overlay
	if id := request.GetString("session_id", ""); id != "" {
		snap, err := s.sessions.Snapshot(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		overlay = &graph.Overlay{Active: snap.Active}
	}
	return mcp.NewToolResultText(graph.GenerateMermaid(s.chart, overlay)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(ChartURI, "Dialogue chart",
		mcp.WithResourceDescription("Mermaid stateDiagram-v2 of the chart every session runs"),
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      ChartURI,
				MIMEType: "text/plain",
				Text:     graph.GenerateMermaid(s.chart, nil),
			},
		}, nil
	})
}
