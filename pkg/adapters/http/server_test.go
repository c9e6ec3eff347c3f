package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/parley/internal/runtime"
	parleyhttp "github.com/aretw0/parley/pkg/adapters/http"
	"github.com/aretw0/parley/pkg/chart"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/dsl"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/session"
)

func testChart() *chart.Chart {
	b := dsl.New("app").Initial("idle")
	b.State("idle").
		Entry(dsl.Speak("ready")).
		On(domain.EventClick, "ask")
	b.State("ask").
		Entry(dsl.Speak("say something"), dsl.Listen()).
		On(domain.EventRecognised, "heard", dsl.Set("heard", true)).
		On(domain.EventTimeout, "idle")
	b.State("heard").
		Always("done")
	b.Final("done")
	return b.MustBuild()
}

func cycleChart() *chart.Chart {
	b := dsl.New("loop").Initial("a")
	b.State("a").On(domain.EventClick, "b")
	b.State("b").Always("c")
	b.State("c").Always("b")
	return b.MustBuild()
}

func newServer(t *testing.T, c *chart.Chart) *httptest.Server {
	t.Helper()
	n := 0
	m := session.NewManager(func(id string) ports.Interpreter {
		return runtime.NewInterpreter(c, runtime.WithSessionID(id))
	}, session.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("s%d", n)
	}))
	srv := httptest.NewServer(parleyhttp.NewHandler(m, c, parleyhttp.WithVersion("test")))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, body string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestServer_HealthAndInfo(t *testing.T) {
	srv := newServer(t, testChart())

	var health map[string]string
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/health", "", &health))
	assert.Equal(t, "ok", health["status"])

	var info map[string]string
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/info", "", &info))
	assert.Equal(t, "test", info["version"])
	assert.Equal(t, "app", info["chart"])
}

func TestServer_SessionLifecycle(t *testing.T) {
	srv := newServer(t, testChart())

	var created session.Turn
	require.Equal(t, http.StatusCreated, doJSON(t, http.MethodPost, srv.URL+"/sessions", "", &created))
	assert.Equal(t, "s1", created.SessionID)
	assert.Equal(t, []domain.Command{domain.Speak("ready")}, created.Commands)
	assert.Equal(t, []string{"app.idle"}, created.Snapshot.Configuration)

	var click session.Turn
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, srv.URL+"/sessions/s1/events", `{"type":"CLICK"}`, &click))
	assert.Equal(t, []domain.Command{domain.Speak("say something"), domain.Listen()}, click.Commands)
	require.NotNil(t, click.Diff)
	assert.Equal(t, []string{"app.ask"}, click.Snapshot.Configuration)

	var heard session.Turn
	body := `{"type":"RECOGNISED","utterance":"  hello   there ","confidence":"0.9"}`
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, srv.URL+"/sessions/s1/events", body, &heard))
	assert.Equal(t, domain.StatusDone, heard.Snapshot.Status)
	assert.Equal(t, true, heard.Snapshot.Context["heard"])

	var list map[string][]string
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/sessions", "", &list))
	assert.Equal(t, []string{"s1"}, list["sessions"])

	var restarted session.Turn
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, srv.URL+"/sessions/s1/restart", "", &restarted))
	assert.Equal(t, []string{"app.idle"}, restarted.Snapshot.Configuration)

	var snap domain.Snapshot
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/sessions/s1", "", &snap))
	assert.Equal(t, domain.StatusRunning, snap.Status)

	assert.Equal(t, http.StatusNoContent, doJSON(t, http.MethodDelete, srv.URL+"/sessions/s1", "", nil))
	assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodGet, srv.URL+"/sessions/s1", "", &map[string]string{}))
}

func TestServer_SendEvent_BadRequests(t *testing.T) {
	srv := newServer(t, testChart())
	require.Equal(t, http.StatusCreated, doJSON(t, http.MethodPost, srv.URL+"/sessions", "", &session.Turn{}))

	cases := map[string]string{
		"invalid json":       `{`,
		"missing type":       `{}`,
		"unknown field":      `{"type":"CLICK","colour":"red"}`,
		"confidence range":   `{"type":"RECOGNISED","utterance":"hi","confidence":2}`,
		"result missing":     `{"type":"done.invoke"}`,
		"invalid confidence": `{"type":"RECOGNISED","utterance":"hi","confidence":"high"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			var resp map[string]string
			assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPost, srv.URL+"/sessions/s1/events", body, &resp))
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestServer_SendEvent_UnknownSession(t *testing.T) {
	srv := newServer(t, testChart())
	var resp map[string]string
	assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodPost, srv.URL+"/sessions/nope/events", `{"type":"CLICK"}`, &resp))
	assert.Contains(t, resp["error"], "nope")
}

func TestServer_SendEvent_Cycle(t *testing.T) {
	srv := newServer(t, cycleChart())
	require.Equal(t, http.StatusCreated, doJSON(t, http.MethodPost, srv.URL+"/sessions", "", &session.Turn{}))

	var resp map[string]string
	assert.Equal(t, http.StatusConflict, doJSON(t, http.MethodPost, srv.URL+"/sessions/s1/events", `{"type":"CLICK"}`, &resp))

	var snap domain.Snapshot
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/sessions/s1", "", &snap))
	assert.Equal(t, domain.StatusHalted, snap.Status)
}

func TestServer_Chart(t *testing.T) {
	srv := newServer(t, testChart())
	require.Equal(t, http.StatusCreated, doJSON(t, http.MethodPost, srv.URL+"/sessions", "", &session.Turn{}))

	resp, err := http.Get(srv.URL + "/chart?session=s1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sb strings.Builder
	_, err = bufio.NewReader(resp.Body).WriteTo(&sb)
	require.NoError(t, err)
	out := sb.String()
	assert.Contains(t, out, "stateDiagram-v2")
	assert.Contains(t, out, "classDef current")

	missing, err := http.Get(srv.URL + "/chart?session=ghost")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestServer_Stream(t *testing.T) {
	srv := newServer(t, testChart())
	require.Equal(t, http.StatusCreated, doJSON(t, http.MethodPost, srv.URL+"/sessions", "", &session.Turn{}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sessions/s1/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())
	// Skip "data: connected" and the blank separator.
	lines.Scan()
	lines.Scan()

	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, srv.URL+"/sessions/s1/events", `{"type":"CLICK"}`, &session.Turn{}))

	require.True(t, lines.Scan())
	assert.Equal(t, "event: turn", lines.Text())
	require.True(t, lines.Scan())
	var turn session.Turn
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(lines.Text(), "data: ")), &turn))
	assert.Equal(t, "s1", turn.SessionID)
	assert.Equal(t, []string{"app.ask"}, turn.Snapshot.Configuration)
}

func TestServer_Metrics(t *testing.T) {
	c := testChart()
	m := session.NewManager(func(id string) ports.Interpreter {
		return runtime.NewInterpreter(c, runtime.WithSessionID(id))
	})
	h := parleyhttp.NewHandler(m, c, parleyhttp.WithMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "parley_up 1")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "parley_up 1", rec.Body.String())
}
