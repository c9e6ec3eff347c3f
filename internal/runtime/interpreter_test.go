package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/parley/pkg/chart"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/dsl"
)

const (
	evGo   domain.EventType = "GO"
	evBack domain.EventType = "BACK"
	evPing domain.EventType = "PING"
)

func texts(cmds []domain.Command) []string {
	var out []string
	for _, c := range cmds {
		if c.Type == domain.CommandSpeak {
			out = append(out, c.Text)
		}
	}
	return out
}

func start(t *testing.T, c *chart.Chart, opts ...Option) (*Interpreter, []domain.Command) {
	t.Helper()
	i := NewInterpreter(c, opts...)
	cmds, err := i.Start(context.Background())
	require.NoError(t, err)
	return i, cmds
}

func send(t *testing.T, i *Interpreter, ev domain.Event) []domain.Command {
	t.Helper()
	cmds, err := i.Send(context.Background(), ev)
	require.NoError(t, err)
	return cmds
}

func flatChart() *chart.Chart {
	b := dsl.New("app").Initial("a")
	b.State("a").
		Entry(dsl.Speak("in a")).
		Exit(dsl.Speak("out a")).
		OnIf(evGo, dsl.Guard("never", func(domain.Context, domain.Event) bool { return false }), "c").
		On(evGo, "b", dsl.Set("moved", true), dsl.Speak("moving"))
	b.State("b").Entry(dsl.Speak("in b")).On(evBack, "a")
	b.State("c")
	return b.MustBuild()
}

func TestInterpreter_SendBeforeStart(t *testing.T) {
	i := NewInterpreter(flatChart())
	_, err := i.Send(context.Background(), domain.NewEvent(evGo))
	assert.ErrorIs(t, err, domain.ErrNotStarted)
	assert.Equal(t, domain.StatusIdle, i.Status())
}

func TestInterpreter_StartAndTransitionOrder(t *testing.T) {
	i, cmds := start(t, flatChart())
	assert.Equal(t, []string{"in a"}, texts(cmds))
	assert.Equal(t, []string{"app.a"}, i.Configuration())

	cmds = send(t, i, domain.NewEvent(evGo))
	assert.Equal(t, []string{"out a", "moving", "in b"}, texts(cmds), "exit, transition, entry")
	assert.Equal(t, []string{"app.b"}, i.Configuration())
	assert.Equal(t, true, i.Context().Slots()["moved"])
}

func TestInterpreter_UnmatchedEventIsNoOp(t *testing.T) {
	i, _ := start(t, flatChart())
	before := i.Snapshot()

	for _, ev := range []domain.Event{
		domain.NewEvent(evBack),
		domain.NewEvent("NOBODY"),
		domain.NewEvent(domain.EventAlways),
		domain.Recognised("hello", 0.9, domain.Prediction{}),
	} {
		cmds := send(t, i, ev)
		assert.Empty(t, cmds)
	}

	after := i.Snapshot()
	assert.Equal(t, before, after)
	assert.Nil(t, domain.Diff(&before, &after))
}

func TestInterpreter_InnermostHandlerWins(t *testing.T) {
	b := dsl.New("app").Initial("outer")
	outer := b.State("outer").Initial("inner").On(evGo, "#app.other", dsl.Speak("outer"))
	outer.State("inner").On(evGo, "sibling", dsl.Speak("inner"))
	outer.State("sibling")
	b.State("other")

	i, _ := start(t, b.MustBuild())
	cmds := send(t, i, domain.NewEvent(evGo))
	assert.Equal(t, []string{"inner"}, texts(cmds))
	assert.True(t, i.Matches("app.outer.sibling"))

	cmds = send(t, i, domain.NewEvent(evGo))
	assert.Equal(t, []string{"outer"}, texts(cmds), "falls back to the ancestor")
	assert.True(t, i.Matches("#app.other"))
}

func TestInterpreter_InternalVersusExternalSelfTransition(t *testing.T) {
	b := dsl.New("app").Initial("slot")
	slot := b.State("slot").Initial("prompt").
		Entry(dsl.Set("count", 0)).
		On(domain.EventTimeout, ".prompt").
		On(evGo, "slot")
	slot.State("prompt").Entry(dsl.Increment("count")).On(domain.EventEndSpeech, "ask")
	slot.State("ask")

	i, _ := start(t, b.MustBuild())
	assert.Equal(t, 1, i.Context().Int("count"))

	send(t, i, domain.NewEvent(domain.EventEndSpeech))
	send(t, i, domain.NewEvent(domain.EventTimeout))
	assert.Equal(t, 2, i.Context().Int("count"), "internal transition keeps the composite entered")

	send(t, i, domain.NewEvent(evGo))
	assert.Equal(t, 1, i.Context().Int("count"), "external self transition re-enters and resets")
}

func historyChart(depth domain.HistoryDepth) *chart.Chart {
	b := dsl.New("app").Initial("main")
	b.State("help").On(evBack, "main.hist")
	b.State("restart").On(evBack, "main")

	main := b.State("main").Initial("user").
		On(domain.EventType("HELP"), "help").
		On(domain.EventType("RESTART"), "restart")
	main.History("hist", depth)
	user := main.State("user").Initial("prompt").On(evGo, "meeting")
	user.State("prompt").On(evGo, "ask")
	user.State("ask")
	meeting := main.State("meeting").Initial("title")
	meeting.State("title").On(evGo, "day")
	meeting.State("day")
	return b.MustBuild()
}

func TestInterpreter_DeepHistory(t *testing.T) {
	i, _ := start(t, historyChart(domain.HistoryDeep))
	send(t, i, domain.NewEvent(evGo)) // user.prompt -> user.ask
	require.Equal(t, []string{"app.main.user.ask"}, i.Configuration())

	send(t, i, domain.NewEvent("HELP"))
	assert.Equal(t, []string{"app.help"}, i.Configuration())
	assert.Equal(t, []string{"app.main.user.ask"}, i.Snapshot().History["app.main"])

	send(t, i, domain.NewEvent(evBack))
	assert.Equal(t, []string{"app.main.user.ask"}, i.Configuration(), "deep history restores the leaf")
}

func TestInterpreter_ShallowHistory(t *testing.T) {
	i, _ := start(t, historyChart(domain.HistoryShallow))
	send(t, i, domain.NewEvent(evGo))
	send(t, i, domain.NewEvent("HELP"))
	send(t, i, domain.NewEvent(evBack))
	assert.Equal(t, []string{"app.main.user.prompt"}, i.Configuration(), "shallow history re-enters the child's initial")
}

func TestInterpreter_NormalEntryIgnoresHistory(t *testing.T) {
	i, _ := start(t, historyChart(domain.HistoryDeep))
	send(t, i, domain.NewEvent(evGo))
	send(t, i, domain.NewEvent(evGo)) // -> meeting.title
	send(t, i, domain.NewEvent(evGo)) // -> meeting.day
	require.Equal(t, []string{"app.main.meeting.day"}, i.Configuration())

	send(t, i, domain.NewEvent("RESTART"))
	send(t, i, domain.NewEvent(evBack))
	assert.Equal(t, []string{"app.main.user.prompt"}, i.Configuration(), "plain entry uses the declared initial child")
}

func TestInterpreter_ResetActionStartsOver(t *testing.T) {
	b := dsl.New("app").Initial("main")
	b.State("help").
		On(evBack, "main.hist").
		On(evPing, "main.hist", dsl.Reset())
	main := b.State("main").Initial("a").On(domain.EventType("HELP"), "help")
	main.History("hist", domain.HistoryDeep)
	main.State("a").On(evGo, "b", dsl.Set("name", "ada"))
	main.State("b")

	i, _ := start(t, b.MustBuild(), WithInitialContext(map[string]any{"lang": "en"}))
	send(t, i, domain.NewEvent(evGo))
	send(t, i, domain.NewEvent("HELP"))
	require.Equal(t, "ada", i.Context().String("name"))
	require.NotEmpty(t, i.Snapshot().History)

	send(t, i, domain.NewEvent(evPing))
	assert.Equal(t, []string{"app.main.a"}, i.Configuration(), "history was cleared before entry")
	assert.Equal(t, map[string]any{"lang": "en"}, i.Context().Slots())
}

func TestInterpreter_HistoryWithoutRecordUsesInitial(t *testing.T) {
	b := dsl.New("app").Initial("help")
	b.State("help").On(evBack, "main.hist")
	main := b.State("main").Initial("a")
	main.History("hist", domain.HistoryDeep)
	main.State("a")
	main.State("b")

	i, _ := start(t, b.MustBuild())
	send(t, i, domain.NewEvent(evBack))
	assert.Equal(t, []string{"app.main.a"}, i.Configuration())
}

func parallelChart() *chart.Chart {
	b := dsl.New("app").Initial("both")
	both := b.State("both").Parallel().On(evBack, "#app.off")
	audio := both.State("audio").Initial("muted")
	audio.State("muted").On(evGo, "playing")
	audio.State("playing")
	video := both.State("video").Initial("hidden")
	video.State("hidden").On(evPing, "shown")
	video.State("shown").On(evGo, "hidden")
	b.State("off").On(evBack, "both.video.shown")
	return b.MustBuild()
}

func TestInterpreter_ParallelRegions(t *testing.T) {
	i, _ := start(t, parallelChart())
	assert.Equal(t, []string{"app.both.audio.muted", "app.both.video.hidden"}, i.Configuration())

	send(t, i, domain.NewEvent(evPing))
	assert.Equal(t, []string{"app.both.audio.muted", "app.both.video.shown"}, i.Configuration())

	send(t, i, domain.NewEvent(evGo))
	assert.Equal(t, []string{"app.both.audio.playing", "app.both.video.hidden"}, i.Configuration(),
		"both regions take their own transition for the same event")

	send(t, i, domain.NewEvent(evBack))
	assert.Equal(t, []string{"app.off"}, i.Configuration())

	send(t, i, domain.NewEvent(evBack))
	assert.Equal(t, []string{"app.both.audio.muted", "app.both.video.shown"}, i.Configuration(),
		"entering one region fills the sibling regions with their defaults")
}

func TestInterpreter_OneLeafPerRegion(t *testing.T) {
	i, _ := start(t, parallelChart())
	for _, ev := range []domain.EventType{evPing, evGo, evGo, evBack, evBack, evPing, evGo} {
		send(t, i, domain.NewEvent(ev))
		leaves := i.Configuration()
		if i.Matches("app.both") {
			require.Len(t, leaves, 2)
			assert.Contains(t, leaves[0], "app.both.audio.")
			assert.Contains(t, leaves[1], "app.both.video.")
		}
	}
}

func TestInterpreter_EventlessChain(t *testing.T) {
	b := dsl.New("app").Initial("a")
	b.State("a").On(evGo, "check")
	b.State("check").
		AlwaysIf(dsl.Guard("big", func(ctx domain.Context, _ domain.Event) bool { return ctx.Int("n") > 5 }), "big").
		Always("small")
	b.State("big")
	b.State("small")

	i, _ := start(t, b.MustBuild(), WithInitialContext(map[string]any{"n": 7}))
	send(t, i, domain.NewEvent(evGo))
	assert.Equal(t, []string{"app.big"}, i.Configuration(), "eventless transitions drain before Send returns")
}

func TestInterpreter_EventlessCycleHalts(t *testing.T) {
	b := dsl.New("app").Initial("idle")
	b.State("idle").On(evGo, "ping")
	b.State("ping").Always("pong")
	b.State("pong").Always("ping")

	i, _ := start(t, b.MustBuild(), WithMaxMicrosteps(10))

	_, err := i.Send(context.Background(), domain.NewEvent(evGo))
	var cycle *domain.ChartCycleError
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, 10, cycle.Limit)
	assert.Equal(t, domain.StatusHalted, i.Status())

	_, err = i.Send(context.Background(), domain.NewEvent(evGo))
	assert.ErrorAs(t, err, &cycle, "a halted interpreter keeps failing fast")
}

func TestInterpreter_RaisedEventsRunBeforeReturn(t *testing.T) {
	b := dsl.New("app").Initial("a")
	b.State("a").On(evGo, "b", dsl.Raise(evPing))
	b.State("b").On(evPing, "c", dsl.Speak("pinged"))
	b.State("c")

	i, _ := start(t, b.MustBuild())
	cmds := send(t, i, domain.NewEvent(evGo))
	assert.Equal(t, []string{"pinged"}, texts(cmds))
	assert.Equal(t, []string{"app.c"}, i.Configuration())
}

func TestInterpreter_TargetlessTransitionKeepsConfiguration(t *testing.T) {
	b := dsl.New("app").Initial("a")
	b.State("a").Entry(dsl.Set("n", 0)).Exit(dsl.Speak("left")).On(evGo, "", dsl.Increment("n"))

	i, _ := start(t, b.MustBuild())
	cmds := send(t, i, domain.NewEvent(evGo))
	assert.Empty(t, cmds)
	assert.Equal(t, 1, i.Context().Int("n"))
	assert.Equal(t, []string{"app.a"}, i.Configuration())
}

func TestInterpreter_PanickingGuardCountsAsFalse(t *testing.T) {
	b := dsl.New("app").Initial("a")
	b.State("a").
		OnIf(evGo, dsl.Guard("boom", func(domain.Context, domain.Event) bool { panic("boom") }), "b").
		On(evGo, "c")
	b.State("b")
	b.State("c")

	i, _ := start(t, b.MustBuild())
	send(t, i, domain.NewEvent(evGo))
	assert.Equal(t, []string{"app.c"}, i.Configuration())
}

func TestInterpreter_FinalState(t *testing.T) {
	b := dsl.New("app").Initial("a")
	b.State("a").On(evGo, "end")
	b.Final("end")

	i, _ := start(t, b.MustBuild())
	send(t, i, domain.NewEvent(evGo))
	assert.Equal(t, domain.StatusDone, i.Status())

	cmds, err := i.Restart(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cmds)
	assert.Equal(t, domain.StatusRunning, i.Status())
	assert.Equal(t, []string{"app.a"}, i.Configuration())
}

func TestInterpreter_Hooks(t *testing.T) {
	var entered, exited, dropped []string
	var transitions int
	hooks := domain.LifecycleHooks{
		OnStateEnter:   func(_ context.Context, e *domain.NodeEvent) { entered = append(entered, e.NodeID) },
		OnStateExit:    func(_ context.Context, e *domain.NodeEvent) { exited = append(exited, e.NodeID) },
		OnTransition:   func(context.Context, *domain.TransitionEvent) { transitions++ },
		OnEventDropped: func(_ context.Context, e *domain.DropEvent) { dropped = append(dropped, string(e.Event)) },
	}

	i, _ := start(t, flatChart(), WithLifecycleHooks(hooks))
	send(t, i, domain.NewEvent(evGo))
	send(t, i, domain.NewEvent("NOPE"))

	assert.Equal(t, []string{"app", "app.a", "app.b"}, entered)
	assert.Equal(t, []string{"app.a"}, exited)
	assert.Equal(t, 1, transitions)
	assert.Equal(t, []string{"NOPE"}, dropped)
}
