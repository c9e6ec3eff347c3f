package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/parley/pkg/domain"
)

func TestBuilder_NestedChart(t *testing.T) {
	b := New("app").Initial("idle")
	b.State("idle").On(domain.EventClick, "main")

	main := b.State("main").Initial("ask").Alias("main")
	main.History("hist", domain.HistoryDeep)
	main.State("ask").
		Entry(Listen()).
		On(domain.EventTimeout, "ask")
	main.State("ask").OnIf(domain.EventRecognised, Guard("always", func(domain.Context, domain.Event) bool { return true }), "#app.idle")

	c, err := b.Build()
	require.NoError(t, err)

	ask := c.Node("app.main.ask")
	require.NotNil(t, ask)
	assert.Len(t, ask.Entry, 1)
	assert.Equal(t, []string{"app.idle"}, ask.Transitions(domain.EventRecognised)[0].Targets)

	hist := c.Node("app.main.hist")
	require.NotNil(t, hist)
	assert.Equal(t, domain.KindHistory, hist.Kind)
	assert.Equal(t, domain.HistoryDeep, hist.HistoryDepth)

	id, ok := c.Alias("main")
	assert.True(t, ok)
	assert.Equal(t, "app.main", id)
}

func TestBuilder_RootChainKeepsBuilder(t *testing.T) {
	b := New("app").Initial("a").Alias("top")
	b.State("a").On(domain.EventClick, "#top.b")
	b.State("b")

	c := b.MustBuild()
	assert.Equal(t, "app.a", c.Root().Initial)
	id, ok := c.Alias("top")
	assert.True(t, ok)
	assert.Equal(t, "app", id)
	assert.Equal(t, []string{"app.b"}, c.Node("app.a").Transitions(domain.EventClick)[0].Targets)

	p := New("duo").Parallel()
	p.State("left")
	p.State("right")
	assert.Equal(t, domain.KindParallel, p.MustBuild().Root().Kind)
}

func TestBuilder_BuildReportsChartErrors(t *testing.T) {
	b := New("app").Initial("a")
	b.State("a").On(domain.EventClick, "nowhere")

	_, err := b.Build()
	require.Error(t, err)

	var ce *domain.ChartError
	assert.ErrorAs(t, err, &ce)
	assert.Contains(t, err.Error(), "nowhere")
}

func TestActions(t *testing.T) {
	ctx := domain.NewContext(map[string]any{"n": 1, "name": "ada"})
	ev := domain.NewEvent(domain.EventClick)

	inc := Increment("n")
	assert.Equal(t, domain.ActionAssign, inc.Kind)
	assert.Equal(t, domain.Patch{"n": 2}, inc.Assign(ctx, ev))

	say := SpeakSlots("Hello %s!", "name")
	assert.Equal(t, domain.Speak("Hello ada!"), say.Send(ctx, ev))

	raise := Raise("PING")
	assert.Equal(t, domain.EventType("PING"), raise.Raise(ctx, ev).Type)

	g := And(SlotEquals("n", 1), Not(SlotEquals("n", 2)))
	assert.True(t, g.Check(ctx, ev))
	assert.Equal(t, "n==1&&!n==2", g.Name)
}
