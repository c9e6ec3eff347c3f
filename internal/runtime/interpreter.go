package runtime

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/chart"
	"github.com/aretw0/parley/pkg/domain"
)

// DefaultMaxMicrosteps bounds the eventless transitions and internal events
// processed by a single Send.
const DefaultMaxMicrosteps = 100

// Interpreter runs one conversation over a chart. It is single-threaded:
// callers must serialise Start, Send and Restart (see pkg/runner and
// pkg/session). Every Send runs to completion before returning.
type Interpreter struct {
	chart         *chart.Chart
	logger        *slog.Logger
	hooks         domain.LifecycleHooks
	tracer        trace.Tracer
	maxMicrosteps int
	initial       map[string]any
	sessionID     string

	status  domain.Status
	haltErr error
	ctx     domain.Context
	active  map[string]bool
	history map[string][]string

	// invocations holds the latest issued call per owning state.
	invocations   map[string]domain.Invocation
	pendingInvoke []string

	internal []domain.Event
	outbox   []domain.Command
}

// NewInterpreter creates an interpreter in the idle status. Call Start before Send.
func NewInterpreter(c *chart.Chart, opts ...Option) *Interpreter {
	i := &Interpreter{
		chart:         c,
		logger:        logging.NewNop(),
		tracer:        tracer,
		maxMicrosteps: DefaultMaxMicrosteps,
		status:        domain.StatusIdle,
	}
	for _, opt := range opts {
		opt(i)
	}
	i.reset()
	i.status = domain.StatusIdle
	return i
}

func (i *Interpreter) reset() {
	i.haltErr = nil
	i.ctx = domain.NewContext(i.initial)
	i.active = make(map[string]bool)
	i.history = make(map[string][]string)
	i.invocations = make(map[string]domain.Invocation)
	i.pendingInvoke = nil
	i.internal = nil
	i.outbox = nil
}

// Chart returns the chart being interpreted.
func (i *Interpreter) Chart() *chart.Chart {
	return i.chart
}

// Start enters the initial configuration and settles eventless transitions.
// It returns the commands emitted on the way.
func (i *Interpreter) Start(ctx context.Context) ([]domain.Command, error) {
	ctx, span := i.tracer.Start(ctx, "interpreter.start",
		trace.WithAttributes(attribute.String("parley.chart", i.chart.Root().ID)))
	defer span.End()

	i.reset()
	i.status = domain.StatusRunning

	var trigger domain.Event
	enter := make(map[string]bool)
	i.addDescendants(i.chart.Root().ID, enter)
	i.enterStates(ctx, trigger, enter)

	if err := i.settle(ctx, trigger); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return i.flush(), err
	}
	i.logger.Debug("interpreter started", "configuration", i.leaves())
	return i.flush(), nil
}

// Restart discards the Context, history and configuration and starts over.
func (i *Interpreter) Restart(ctx context.Context) ([]domain.Command, error) {
	i.logger.Info("interpreter restart", "configuration", i.leaves())
	return i.Start(ctx)
}

// Send delivers one external event and runs it to completion.
//
// Events that match no transition are dropped without side effects.
// Invocation results only reach the transitions of the state that issued
// the call.
// The only errors are domain.ErrNotStarted and *domain.ChartCycleError;
// after the latter the interpreter is halted and keeps returning it.
func (i *Interpreter) Send(ctx context.Context, ev domain.Event) ([]domain.Command, error) {
	switch i.status {
	case domain.StatusIdle:
		return nil, domain.ErrNotStarted
	case domain.StatusHalted:
		return nil, i.haltErr
	}

	ctx, span := i.tracer.Start(ctx, "interpreter.send",
		trace.WithAttributes(attribute.String("parley.event", string(ev.Type))))
	defer span.End()

	if ev.Type == domain.EventAlways || ev.Type == domain.EventAny {
		i.drop(ctx, ev)
		return nil, nil
	}
	if ev.IsInvocationResult() && !i.acceptResult(ctx, ev) {
		span.SetAttributes(attribute.Bool("parley.discarded", true))
		return nil, nil
	}

	var ts []*domain.Transition
	if ev.IsInvocationResult() {
		ts = i.selectOwned(ev)
	} else {
		ts = i.selectTransitions(ev.Type, ev)
	}
	if len(ts) == 0 {
		span.SetAttributes(attribute.Bool("parley.dropped", true))
		i.drop(ctx, ev)
		return nil, nil
	}

	i.microstep(ctx, ev, ts)
	if err := i.settle(ctx, ev); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return i.flush(), err
	}
	span.SetAttributes(attribute.StringSlice("parley.configuration", i.leaves()))
	return i.flush(), nil
}

// settle drains eventless transitions to a fixed point, then the internal
// queue, and finally issues invocations for states that stayed active.
func (i *Interpreter) settle(ctx context.Context, trigger domain.Event) error {
	steps := 0
	var trail []string
	ev := trigger
	for {
		for {
			ts := i.selectTransitions(domain.EventAlways, ev)
			if len(ts) == 0 {
				break
			}
			steps++
			trail = appendTrail(trail, ts)
			if steps > i.maxMicrosteps {
				return i.halt(&domain.ChartCycleError{Limit: i.maxMicrosteps, Trail: trail})
			}
			i.microstep(ctx, ev, ts)
		}

		if len(i.internal) == 0 {
			break
		}
		ev = i.internal[0]
		i.internal = i.internal[1:]

		ts := i.selectTransitions(ev.Type, ev)
		if len(ts) == 0 {
			i.drop(ctx, ev)
			continue
		}
		steps++
		trail = appendTrail(trail, ts)
		if steps > i.maxMicrosteps {
			return i.halt(&domain.ChartCycleError{Limit: i.maxMicrosteps, Trail: trail})
		}
		i.microstep(ctx, ev, ts)
	}

	i.startInvocations(ctx)
	i.checkDone()
	return nil
}

func appendTrail(trail []string, ts []*domain.Transition) []string {
	for _, t := range ts {
		trail = append(trail, t.Source)
	}
	if len(trail) > 8 {
		trail = trail[len(trail)-8:]
	}
	return trail
}

func (i *Interpreter) halt(err error) error {
	i.status = domain.StatusHalted
	i.haltErr = err
	i.internal = nil
	i.logger.Error("interpreter halted", "err", err)
	return err
}

func (i *Interpreter) checkDone() {
	for _, id := range i.chart.Root().Children {
		if i.active[id] && i.chart.Node(id).Kind == domain.KindFinal {
			i.status = domain.StatusDone
			return
		}
	}
	if i.status == domain.StatusDone {
		i.status = domain.StatusRunning
	}
}

func (i *Interpreter) drop(ctx context.Context, ev domain.Event) {
	leaves := i.leaves()
	i.logger.Debug("event dropped", "event", ev.Type, "configuration", leaves)
	if i.hooks.OnEventDropped != nil {
		i.hooks.OnEventDropped(ctx, &domain.DropEvent{
			HookBase:      newHookBase(domain.HookEventDropped, ev.Type),
			Configuration: leaves,
		})
	}
}

func (i *Interpreter) flush() []domain.Command {
	out := i.outbox
	i.outbox = nil
	return out
}

// Status returns the lifecycle status.
func (i *Interpreter) Status() domain.Status {
	return i.status
}

// Context returns the current Context value.
func (i *Interpreter) Context() domain.Context {
	return i.ctx
}

// Matches reports whether the referenced node ("id" or "#alias.path") is active.
func (i *Interpreter) Matches(ref string) bool {
	n, ok := i.chart.Lookup(ref)
	return ok && i.active[n.ID]
}

// Configuration returns the active leaves in document order.
func (i *Interpreter) Configuration() []string {
	return i.leaves()
}

// Snapshot returns a copy of the observable state.
func (i *Interpreter) Snapshot() domain.Snapshot {
	hist := make(map[string][]string, len(i.history))
	for k, v := range i.history {
		hist[k] = slices.Clone(v)
	}
	return domain.Snapshot{
		SessionID:     i.sessionID,
		Status:        i.status,
		Configuration: i.leaves(),
		Active:        i.sorted(i.active, false),
		Context:       i.ctx.Slots(),
		Generation:    i.ctx.Generation(),
		History:       hist,
	}
}

func (i *Interpreter) leaves() []string {
	out := make([]string, 0, 4)
	for _, id := range i.sorted(i.active, false) {
		if i.chart.Node(id).IsAtomic() {
			out = append(out, id)
		}
	}
	return out
}

// sorted returns the keys of set in document order (reverse when desc).
func (i *Interpreter) sorted(set map[string]bool, desc bool) []string {
	ids := slices.Collect(maps.Keys(set))
	sort.Slice(ids, func(a, b int) bool {
		oa, ob := i.chart.Node(ids[a]).Order, i.chart.Node(ids[b]).Order
		if desc {
			return oa > ob
		}
		return oa < ob
	})
	return ids
}
