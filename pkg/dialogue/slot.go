package dialogue

import (
	"fmt"
	"strconv"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/dsl"
)

// Tiers holds the three escalating variants of a prompt or no-match message.
type Tiers [3]domain.Action

func (t Tiers) empty() bool {
	for _, a := range t {
		if a.Kind != "" {
			return false
		}
	}
	return true
}

// SayTiers builds Tiers from fixed texts.
func SayTiers(first, second, third string) Tiers {
	return Tiers{dsl.Speak(first), dsl.Speak(second), dsl.Speak(third)}
}

// DefaultNoMatch is used by slots that do not declare their own messages.
var DefaultNoMatch = SayTiers(
	"Sorry, I didn't catch that.",
	"I'm sorry, I still didn't understand. Could you say it differently?",
	"I'm sorry, I can't understand you. Let's start over.",
)

// Rule maps the stored hypothesis to a destination. A nil Guard always matches
// and must be the last rule.
type Rule struct {
	Guard   *domain.Guard
	Target  string
	Actions []domain.Action
}

// Slot describes one slot-filling composite.
type Slot struct {
	// Key is the node key; Alias defaults to Key and scopes the counters.
	Key   string
	Alias string

	Prompts Tiers
	NoMatch Tiers

	// Rules interpret the stored hypothesis once it is grounded.
	Rules []Rule

	// Help is the target of a "help" recognition; empty disables it.
	Help string
	// Restart is the target once escalation is exhausted, reached with a
	// fresh Context and no history. It defaults to re-entering the slot
	// itself, which keeps the Context.
	Restart string
	// Apology is spoken after the user rejects a confirmation question.
	Apology string
}

func (s Slot) alias() string {
	if s.Alias != "" {
		return s.Alias
	}
	return s.Key
}

// Build adds the slot composite under parent and returns its builder.
func (s Slot) Build(parent *dsl.NodeBuilder) *dsl.NodeBuilder {
	alias := s.alias()
	ref := "#" + alias
	restart := s.Restart
	var restartActions []domain.Action
	if restart == "" {
		restart = ref
	} else {
		restartActions = append(restartActions, dsl.Reset())
	}
	noMatch := s.NoMatch
	if noMatch.empty() {
		noMatch = DefaultNoMatch
	}
	apology := s.Apology
	if apology == "" {
		apology = "I'm sorry!"
	}
	promptKey, noMatchKey := PromptCountKey(alias), NoMatchCountKey(alias)

	n := parent.State(s.Key).Alias(alias).Initial("prompt").
		Entry(dsl.Set(promptKey, 0), dsl.Set(noMatchKey, 0))
	if s.Help != "" {
		n.OnIf(domain.EventRecognised, IsHelp, s.Help)
	}
	n.On(domain.EventRecognised, ".confidenceCheck", storeHypothesis).
		On(domain.EventTimeout, ".prompt")

	escalate(n.State("prompt"), "p", promptKey, s.Prompts, ref+".ask", restart, restartActions, false)
	n.State("ask").Entry(dsl.Listen())

	check := n.State("confidenceCheck").Initial("threshold").
		OnIf(domain.EventRecognised, EventIntent(domain.IntentAffirm), ref+".transition").
		OnIf(domain.EventRecognised, EventIntent(domain.IntentReject), ".apologise").
		On(domain.EventRecognised, ref+".nomatch").
		On(domain.EventTimeout, ".prompt")
	check.State("threshold").
		AlwaysIf(Confident, ref+".transition").
		Always("prompt")
	check.State("prompt").Entry(confirmQuestion).On(domain.EventEndSpeech, "ask")
	check.State("ask").Entry(dsl.Listen())
	check.State("apologise").Entry(dsl.Speak(apology)).On(domain.EventEndSpeech, ref+".prompt")

	interpret := n.State("transition")
	fallback := true
	for _, r := range s.Rules {
		interpret.AlwaysIf(r.Guard, r.Target, r.Actions...)
		if r.Guard == nil {
			fallback = false
			break
		}
	}
	if fallback {
		interpret.Always("nomatch")
	}

	escalate(n.State("nomatch"), "n", noMatchKey, noMatch, ref+".ask", restart, restartActions, true)
	return n
}

// escalate builds a choose node picking tier 1/2/3 from a counter that it
// increments on exit. A counter past the last tier restarts.
func escalate(n *dsl.NodeBuilder, prefix, key string, tiers Tiers, next, restart string, restartActions []domain.Action, lastRestarts bool) {
	n.Initial("choose")
	n.State("choose").
		Exit(dsl.Increment(key)).
		AlwaysIf(dsl.SlotEquals(key, 2), prefix+"3").
		AlwaysIf(dsl.SlotEquals(key, 1), prefix+"2").
		AlwaysIf(dsl.SlotEquals(key, 0), prefix+"1").
		Always(restart, restartActions...)

	for i, say := range tiers {
		tier := n.State(prefix + strconv.Itoa(i+1))
		if say.Kind != "" {
			tier.Entry(say)
		}
		if lastRestarts && i == len(tiers)-1 {
			tier.On(domain.EventEndSpeech, restart, restartActions...)
			continue
		}
		tier.On(domain.EventEndSpeech, next)
	}
}

var storeHypothesis = dsl.Assign("storeHypothesis", func(_ domain.Context, ev domain.Event) domain.Patch {
	rec, ok := ev.Recognition()
	if !ok {
		return nil
	}
	return domain.Patch{SlotASR: rec, SlotNLU: rec.Prediction}
})

var confirmQuestion = dsl.Speakf("confirmQuestion", func(ctx domain.Context, _ domain.Event) string {
	rec, _ := ctx.Recognition(SlotASR)
	return fmt.Sprintf("Did you say %s?", rec.Utterance)
})

// Utterance returns the stored hypothesis text.
func Utterance(ctx domain.Context) string {
	rec, _ := ctx.Recognition(SlotASR)
	return rec.Utterance
}

// EntityValue returns the resolved value of the first stored entity of the category.
func EntityValue(ctx domain.Context, category string) string {
	p, _ := ctx.Prediction(SlotNLU)
	e, _ := p.Entity(category)
	return e.Value()
}
