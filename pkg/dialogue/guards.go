package dialogue

import (
	"strings"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/dsl"
)

// ConfidenceThreshold is the recognition confidence at or above which an
// utterance is accepted without explicit confirmation.
const ConfidenceThreshold = 0.7

// Context slots shared by every slot composite.
const (
	// SlotASR holds the domain.Recognition being grounded.
	SlotASR = "asrHypothesis"
	// SlotNLU holds the domain.Prediction of that recognition.
	SlotNLU = "nluHypothesis"
)

// PromptCountKey is the prompt counter slot of the composite with the given alias.
func PromptCountKey(alias string) string { return alias + "/promptCount" }

// NoMatchCountKey is the no-match counter slot of the composite with the given alias.
func NoMatchCountKey(alias string) string { return alias + "/noMatchCount" }

// Confident passes when the stored hypothesis reaches ConfidenceThreshold.
var Confident = dsl.Guard("confident", func(ctx domain.Context, _ domain.Event) bool {
	rec, ok := ctx.Recognition(SlotASR)
	return ok && rec.Confidence >= ConfidenceThreshold
})

// IsHelp passes for a RECOGNISED event asking for help.
var IsHelp = dsl.Guard("help", func(_ domain.Context, ev domain.Event) bool {
	rec, ok := ev.Recognition()
	return ok && normalize(rec.Utterance) == "help"
})

// HasUtterance passes when the stored hypothesis carries any text.
var HasUtterance = dsl.Guard("hasUtterance", func(ctx domain.Context, _ domain.Event) bool {
	rec, ok := ctx.Recognition(SlotASR)
	return ok && normalize(rec.Utterance) != ""
})

// EventIntent passes when the incoming recognition has the given top intent.
func EventIntent(intent string) *domain.Guard {
	return dsl.Guard("event:"+intent, func(_ domain.Context, ev domain.Event) bool {
		rec, ok := ev.Recognition()
		return ok && strings.EqualFold(rec.Prediction.TopIntent, intent)
	})
}

// IntentIs passes when the stored hypothesis has the given top intent.
func IntentIs(intent string) *domain.Guard {
	return dsl.Guard("intent:"+intent, func(ctx domain.Context, _ domain.Event) bool {
		p, ok := ctx.Prediction(SlotNLU)
		return ok && strings.EqualFold(p.TopIntent, intent)
	})
}

// HasEntity passes when the stored hypothesis carries an entity of the category.
func HasEntity(category string) *domain.Guard {
	return dsl.Guard("entity:"+category, func(ctx domain.Context, _ domain.Event) bool {
		p, ok := ctx.Prediction(SlotNLU)
		if !ok {
			return false
		}
		_, found := p.Entity(category)
		return found
	})
}

// Affirmed and Rejected read the stored hypothesis.
var (
	Affirmed = IntentIs(domain.IntentAffirm)
	Rejected = IntentIs(domain.IntentReject)
)

func normalize(s string) string {
	return strings.TrimRight(strings.ToLower(strings.TrimSpace(s)), ".!?")
}
