package domain

import "strings"

// EventType names an inbound stimulus or a transition pattern.
type EventType string

// Event is an immutable stimulus delivered to the interpreter.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data,omitempty"`
}

// NewEvent builds an event without payload.
func NewEvent(t EventType) Event {
	return Event{Type: t}
}

// Recognised builds a RECOGNISED event.
func Recognised(utterance string, confidence float64, prediction Prediction) Event {
	return Event{
		Type: EventRecognised,
		Data: Recognition{Utterance: utterance, Confidence: confidence, Prediction: prediction},
	}
}

// Recognition returns the payload of a RECOGNISED event.
func (e Event) Recognition() (Recognition, bool) {
	r, ok := e.Data.(Recognition)
	return r, ok
}

// InvocationResult returns the payload of a done.invoke / error.invoke event.
func (e Event) InvocationResult() (InvocationResult, bool) {
	r, ok := e.Data.(InvocationResult)
	return r, ok
}

// IsInvocationResult reports whether the event answers an invocation.
func (e Event) IsInvocationResult() bool {
	return e.Type == EventInvokeDone || e.Type == EventInvokeError
}

// Recognition is the best ASR hypothesis of a turn together with the
// prediction the NLU collaborator attached to it.
type Recognition struct {
	Utterance  string     `json:"utterance" mapstructure:"utterance"`
	Confidence float64    `json:"confidence" mapstructure:"confidence"`
	Prediction Prediction `json:"prediction" mapstructure:"prediction"`
}

// Prediction is the structured NLU reading of an utterance.
type Prediction struct {
	TopIntent string   `json:"topIntent" mapstructure:"topIntent"`
	Entities  []Entity `json:"entities,omitempty" mapstructure:"entities"`
}

// Entity is one extracted span.
type Entity struct {
	Category    string       `json:"category" mapstructure:"category"`
	Text        string       `json:"text" mapstructure:"text"`
	Resolutions []Resolution `json:"resolutions,omitempty" mapstructure:"resolutions"`
}

// Resolution is a normalised entity value (e.g. an ISO date).
type Resolution struct {
	Value string `json:"value" mapstructure:"value"`
}

// Entity returns the first entity of the given category.
func (p Prediction) Entity(category string) (Entity, bool) {
	for _, e := range p.Entities {
		if strings.EqualFold(e.Category, category) {
			return e, true
		}
	}
	return Entity{}, false
}

// Value returns the first resolution value, falling back to the raw text.
func (e Entity) Value() string {
	if len(e.Resolutions) > 0 && e.Resolutions[0].Value != "" {
		return e.Resolutions[0].Value
	}
	return e.Text
}

// InvocationResult answers an issued Invocation. It is tagged with the
// owning state and generation so stale answers can be recognised.
type InvocationResult struct {
	ID         string `json:"id"`
	StateID    string `json:"state_id"`
	Generation uint64 `json:"generation"`
	Data       any    `json:"data,omitempty"`
	Err        string `json:"error,omitempty"`
}

// ResultEvent wraps the outcome of a call into its result event.
func ResultEvent(inv Invocation, data any, err error) Event {
	res := InvocationResult{
		ID:         inv.ID,
		StateID:    inv.StateID,
		Generation: inv.Generation,
		Data:       data,
	}
	if err != nil {
		res.Err = err.Error()
		return Event{Type: EventInvokeError, Data: res}
	}
	return Event{Type: EventInvokeDone, Data: res}
}

// LookupResult is what the knowledge collaborator returns.
type LookupResult struct {
	Subject  string `json:"subject"`
	Abstract string `json:"abstract"`
}
