package session

import (
	"errors"
	"fmt"
	"math"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/runner"
)

// ErrInvalidEvent is returned for event requests that cannot become an event.
var ErrInvalidEvent = errors.New("invalid event")

// EventRequest is the wire form of an event posted by a remote client.
//
//	{"type": "RECOGNISED", "utterance": "friday", "confidence": 0.4,
//	 "prediction": {"topIntent": "", "entities": [...]}}
//	{"type": "done.invoke", "result": {"id": "...", "state_id": "...", "generation": 3, "data": {...}}}
type EventRequest struct {
	Type       string                   `json:"type"`
	Utterance  string                   `json:"utterance"`
	Confidence *float64                 `json:"confidence"`
	Prediction domain.Prediction        `json:"prediction"`
	Result     *domain.InvocationResult `json:"result"`
}

// DecodeEvent converts loosely typed input, such as decoded JSON or tool
// arguments, into an event. Numbers given as strings are accepted; unknown
// keys are not.
func DecodeEvent(raw map[string]any) (domain.Event, error) {
	var req EventRequest
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &req,
	})
	if err != nil {
		return domain.Event{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return domain.Event{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	return req.Event()
}

// Event converts the request into an interpreter event.
// Utterances are sanitised the same way the runner sanitises recognitions.
func (req EventRequest) Event() (domain.Event, error) {
	t := domain.EventType(req.Type)
	switch t {
	case "":
		return domain.Event{}, fmt.Errorf("%w: missing event type", ErrInvalidEvent)
	case domain.EventRecognised:
		utterance, err := runner.SanitizeUtterance(req.Utterance)
		if err != nil {
			return domain.Event{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}
		confidence := 1.0
		if req.Confidence != nil {
			confidence = *req.Confidence
		}
		if math.IsNaN(confidence) || confidence < 0 || confidence > 1 {
			return domain.Event{}, fmt.Errorf("%w: confidence must be within [0, 1]", ErrInvalidEvent)
		}
		return domain.Recognised(utterance, confidence, req.Prediction), nil
	case domain.EventInvokeDone, domain.EventInvokeError:
		if req.Result == nil {
			return domain.Event{}, fmt.Errorf("%w: %s requires a result", ErrInvalidEvent, t)
		}
		return domain.Event{Type: t, Data: *req.Result}, nil
	}
	return domain.NewEvent(t), nil
}
