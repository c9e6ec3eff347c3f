package http

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/session"
)

func decodeEvent(body io.Reader) (domain.Event, error) {
	var raw map[string]any
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return domain.Event{}, fmt.Errorf("%w: invalid JSON: %v", session.ErrInvalidEvent, err)
	}
	return session.DecodeEvent(raw)
}
