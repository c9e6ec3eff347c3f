package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrediction_Entity(t *testing.T) {
	p := Prediction{
		TopIntent: "meeting",
		Entities: []Entity{
			{Category: "dateTime", Text: "friday", Resolutions: []Resolution{{Value: "2026-10-23"}}},
			{Category: "username", Text: "ada"},
		},
	}

	e, ok := p.Entity("DATETIME")
	require.True(t, ok)
	assert.Equal(t, "2026-10-23", e.Value())

	e, ok = p.Entity("username")
	require.True(t, ok)
	assert.Equal(t, "ada", e.Value())

	_, ok = p.Entity("person")
	assert.False(t, ok)
}

func TestResultEvent(t *testing.T) {
	inv := Invocation{ID: "a.info#1", StateID: "a.info", Generation: 1}

	done := ResultEvent(inv, LookupResult{Abstract: "x"}, nil)
	assert.Equal(t, EventInvokeDone, done.Type)
	res, ok := done.InvocationResult()
	require.True(t, ok)
	assert.Equal(t, uint64(1), res.Generation)
	assert.Empty(t, res.Err)

	failed := ResultEvent(inv, nil, errors.New("boom"))
	assert.Equal(t, EventInvokeError, failed.Type)
	assert.True(t, failed.IsInvocationResult())
	res, _ = failed.InvocationResult()
	assert.Equal(t, "boom", res.Err)
}

func TestChartErrors_Unwrap(t *testing.T) {
	inner := &ChartError{NodeID: "a.b", Reason: "unresolved target"}
	err := error(&ChartErrors{Errors: []*ChartError{inner}})

	var ce *ChartError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "a.b", ce.NodeID)
	assert.Contains(t, err.Error(), "unresolved target")
}
