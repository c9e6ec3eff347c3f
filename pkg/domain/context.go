package domain

import (
	"fmt"
	"maps"
	"sort"
)

// Patch is a set of slot updates. A nil value deletes the slot.
type Patch map[string]any

// Context is the extended state of a conversation: a flat slot map plus the
// invocation generation counter. It is a value type; Apply returns a new
// Context and never touches the receiver, so guards holding a copy cannot
// observe or cause mutation.
type Context struct {
	slots      map[string]any
	generation uint64
}

// NewContext creates a Context seeded with a copy of initial.
func NewContext(initial map[string]any) Context {
	slots := make(map[string]any, len(initial))
	maps.Copy(slots, initial)
	return Context{slots: slots}
}

// Get returns the raw slot value.
func (c Context) Get(key string) (any, bool) {
	v, ok := c.slots[key]
	return v, ok
}

// Has reports whether the slot is set.
func (c Context) Has(key string) bool {
	_, ok := c.slots[key]
	return ok
}

// String returns the slot as a string, or "" when unset.
func (c Context) String(key string) string {
	switch v := c.slots[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Int returns the slot as an int, or 0 when unset or not numeric.
func (c Context) Int(key string) int {
	switch v := c.slots[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// Float returns the slot as a float64, or 0 when unset or not numeric.
func (c Context) Float(key string) float64 {
	switch v := c.slots[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

// Recognition returns a slot holding a recognition hypothesis.
func (c Context) Recognition(key string) (Recognition, bool) {
	r, ok := c.slots[key].(Recognition)
	return r, ok
}

// Prediction returns a slot holding an NLU prediction.
func (c Context) Prediction(key string) (Prediction, bool) {
	p, ok := c.slots[key].(Prediction)
	return p, ok
}

// Generation is the number of invocations issued so far.
func (c Context) Generation() uint64 {
	return c.generation
}

// Len returns the number of slots.
func (c Context) Len() int {
	return len(c.slots)
}

// Keys returns the slot names in lexical order.
func (c Context) Keys() []string {
	keys := make([]string, 0, len(c.slots))
	for k := range c.slots {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Apply returns a new Context with the patch applied.
func (c Context) Apply(p Patch) Context {
	if len(p) == 0 {
		return c
	}
	next := Context{
		slots:      make(map[string]any, len(c.slots)+len(p)),
		generation: c.generation,
	}
	maps.Copy(next.slots, c.slots)
	for k, v := range p {
		if v == nil {
			delete(next.slots, k)
			continue
		}
		next.slots[k] = v
	}
	return next
}

// Reset returns a Context holding a copy of initial only. The generation
// counter is kept, so results of calls issued before stay stale.
func (c Context) Reset(initial map[string]any) Context {
	next := NewContext(initial)
	next.generation = c.generation
	return next
}

// NextGeneration returns a Context whose generation counter is incremented.
func (c Context) NextGeneration() Context {
	next := c
	next.generation++
	return next
}

// Slots returns a copy of the slot map.
func (c Context) Slots() map[string]any {
	out := make(map[string]any, len(c.slots))
	maps.Copy(out, c.slots)
	return out
}
