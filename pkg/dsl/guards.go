package dsl

import (
	"strconv"

	"github.com/aretw0/parley/pkg/domain"
)

// Guard builds a named guard.
func Guard(name string, fn domain.GuardFunc) *domain.Guard {
	return &domain.Guard{Name: name, Check: fn}
}

// Not negates a guard.
func Not(g *domain.Guard) *domain.Guard {
	return Guard("!"+g.Name, func(ctx domain.Context, ev domain.Event) bool {
		return !g.Check(ctx, ev)
	})
}

// And passes when every guard passes.
func And(gs ...*domain.Guard) *domain.Guard {
	name := ""
	for i, g := range gs {
		if i > 0 {
			name += "&&"
		}
		name += g.Name
	}
	return Guard(name, func(ctx domain.Context, ev domain.Event) bool {
		for _, g := range gs {
			if !g.Check(ctx, ev) {
				return false
			}
		}
		return true
	})
}

// SlotEquals passes when an integer slot holds n.
func SlotEquals(key string, n int) *domain.Guard {
	return Guard(key+"=="+strconv.Itoa(n), func(ctx domain.Context, _ domain.Event) bool {
		return ctx.Int(key) == n
	})
}
