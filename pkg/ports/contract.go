package ports

import (
	"context"
	"testing"

	"github.com/aretw0/parley/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunKnowledgeBaseContract verifies that a KnowledgeBase implementation
// adheres to the interface contract. known must resolve to want; unknown must
// resolve to no information.
func RunKnowledgeBaseContract(t *testing.T, kb KnowledgeBase, known, want, unknown string) {
	t.Helper()
	ctx := context.Background()

	t.Run("Known subject", func(t *testing.T) {
		res, err := kb.Lookup(ctx, known)
		require.NoError(t, err)
		assert.Equal(t, want, res.Abstract)
	})

	t.Run("Unknown subject", func(t *testing.T) {
		res, err := kb.Lookup(ctx, unknown)
		require.NoError(t, err)
		assert.Empty(t, res.Abstract)
	})

	t.Run("Cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := kb.Lookup(cctx, known+" (cancelled)")
		assert.Error(t, err)
	})

	t.Run("Invoker adapter", func(t *testing.T) {
		out, err := LookupInvoker(kb)(ctx, known)
		require.NoError(t, err)
		res, ok := out.(domain.LookupResult)
		require.True(t, ok, "invoker must return domain.LookupResult, got %T", out)
		assert.Equal(t, want, res.Abstract)
	})
}
