package tui_test

import (
	"bytes"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/parley/internal/presentation/tui"
)

func TestPrintBanner_Ascii(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf, termenv.Ascii, "1.2.3")

	out := buf.String()
	assert.Contains(t, out, "v1.2.3")
	assert.NotContains(t, out, "\x1b[", "ascii profile emits no escape sequences")
}

func TestNewPlainRenderer(t *testing.T) {
	render, err := tui.NewPlainRenderer()
	require.NoError(t, err)

	out, err := render("# appointment\n\n- **idle** _atomic_\n")
	require.NoError(t, err)
	assert.Contains(t, out, "appointment")
	assert.Contains(t, out, "idle")
}
