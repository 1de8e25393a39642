package tui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
)

func TestRenderer(t *testing.T) {
	render := NewRenderer("notty", 80)

	out, err := render("**NotInTransaction** · mode `-`\n\n| # | Item |\n|---|---|\n| 1 | Ceramic mug |\n")
	require.NoError(t, err)
	assert.Contains(t, out, "NotInTransaction")
	assert.Contains(t, out, "Ceramic mug")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.0.0", "POS-07")

	assert.Contains(t, buf.String(), "v1.0.0")
	assert.Contains(t, buf.String(), "POS-07")
}

func TestPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	PrintStatus(&buf, domain.InteractionState{Mode: domain.ModeFatalError})

	assert.Contains(t, buf.String(), "Undefined")
	assert.Contains(t, buf.String(), "[FatalError]")
	assert.Equal(t, "#34d399", ModeColor(domain.ModeTendering))
}
