package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelinePhases(t *testing.T) {
	var out bytes.Buffer
	p := NewPipelineWithOutput([]Phase{PhaseValidating, PhaseMerging}, &out)
	assert.Equal(t, Phase(""), p.Current())

	bar := p.NextPhase(1)
	require.NotNil(t, bar)
	assert.Equal(t, PhaseValidating, p.Current())
	require.NoError(t, bar.Increment())

	bar = p.NextPhase(2)
	require.NotNil(t, bar)
	assert.Equal(t, PhaseMerging, p.Current())
	bar.Describe("a.xlsm")
	require.NoError(t, bar.Increment())

	assert.Nil(t, p.NextPhase(0))
}

func TestPipelineDisabled(t *testing.T) {
	var out bytes.Buffer
	p := NewPipelineWithOutput([]Phase{PhaseExporting}, &out)
	p.Disable()

	bar := p.NextPhase(1)
	require.NotNil(t, bar)
	require.NoError(t, bar.Increment())
	p.Finish()
	assert.Empty(t, out.String())
}
