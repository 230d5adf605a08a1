package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender_OnePresentationPerState(t *testing.T) {
	states := []State{StateChecking, StateOK, StateWarning, StateError}

	seen := make(map[string]State, len(states))
	for _, s := range states {
		p := Render(Report{Status: s})
		assert.NotEmpty(t, p.Icon)
		assert.NotEmpty(t, p.Label)
		assert.NotNil(t, p.Colorize)

		key := p.Icon + "|" + p.Label
		if prev, dup := seen[key]; dup {
			t.Errorf("states %q and %q share presentation %q", prev, s, key)
		}
		seen[key] = s
	}
}

func TestRender_WarningIsNotErrorStyling(t *testing.T) {
	warn := Render(Report{Status: StateWarning, Message: "using local cache", Fallback: true})
	errp := Render(Report{Status: StateError})

	assert.Equal(t, "fallback storage active", warn.Label)
	assert.NotEqual(t, errp.Icon, warn.Icon)
	assert.NotEqual(t, errp.Label, warn.Label)
}

func TestRender_ErrorUsesReportMessage(t *testing.T) {
	p := Render(Report{Status: StateError, Message: "Could not connect to server", Fallback: true})
	assert.Equal(t, "Could not connect to server", p.Label)
}
