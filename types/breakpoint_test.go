package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Every variant must survive a String/ParseBreakpoint round trip unchanged.
func TestBreakpointRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		bp   Breakpoint
		wire string
	}{
		{
			name: "all",
			bp:   Breakpoint{Type: BreakpointAll},
			wire: "all",
		},
		{
			name: "event",
			bp:   Breakpoint{Type: BreakpointEvent, EventType: "tool_call"},
			wire: "event:tool_call",
		},
		{
			name: "agent",
			bp:   Breakpoint{Type: BreakpointAgent, Agent: "assistant"},
			wire: "agent:assistant",
		},
		{
			name: "agent_event",
			bp:   Breakpoint{Type: BreakpointAgentEvent, Agent: "assistant", EventType: "text"},
			wire: "agent:assistant:event:text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wire, tt.bp.String())

			parsed, err := ParseBreakpoint(tt.bp.String())
			require.NoError(t, err)
			assert.Equal(t, tt.bp, parsed)
		})
	}
}

func TestParseBreakpointErrors(t *testing.T) {
	_, err := ParseBreakpoint("bogus")
	assert.Error(t, err)

	// Empty means all: the debugger's default scope.
	bp, err := ParseBreakpoint("")
	require.NoError(t, err)
	assert.Equal(t, BreakpointAll, bp.Type)
}

func TestBreakpointFromValue(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		want   Breakpoint
		wantOK bool
	}{
		{
			name:   "wire string",
			value:  "event:text",
			want:   Breakpoint{Type: BreakpointEvent, EventType: "text"},
			wantOK: true,
		},
		{
			name:   "object form",
			value:  map[string]any{"type": "agent", "agent": "planner"},
			want:   Breakpoint{Type: BreakpointAgent, Agent: "planner"},
			wantOK: true,
		},
		{
			name:   "agent_event object",
			value:  map[string]any{"type": "agent_event", "agent": "planner", "event_type": "text"},
			want:   Breakpoint{Type: BreakpointAgentEvent, Agent: "planner", EventType: "text"},
			wantOK: true,
		},
		{
			name:   "agent object missing agent",
			value:  map[string]any{"type": "agent"},
			wantOK: false,
		},
		{
			name:   "unknown tag",
			value:  map[string]any{"type": "sometimes"},
			wantOK: false,
		},
		{
			name:   "unsupported value",
			value:  42,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := BreakpointFromValue(tt.value)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestBlockImageURLRewrite(t *testing.T) {
	block := Block{
		"type":      "image_url",
		"image_url": map[string]any{"url": "placeholder", "detail": "high"},
	}

	rewritten := block.WithImageURL("https://cdn.example/img.png")

	url, ok := rewritten.ImageURL()
	require.True(t, ok)
	assert.Equal(t, "https://cdn.example/img.png", url)

	// Sibling fields survive the rewrite.
	inner := rewritten["image_url"].(map[string]any)
	assert.Equal(t, "high", inner["detail"])

	// The original block is untouched.
	origURL, _ := block.ImageURL()
	assert.Equal(t, "placeholder", origURL)
}

func TestNewMessageID(t *testing.T) {
	assert.Equal(t, "u-1", NewMessageID("u-1"))
	assert.NotEmpty(t, NewMessageID(nil))
	assert.NotEmpty(t, NewMessageID(42))
	assert.NotEqual(t, NewMessageID(nil), NewMessageID(nil))
}
