package step

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waldiez-stream/chat"
	"waldiez-stream/logger"
	"waldiez-stream/parser"
	"waldiez-stream/types"
)

func newTestProcessor() *Processor {
	return NewProcessor(chat.NewProcessor(nil), nil)
}

func TestProcessParseFailureIsStructured(t *testing.T) {
	proc := newTestProcessor()

	tests := []struct {
		name     string
		raw      any
		wantCode string
	}{
		{name: "not json at all", raw: "not json at all", wantCode: types.ErrCodeParse},
		{name: "nil input", raw: nil, wantCode: types.ErrCodeEmptyData},
		{name: "empty string", raw: "", wantCode: types.ErrCodeEmptyData},
		{name: "missing type", raw: `{"content":"x"}`, wantCode: types.ErrCodeParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := proc.Process(tt.raw, nil)
			require.NotNil(t, result)
			require.NotNil(t, result.Error)
			assert.Equal(t, tt.wantCode, result.Error.Code)
			assert.Equal(t, tt.raw, result.Error.OriginalData)
		})
	}
}

func TestProcessUnknownTypeIsStructured(t *testing.T) {
	proc := newTestProcessor()

	result := proc.Process(`{"type":"totally_unknown"}`, nil)
	require.NotNil(t, result)
	require.NotNil(t, result.Error)
	assert.Equal(t, types.ErrCodeUnknown, result.Error.Code)
	assert.Contains(t, result.Error.Message, "totally_unknown")
}

func TestBreakpointsList(t *testing.T) {
	proc := newTestProcessor()

	result := proc.Process(map[string]any{
		"type":        "debug_breakpoints_list",
		"breakpoints": []any{"event:text", "agent:planner"},
	}, nil)

	require.NotNil(t, result)
	require.Nil(t, result.Error)
	require.NotNil(t, result.StateUpdate)
	require.NotNil(t, result.StateUpdate.Breakpoints)
	assert.Equal(t, []types.Breakpoint{
		{Type: types.BreakpointEvent, EventType: "text"},
		{Type: types.BreakpointAgent, Agent: "planner"},
	}, *result.StateUpdate.Breakpoints)

	require.NotNil(t, result.ControlAction)
	assert.Equal(t, types.ActionUpdateBreakpoints, result.ControlAction.Type)
	assert.Len(t, result.ControlAction.Breakpoints, 2)
}

func TestBreakpointAddedAppendsToCurrentState(t *testing.T) {
	proc := newTestProcessor()
	sctx := &Context{CurrentState: &types.DebugState{
		Breakpoints: []types.Breakpoint{{Type: types.BreakpointAll}},
	}}

	result := proc.Process(map[string]any{
		"type":       "debug_breakpoint_added",
		"breakpoint": "event:tool_call",
	}, sctx)

	require.NotNil(t, result)
	require.NotNil(t, result.StateUpdate)
	require.NotNil(t, result.StateUpdate.Breakpoints)
	assert.Equal(t, []types.Breakpoint{
		{Type: types.BreakpointAll},
		{Type: types.BreakpointEvent, EventType: "tool_call"},
	}, *result.StateUpdate.Breakpoints)

	// The handler only describes the patch; the caller's state is untouched.
	assert.Len(t, sctx.CurrentState.Breakpoints, 1)

	require.NotNil(t, result.ControlAction)
	assert.Equal(t, types.ActionShowNotification, result.ControlAction.Type)
	assert.Equal(t, types.SeveritySuccess, result.ControlAction.Severity)
	assert.Contains(t, result.ControlAction.Message, "event:tool_call")
}

func TestBreakpointRemovedFiltersCurrentState(t *testing.T) {
	proc := newTestProcessor()
	sctx := &Context{CurrentState: &types.DebugState{
		Breakpoints: []types.Breakpoint{
			{Type: types.BreakpointEvent, EventType: "text"},
			{Type: types.BreakpointAgent, Agent: "planner"},
		},
	}}

	result := proc.Process(map[string]any{
		"type":       "debug_breakpoint_removed",
		"breakpoint": "agent:planner",
	}, sctx)

	require.NotNil(t, result)
	require.NotNil(t, result.StateUpdate.Breakpoints)
	assert.Equal(t, []types.Breakpoint{
		{Type: types.BreakpointEvent, EventType: "text"},
	}, *result.StateUpdate.Breakpoints)

	require.NotNil(t, result.ControlAction)
	assert.Equal(t, types.SeverityInfo, result.ControlAction.Severity)
}

func TestBreakpointCleared(t *testing.T) {
	proc := newTestProcessor()
	sctx := &Context{CurrentState: &types.DebugState{
		Breakpoints: []types.Breakpoint{{Type: types.BreakpointAll}},
	}}

	result := proc.Process(map[string]any{"type": "debug_breakpoint_cleared"}, sctx)

	require.NotNil(t, result)
	require.NotNil(t, result.StateUpdate.Breakpoints)
	assert.Empty(t, *result.StateUpdate.Breakpoints)
	require.NotNil(t, result.ControlAction)
	assert.Equal(t, types.ActionShowNotification, result.ControlAction.Type)
}

func TestDebugError(t *testing.T) {
	proc := newTestProcessor()

	result := proc.Process("{'type': 'debug_error', 'error': 'boom'}", nil)

	require.NotNil(t, result)
	require.Nil(t, result.Error)
	require.NotNil(t, result.DebugMessage)
	assert.Equal(t, types.DebugTypeError, result.DebugMessage.Type)
	require.NotNil(t, result.StateUpdate)
	assert.Equal(t, "boom", result.StateUpdate.LastError)
	require.NotNil(t, result.ControlAction)
	assert.Equal(t, types.SeverityError, result.ControlAction.Severity)
	assert.Equal(t, "boom", result.ControlAction.Message)
}

func TestDebugEventInfoAppendsHistory(t *testing.T) {
	proc := newTestProcessor()

	result := proc.Process(map[string]any{
		"type":    "debug_event_info",
		"content": map[string]any{"event": "text", "sender": "planner"},
	}, nil)

	require.NotNil(t, result)
	require.NotNil(t, result.StateUpdate)
	require.Len(t, result.StateUpdate.EventHistory, 1)
	assert.Equal(t, "planner", result.StateUpdate.EventHistory[0]["sender"])
}

func TestDebugStats(t *testing.T) {
	proc := newTestProcessor()

	result := proc.Process(map[string]any{
		"type":  "debug_stats",
		"stats": map[string]any{"events": float64(7)},
	}, nil)

	require.NotNil(t, result)
	require.NotNil(t, result.DebugMessage)
	assert.Equal(t, types.DebugTypeStats, result.DebugMessage.Type)
	require.NotNil(t, result.StateUpdate)
	assert.Equal(t, float64(7), result.StateUpdate.Stats["events"])
}

func TestChatFallbackBridgesMessages(t *testing.T) {
	proc := newTestProcessor()

	result := proc.Process(`{"type":"text","content":{"content":"Hello","sender":"user"}}`, nil)

	require.NotNil(t, result)
	require.Nil(t, result.Error)
	require.NotNil(t, result.DebugMessage)
	assert.Equal(t, types.DebugTypePrint, result.DebugMessage.Type)

	require.NotNil(t, result.StateUpdate)
	require.Len(t, result.StateUpdate.EventHistory, 1)
	assert.Equal(t, "text", result.StateUpdate.EventHistory[0]["type"])
}

func TestChatFallbackBridgesParticipants(t *testing.T) {
	proc := newTestProcessor()

	data := `{\"participants\":[{\"name\":\"a\",\"humanInputMode\":\"ALWAYS\",\"agentType\":\"user_proxy\"}]}`
	raw := `{"type":"print","content":{"data":"` + data + `"}}`
	result := proc.Process(raw, nil)

	require.NotNil(t, result)
	require.Nil(t, result.Error)
	require.NotNil(t, result.StateUpdate)
	assert.Equal(t, []string{"a"}, result.StateUpdate.Participants)
}

func TestChatFallbackBridgesWorkflowEnd(t *testing.T) {
	proc := newTestProcessor()

	raw := `{"type":"print","content":{"data":"` + chat.WorkflowEndMarker + `"}}`
	result := proc.Process(raw, nil)

	require.NotNil(t, result)
	require.NotNil(t, result.StateUpdate)
	require.Len(t, result.StateUpdate.EventHistory, 1)
	assert.Equal(t, "workflow_end", result.StateUpdate.EventHistory[0]["type"])
}

func TestChatFallbackWithNoUsableResultIsNil(t *testing.T) {
	proc := newTestProcessor()

	// The chat registry matches print, but a non-announcement payload yields
	// nothing; the bridge must not invent an error for it.
	result := proc.Process(`{"type":"print","content":{"data":"progress 42%"}}`, nil)
	assert.Nil(t, result)
}

func TestStepHandlerPrecedesChatFallback(t *testing.T) {
	proc := newTestProcessor()

	// debug_print has a step handler; it must not fall through to chat.
	result := proc.Process(map[string]any{
		"type":    "debug_print",
		"content": "raw line",
	}, nil)

	require.NotNil(t, result)
	require.NotNil(t, result.DebugMessage)
	assert.Equal(t, types.DebugTypePrint, result.DebugMessage.Type)
	assert.Nil(t, result.StateUpdate)
}

// explodingHandler claims text and exploding payloads and panics on both,
// standing in for a step handler with a latent bug.
type explodingHandler struct{}

func (explodingHandler) CanHandle(msgType string) bool {
	return msgType == "text" || msgType == "exploding"
}

func (explodingHandler) Handle(parser.Envelope, *Context) *types.StepResult {
	panic("kaboom")
}

func TestHandlerPanicFallsBackToChat(t *testing.T) {
	proc := &Processor{
		handlers: []Handler{explodingHandler{}},
		chat:     chat.NewProcessor(nil),
		log:      logger.Nop(),
	}

	// The step handler panics; the chat registry still classifies the
	// payload, so the bridge result wins over a HANDLER_ERROR.
	result := proc.Process(`{"type":"text","content":{"content":"hi"}}`, nil)
	require.NotNil(t, result)
	require.Nil(t, result.Error)
	require.NotNil(t, result.DebugMessage)
}

func TestHandlerPanicWithoutFallbackIsStructured(t *testing.T) {
	proc := &Processor{
		handlers: []Handler{explodingHandler{}},
		chat:     chat.NewProcessor(nil),
		log:      logger.Nop(),
	}

	raw := `{"type":"exploding","content":{}}`
	result := proc.Process(raw, nil)
	require.NotNil(t, result)
	require.NotNil(t, result.Error)
	assert.Equal(t, types.ErrCodeHandler, result.Error.Code)
	assert.Contains(t, result.Error.Message, "kaboom")
	assert.Equal(t, raw, result.Error.OriginalData)
}
