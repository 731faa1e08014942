// Package step implements the step-by-step debugging taxonomy: its handlers,
// its dispatcher, and the bridge that adapts chat-taxonomy results when no
// step handler matches.
package step

import (
	"fmt"

	"waldiez-stream/parser"
	"waldiez-stream/types"
)

// Context carries caller-supplied state into step handlers. CurrentState is
// read-only input: handlers describe changes through StateUpdate, they never
// write back.
type Context struct {
	RequestID    string
	CurrentState *types.DebugState
}

func (c *Context) breakpoints() []types.Breakpoint {
	if c == nil || c.CurrentState == nil {
		return nil
	}
	return c.CurrentState.Breakpoints
}

// Handler is the step-taxonomy capability contract. Handle returns nil for
// shape-invalid payloads; structured errors are the dispatcher's business.
type Handler interface {
	CanHandle(msgType string) bool
	Handle(env parser.Envelope, sctx *Context) *types.StepResult
}

// BreakpointsHandler handles the four breakpoint protocol messages. Each
// returns the full new breakpoints list as a state patch plus a control
// action telling the UI what happened; the caller applies both.
type BreakpointsHandler struct{}

func (BreakpointsHandler) CanHandle(msgType string) bool {
	switch types.DebugMessageType(msgType) {
	case types.DebugTypeBreakpointsList,
		types.DebugTypeBreakpointAdded,
		types.DebugTypeBreakpointRemoved,
		types.DebugTypeBreakpointCleared:
		return true
	}
	return false
}

func (h BreakpointsHandler) Handle(env parser.Envelope, sctx *Context) *types.StepResult {
	switch types.DebugMessageType(env.Type()) {
	case types.DebugTypeBreakpointsList:
		return h.handleList(env)
	case types.DebugTypeBreakpointAdded:
		return h.handleAdded(env, sctx)
	case types.DebugTypeBreakpointRemoved:
		return h.handleRemoved(env, sctx)
	case types.DebugTypeBreakpointCleared:
		return h.handleCleared(env)
	}
	return nil
}

func (BreakpointsHandler) handleList(env parser.Envelope) *types.StepResult {
	if !types.IsDebugBreakpointsList(map[string]any(env)) {
		return nil
	}
	raw := env["breakpoints"].([]any)
	bps := make([]types.Breakpoint, 0, len(raw))
	for _, item := range raw {
		bp, ok := types.BreakpointFromValue(item)
		if !ok {
			return nil
		}
		bps = append(bps, bp)
	}
	return &types.StepResult{
		DebugMessage: &types.DebugMessage{Type: types.DebugTypeBreakpointsList, Content: raw},
		StateUpdate:  &types.StateUpdate{Breakpoints: &bps},
		ControlAction: &types.ControlAction{
			Type:        types.ActionUpdateBreakpoints,
			Breakpoints: bps,
			Message:     fmt.Sprintf("Breakpoints updated (%d active)", len(bps)),
		},
	}
}

func (BreakpointsHandler) handleAdded(env parser.Envelope, sctx *Context) *types.StepResult {
	if !types.IsDebugBreakpointChange(map[string]any(env)) {
		return nil
	}
	bp, _ := types.BreakpointFromValue(env["breakpoint"])

	current := sctx.breakpoints()
	next := make([]types.Breakpoint, 0, len(current)+1)
	for _, existing := range current {
		if existing.String() == bp.String() {
			continue
		}
		next = append(next, existing)
	}
	next = append(next, bp)

	return &types.StepResult{
		DebugMessage: &types.DebugMessage{Type: types.DebugTypeBreakpointAdded, Content: env["breakpoint"]},
		StateUpdate:  &types.StateUpdate{Breakpoints: &next},
		ControlAction: &types.ControlAction{
			Type:     types.ActionShowNotification,
			Severity: types.SeveritySuccess,
			Message:  "Breakpoint added: " + bp.String(),
		},
	}
}

func (BreakpointsHandler) handleRemoved(env parser.Envelope, sctx *Context) *types.StepResult {
	if !types.IsDebugBreakpointChange(map[string]any(env)) {
		return nil
	}
	bp, _ := types.BreakpointFromValue(env["breakpoint"])

	next := make([]types.Breakpoint, 0)
	for _, existing := range sctx.breakpoints() {
		if existing.String() == bp.String() {
			continue
		}
		next = append(next, existing)
	}

	return &types.StepResult{
		DebugMessage: &types.DebugMessage{Type: types.DebugTypeBreakpointRemoved, Content: env["breakpoint"]},
		StateUpdate:  &types.StateUpdate{Breakpoints: &next},
		ControlAction: &types.ControlAction{
			Type:     types.ActionShowNotification,
			Severity: types.SeverityInfo,
			Message:  "Breakpoint removed: " + bp.String(),
		},
	}
}

func (BreakpointsHandler) handleCleared(env parser.Envelope) *types.StepResult {
	empty := []types.Breakpoint{}
	return &types.StepResult{
		DebugMessage: &types.DebugMessage{Type: types.DebugTypeBreakpointCleared},
		StateUpdate:  &types.StateUpdate{Breakpoints: &empty},
		ControlAction: &types.ControlAction{
			Type:     types.ActionShowNotification,
			Severity: types.SeverityInfo,
			Message:  "All breakpoints cleared",
		},
	}
}

// ErrorHandler handles debug_error messages: record the error in state and
// tell the UI to surface it.
type ErrorHandler struct{}

func (ErrorHandler) CanHandle(msgType string) bool {
	return msgType == string(types.DebugTypeError)
}

func (ErrorHandler) Handle(env parser.Envelope, _ *Context) *types.StepResult {
	if !types.IsDebugError(map[string]any(env)) {
		return nil
	}
	errText := env["error"].(string)
	return &types.StepResult{
		DebugMessage: &types.DebugMessage{Type: types.DebugTypeError, Content: errText},
		StateUpdate:  &types.StateUpdate{LastError: errText},
		ControlAction: &types.ControlAction{
			Type:     types.ActionShowNotification,
			Severity: types.SeverityError,
			Message:  errText,
		},
	}
}

// InputRequestHandler handles debug_input_request: the debugger is waiting
// for a control command and the UI must show its input affordance.
type InputRequestHandler struct{}

func (InputRequestHandler) CanHandle(msgType string) bool {
	return msgType == string(types.DebugTypeInputRequest)
}

func (InputRequestHandler) Handle(env parser.Envelope, _ *Context) *types.StepResult {
	msg := &types.DebugMessage{Type: types.DebugTypeInputRequest, Content: env["content"]}
	return &types.StepResult{
		DebugMessage: msg,
		StateUpdate:  &types.StateUpdate{PendingInput: msg},
	}
}

// EventInfoHandler handles debug_event_info and group_chat_resume, both of
// which append the carried event to the caller's event history.
type EventInfoHandler struct{}

func (EventInfoHandler) CanHandle(msgType string) bool {
	return msgType == string(types.DebugTypeEventInfo) ||
		msgType == string(types.DebugTypeGroupChatResume)
}

func (EventInfoHandler) Handle(env parser.Envelope, _ *Context) *types.StepResult {
	content, ok := env["content"].(map[string]any)
	if !ok {
		return nil
	}
	return &types.StepResult{
		DebugMessage: &types.DebugMessage{Type: types.DebugMessageType(env.Type()), Content: content},
		StateUpdate:  &types.StateUpdate{EventHistory: []types.EventHistoryEntry{content}},
	}
}

// StatsHandler handles debug_stats.
type StatsHandler struct{}

func (StatsHandler) CanHandle(msgType string) bool {
	return msgType == string(types.DebugTypeStats)
}

func (StatsHandler) Handle(env parser.Envelope, _ *Context) *types.StepResult {
	if !types.IsDebugStats(map[string]any(env)) {
		return nil
	}
	stats, ok := env["stats"].(map[string]any)
	if !ok {
		stats = env["content"].(map[string]any)
	}
	return &types.StepResult{
		DebugMessage: &types.DebugMessage{Type: types.DebugTypeStats, Content: stats},
		StateUpdate:  &types.StateUpdate{Stats: stats},
	}
}

// HelpHandler handles debug_help, a pure display message.
type HelpHandler struct{}

func (HelpHandler) CanHandle(msgType string) bool {
	return msgType == string(types.DebugTypeHelp)
}

func (HelpHandler) Handle(env parser.Envelope, _ *Context) *types.StepResult {
	return &types.StepResult{
		DebugMessage: &types.DebugMessage{Type: types.DebugTypeHelp, Content: env["content"]},
	}
}

// PrintHandler handles debug_print, a pure display message.
type PrintHandler struct{}

func (PrintHandler) CanHandle(msgType string) bool {
	return msgType == string(types.DebugTypePrint)
}

func (PrintHandler) Handle(env parser.Envelope, _ *Context) *types.StepResult {
	return &types.StepResult{
		DebugMessage: &types.DebugMessage{Type: types.DebugTypePrint, Content: env["content"]},
	}
}
