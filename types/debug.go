package types

import (
	"fmt"
	"strings"
)

// DebugMessageType enumerates the step-by-step debugging protocol kinds.
// This taxonomy is independent from ChatMessageType and must stay so: the
// two protocols evolve separately and are only bridged at dispatch time.
type DebugMessageType string

const (
	DebugTypeBreakpointsList   DebugMessageType = "debug_breakpoints_list"
	DebugTypeBreakpointAdded   DebugMessageType = "debug_breakpoint_added"
	DebugTypeBreakpointRemoved DebugMessageType = "debug_breakpoint_removed"
	DebugTypeBreakpointCleared DebugMessageType = "debug_breakpoint_cleared"
	DebugTypeError             DebugMessageType = "debug_error"
	DebugTypeInputRequest      DebugMessageType = "debug_input_request"
	DebugTypeEventInfo         DebugMessageType = "debug_event_info"
	DebugTypeStats             DebugMessageType = "debug_stats"
	DebugTypeHelp              DebugMessageType = "debug_help"
	DebugTypePrint             DebugMessageType = "debug_print"
	DebugTypeGroupChatResume   DebugMessageType = "group_chat_resume"
)

// DebugMessage is the normalized step-by-step protocol message.
type DebugMessage struct {
	Type    DebugMessageType `json:"type"`
	Content any              `json:"content,omitempty"`
}

// Severity of a show_notification control action.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ControlActionType enumerates the UI side effects a step handler may request.
type ControlActionType string

const (
	ActionUpdateBreakpoints ControlActionType = "update_breakpoints"
	ActionShowNotification  ControlActionType = "show_notification"
)

// ControlAction describes a UI side effect for the caller to execute. The
// processor never performs the effect itself.
type ControlAction struct {
	Type        ControlActionType `json:"type"`
	Message     string            `json:"message,omitempty"`
	Severity    Severity          `json:"severity,omitempty"`
	Breakpoints []Breakpoint      `json:"breakpoints,omitempty"`
}

// EventHistoryEntry is one appended element of the caller's event history.
type EventHistoryEntry map[string]any

// StateUpdate is a partial patch to externally owned UI state. Nil fields
// mean "leave unchanged"; the caller owns the state and applies the patch.
type StateUpdate struct {
	Breakpoints  *[]Breakpoint       `json:"breakpoints,omitempty"`
	Participants []string            `json:"participants,omitempty"`
	Timeline     *TimelineUpdate     `json:"timeline,omitempty"`
	LastError    string              `json:"lastError,omitempty"`
	Stats        map[string]any      `json:"stats,omitempty"`
	PendingInput *DebugMessage       `json:"pendingInput,omitempty"`
	EventHistory []EventHistoryEntry `json:"eventHistory,omitempty"`
}

// Step error codes reported by the step dispatcher.
const (
	ErrCodeParse     = "PARSE_ERROR"
	ErrCodeUnknown   = "UNKNOWN_TYPE"
	ErrCodeHandler   = "HANDLER_ERROR"
	ErrCodeBadShape  = "INVALID_SHAPE"
	ErrCodeEmptyData = "EMPTY_DATA"
)

// StepError is the structured failure branch of a step result. The step
// channel is a debugging surface, so failures always carry the offending
// raw data instead of being dropped.
type StepError struct {
	Message      string `json:"message"`
	Code         string `json:"code,omitempty"`
	OriginalData any    `json:"originalData,omitempty"`
}

// StepResult is the outcome of processing one step-by-step payload.
type StepResult struct {
	DebugMessage  *DebugMessage  `json:"debugMessage,omitempty"`
	StateUpdate   *StateUpdate   `json:"stateUpdate,omitempty"`
	ControlAction *ControlAction `json:"controlAction,omitempty"`
	Error         *StepError     `json:"error,omitempty"`
}

// DebugState is the slice of caller-owned state the step handlers read.
// Handlers never mutate it; they return a StateUpdate describing the change.
type DebugState struct {
	Breakpoints  []Breakpoint
	EventHistory []EventHistoryEntry
}

// BreakpointType tags the Breakpoint variant.
type BreakpointType string

const (
	BreakpointAll        BreakpointType = "all"
	BreakpointEvent      BreakpointType = "event"
	BreakpointAgent      BreakpointType = "agent"
	BreakpointAgentEvent BreakpointType = "agent_event"
)

// Breakpoint selects which events the step debugger pauses on. Exactly the
// fields implied by Type are populated: event breakpoints carry EventType,
// agent breakpoints carry Agent, agent_event carries both, all carries
// neither.
type Breakpoint struct {
	Type      BreakpointType `json:"type"`
	EventType string         `json:"event_type,omitempty"`
	Agent     string         `json:"agent,omitempty"`
}

// String serializes the breakpoint to its wire form. ParseBreakpoint is the
// exact inverse for every well-formed variant.
func (b Breakpoint) String() string {
	switch b.Type {
	case BreakpointEvent:
		return "event:" + b.EventType
	case BreakpointAgent:
		return "agent:" + b.Agent
	case BreakpointAgentEvent:
		return "agent:" + b.Agent + ":event:" + b.EventType
	default:
		return "all"
	}
}

// ParseBreakpoint parses the wire form produced by Breakpoint.String.
func ParseBreakpoint(s string) (Breakpoint, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "all" || s == "":
		return Breakpoint{Type: BreakpointAll}, nil
	case strings.HasPrefix(s, "event:"):
		return Breakpoint{Type: BreakpointEvent, EventType: s[len("event:"):]}, nil
	case strings.HasPrefix(s, "agent:"):
		rest := s[len("agent:"):]
		if idx := strings.Index(rest, ":event:"); idx >= 0 {
			return Breakpoint{
				Type:      BreakpointAgentEvent,
				Agent:     rest[:idx],
				EventType: rest[idx+len(":event:"):],
			}, nil
		}
		return Breakpoint{Type: BreakpointAgent, Agent: rest}, nil
	}
	return Breakpoint{}, fmt.Errorf("unrecognized breakpoint %q", s)
}

// BreakpointFromValue accepts the wire representations seen in debug
// payloads: a plain string, or an object mirroring the Breakpoint fields.
func BreakpointFromValue(v any) (Breakpoint, bool) {
	switch val := v.(type) {
	case string:
		bp, err := ParseBreakpoint(val)
		return bp, err == nil
	case map[string]any:
		t, _ := val["type"].(string)
		agent, _ := val["agent"].(string)
		eventType, _ := val["event_type"].(string)
		switch BreakpointType(t) {
		case BreakpointAll:
			return Breakpoint{Type: BreakpointAll}, true
		case BreakpointEvent:
			return Breakpoint{Type: BreakpointEvent, EventType: eventType}, eventType != ""
		case BreakpointAgent:
			return Breakpoint{Type: BreakpointAgent, Agent: agent}, agent != ""
		case BreakpointAgentEvent:
			return Breakpoint{Type: BreakpointAgentEvent, Agent: agent, EventType: eventType},
				agent != "" && eventType != ""
		}
	}
	return Breakpoint{}, false
}
