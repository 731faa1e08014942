package types

// Shape validators for raw decoded envelopes. Each predicate gates one
// message kind: it rejects nil/primitive payloads, checks the exact type tag
// and the nested fields that kind requires, and never coerces values.
// Kind-specific coercions (password flags, prompt substitution) belong to
// the handlers.

func envelopeOf(data any, msgType string) (map[string]any, bool) {
	m, ok := data.(map[string]any)
	if !ok || m == nil {
		return nil, false
	}
	t, _ := m["type"].(string)
	if t != msgType {
		return nil, false
	}
	return m, true
}

func contentObject(m map[string]any) (map[string]any, bool) {
	c, ok := m["content"].(map[string]any)
	return c, ok
}

// IsInputRequest reports whether data is a valid input_request: an object
// content carrying a string prompt and a string request_id.
func IsInputRequest(data any) bool {
	m, ok := envelopeOf(data, string(MessageTypeInputRequest))
	if !ok {
		return false
	}
	content, ok := contentObject(m)
	if !ok {
		return false
	}
	_, hasPrompt := content["prompt"].(string)
	_, hasRequestID := content["request_id"].(string)
	return hasPrompt && hasRequestID
}

// IsTextMessage reports whether data is a valid text or input_response
// message: object content with a non-nil "content" field of any shape.
func IsTextMessage(data any) bool {
	m, ok := data.(map[string]any)
	if !ok || m == nil {
		return false
	}
	t, _ := m["type"].(string)
	if t != string(MessageTypeText) && t != string(MessageTypeInputResponse) {
		return false
	}
	content, ok := contentObject(m)
	if !ok {
		return false
	}
	return content["content"] != nil
}

// IsPrintMessage reports whether data is a valid print message carrying a
// string data field.
func IsPrintMessage(data any) bool {
	m, ok := envelopeOf(data, string(MessageTypePrint))
	if !ok {
		return false
	}
	content, ok := contentObject(m)
	if !ok {
		return false
	}
	_, hasData := content["data"].(string)
	return hasData
}

// IsToolCall reports whether data is a valid tool_call: content must be an
// object (the call payload itself is kind-specific and passed through).
func IsToolCall(data any) bool {
	m, ok := envelopeOf(data, string(MessageTypeToolCall))
	if !ok {
		return false
	}
	_, ok = contentObject(m)
	return ok
}

// IsToolResponse reports whether data is a valid tool_response: content must
// additionally carry a tool_responses array.
func IsToolResponse(data any) bool {
	m, ok := envelopeOf(data, string(MessageTypeToolResponse))
	if !ok {
		return false
	}
	content, ok := contentObject(m)
	if !ok {
		return false
	}
	_, ok = content["tool_responses"].([]any)
	return ok
}

// IsTermination reports whether data is a valid termination message with a
// string termination reason.
func IsTermination(data any) bool {
	m, ok := envelopeOf(data, string(MessageTypeTermination))
	if !ok {
		return false
	}
	content, ok := contentObject(m)
	if !ok {
		return false
	}
	_, hasReason := content["termination_reason"].(string)
	return hasReason
}

// IsGroupChatRun reports whether data is a valid group_chat_run_chat:
// content.uuid and content.speaker must both be strings.
func IsGroupChatRun(data any) bool {
	m, ok := envelopeOf(data, string(MessageTypeGroupChatRun))
	if !ok {
		return false
	}
	content, ok := contentObject(m)
	if !ok {
		return false
	}
	_, hasUUID := content["uuid"].(string)
	_, hasSpeaker := content["speaker"].(string)
	return hasUUID && hasSpeaker
}

// IsSpeakerSelection reports whether data is a valid select_speaker message:
// content.agents must be an array of strings.
func IsSpeakerSelection(data any) bool {
	m, ok := envelopeOf(data, string(MessageTypeSelectSpeaker))
	if !ok {
		return false
	}
	content, ok := contentObject(m)
	if !ok {
		return false
	}
	agents, ok := content["agents"].([]any)
	if !ok {
		return false
	}
	for _, a := range agents {
		if _, ok := a.(string); !ok {
			return false
		}
	}
	return true
}

// IsErrorMessage reports whether data is an error message with an
// extractable error payload in content.error or the top-level error field.
func IsErrorMessage(data any) bool {
	m, ok := envelopeOf(data, string(MessageTypeError))
	if !ok {
		return false
	}
	if content, ok := contentObject(m); ok && content["error"] != nil {
		return true
	}
	return m["error"] != nil
}

// IsRunCompletion reports whether data is a valid run_completion message
// with an object content.
func IsRunCompletion(data any) bool {
	m, ok := envelopeOf(data, string(MessageTypeRunCompletion))
	if !ok {
		return false
	}
	_, ok = contentObject(m)
	return ok
}

// IsTimeline reports whether data is a valid timeline message with an
// object content.
func IsTimeline(data any) bool {
	m, ok := envelopeOf(data, string(MessageTypeTimeline))
	if !ok {
		return false
	}
	_, ok = contentObject(m)
	return ok
}

// IsDebugBreakpointsList reports whether data is a debug_breakpoints_list
// with a breakpoints array.
func IsDebugBreakpointsList(data any) bool {
	m, ok := envelopeOf(data, string(DebugTypeBreakpointsList))
	if !ok {
		return false
	}
	_, ok = m["breakpoints"].([]any)
	return ok
}

// IsDebugBreakpointChange reports whether data is a debug_breakpoint_added
// or debug_breakpoint_removed carrying a breakpoint field.
func IsDebugBreakpointChange(data any) bool {
	m, ok := data.(map[string]any)
	if !ok || m == nil {
		return false
	}
	t, _ := m["type"].(string)
	if t != string(DebugTypeBreakpointAdded) && t != string(DebugTypeBreakpointRemoved) {
		return false
	}
	_, ok = BreakpointFromValue(m["breakpoint"])
	return ok
}

// IsDebugError reports whether data is a debug_error with a string error.
func IsDebugError(data any) bool {
	m, ok := envelopeOf(data, string(DebugTypeError))
	if !ok {
		return false
	}
	_, hasError := m["error"].(string)
	return hasError
}

// IsDebugStats reports whether data is a debug_stats with an object stats
// payload in either the stats or content field.
func IsDebugStats(data any) bool {
	m, ok := envelopeOf(data, string(DebugTypeStats))
	if !ok {
		return false
	}
	if _, ok := m["stats"].(map[string]any); ok {
		return true
	}
	_, ok = m["content"].(map[string]any)
	return ok
}
