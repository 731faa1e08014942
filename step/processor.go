package step

import (
	"fmt"

	"waldiez-stream/chat"
	"waldiez-stream/logger"
	"waldiez-stream/parser"
	"waldiez-stream/types"
)

// Processor dispatches step-by-step payloads. It composes the chat processor
// as a fallback handler source: a payload no step handler recognizes is
// offered to the chat registry and the chat result is adapted into step
// shape. The two taxonomies stay separate; only results cross the bridge.
type Processor struct {
	handlers []Handler
	chat     *chat.Processor
	log      logger.Logger
}

// NewProcessor builds a step processor with the default handler registry,
// falling back to chatProc's handlers for unrecognized types.
func NewProcessor(chatProc *chat.Processor, log logger.Logger) *Processor {
	if log == nil {
		log = logger.Nop()
	}
	return &Processor{
		handlers: defaultHandlers(),
		chat:     chatProc,
		log:      log.WithComponent(logger.ComponentStepProcessor),
	}
}

func defaultHandlers() []Handler {
	return []Handler{
		BreakpointsHandler{},
		ErrorHandler{},
		InputRequestHandler{},
		EventInfoHandler{},
		StatsHandler{},
		HelpHandler{},
		PrintHandler{},
	}
}

// Process normalizes one raw payload and dispatches it. The step channel is
// a debugging surface, so unlike the chat processor nothing is silently
// swallowed: parse failures, unknown types and handler panics all come back
// as structured errors carrying the offending data.
func (p *Processor) Process(raw any, sctx *Context) *types.StepResult {
	if raw == nil {
		return stepError(types.ErrCodeEmptyData, "no data to process", raw)
	}
	if s, ok := raw.(string); ok && s == "" {
		return stepError(types.ErrCodeEmptyData, "no data to process", raw)
	}

	env := p.envelopeFrom(raw)
	if env == nil {
		return stepError(types.ErrCodeParse, "unable to parse message", raw)
	}

	msgType := env.Type()
	if handler := p.handlerFor(msgType); handler != nil {
		result, panicked := p.invoke(handler, env, sctx)
		if !panicked {
			return result
		}
		// A broken step handler should not take the debug stream down when
		// the chat registry can still classify the payload.
		if fallback := p.chatFallback(env, sctx); fallback != nil {
			return fallback
		}
		return stepError(types.ErrCodeHandler,
			fmt.Sprintf("handler for %q failed: %s", msgType, result.Error.Message), raw)
	}

	if fallback := p.chatFallback(env, sctx); fallback != nil {
		return fallback
	}
	if p.chat != nil && p.chat.HandlerFor(msgType) != nil {
		// The chat handler matched but produced nothing usable.
		return nil
	}
	return stepError(types.ErrCodeUnknown,
		fmt.Sprintf("unhandled message type %q", msgType), raw)
}

func (p *Processor) handlerFor(msgType string) Handler {
	for _, h := range p.handlers {
		if h.CanHandle(msgType) {
			return h
		}
	}
	return nil
}

// invoke runs the handler with panic recovery. On panic the returned result
// carries the panic value in Error.OriginalData for the caller to report.
func (p *Processor) invoke(h Handler, env parser.Envelope, sctx *Context) (result *types.StepResult, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("step handler panic recovered: %v", r)
			result = &types.StepResult{Error: &types.StepError{
				Code:         types.ErrCodeHandler,
				Message:      fmt.Sprintf("%v", r),
				OriginalData: r,
			}}
			panicked = true
		}
	}()
	return h.Handle(env, sctx), false
}

// chatFallback offers the envelope to the chat registry and adapts any
// result across the bridge. Panics in chat handlers are recovered by the
// chat processor itself, which reports them as nil.
func (p *Processor) chatFallback(env parser.Envelope, sctx *Context) *types.StepResult {
	if p.chat == nil || p.chat.HandlerFor(env.Type()) == nil {
		return nil
	}
	pctx := &chat.Context{}
	if sctx != nil {
		pctx.RequestID = sctx.RequestID
	}
	return chatResultToStepResult(p.chat.Process(map[string]any(env), pctx))
}

// chatResultToStepResult adapts a chat-taxonomy result into step shape. Chat
// payloads crossing the bridge surface as print debug messages plus the
// state patch the chat branch implies.
func chatResultToStepResult(res *types.ChatResult) *types.StepResult {
	switch {
	case res == nil:
		return nil

	case res.Participants != nil:
		if res.Participants.IsWorkflowEnd {
			return &types.StepResult{
				DebugMessage: &types.DebugMessage{Type: types.DebugTypePrint, Content: "Workflow finished"},
				StateUpdate: &types.StateUpdate{EventHistory: []types.EventHistoryEntry{
					{"type": "workflow_end"},
				}},
			}
		}
		return &types.StepResult{
			DebugMessage: &types.DebugMessage{Type: types.DebugTypePrint, Content: res.Participants},
			StateUpdate:  &types.StateUpdate{Participants: res.Participants.UserParticipants},
		}

	case res.Timeline != nil:
		return &types.StepResult{
			DebugMessage: &types.DebugMessage{Type: types.DebugTypePrint, Content: res.Timeline},
			StateUpdate:  &types.StateUpdate{Timeline: res.Timeline},
		}

	case res.RunCompletion != nil:
		return &types.StepResult{
			DebugMessage: &types.DebugMessage{Type: types.DebugTypePrint, Content: res.RunCompletion},
			StateUpdate: &types.StateUpdate{EventHistory: []types.EventHistoryEntry{
				{"type": "run_completion", "content": res.RunCompletion},
			}},
		}

	case res.Message != nil:
		if len(res.Message.Content) == 0 {
			return nil
		}
		return &types.StepResult{
			DebugMessage: &types.DebugMessage{Type: types.DebugTypePrint, Content: res.Message},
			StateUpdate: &types.StateUpdate{EventHistory: []types.EventHistoryEntry{
				{"type": string(res.Message.Type), "message": res.Message},
			}},
		}
	}
	return nil
}

// envelopeFrom mirrors the chat processor's input coercion.
func (p *Processor) envelopeFrom(raw any) parser.Envelope {
	switch v := raw.(type) {
	case string:
		return parser.Parse(v)
	case parser.Envelope:
		return parser.FromValue(map[string]any(v))
	case map[string]any:
		return parser.FromValue(v)
	default:
		return nil
	}
}

func stepError(code, message string, original any) *types.StepResult {
	return &types.StepResult{Error: &types.StepError{
		Code:         code,
		Message:      message,
		OriginalData: original,
	}}
}
