package chat

import (
	"waldiez-stream/logger"
	"waldiez-stream/parser"
	"waldiez-stream/types"
)

// Processor dispatches chat-stream payloads to the first handler that can
// take the envelope's type. The registry is built once at construction and
// never mutated, so Process is safe to call from concurrent consumers.
type Processor struct {
	handlers []Handler
	log      logger.Logger
}

// NewProcessor builds a processor with the default handler registry.
func NewProcessor(log logger.Logger) *Processor {
	if log == nil {
		log = logger.Nop()
	}
	return &Processor{
		handlers: defaultHandlers(),
		log:      log.WithComponent(logger.ComponentChatProcessor),
	}
}

// defaultHandlers returns the registry in dispatch order. Order matters only
// for overlapping CanHandle sets; the current handlers are disjoint.
func defaultHandlers() []Handler {
	return []Handler{
		InputRequestHandler{},
		PrintHandler{},
		TextHandler{},
		ToolCallHandler{},
		ToolResponseHandler{},
		TerminationHandler{},
		GroupChatRunHandler{},
		SpeakerSelectionHandler{},
		ErrorHandler{},
		RunCompletionHandler{},
		TimelineHandler{},
	}
}

// Process normalizes one raw payload (a string to recover, or an
// already-decoded object) and runs it through the registry. Returns nil for
// anything that cannot be parsed, classified or validated: the chat stream
// is noisy by nature and bad payloads are dropped, not errored. A handler
// panic is recovered here and also surfaces as nil.
func (p *Processor) Process(raw any, pctx *Context) (result *types.ChatResult) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("handler panic recovered: %v", r)
			result = nil
		}
	}()

	env := envelopeFrom(raw)
	if env == nil {
		return nil
	}

	handler := p.HandlerFor(env.Type())
	if handler == nil {
		p.log.WithMessageType(env.Type()).Debug("no handler for type %q, dropping", env.Type())
		return nil
	}
	return handler.Handle(env, pctx)
}

// HandlerFor returns the first registered handler accepting msgType, or nil.
// The step processor uses this as its fallback registry.
func (p *Processor) HandlerFor(msgType string) Handler {
	for _, h := range p.handlers {
		if h.CanHandle(msgType) {
			return h
		}
	}
	return nil
}

// envelopeFrom coerces the raw payload into an envelope: strings go through
// the recovery parser, decoded objects are checked for the envelope shape
// directly, everything else is rejected.
func envelopeFrom(raw any) parser.Envelope {
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
		return parser.Parse(v)
	case parser.Envelope:
		return parser.FromValue(map[string]any(v))
	case map[string]any:
		return parser.FromValue(v)
	default:
		return nil
	}
}
