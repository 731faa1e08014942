// Package chat implements the chat-taxonomy message handlers and the
// dispatcher that normalizes raw stream payloads into typed chat results.
package chat

import (
	"encoding/json"
	"strings"

	"waldiez-stream/parser"
	"waldiez-stream/types"
)

// GenericPromptText replaces the backend's bare ">" prompt, which carries no
// information the user could act on.
const GenericPromptText = "Enter your message to start the conversation:"

// WorkflowEndMarker is the completion marker the backend prints when the
// whole workflow finishes.
const WorkflowEndMarker = "<Waldiez> - Workflow finished"

// Context carries the caller-supplied processing context: the currently
// pending input request id and an optional hook that rewrites image URLs in
// media content blocks (used to swap placeholders for uploaded blobs).
type Context struct {
	RequestID        string
	ImageURLReplacer func(blockType, url string) string
}

// Handler is the capability contract every chat message kind implements.
// Handle validates the envelope's shape first and returns nil on any
// malformed input; it never panics for bad data.
type Handler interface {
	CanHandle(msgType string) bool
	Handle(env parser.Envelope, pctx *Context) *types.ChatResult
}

// normalizeContent turns whatever arrived in a content field into the
// canonical block slice: strings become a single text block, a bare object
// is wrapped into a one-element slice, arrays pass through element-wise.
// The image URL replacer, when present, is applied to image_url blocks.
func normalizeContent(raw any, pctx *Context) []types.Block {
	var blocks []types.Block
	switch v := raw.(type) {
	case string:
		blocks = []types.Block{types.NewTextBlock(v)}
	case map[string]any:
		blocks = []types.Block{types.Block(v)}
	case []any:
		blocks = make([]types.Block, 0, len(v))
		for _, item := range v {
			switch b := item.(type) {
			case map[string]any:
				blocks = append(blocks, types.Block(b))
			case string:
				blocks = append(blocks, types.NewTextBlock(b))
			}
		}
	default:
		return []types.Block{}
	}

	if pctx == nil || pctx.ImageURLReplacer == nil {
		return blocks
	}
	for i, b := range blocks {
		if url, ok := b.ImageURL(); ok {
			blocks[i] = b.WithImageURL(pctx.ImageURLReplacer(b.BlockType(), url))
		}
	}
	return blocks
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// baseMessage builds the common fields of a normalized chat message from the
// nested content object: id from content.uuid (generated when absent),
// timestamp from content.timestamp (now when absent), sender and recipient
// passed through.
func baseMessage(msgType types.ChatMessageType, content map[string]any) *types.ChatMessage {
	ts := stringField(content, "timestamp")
	if ts == "" {
		ts = types.Now()
	}
	return &types.ChatMessage{
		ID:        types.NewMessageID(content["uuid"]),
		Timestamp: ts,
		Type:      msgType,
		Sender:    stringField(content, "sender"),
		Recipient: stringField(content, "recipient"),
	}
}

// InputRequestHandler handles input_request messages: the backend is asking
// the user for input and the UI must render a prompt.
type InputRequestHandler struct{}

func (InputRequestHandler) CanHandle(msgType string) bool {
	return msgType == string(types.MessageTypeInputRequest)
}

func (InputRequestHandler) Handle(env parser.Envelope, pctx *Context) *types.ChatResult {
	if !types.IsInputRequest(map[string]any(env)) {
		return nil
	}
	content := env["content"].(map[string]any)

	prompt := content["prompt"].(string)
	if prompt == ">" || prompt == "> " {
		prompt = GenericPromptText
	}

	// The caller's pending request id wins over the payload's own; the
	// payload's request_id still names the message itself.
	innerRequestID := content["request_id"].(string)
	requestID := innerRequestID
	if pctx != nil && pctx.RequestID != "" {
		requestID = pctx.RequestID
	}

	msg := baseMessage(types.MessageTypeInputRequest, content)
	msg.ID = innerRequestID
	msg.Content = []types.Block{types.NewTextBlock(prompt)}
	msg.RequestID = requestID
	msg.Password = passwordFlag(content["password"])

	return &types.ChatResult{Message: msg, RequestID: requestID}
}

// passwordFlag accepts boolean true or the string "true" in any casing;
// everything else, including absence, means a visible prompt.
func passwordFlag(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return strings.EqualFold(val, "true")
	}
	return false
}

// PrintHandler handles print messages, which multiplex two announcements:
// the workflow-completion marker and the (double-JSON-encoded) participants
// list. Anything else printed on this channel is dropped.
type PrintHandler struct{}

func (PrintHandler) CanHandle(msgType string) bool {
	return msgType == string(types.MessageTypePrint)
}

func (PrintHandler) Handle(env parser.Envelope, _ *Context) *types.ChatResult {
	if !types.IsPrintMessage(map[string]any(env)) {
		return nil
	}
	content := env["content"].(map[string]any)
	data := content["data"].(string)

	if strings.Contains(data, WorkflowEndMarker) {
		return &types.ChatResult{Participants: &types.ParticipantsUpdate{
			IsWorkflowEnd:    true,
			UserParticipants: []string{},
		}}
	}

	names, ok := parseParticipants(data)
	if !ok {
		return nil
	}
	return &types.ChatResult{Participants: &types.ParticipantsUpdate{
		IsWorkflowEnd:    false,
		UserParticipants: names,
	}}
}

// parseParticipants decodes a participants announcement. The payload is JSON
// encoded inside the print data, occasionally twice. Every entry must carry
// name, humanInputMode and agentType; user participants are the ones the
// backend will ask for input (ALWAYS input mode or a user-style agent).
func parseParticipants(data string) ([]string, bool) {
	var decoded any
	if err := json.Unmarshal([]byte(data), &decoded); err != nil {
		return nil, false
	}
	if inner, ok := decoded.(string); ok {
		if err := json.Unmarshal([]byte(inner), &decoded); err != nil {
			return nil, false
		}
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		return nil, false
	}
	list, ok := obj["participants"].([]any)
	if !ok {
		return nil, false
	}

	names := []string{}
	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		name, hasName := entry["name"].(string)
		mode, hasMode := entry["humanInputMode"].(string)
		agentType, hasType := entry["agentType"].(string)
		if !hasName || !hasMode || !hasType {
			return nil, false
		}
		if strings.EqualFold(mode, "ALWAYS") || agentType == "user_proxy" || agentType == "user" {
			names = append(names, name)
		}
	}
	return names, true
}

// TextHandler handles text and input_response messages.
type TextHandler struct{}

func (TextHandler) CanHandle(msgType string) bool {
	return msgType == string(types.MessageTypeText) ||
		msgType == string(types.MessageTypeInputResponse)
}

func (TextHandler) Handle(env parser.Envelope, pctx *Context) *types.ChatResult {
	if !types.IsTextMessage(map[string]any(env)) {
		return nil
	}
	content := env["content"].(map[string]any)
	msg := baseMessage(types.ChatMessageType(env.Type()), content)
	msg.Content = normalizeContent(content["content"], pctx)
	return &types.ChatResult{Message: msg}
}

// ToolCallHandler handles tool_call messages.
type ToolCallHandler struct{}

func (ToolCallHandler) CanHandle(msgType string) bool {
	return msgType == string(types.MessageTypeToolCall)
}

func (ToolCallHandler) Handle(env parser.Envelope, pctx *Context) *types.ChatResult {
	if !types.IsToolCall(map[string]any(env)) {
		return nil
	}
	content := env["content"].(map[string]any)
	msg := baseMessage(types.MessageTypeToolCall, content)
	if inner := content["content"]; inner != nil {
		msg.Content = normalizeContent(inner, pctx)
	} else {
		msg.Content = normalizeContent(content, pctx)
	}
	return &types.ChatResult{Message: msg}
}

// ToolResponseHandler handles tool_response messages.
type ToolResponseHandler struct{}

func (ToolResponseHandler) CanHandle(msgType string) bool {
	return msgType == string(types.MessageTypeToolResponse)
}

func (ToolResponseHandler) Handle(env parser.Envelope, pctx *Context) *types.ChatResult {
	if !types.IsToolResponse(map[string]any(env)) {
		return nil
	}
	content := env["content"].(map[string]any)
	msg := baseMessage(types.MessageTypeToolResponse, content)
	if inner := content["content"]; inner != nil {
		msg.Content = normalizeContent(inner, pctx)
	} else {
		msg.Content = normalizeContent(content["tool_responses"], pctx)
	}
	return &types.ChatResult{Message: msg}
}

// TerminationHandler handles termination messages.
type TerminationHandler struct{}

func (TerminationHandler) CanHandle(msgType string) bool {
	return msgType == string(types.MessageTypeTermination)
}

func (TerminationHandler) Handle(env parser.Envelope, _ *Context) *types.ChatResult {
	if !types.IsTermination(map[string]any(env)) {
		return nil
	}
	content := env["content"].(map[string]any)
	msg := baseMessage(types.MessageTypeTermination, content)
	msg.Content = []types.Block{types.NewTextBlock(content["termination_reason"].(string))}
	return &types.ChatResult{Message: msg}
}

// GroupChatRunHandler handles group_chat_run_chat messages.
type GroupChatRunHandler struct{}

func (GroupChatRunHandler) CanHandle(msgType string) bool {
	return msgType == string(types.MessageTypeGroupChatRun)
}

func (GroupChatRunHandler) Handle(env parser.Envelope, pctx *Context) *types.ChatResult {
	if !types.IsGroupChatRun(map[string]any(env)) {
		return nil
	}
	content := env["content"].(map[string]any)
	msg := baseMessage(types.MessageTypeGroupChatRun, content)
	msg.ID = content["uuid"].(string)
	msg.Sender = stringField(content, "speaker")
	msg.Content = normalizeContent(content, pctx)
	return &types.ChatResult{Message: msg}
}

// SpeakerSelectionHandler handles select_speaker messages.
type SpeakerSelectionHandler struct{}

func (SpeakerSelectionHandler) CanHandle(msgType string) bool {
	return msgType == string(types.MessageTypeSelectSpeaker)
}

func (SpeakerSelectionHandler) Handle(env parser.Envelope, pctx *Context) *types.ChatResult {
	if !types.IsSpeakerSelection(map[string]any(env)) {
		return nil
	}
	content := env["content"].(map[string]any)
	msg := baseMessage(types.MessageTypeSelectSpeaker, content)
	msg.Content = normalizeContent(content, pctx)
	return &types.ChatResult{Message: msg}
}

// ErrorHandler handles error messages. The error payload may live in
// content.error (preferred) or at the top level, as either a string or an
// object with a message field.
type ErrorHandler struct{}

func (ErrorHandler) CanHandle(msgType string) bool {
	return msgType == string(types.MessageTypeError)
}

func (ErrorHandler) Handle(env parser.Envelope, _ *Context) *types.ChatResult {
	if !types.IsErrorMessage(map[string]any(env)) {
		return nil
	}
	var text string
	if content, ok := env["content"].(map[string]any); ok {
		text = errorText(content["error"])
	}
	if text == "" {
		text = errorText(env["error"])
	}
	if text == "" {
		return nil
	}

	msg := &types.ChatMessage{
		ID:        types.NewMessageID(nil),
		Timestamp: types.Now(),
		Type:      types.MessageTypeError,
		Content:   []types.Block{types.NewTextBlock("Error: " + text)},
	}
	return &types.ChatResult{Message: msg}
}

func errorText(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case map[string]any:
		if msg, ok := val["message"].(string); ok {
			return msg
		}
		if msg, ok := val["error"].(string); ok {
			return msg
		}
	}
	return ""
}

// RunCompletionHandler handles run_completion messages, passing the summary
// payload through as its own result branch.
type RunCompletionHandler struct{}

func (RunCompletionHandler) CanHandle(msgType string) bool {
	return msgType == string(types.MessageTypeRunCompletion)
}

func (RunCompletionHandler) Handle(env parser.Envelope, _ *Context) *types.ChatResult {
	if !types.IsRunCompletion(map[string]any(env)) {
		return nil
	}
	content := env["content"].(map[string]any)
	return &types.ChatResult{RunCompletion: content}
}

// TimelineHandler handles timeline messages, passing the visualization
// payload through as its own result branch.
type TimelineHandler struct{}

func (TimelineHandler) CanHandle(msgType string) bool {
	return msgType == string(types.MessageTypeTimeline)
}

func (TimelineHandler) Handle(env parser.Envelope, _ *Context) *types.ChatResult {
	if !types.IsTimeline(map[string]any(env)) {
		return nil
	}
	content := env["content"].(map[string]any)
	return &types.ChatResult{Timeline: &types.TimelineUpdate{Data: content}}
}
