// Package types defines the normalized message model shared by the chat and
// step-by-step processing pipelines, plus the per-kind shape validators.
package types

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessageType enumerates the recognized chat message kinds.
// MessageTypeCustom is the escape hatch for types the UI treats generically.
type ChatMessageType string

const (
	MessageTypeUser          ChatMessageType = "user"
	MessageTypeAgent         ChatMessageType = "agent"
	MessageTypeSystem        ChatMessageType = "system"
	MessageTypeInputRequest  ChatMessageType = "input_request"
	MessageTypeInputResponse ChatMessageType = "input_response"
	MessageTypeRunCompletion ChatMessageType = "run_completion"
	MessageTypeError         ChatMessageType = "error"
	MessageTypePrint         ChatMessageType = "print"
	MessageTypeText          ChatMessageType = "text"
	MessageTypeToolCall      ChatMessageType = "tool_call"
	MessageTypeToolResponse  ChatMessageType = "tool_response"
	MessageTypeTermination   ChatMessageType = "termination"
	MessageTypeGroupChatRun  ChatMessageType = "group_chat_run_chat"
	MessageTypeSelectSpeaker ChatMessageType = "select_speaker"
	MessageTypeTimeline      ChatMessageType = "timeline"
	MessageTypeCustom        ChatMessageType = "custom"
)

// Block is one element of a message's normalized content: a text, image,
// image_url, video, audio or file entry. It stays a map so that fields this
// layer does not understand survive normalization untouched.
type Block map[string]any

// BlockType returns the block's "type" field, or "" when absent/mistyped.
func (b Block) BlockType() string {
	t, _ := b["type"].(string)
	return t
}

// NewTextBlock builds a text content block.
func NewTextBlock(text string) Block {
	return Block{"type": "text", "text": text}
}

// WithImageURL returns a copy of the block with the nested image_url.url
// replaced. All sibling fields (detail, etc.) are preserved. Blocks that are
// not image_url blocks are returned unchanged.
func (b Block) WithImageURL(url string) Block {
	if b.BlockType() != "image_url" {
		return b
	}
	out := make(Block, len(b))
	for k, v := range b {
		out[k] = v
	}
	inner, _ := b["image_url"].(map[string]any)
	newInner := make(map[string]any, len(inner)+1)
	for k, v := range inner {
		newInner[k] = v
	}
	newInner["url"] = url
	out["image_url"] = newInner
	return out
}

// ImageURL returns the nested image_url.url field of an image_url block.
func (b Block) ImageURL() (string, bool) {
	inner, ok := b["image_url"].(map[string]any)
	if !ok {
		return "", false
	}
	url, ok := inner["url"].(string)
	return url, ok
}

// ChatMessage is the canonical normalized chat message handed to the UI.
// Content is always a non-nil slice of blocks: string content is wrapped in
// a single text block and bare-object content in a one-element slice, so the
// consumer never sees a raw object.
type ChatMessage struct {
	ID        string          `json:"id"`
	Timestamp string          `json:"timestamp"`
	Type      ChatMessageType `json:"type"`
	Content   []Block         `json:"content"`
	Sender    string          `json:"sender,omitempty"`
	Recipient string          `json:"recipient,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
	Password  bool            `json:"password,omitempty"`
}

// NewMessageID returns the given uuid when it is a usable string, otherwise a
// freshly generated unique id.
func NewMessageID(candidate any) string {
	if s, ok := candidate.(string); ok && s != "" {
		return s
	}
	return uuid.NewString()
}

// Now returns the current time formatted the way message timestamps are
// emitted everywhere in this module.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// ParticipantsUpdate is the participants-announcement result branch: either
// the workflow ended, or a fresh list of human participants was announced.
type ParticipantsUpdate struct {
	IsWorkflowEnd    bool     `json:"isWorkflowEnd"`
	UserParticipants []string `json:"userParticipants"`
}

// TimelineUpdate carries the timeline visualization payload through
// unchanged; this layer only classifies it.
type TimelineUpdate struct {
	Data map[string]any `json:"data"`
}

// ChatResult is the outcome of processing one chat-stream payload. Exactly
// one of Message, Participants, Timeline or RunCompletion is populated;
// RequestID accompanies Message for input requests (empty otherwise).
type ChatResult struct {
	Message       *ChatMessage        `json:"message,omitempty"`
	RequestID     string              `json:"requestId,omitempty"`
	Participants  *ParticipantsUpdate `json:"participants,omitempty"`
	Timeline      *TimelineUpdate     `json:"timeline,omitempty"`
	RunCompletion map[string]any      `json:"runCompletion,omitempty"`
}
