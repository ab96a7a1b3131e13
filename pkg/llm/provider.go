package llm

import (
	"context"
	"encoding/json"
)

// Provider is the blocking model boundary: one call, one complete reply.
type Provider interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Stop reasons normalized across providers.
const (
	StopEndTurn   = "end_turn"
	StopToolUse   = "tool_use"
	StopMaxTokens = "max_tokens"
)

type Request struct {
	System      string
	Messages    []Message
	Tools       []Tool
	MaxTokens   int
	Temperature float64
}

type Response struct {
	StopReason string
	Content    []ContentBlock
}

// HasToolUse reports whether the reply requests any tool invocations.
func (r *Response) HasToolUse() bool {
	for _, block := range r.Content {
		if _, ok := block.(ToolUseBlock); ok {
			return true
		}
	}
	return false
}

// FirstText returns the text of the first text block, or "" when the reply
// carries none.
func (r *Response) FirstText() string {
	for _, block := range r.Content {
		if text, ok := block.(TextBlock); ok {
			return text.Text
		}
	}
	return ""
}

// ToolUses returns the tool-use blocks in reply order.
func (r *Response) ToolUses() []ToolUseBlock {
	var uses []ToolUseBlock
	for _, block := range r.Content {
		if use, ok := block.(ToolUseBlock); ok {
			uses = append(uses, use)
		}
	}
	return uses
}

type Message struct {
	Role    string
	Content []ContentBlock
}

// UserText builds a user message holding a single text block.
func UserText(text string) Message {
	return Message{Role: "user", Content: []ContentBlock{TextBlock{Text: text}}}
}

// ContentBlock is one ordered element of a message or reply.
type ContentBlock interface {
	contentBlock()
}

type TextBlock struct {
	Text string
}

type ToolUseBlock struct {
	ID    string
	Name  string
	Input json.RawMessage
}

type ToolResultBlock struct {
	ToolUseID string
	Content   string
	IsError   bool
}

func (TextBlock) contentBlock()       {}
func (ToolUseBlock) contentBlock()    {}
func (ToolResultBlock) contentBlock() {}

type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters"`
}
