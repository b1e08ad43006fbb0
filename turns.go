package main

import (
	"time"
)

// TurnKind is the stable discriminator persisted with every turn.
type TurnKind string

const (
	TurnUser       TurnKind = "user"
	TurnAssistant  TurnKind = "assistant"
	TurnToolCall   TurnKind = "tool_call"
	TurnToolResult TurnKind = "tool_result"
	TurnInfo       TurnKind = "info"
)

// InfoLevel classifies info turns for rendering.
type InfoLevel string

const (
	InfoLevelInfo    InfoLevel = "info"
	InfoLevelWarning InfoLevel = "warning"
	InfoLevelError   InfoLevel = "error"
)

// Attachment references binary payloads (images, PDFs) stored next to the
// session file. Data is only populated before the turn has been persisted;
// the session manager externalizes it and keeps the relative path.
type Attachment struct {
	Path      string `json:"path,omitempty"`
	MediaType string `json:"media_type,omitempty"`
	Data      []byte `json:"-"`
}

// ConversationTurn is one addressable unit of the conversation. Which
// fields are meaningful depends on Kind; the zero values of the rest are
// omitted when serialized.
type ConversationTurn struct {
	ID        int       `json:"turn_id"`
	Kind      TurnKind  `json:"kind"`
	Timestamp time.Time `json:"timestamp"`

	// TurnUser, TurnAssistant, TurnInfo
	Text  string    `json:"text,omitempty"`
	Level InfoLevel `json:"level,omitempty"`

	// TurnToolCall, TurnToolResult
	CallID   string            `json:"call_id,omitempty"`
	ToolName string            `json:"tool_name,omitempty"`
	ToolArgs string            `json:"tool_args,omitempty"`
	Result   *ToolResponseInfo `json:"result,omitempty"`
	// Cancelled is set on tool-call turns whose group the user cancelled
	// before a result arrived.
	Cancelled bool `json:"cancelled,omitempty"`

	Attachments []Attachment `json:"attachments,omitempty"`
}

// IsToolKind reports whether the turn belongs to a tool group.
func (t ConversationTurn) IsToolKind() bool {
	return t.Kind == TurnToolCall || t.Kind == TurnToolResult
}

// NewUserTurn builds an un-numbered user text turn. The history manager
// assigns the ordinal when the turn is appended.
func NewUserTurn(text string) ConversationTurn {
	return ConversationTurn{Kind: TurnUser, Text: text, Timestamp: time.Now().UTC()}
}

// NewAssistantTurn builds an assistant text turn.
func NewAssistantTurn(text string) ConversationTurn {
	return ConversationTurn{Kind: TurnAssistant, Text: text, Timestamp: time.Now().UTC()}
}

// NewToolCallTurn builds an assistant tool-call turn.
func NewToolCallTurn(callID, toolName, args string) ConversationTurn {
	return ConversationTurn{
		Kind:      TurnToolCall,
		CallID:    callID,
		ToolName:  toolName,
		ToolArgs:  args,
		Timestamp: time.Now().UTC(),
	}
}

// NewToolResultTurn builds a tool-result turn carrying parsed display info.
func NewToolResultTurn(callID string, info *ToolResponseInfo) ConversationTurn {
	name := ""
	if info != nil {
		name = info.ToolName
	}
	return ConversationTurn{
		Kind:      TurnToolResult,
		CallID:    callID,
		ToolName:  name,
		Result:    info,
		Timestamp: time.Now().UTC(),
	}
}

// NewInfoTurn builds an informational turn.
func NewInfoTurn(text string, level InfoLevel) ConversationTurn {
	return ConversationTurn{Kind: TurnInfo, Text: text, Level: level, Timestamp: time.Now().UTC()}
}
