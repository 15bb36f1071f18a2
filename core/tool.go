package core

import (
	"context"
	"encoding/json"
)

// ToolDefinition describes one callable capability exposed to the model.
type ToolDefinition struct {
	ToolName        string
	ToolDescription string
	InputSchema     map[string]interface{}
}

// ToolParams carries a single tool invocation into its handler. Session
// points at the working state for the current turn: the quote tool may set
// the pending quote, and the confirm tool reads it. Handlers never trust
// model-supplied arguments for anything money-affecting.
type ToolParams struct {
	AccountID string
	Input     json.RawMessage
	Session   *SessionState
}

// ToolResult is the structured outcome of a tool execution. Transaction is
// set only by a successful confirmation and carries the payload the caller's
// wallet must sign; control flow keys off this field, not off result text.
type ToolResult struct {
	Success     bool
	Data        interface{}
	Error       string
	Transaction *TransactionPayload
}

// Tool is one entry of the fixed catalog.
type Tool interface {
	Definition() ToolDefinition
	Execute(ctx context.Context, params *ToolParams) (*ToolResult, error)
}
