// Package engine runs the conversation: it owns the confirmation state
// machine, drives the model's tool selection, and enforces the deterministic
// guardrails the model is not trusted with.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/neptuneai/swap-agent/core"
	"github.com/neptuneai/swap-agent/tools"
)

// ModelClient is the slice of the Anthropic API the orchestrator uses.
type ModelClient interface {
	CreateMessage(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error)
}

// AnthropicModel adapts the Anthropic SDK client to ModelClient.
type AnthropicModel struct {
	client anthropic.Client
}

func NewAnthropicModel(client anthropic.Client) *AnthropicModel {
	return &AnthropicModel{client: client}
}

func (m *AnthropicModel) CreateMessage(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	return m.client.Messages.New(ctx, params)
}

// Catalog is the fixed tool set the orchestrator executes against.
type Catalog interface {
	Dispatch(name string) (core.Tool, bool)
	APITools() []anthropic.ToolUnionParam
}

// historyWindow bounds how much conversation history reaches the model:
// the last three exchanges. Older turns are dropped to bound context and
// reduce erroneous tool reuse.
const historyWindow = 6

// affirmatives is the fixed vocabulary that confirms a pending quote.
// Classification is a case-insensitive containment check, never the model.
var affirmatives = []string{"yes", "confirm", "go", "proceed", "ok", "sure", "yep", "yeah"}

const (
	replyTransactionReady = "Perfect! The transaction is ready. Please review and sign it in your wallet."
	replyCancelled        = "No problem, swap cancelled. Let me know if you'd like to try a different swap."
	replyNoQuote          = "No recent quote found. Please ask for a swap quote first."
	replyApology          = "I ran into a problem processing that request. Could you try rephrasing it?"

	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 4096
)

// Orchestrator processes one user message per call. It is stateless between
// turns: the caller threads SessionState in and out.
type Orchestrator struct {
	model     ModelClient
	catalog   Catalog
	modelName string
	maxTokens int64
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithModel overrides the Claude model used.
func WithModel(name string) Option {
	return func(o *Orchestrator) {
		o.modelName = name
	}
}

// WithMaxTokens overrides the response token limit.
func WithMaxTokens(n int64) Option {
	return func(o *Orchestrator) {
		o.maxTokens = n
	}
}

// NewOrchestrator creates an orchestrator over the given model and catalog.
func NewOrchestrator(model ModelClient, catalog Catalog, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		model:     model,
		catalog:   catalog,
		modelName: defaultModel,
		maxTokens: defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ProcessMessage handles one inbound user message against the session state
// and returns the reply, an optional sign action with payload, and the next
// state. Nothing here is fatal: every failure path yields a reply and a
// valid state.
func (o *Orchestrator) ProcessMessage(ctx context.Context, text string, state core.SessionState, userCtx core.UserContext) core.TurnResult {
	log.Printf("[AGENT] processing message | step=%s account=%s", state.Step, userCtx.AccountID)

	// Awaiting confirmation: the model is bypassed entirely. Whether money
	// moves is decided by the deterministic classifier below.
	if state.Step == core.StepWaitingConfirmation && state.PendingQuote != nil {
		return o.resolveConfirmation(ctx, text, state)
	}

	return o.runModelTurn(ctx, text, userCtx)
}

// resolveConfirmation applies the deterministic confirm/cancel decision to
// the pending quote.
func (o *Orchestrator) resolveConfirmation(ctx context.Context, text string, state core.SessionState) core.TurnResult {
	if !isAffirmative(text) {
		log.Printf("[AGENT] quote %s cancelled", state.PendingQuote.ID)
		return core.TurnResult{
			Reply:    replyCancelled,
			NewState: core.NewSessionState(),
		}
	}

	// Reuse the confirm tool so the payload is built from the session's
	// pending quote through the same path the model-driven flow takes.
	tool, ok := o.catalog.Dispatch(tools.NameConfirmSwap)
	if !ok {
		return core.TurnResult{Reply: replyApology, NewState: core.NewSessionState()}
	}
	result, err := tool.Execute(ctx, &core.ToolParams{Session: &state})
	if err != nil || result == nil || !result.Success || result.Transaction == nil {
		reason := "unknown error"
		if err != nil {
			reason = err.Error()
		} else if result != nil {
			reason = result.Error
		}
		log.Printf("[AGENT] transaction preparation failed: %s", reason)
		// State unchanged: the user can confirm again or cancel.
		return core.TurnResult{
			Reply:    fmt.Sprintf("I couldn't prepare the transaction: %s. Say yes to try again, or anything else to cancel.", reason),
			NewState: state,
		}
	}

	log.Printf("[AGENT] quote %s confirmed, payload ready for signing", state.PendingQuote.ID)
	return core.TurnResult{
		Reply:    replyTransactionReady,
		Action:   core.ActionSignTransaction,
		Payload:  result.Transaction,
		NewState: core.NewSessionState(),
	}
}

// runModelTurn asks the model to pick tools, executes them, and gets a final
// natural-language reply.
func (o *Orchestrator) runModelTurn(ctx context.Context, text string, userCtx core.UserContext) core.TurnResult {
	accountID := userCtx.AccountID
	if strings.TrimSpace(accountID) == "" {
		accountID = core.AccountNotConnected
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(o.modelName),
		MaxTokens: o.maxTokens,
		Messages:  buildMessages(userCtx.History, text, accountID),
		System: []anthropic.TextBlockParam{
			{Text: SystemPrompt},
		},
		Tools: o.catalog.APITools(),
	}

	resp, err := o.model.CreateMessage(ctx, params)
	if err != nil {
		log.Printf("[AGENT] model call failed: %v", err)
		return core.TurnResult{Reply: replyApology, NewState: core.NewSessionState()}
	}

	var textResponse string
	type toolUse struct {
		id    string
		name  string
		input json.RawMessage
	}
	var requested []toolUse
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			textResponse += block.Text
		case "tool_use":
			inputBytes, _ := json.Marshal(block.Input)
			requested = append(requested, toolUse{id: block.ID, name: block.Name, input: inputBytes})
		}
	}

	// Plain text reply: emit directly, no state change.
	if len(requested) == 0 {
		if strings.TrimSpace(textResponse) == "" {
			return core.TurnResult{Reply: replyApology, NewState: core.NewSessionState()}
		}
		return core.TurnResult{Reply: textResponse, NewState: core.NewSessionState()}
	}

	// Execute the requested batch. Any single failure becomes an error
	// result fed back to the model; the turn itself never crashes on one.
	work := core.NewSessionState()
	var toolResults []anthropic.ContentBlockParamUnion
	var txResult *core.ToolResult
	confirmWithoutQuote := false

	for _, tu := range requested {
		log.Printf("[AGENT] executing tool %s", tu.name)
		tool, ok := o.catalog.Dispatch(tu.name)
		if !ok {
			log.Printf("[AGENT] unknown tool requested: %s", tu.name)
			toolResults = append(toolResults, anthropic.NewToolResultBlock(
				tu.id, fmt.Sprintf("unknown tool: %s", tu.name), true))
			continue
		}

		result, err := tool.Execute(ctx, &core.ToolParams{
			AccountID: accountID,
			Input:     tu.input,
			Session:   &work,
		})
		switch {
		case err != nil:
			toolResults = append(toolResults, anthropic.NewToolResultBlock(
				tu.id, "error calling tool: "+err.Error(), true))
		case !result.Success:
			if tu.name == tools.NameConfirmSwap && work.PendingQuote == nil {
				confirmWithoutQuote = true
			}
			toolResults = append(toolResults, anthropic.NewToolResultBlock(
				tu.id, result.Error, true))
		default:
			if result.Transaction != nil {
				txResult = result
			}
			data, _ := json.Marshal(result.Data)
			toolResults = append(toolResults, anthropic.NewToolResultBlock(
				tu.id, string(data), false))
		}
	}

	// A successful confirmation is authoritative for the whole batch: any
	// quote requested alongside it is superseded, and no second round of
	// free-text confirmation happens.
	if txResult != nil {
		log.Printf("[AGENT] transaction prepared via confirm tool, returning for signing")
		return core.TurnResult{
			Reply:    replyTransactionReady,
			Action:   core.ActionSignTransaction,
			Payload:  txResult.Transaction,
			NewState: core.NewSessionState(),
		}
	}

	// Confirm with nothing on file, and nothing else requested: fixed
	// reply, no model round-trip needed.
	if confirmWithoutQuote && len(requested) == 1 {
		return core.TurnResult{Reply: replyNoQuote, NewState: core.NewSessionState()}
	}

	// Final model call with the tool results for a natural-language reply.
	params.Messages = append(params.Messages, resp.ToParam(), anthropic.NewUserMessage(toolResults...))
	final, err := o.model.CreateMessage(ctx, params)
	if err != nil {
		log.Printf("[AGENT] final model call failed: %v", err)
		return core.TurnResult{Reply: replyApology, NewState: core.NewSessionState()}
	}

	var reply string
	for _, block := range final.Content {
		if block.Type == "text" {
			reply += block.Text
		}
	}
	if strings.TrimSpace(reply) == "" {
		log.Printf("[AGENT] empty final response from model")
		return core.TurnResult{Reply: replyApology, NewState: core.NewSessionState()}
	}

	return core.TurnResult{Reply: reply, NewState: work}
}

// buildMessages assembles the trimmed history plus the current message,
// annotated with the caller's wallet.
func buildMessages(history []core.Message, text, accountID string) []anthropic.MessageParam {
	recent := history
	if len(recent) > historyWindow {
		recent = recent[len(recent)-historyWindow:]
	}

	messages := make([]anthropic.MessageParam, 0, len(recent)+1)
	for _, msg := range recent {
		if msg.Role == "user" {
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		} else {
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	annotated := fmt.Sprintf("%s\n\n[User wallet: %s]", text, accountID)
	return append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(annotated)))
}

func isAffirmative(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, word := range affirmatives {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}
