package engine

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	oneclick "github.com/defuse-protocol/one-click-sdk-go"

	"github.com/neptuneai/swap-agent/core"
	"github.com/neptuneai/swap-agent/hotpay"
	"github.com/neptuneai/swap-agent/quote"
	"github.com/neptuneai/swap-agent/tokens"
	"github.com/neptuneai/swap-agent/tools"
)

type fakeModel struct {
	responses []*anthropic.Message
	err       error
	calls     int
}

func (f *fakeModel) CreateMessage(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.responses) == 0 {
		return &anthropic.Message{}, nil
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func textMessage(text string) *anthropic.Message {
	return &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{
			{Type: "text", Text: text},
		},
	}
}

func toolUseMessage(id, name, input string) *anthropic.Message {
	return &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{
			{Type: "tool_use", ID: id, Name: name, Input: json.RawMessage(input)},
		},
	}
}

type fakeLister struct{}

func (fakeLister) Tokens(ctx context.Context) ([]oneclick.TokenResponse, error) {
	return []oneclick.TokenResponse{
		{AssetId: "nep141:wrap.near", Symbol: "NEAR", Blockchain: "near", Decimals: 24},
		{AssetId: "nep141:usdc.near", Symbol: "USDC", Blockchain: "near", Decimals: 6},
	}, nil
}

type fakeQuoteAPI struct {
	calls int
}

func (f *fakeQuoteAPI) Quote(ctx context.Context, req oneclick.QuoteRequest) (*oneclick.QuoteResponse, error) {
	f.calls++
	return &oneclick.QuoteResponse{
		Quote: oneclick.Quote{
			DepositAddress:     oneclick.PtrString("deposit.near"),
			AmountOutFormatted: "12.5",
		},
	}, nil
}

func (f *fakeQuoteAPI) ExecutionStatus(ctx context.Context, depositAddress string) (string, error) {
	return "PENDING_DEPOSIT", nil
}

func newTestOrchestrator(model *fakeModel) *Orchestrator {
	directory := tokens.NewDirectory(fakeLister{})
	quotes := quote.NewService(&fakeQuoteAPI{}, directory)
	catalog := tools.NewCatalog(directory, quotes, hotpay.NewClient(""))
	return NewOrchestrator(model, catalog)
}

func pendingQuote() *core.Quote {
	return &core.Quote{
		ID:             "q1",
		TokenIn:        core.Token{Symbol: "NEAR", Decimals: 24, ContractAddress: "wrap.near"},
		TokenOut:       core.Token{Symbol: "USDC", Decimals: 6},
		AmountIn:       5,
		AmountOut:      12.5,
		MinAmountOut:   12.375,
		DepositAddress: "deposit.near",
		Recipient:      "alice.near",
	}
}

func waitingState(q *core.Quote) core.SessionState {
	return core.SessionState{Step: core.StepWaitingConfirmation, PendingQuote: q}
}

func alice() core.UserContext {
	return core.UserContext{AccountID: "alice.near"}
}

func TestAffirmativeConfirmsPendingQuote(t *testing.T) {
	model := &fakeModel{err: errors.New("model must not be called")}
	o := newTestOrchestrator(model)

	result := o.ProcessMessage(context.Background(), "yes please", waitingState(pendingQuote()), alice())
	if result.Action != core.ActionSignTransaction {
		t.Fatalf("action = %q, want %q", result.Action, core.ActionSignTransaction)
	}
	if result.Payload == nil {
		t.Fatal("confirmed quote must produce a payload")
	}
	if result.Payload.ReceiverID != "wrap.near" {
		t.Errorf("ReceiverID = %q, want wrap.near", result.Payload.ReceiverID)
	}
	if result.NewState.Step != core.StepIdle || result.NewState.PendingQuote != nil {
		t.Error("confirmation must reset the session")
	}
	if model.calls != 0 {
		t.Errorf("model called %d times during confirmation, want 0", model.calls)
	}
}

func TestNonAffirmativeCancels(t *testing.T) {
	model := &fakeModel{err: errors.New("model must not be called")}
	o := newTestOrchestrator(model)

	result := o.ProcessMessage(context.Background(), "actually no, forget it", waitingState(pendingQuote()), alice())
	if result.Reply != replyCancelled {
		t.Errorf("reply = %q, want the cancellation message", result.Reply)
	}
	if result.Action != "" || result.Payload != nil {
		t.Error("cancellation must not produce a sign action")
	}
	if result.NewState.PendingQuote != nil {
		t.Error("cancellation must clear the pending quote")
	}
	if model.calls != 0 {
		t.Errorf("model called %d times during cancellation, want 0", model.calls)
	}
}

func TestPreparationFailureKeepsPendingQuote(t *testing.T) {
	model := &fakeModel{}
	o := newTestOrchestrator(model)

	broken := pendingQuote()
	broken.DepositAddress = ""
	result := o.ProcessMessage(context.Background(), "yes", waitingState(broken), alice())
	if result.Action != "" {
		t.Error("failed preparation must not produce a sign action")
	}
	if !strings.Contains(result.Reply, "couldn't prepare") {
		t.Errorf("reply should explain the failure, got %q", result.Reply)
	}
	if result.NewState.Step != core.StepWaitingConfirmation || result.NewState.PendingQuote == nil {
		t.Error("failed preparation must leave the session awaiting confirmation")
	}
}

func TestPlainTextReply(t *testing.T) {
	model := &fakeModel{responses: []*anthropic.Message{textMessage("Hi! I can help you swap tokens.")}}
	o := newTestOrchestrator(model)

	result := o.ProcessMessage(context.Background(), "hello", core.NewSessionState(), alice())
	if result.Reply != "Hi! I can help you swap tokens." {
		t.Errorf("reply = %q", result.Reply)
	}
	if result.NewState.Step != core.StepIdle {
		t.Errorf("step = %s, want idle", result.NewState.Step)
	}
	if model.calls != 1 {
		t.Errorf("model calls = %d, want 1", model.calls)
	}
}

func TestQuoteFlowAwaitsConfirmation(t *testing.T) {
	model := &fakeModel{responses: []*anthropic.Message{
		toolUseMessage("t1", tools.NameSwapQuote, `{"token_in":"NEAR","token_out":"USDC","amount":5}`),
		textMessage("You'd get 12.5 USDC for 5 NEAR. Shall I proceed?"),
	}}
	o := newTestOrchestrator(model)

	result := o.ProcessMessage(context.Background(), "swap 5 NEAR to USDC", core.NewSessionState(), alice())
	if result.NewState.Step != core.StepWaitingConfirmation {
		t.Fatalf("step = %s, want %s", result.NewState.Step, core.StepWaitingConfirmation)
	}
	if result.NewState.PendingQuote == nil {
		t.Fatal("pending quote missing after quote turn")
	}
	if result.NewState.PendingQuote.AmountOut != 12.5 {
		t.Errorf("AmountOut = %v, want 12.5", result.NewState.PendingQuote.AmountOut)
	}
	if !strings.Contains(result.Reply, "proceed") {
		t.Errorf("reply = %q", result.Reply)
	}
	if model.calls != 2 {
		t.Errorf("model calls = %d, want 2", model.calls)
	}
}

func TestConfirmInBatchIsAuthoritative(t *testing.T) {
	model := &fakeModel{responses: []*anthropic.Message{
		{Content: []anthropic.ContentBlockUnion{
			{Type: "tool_use", ID: "t1", Name: tools.NameSwapQuote, Input: json.RawMessage(`{"token_in":"NEAR","token_out":"USDC","amount":5}`)},
			{Type: "tool_use", ID: "t2", Name: tools.NameConfirmSwap, Input: json.RawMessage(`{}`)},
		}},
		textMessage("should not be used"),
	}}
	o := newTestOrchestrator(model)

	result := o.ProcessMessage(context.Background(), "swap 5 NEAR to USDC and just do it", core.NewSessionState(), alice())
	if result.Action != core.ActionSignTransaction {
		t.Fatalf("action = %q, want %q", result.Action, core.ActionSignTransaction)
	}
	if result.Payload == nil {
		t.Fatal("batch confirmation must produce a payload")
	}
	// The payload comes from the quote fetched earlier in the same batch.
	if result.Payload.ReceiverID != "nep141:wrap.near" {
		t.Errorf("ReceiverID = %q, want the quoted input token contract", result.Payload.ReceiverID)
	}
	if got := result.Payload.Actions[0].Params.Args["amount"]; got != "5000000000000000000000000" {
		t.Errorf("amount = %v, want the quoted 5 NEAR", got)
	}
	if result.NewState.Step != core.StepIdle || result.NewState.PendingQuote != nil {
		t.Error("batch confirmation must reset the session")
	}
	if model.calls != 1 {
		t.Errorf("model calls = %d, want 1 (no free-text confirmation round)", model.calls)
	}
}

func TestConfirmWithoutQuoteShortCircuits(t *testing.T) {
	model := &fakeModel{responses: []*anthropic.Message{
		toolUseMessage("t1", tools.NameConfirmSwap, `{}`),
		textMessage("should not be used"),
	}}
	o := newTestOrchestrator(model)

	result := o.ProcessMessage(context.Background(), "yes do it", core.NewSessionState(), alice())
	if result.Reply != replyNoQuote {
		t.Errorf("reply = %q, want %q", result.Reply, replyNoQuote)
	}
	if result.Action != "" {
		t.Error("no sign action without a quote")
	}
	if model.calls != 1 {
		t.Errorf("model calls = %d, want 1 (no second round-trip)", model.calls)
	}
}

func TestUnknownToolIsReportedToModel(t *testing.T) {
	model := &fakeModel{responses: []*anthropic.Message{
		toolUseMessage("t1", "launch_rocket", `{}`),
		textMessage("I can't do that, but I can swap tokens."),
	}}
	o := newTestOrchestrator(model)

	result := o.ProcessMessage(context.Background(), "launch a rocket", core.NewSessionState(), alice())
	if result.Reply != "I can't do that, but I can swap tokens." {
		t.Errorf("reply = %q", result.Reply)
	}
	if model.calls != 2 {
		t.Errorf("model calls = %d, want 2", model.calls)
	}
}

func TestModelFailureYieldsApology(t *testing.T) {
	model := &fakeModel{err: errors.New("api overloaded")}
	o := newTestOrchestrator(model)

	result := o.ProcessMessage(context.Background(), "hello", core.NewSessionState(), alice())
	if result.Reply != replyApology {
		t.Errorf("reply = %q, want the apology", result.Reply)
	}
	if result.NewState.Step != core.StepIdle {
		t.Error("failure must leave an idle session")
	}
}

func TestEmptyModelResponseYieldsApology(t *testing.T) {
	model := &fakeModel{responses: []*anthropic.Message{textMessage("   ")}}
	o := newTestOrchestrator(model)

	result := o.ProcessMessage(context.Background(), "hello", core.NewSessionState(), alice())
	if result.Reply != replyApology {
		t.Errorf("reply = %q, want the apology", result.Reply)
	}
}

func TestIsAffirmative(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"yes", true},
		{"YES", true},
		{"  Yes please  ", true},
		{"ok go ahead", true},
		{"sure thing", true},
		{"confirm", true},
		{"no", false},
		{"cancel", false},
		{"what is the rate?", false},
		{"", false},
	}
	for _, c := range cases {
		if got := isAffirmative(c.text); got != c.want {
			t.Errorf("isAffirmative(%q) = %v, want %v", c.text, got, c.want)
		}
	}
}
