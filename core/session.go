package core

// Step is the session's position in the confirmation state machine.
type Step string

const (
	StepIdle                Step = "IDLE"
	StepWaitingConfirmation Step = "WAITING_CONFIRMATION"
)

// AccountNotConnected is the placeholder account identifier used when the
// caller has no wallet connected. Guardrails reject it before any quote
// reaches the upstream API.
const AccountNotConnected = "Not connected"

// SessionState is the only state that must survive across turns. The
// orchestrator is otherwise stateless; callers thread this value between
// ProcessMessage calls.
type SessionState struct {
	Step         Step   `json:"step"`
	PendingQuote *Quote `json:"pending_quote,omitempty"`
}

// NewSessionState returns the initial state for a fresh session.
func NewSessionState() SessionState {
	return SessionState{Step: StepIdle}
}

// Message is one conversation turn as threaded by the caller.
type Message struct {
	Role    string `json:"role"` // "user" or "ai"
	Content string `json:"content"`
}

// UserContext carries the caller's identity and recent history into a turn.
type UserContext struct {
	AccountID string    `json:"account_id"`
	History   []Message `json:"history"`
}

// ActionSignTransaction asks the caller's wallet to sign the attached payload.
const ActionSignTransaction = "SIGN_TRANSACTION"

// TurnResult is the outcome of processing one user message.
type TurnResult struct {
	Reply    string              `json:"response"`
	Action   string              `json:"action,omitempty"`
	Payload  *TransactionPayload `json:"payload,omitempty"`
	NewState SessionState        `json:"new_state"`
}
