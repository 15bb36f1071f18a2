package core

import "time"

// Quote is a live swap quote from the 1-Click API. A session owns at most
// one Quote at a time: it is superseded when a new quote is requested and
// consumed on confirmation or cancellation.
type Quote struct {
	ID             string    `json:"id"`
	TokenIn        Token     `json:"token_in"`
	TokenOut       Token     `json:"token_out"`
	AmountIn       float64   `json:"amount_in"`
	AmountOut      float64   `json:"amount_out"`
	Rate           float64   `json:"rate"`
	MinAmountOut   float64   `json:"min_amount_out"`
	DepositAddress string    `json:"deposit_address"`
	Recipient      string    `json:"recipient"`
	CrossChain     bool      `json:"cross_chain"`
	CreatedAt      time.Time `json:"created_at"`
}

// TransactionPayload is the unsigned transaction built from a confirmed
// quote. The orchestrator passes it through to the caller's wallet opaquely.
type TransactionPayload struct {
	ReceiverID string              `json:"receiverId"`
	Actions    []TransactionAction `json:"actions"`
}

type TransactionAction struct {
	Type   string             `json:"type"`
	Params FunctionCallParams `json:"params"`
}

type FunctionCallParams struct {
	MethodName string                 `json:"methodName"`
	Args       map[string]interface{} `json:"args"`
	Gas        string                 `json:"gas"`
	Deposit    string                 `json:"deposit"`
}
