// Package tools defines the fixed catalog of capabilities the model may
// invoke: token discovery, chain lookup, fuzzy name validation, quote fetch,
// confirmation, payment links, payment history and swap status.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/neptuneai/swap-agent/core"
	"github.com/neptuneai/swap-agent/hotpay"
	"github.com/neptuneai/swap-agent/match"
	"github.com/neptuneai/swap-agent/quote"
	"github.com/neptuneai/swap-agent/tokens"
)

// Tool names. The catalog is a closed set: Dispatch matches exhaustively
// over these and nothing else.
const (
	NameListTokens        = "get_available_tokens"
	NameTokenChain        = "get_token_chain"
	NameValidateTokens    = "validate_token_names"
	NameSwapQuote         = "get_swap_quote"
	NameConfirmSwap       = "confirm_swap"
	NameCreatePaymentLink = "create_payment_link"
	NamePaymentHistory    = "get_payment_history"
	NameSwapStatus        = "get_swap_status"
)

// listLimit bounds how many tokens the list tool returns to the model.
const listLimit = 50

// funcTool adapts a handler function to the core.Tool interface.
type funcTool struct {
	def core.ToolDefinition
	fn  func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error)
}

func (t *funcTool) Definition() core.ToolDefinition { return t.def }

func (t *funcTool) Execute(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
	return t.fn(ctx, params)
}

// Catalog binds the fixed tool set to the services behind it.
type Catalog struct {
	listTokens     core.Tool
	tokenChain     core.Tool
	validateTokens core.Tool
	swapQuote      core.Tool
	confirmSwap    core.Tool
	paymentLink    core.Tool
	paymentHistory core.Tool
	swapStatus     core.Tool
}

// NewCatalog creates the catalog over the given services.
func NewCatalog(directory *tokens.Directory, quotes *quote.Service, payments *hotpay.Client) *Catalog {
	return &Catalog{
		listTokens:     createListTokensTool(directory),
		tokenChain:     createTokenChainTool(directory),
		validateTokens: createValidateTokensTool(directory),
		swapQuote:      createSwapQuoteTool(quotes),
		confirmSwap:    createConfirmSwapTool(quotes),
		paymentLink:    createPaymentLinkTool(payments),
		paymentHistory: createPaymentHistoryTool(payments),
		swapStatus:     createSwapStatusTool(quotes),
	}
}

// Dispatch resolves a tool by name. The second return is false for any name
// outside the fixed set; the orchestrator feeds that back to the model as an
// error result instead of aborting the batch.
func (c *Catalog) Dispatch(name string) (core.Tool, bool) {
	switch name {
	case NameListTokens:
		return c.listTokens, true
	case NameTokenChain:
		return c.tokenChain, true
	case NameValidateTokens:
		return c.validateTokens, true
	case NameSwapQuote:
		return c.swapQuote, true
	case NameConfirmSwap:
		return c.confirmSwap, true
	case NameCreatePaymentLink:
		return c.paymentLink, true
	case NamePaymentHistory:
		return c.paymentHistory, true
	case NameSwapStatus:
		return c.swapStatus, true
	default:
		return nil, false
	}
}

// All returns every tool in catalog order.
func (c *Catalog) All() []core.Tool {
	return []core.Tool{
		c.listTokens, c.tokenChain, c.validateTokens, c.swapQuote,
		c.confirmSwap, c.paymentLink, c.paymentHistory, c.swapStatus,
	}
}

// APITools converts the catalog to the Anthropic tool parameter format.
func (c *Catalog) APITools() []anthropic.ToolUnionParam {
	all := c.All()
	out := make([]anthropic.ToolUnionParam, 0, len(all))
	for _, t := range all {
		def := t.Definition()
		properties, _ := def.InputSchema["properties"].(map[string]interface{})
		required, _ := def.InputSchema["required"].([]string)
		param := anthropic.ToolParam{
			Name:        def.ToolName,
			Description: anthropic.String(def.ToolDescription),
			InputSchema: anthropic.ToolInputSchemaParam{
				Type:       "object",
				Properties: properties,
				Required:   required,
			},
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &param})
	}
	return out
}

// ────────────────────────────────────────────────────────────────────────────
// get_available_tokens
// ────────────────────────────────────────────────────────────────────────────

func createListTokensTool(directory *tokens.Directory) core.Tool {
	return &funcTool{
		def: core.ToolDefinition{
			ToolName:        NameListTokens,
			ToolDescription: "Get the list of all tokens that can be swapped, optionally restricted to one blockchain. Use when the user asks about available, supported or swappable tokens.",
			InputSchema: ObjectSchema(map[string]interface{}{
				"chain": StringProperty("Optional: only list tokens on this blockchain, e.g. 'near' or 'sol'"),
			}),
		},
		fn: func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			var input struct {
				Chain string `json:"chain"`
			}
			if len(params.Input) > 0 {
				if err := json.Unmarshal(params.Input, &input); err != nil {
					return failure("invalid input: " + err.Error()), nil
				}
			}

			var list []core.Token
			var err error
			if chain := strings.ToLower(strings.TrimSpace(input.Chain)); chain != "" {
				var grouped map[string][]core.Token
				grouped, err = directory.ByChain(ctx)
				if err == nil {
					list = grouped[chain]
					if len(list) == 0 {
						return failure(fmt.Sprintf("no tokens known on blockchain %q", chain)), nil
					}
				}
			} else {
				list, err = directory.Fetch(ctx, false)
			}
			if err != nil {
				return failure(fmt.Sprintf("can't get supported tokens right now: %v", err)), nil
			}
			shown := list
			if len(shown) > listLimit {
				shown = shown[:listLimit]
			}
			items := make([]map[string]interface{}, 0, len(shown))
			for _, t := range shown {
				items = append(items, map[string]interface{}{
					"symbol":     t.Symbol,
					"name":       t.Name,
					"blockchain": t.Blockchain,
				})
			}
			return &core.ToolResult{Success: true, Data: map[string]interface{}{
				"tokens": items,
				"shown":  len(shown),
				"total":  len(list),
			}}, nil
		},
	}
}

// ────────────────────────────────────────────────────────────────────────────
// get_token_chain
// ────────────────────────────────────────────────────────────────────────────

func createTokenChainTool(directory *tokens.Directory) core.Tool {
	return &funcTool{
		def: core.ToolDefinition{
			ToolName:        NameTokenChain,
			ToolDescription: "Look up which blockchain a token lives on. Use to tell whether a swap is same-chain or cross-chain.",
			InputSchema: ObjectSchema(map[string]interface{}{
				"token": StringProperty("Token symbol, e.g. 'NEAR' or 'ETH'"),
			}, "token"),
		},
		fn: func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			var input struct {
				Token string `json:"token"`
			}
			if err := json.Unmarshal(params.Input, &input); err != nil {
				return failure("invalid input: " + err.Error()), nil
			}
			chain, err := directory.ChainOf(ctx, input.Token)
			if err != nil {
				return failure(fmt.Sprintf("can't resolve %q: %v; try validate_token_names", strings.ToUpper(input.Token), err)), nil
			}
			return &core.ToolResult{Success: true, Data: map[string]interface{}{
				"symbol":     strings.ToUpper(strings.TrimSpace(input.Token)),
				"blockchain": chain,
			}}, nil
		},
	}
}

// ────────────────────────────────────────────────────────────────────────────
// validate_token_names
// ────────────────────────────────────────────────────────────────────────────

func createValidateTokensTool(directory *tokens.Directory) core.Tool {
	return &funcTool{
		def: core.ToolDefinition{
			ToolName:        NameValidateTokens,
			ToolDescription: "Validate a pair of token names and suggest corrections for typos. Use when a user-supplied token name might be misspelled.",
			InputSchema: ObjectSchema(map[string]interface{}{
				"token_in":  StringProperty("Token symbol the user is swapping from"),
				"token_out": StringProperty("Token symbol the user is swapping to"),
			}, "token_in", "token_out"),
		},
		fn: func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			var input struct {
				TokenIn  string `json:"token_in"`
				TokenOut string `json:"token_out"`
			}
			if err := json.Unmarshal(params.Input, &input); err != nil {
				return failure("invalid input: " + err.Error()), nil
			}
			symbols, err := directory.Symbols(ctx)
			if err != nil {
				return failure(fmt.Sprintf("can't validate tokens right now: %v", err)), nil
			}
			matchIn := match.Tokens(input.TokenIn, symbols, match.DefaultThreshold)
			matchOut := match.Tokens(input.TokenOut, symbols, match.DefaultThreshold)
			return &core.ToolResult{Success: true, Data: map[string]interface{}{
				"token_in":  validationEntry(input.TokenIn, matchIn),
				"token_out": validationEntry(input.TokenOut, matchOut),
				"valid":     matchIn.ExactMatch && matchOut.ExactMatch,
			}}, nil
		},
	}
}

func validationEntry(input string, m core.MatchResult) map[string]interface{} {
	entry := map[string]interface{}{
		"input":        strings.ToUpper(strings.TrimSpace(input)),
		"exact_match":  m.ExactMatch,
		"confidence":   m.Confidence,
		"alternatives": m.Alternatives,
	}
	if m.Suggested != "" && !m.ExactMatch {
		entry["did_you_mean"] = m.Suggested
	}
	return entry
}

// ────────────────────────────────────────────────────────────────────────────
// get_swap_quote
// ────────────────────────────────────────────────────────────────────────────

func createSwapQuoteTool(quotes *quote.Service) core.Tool {
	return &funcTool{
		def: core.ToolDefinition{
			ToolName:        NameSwapQuote,
			ToolDescription: "Get a real-time quote for swapping tokens. Use when the user first requests a swap or wants a fresh rate. Never call this to confirm an existing quote.",
			InputSchema: ObjectSchema(map[string]interface{}{
				"token_in":            StringProperty("Symbol of the token to swap from, e.g. 'NEAR'"),
				"token_out":           StringProperty("Symbol of the token to swap to, e.g. 'ETH'"),
				"amount":              NumberProperty("Amount of token_in to swap"),
				"destination_address": StringProperty("Destination wallet address on the target chain. Required for cross-chain swaps only."),
			}, "token_in", "token_out", "amount"),
		},
		fn: func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			var input struct {
				TokenIn            string  `json:"token_in"`
				TokenOut           string  `json:"token_out"`
				Amount             float64 `json:"amount"`
				DestinationAddress string  `json:"destination_address"`
			}
			if err := json.Unmarshal(params.Input, &input); err != nil {
				return failure("invalid input: " + err.Error()), nil
			}

			// Guardrails checked here, not left to the model: no quote
			// without a connected wallet, no cross-chain quote without a
			// destination address.
			if !accountConnected(params.AccountID) {
				return failure("user wallet not connected; ask the user to connect a wallet first"), nil
			}
			crossChain, err := quotes.IsCrossChain(ctx, input.TokenIn, input.TokenOut)
			if err != nil {
				return failure(err.Error()), nil
			}
			if crossChain && strings.TrimSpace(input.DestinationAddress) == "" {
				return failure("this is a cross-chain swap: ask the user for the destination wallet address on the target blockchain before quoting"), nil
			}

			// Refunds always go back to the connected origin account; the
			// destination address only ever receives the output.
			recipient := params.AccountID
			if crossChain {
				recipient = input.DestinationAddress
			}

			q, err := quotes.GetQuote(ctx, input.TokenIn, input.TokenOut, input.Amount, recipient, params.AccountID)
			if err != nil {
				return failure(err.Error()), nil
			}

			// The fresh quote supersedes any prior pending one.
			if params.Session != nil {
				params.Session.PendingQuote = &q
				params.Session.Step = core.StepWaitingConfirmation
			}

			// Deposit address deliberately omitted: the user never sends
			// funds there by hand.
			return &core.ToolResult{Success: true, Data: map[string]interface{}{
				"quote_id":    q.ID,
				"amount_in":   q.AmountIn,
				"token_in":    q.TokenIn.Symbol,
				"amount_out":  q.AmountOut,
				"token_out":   q.TokenOut.Symbol,
				"rate":        q.Rate,
				"recipient":   q.Recipient,
				"cross_chain": q.CrossChain,
				"note":        "present this quote and ask the user to confirm; call confirm_swap only after they do",
			}}, nil
		},
	}
}

func accountConnected(accountID string) bool {
	trimmed := strings.TrimSpace(accountID)
	return trimmed != "" && !strings.EqualFold(trimmed, core.AccountNotConnected)
}

// ────────────────────────────────────────────────────────────────────────────
// confirm_swap
// ────────────────────────────────────────────────────────────────────────────

func createConfirmSwapTool(quotes *quote.Service) core.Tool {
	return &funcTool{
		def: core.ToolDefinition{
			ToolName:        NameConfirmSwap,
			ToolDescription: "Prepare the swap transaction after the user explicitly confirms a quote (says yes, ok, proceed, go ahead). Uses the most recent quote; takes no arguments.",
			InputSchema:     ObjectSchema(map[string]interface{}{}),
		},
		fn: func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			// Operates on session state only. Model-supplied arguments are
			// ignored so a hallucinated quote can never produce a payload
			// inconsistent with what the user saw.
			if params.Session == nil || params.Session.PendingQuote == nil {
				return failure("no recent quote found; get a quote first by asking for a swap"), nil
			}
			payload, err := quotes.PrepareTransaction(*params.Session.PendingQuote)
			if err != nil {
				return failure(err.Error()), nil
			}
			return &core.ToolResult{
				Success:     true,
				Data:        "transaction prepared; the user needs to sign it in their wallet",
				Transaction: &payload,
			}, nil
		},
	}
}

// ────────────────────────────────────────────────────────────────────────────
// create_payment_link
// ────────────────────────────────────────────────────────────────────────────

func createPaymentLinkTool(payments *hotpay.Client) core.Tool {
	return &funcTool{
		def: core.ToolDefinition{
			ToolName:        NameCreatePaymentLink,
			ToolDescription: "Create a HOT Pay payment link. Anyone with the link can pay from any supported chain; the merchant receives the chosen token on NEAR.",
			InputSchema: ObjectSchema(map[string]interface{}{
				"merchant_address": StringProperty("NEAR wallet address that receives the payment"),
				"amount":           NumberProperty("Amount to receive"),
				"token":            StringProperty("Token to receive (default USDC)"),
				"memo":             StringProperty("Optional memo or order ID for tracking"),
			}, "merchant_address", "amount"),
		},
		fn: func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			var input struct {
				MerchantAddress string  `json:"merchant_address"`
				Amount          float64 `json:"amount"`
				Token           string  `json:"token"`
				Memo            string  `json:"memo"`
			}
			if err := json.Unmarshal(params.Input, &input); err != nil {
				return failure("invalid input: " + err.Error()), nil
			}
			link, err := payments.CreatePaymentLink(input.MerchantAddress, input.Amount, input.Token, input.Memo)
			if err != nil {
				return failure(err.Error()), nil
			}
			return &core.ToolResult{Success: true, Data: link}, nil
		},
	}
}

// ────────────────────────────────────────────────────────────────────────────
// get_payment_history
// ────────────────────────────────────────────────────────────────────────────

func createPaymentHistoryTool(payments *hotpay.Client) core.Tool {
	return &funcTool{
		def: core.ToolDefinition{
			ToolName:        NamePaymentHistory,
			ToolDescription: "Fetch processed HOT Pay payments, optionally filtered by payment link, memo or sender.",
			InputSchema: ObjectSchema(map[string]interface{}{
				"limit":     IntegerProperty("Max payments to return (default 10)"),
				"offset":    IntegerProperty("Pagination offset"),
				"link_id":   StringProperty("Optional filter by payment link ID"),
				"memo":      StringProperty("Optional filter by memo or order ID"),
				"sender_id": StringProperty("Optional filter by sender address"),
			}),
		},
		fn: func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			var input struct {
				Limit    int    `json:"limit"`
				Offset   int    `json:"offset"`
				LinkID   string `json:"link_id"`
				Memo     string `json:"memo"`
				SenderID string `json:"sender_id"`
			}
			if err := json.Unmarshal(params.Input, &input); err != nil {
				return failure("invalid input: " + err.Error()), nil
			}
			history, err := payments.PaymentHistory(ctx, hotpay.HistoryFilters{
				LinkID:   input.LinkID,
				Memo:     input.Memo,
				SenderID: input.SenderID,
			}, input.Limit, input.Offset)
			if err != nil {
				if errors.Is(err, core.ErrUnauthorized) {
					return failure(err.Error()), nil
				}
				return failure(fmt.Sprintf("can't reach the payment API right now: %v", err)), nil
			}
			return &core.ToolResult{Success: true, Data: map[string]interface{}{
				"payments": history,
				"count":    len(history),
			}}, nil
		},
	}
}

// ────────────────────────────────────────────────────────────────────────────
// get_swap_status
// ────────────────────────────────────────────────────────────────────────────

func createSwapStatusTool(quotes *quote.Service) core.Tool {
	return &funcTool{
		def: core.ToolDefinition{
			ToolName:        NameSwapStatus,
			ToolDescription: "Check the execution status of a submitted swap by its deposit address.",
			InputSchema: ObjectSchema(map[string]interface{}{
				"deposit_address": StringProperty("The deposit address of the swap to check"),
			}, "deposit_address"),
		},
		fn: func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			var input struct {
				DepositAddress string `json:"deposit_address"`
			}
			if err := json.Unmarshal(params.Input, &input); err != nil {
				return failure("invalid input: " + err.Error()), nil
			}
			if strings.TrimSpace(input.DepositAddress) == "" {
				return failure("deposit_address is required"), nil
			}
			status, err := quotes.ExecutionStatus(ctx, input.DepositAddress)
			if err != nil {
				return failure(fmt.Sprintf("can't check swap status right now: %v", err)), nil
			}
			return &core.ToolResult{Success: true, Data: map[string]interface{}{
				"deposit_address": input.DepositAddress,
				"status":          status,
			}}, nil
		},
	}
}

func failure(msg string) *core.ToolResult {
	return &core.ToolResult{Success: false, Error: msg}
}
