// Package quote turns validated swap requests into live 1-Click quotes and
// builds the unsigned transaction payloads for confirmed quotes.
package quote

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	oneclick "github.com/defuse-protocol/one-click-sdk-go"
	"github.com/google/uuid"

	"github.com/neptuneai/swap-agent/core"
)

// SlippageTolerance is the fixed tolerance applied to every quote, in
// basis points. MinAmountOut is always AmountOut reduced by this fraction.
const SlippageTolerance = 100 // 1%

const (
	quoteTimeout  = 10 * time.Second
	quoteDeadline = 60 * time.Minute

	ftTransferGas     = "100000000000000"
	ftTransferDeposit = "1"
)

// API is the slice of the 1-Click client the service uses.
type API interface {
	Quote(ctx context.Context, req oneclick.QuoteRequest) (*oneclick.QuoteResponse, error)
	ExecutionStatus(ctx context.Context, depositAddress string) (string, error)
}

// TokenResolver resolves symbols against the token directory.
type TokenResolver interface {
	Lookup(ctx context.Context, symbol string) (core.Token, bool, error)
}

// Service fetches quotes and prepares transactions. It holds no session
// state: storing and clearing the pending quote belongs to the orchestrator.
type Service struct {
	api      API
	resolver TokenResolver
}

// NewService creates a quote service.
func NewService(api API, resolver TokenResolver) *Service {
	return &Service{api: api, resolver: resolver}
}

// IsCrossChain reports whether a swap between the two symbols leaves the
// source token's chain.
func (s *Service) IsCrossChain(ctx context.Context, tokenIn, tokenOut string) (bool, error) {
	in, ok, err := s.resolver.Lookup(ctx, tokenIn)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, &core.QuoteError{Reason: fmt.Sprintf("unknown token %q", strings.ToUpper(tokenIn))}
	}
	out, ok, err := s.resolver.Lookup(ctx, tokenOut)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, &core.QuoteError{Reason: fmt.Sprintf("unknown token %q", strings.ToUpper(tokenOut))}
	}
	return in.Blockchain != out.Blockchain, nil
}

// GetQuote requests a swap quote for amount of tokenIn into tokenOut,
// delivered to recipient. refundTo is the sender's origin-chain account: a
// failed swap refunds there, never to the destination address, which on a
// cross-chain swap lives on the wrong chain for a refund. The response must
// carry an output amount and a deposit address or it is treated as malformed.
func (s *Service) GetQuote(ctx context.Context, tokenIn, tokenOut string, amount float64, recipient, refundTo string) (core.Quote, error) {
	if amount <= 0 {
		return core.Quote{}, &core.QuoteError{Reason: "amount must be positive"}
	}
	if strings.TrimSpace(recipient) == "" {
		return core.Quote{}, &core.QuoteError{Reason: "recipient is required"}
	}
	if strings.TrimSpace(refundTo) == "" {
		return core.Quote{}, &core.QuoteError{Reason: "refund address is required"}
	}

	in, ok, err := s.resolver.Lookup(ctx, tokenIn)
	if err != nil {
		return core.Quote{}, err
	}
	if !ok {
		return core.Quote{}, &core.QuoteError{Reason: fmt.Sprintf("unknown token %q", strings.ToUpper(tokenIn))}
	}
	out, ok, err := s.resolver.Lookup(ctx, tokenOut)
	if err != nil {
		return core.Quote{}, err
	}
	if !ok {
		return core.Quote{}, &core.QuoteError{Reason: fmt.Sprintf("unknown token %q", strings.ToUpper(tokenOut))}
	}

	req := *oneclick.NewQuoteRequest(
		false,                // dry
		"EXACT_INPUT",        // swapType
		SlippageTolerance,    // slippageTolerance
		in.AssetID,           // originAsset
		"ORIGIN_CHAIN",       // depositType
		out.AssetID,          // destinationAsset
		toUnits(amount, in.Decimals), // amount
		refundTo,             // refundTo
		"ORIGIN_CHAIN",       // refundType
		recipient,            // recipient
		"DESTINATION_CHAIN",  // recipientType
		time.Now().Add(quoteDeadline), // deadline
	)
	depositMode := "SIMPLE"
	req.DepositMode = &depositMode

	quoteCtx, cancel := context.WithTimeout(ctx, quoteTimeout)
	defer cancel()

	resp, err := s.api.Quote(quoteCtx, req)
	if err != nil {
		return core.Quote{}, &core.QuoteError{Reason: err.Error()}
	}

	depositAddr := resp.Quote.GetDepositAddress()
	if depositAddr == "" {
		return core.Quote{}, &core.QuoteError{Reason: "upstream returned no deposit address"}
	}
	amountOut, err := strconv.ParseFloat(resp.Quote.AmountOutFormatted, 64)
	if err != nil || amountOut <= 0 {
		return core.Quote{}, &core.QuoteError{Reason: "upstream returned no usable output amount"}
	}

	return core.Quote{
		ID:             uuid.NewString(),
		TokenIn:        in,
		TokenOut:       out,
		AmountIn:       amount,
		AmountOut:      amountOut,
		Rate:           amountOut / amount,
		MinAmountOut:   amountOut * 0.99,
		DepositAddress: depositAddr,
		Recipient:      recipient,
		CrossChain:     in.Blockchain != out.Blockchain,
		CreatedAt:      time.Now(),
	}, nil
}

// PrepareTransaction builds the unsigned transfer the user's wallet must
// sign to fund the quote's deposit address. It has no session side effects.
func (s *Service) PrepareTransaction(q core.Quote) (core.TransactionPayload, error) {
	if q.DepositAddress == "" {
		return core.TransactionPayload{}, &core.PreparationError{Reason: "quote has no deposit address"}
	}
	if q.AmountIn <= 0 {
		return core.TransactionPayload{}, &core.PreparationError{Reason: "quote has no input amount"}
	}
	receiver := q.TokenIn.ContractAddress
	if receiver == "" {
		receiver = q.TokenIn.AssetID
	}
	if receiver == "" {
		return core.TransactionPayload{}, &core.PreparationError{Reason: fmt.Sprintf("no contract known for %s", q.TokenIn.Symbol)}
	}

	return core.TransactionPayload{
		ReceiverID: receiver,
		Actions: []core.TransactionAction{
			{
				Type: "FunctionCall",
				Params: core.FunctionCallParams{
					MethodName: "ft_transfer_call",
					Args: map[string]interface{}{
						"receiver_id": q.DepositAddress,
						"amount":      toUnits(q.AmountIn, q.TokenIn.Decimals),
						"msg":         fmt.Sprintf("%s:%s:min=%.6f", q.TokenIn.Symbol, q.TokenOut.Symbol, q.MinAmountOut),
					},
					Gas:     ftTransferGas,
					Deposit: ftTransferDeposit,
				},
			},
		},
	}, nil
}

// ExecutionStatus reads the swap status for a deposit address. This is a
// plain status read; settlement tracking stays with the upstream.
func (s *Service) ExecutionStatus(ctx context.Context, depositAddress string) (string, error) {
	statusCtx, cancel := context.WithTimeout(ctx, quoteTimeout)
	defer cancel()
	return s.api.ExecutionStatus(statusCtx, depositAddress)
}

// toUnits converts a human amount to the token's smallest units. The
// default 53-bit precision would round during the power-of-ten multiply,
// which must not happen to an amount the user signs.
func toUnits(amount float64, decimals int) string {
	f := new(big.Float).SetPrec(256).SetFloat64(amount)
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	f.Mul(f, new(big.Float).SetInt(scale))
	i, _ := f.Int(nil)
	return i.String()
}
