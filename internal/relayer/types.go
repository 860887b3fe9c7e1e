package relayer

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/stablemail/go-relay/internal/permit"
)

// Result is the outcome of one on-chain submission. The executor never
// panics or returns errors past its boundary; callers inspect Result.
type Result struct {
	Success         bool
	TransactionHash string
	Err             error
}

func failure(err error) Result {
	return Result{Success: false, Err: err}
}

func success(txHash string) Result {
	return Result{Success: true, TransactionHash: txHash}
}

// Service is the fee-paying executor. ExecutePermit must have confirmed
// successfully before ExecuteTransfer is attempted; the state machine owns
// that ordering.
type Service interface {
	// Address returns the relayer (spender) wallet address.
	Address() common.Address

	// ExecutePermit submits the token's permit call and waits for confirmation.
	ExecutePermit(ctx context.Context, payload *permit.Payload) Result

	// ExecuteTransfer submits transferFrom(owner, recipient, value) and waits
	// for confirmation.
	ExecuteTransfer(ctx context.Context, owner, recipient common.Address, value *big.Int) Result
}

// ChainClient is the chain dependency of the executor, implemented by
// chain.Client and mocked in tests.
type ChainClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, address common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
}
