package token

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// erc20ABIJSON covers the ERC-20/EIP-2612 surface the engine depends on.
const erc20ABIJSON = `[
	{"name":"name","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"name":"version","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"name":"decimals","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"name":"nonces","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"allowance","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"permit","type":"function","stateMutability":"nonpayable","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"},{"name":"value","type":"uint256"},{"name":"deadline","type":"uint256"},{"name":"v","type":"uint8"},{"name":"r","type":"bytes32"},{"name":"s","type":"bytes32"}],"outputs":[]},
	{"name":"transferFrom","type":"function","stateMutability":"nonpayable","inputs":[{"name":"sender","type":"address"},{"name":"recipient","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`

// ERC20ABI is the parsed contract interface, shared with the relayer for
// calldata packing.
var ERC20ABI = mustParseABI(erc20ABIJSON)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(errors.Wrap(err, "failed to parse ERC20 ABI"))
	}

	return parsed
}

// RevertError marks a view call that the contract rejected (or a method the
// contract does not implement), as opposed to a transport failure.
type RevertError struct {
	Method string
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("contract call %s reverted or returned no data", e.Method)
}

// ContractCaller is the read-only chain dependency of the reader.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Reader performs read-only calls against a single token contract.
// It does not retry; callers decide how to handle failures.
type Reader struct {
	caller ContractCaller
	token  common.Address
}

// NewReader binds a reader to one token contract.
func NewReader(caller ContractCaller, token common.Address) *Reader {
	return &Reader{
		caller: caller,
		token:  token,
	}
}

// Address returns the bound token contract address.
func (r *Reader) Address() common.Address {
	return r.token
}

// Nonce returns the owner's current EIP-2612 permit nonce.
func (r *Reader) Nonce(ctx context.Context, owner common.Address) (*big.Int, error) {
	out, err := r.call(ctx, "nonces", owner)
	if err != nil {
		return nil, err
	}

	nonce, ok := out[0].(*big.Int)
	if !ok {
		return nil, errors.Errorf("unexpected nonces return type: %T", out[0])
	}

	return nonce, nil
}

// Decimals returns the token's decimal places.
func (r *Reader) Decimals(ctx context.Context) (uint8, error) {
	out, err := r.call(ctx, "decimals")
	if err != nil {
		return 0, err
	}

	decimals, ok := out[0].(uint8)
	if !ok {
		return 0, errors.Errorf("unexpected decimals return type: %T", out[0])
	}

	return decimals, nil
}

// Name returns the token name. Tokens without name() surface a RevertError;
// the caller decides the fallback.
func (r *Reader) Name(ctx context.Context) (string, error) {
	out, err := r.call(ctx, "name")
	if err != nil {
		return "", err
	}

	name, ok := out[0].(string)
	if !ok {
		return "", errors.Errorf("unexpected name return type: %T", out[0])
	}

	return name, nil
}

// Version returns the token's EIP-712 domain version. Not all EIP-2612
// implementations expose version().
func (r *Reader) Version(ctx context.Context) (string, error) {
	out, err := r.call(ctx, "version")
	if err != nil {
		return "", err
	}

	version, ok := out[0].(string)
	if !ok {
		return "", errors.Errorf("unexpected version return type: %T", out[0])
	}

	return version, nil
}

// BalanceOf returns the owner's balance in base units.
func (r *Reader) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	out, err := r.call(ctx, "balanceOf", owner)
	if err != nil {
		return nil, err
	}

	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, errors.Errorf("unexpected balanceOf return type: %T", out[0])
	}

	return balance, nil
}

// Balance returns the owner's balance as a human-readable decimal string.
func (r *Reader) Balance(ctx context.Context, owner common.Address) (string, error) {
	balance, err := r.BalanceOf(ctx, owner)
	if err != nil {
		return "", err
	}

	decimals, err := r.Decimals(ctx)
	if err != nil {
		return "", err
	}

	return FromBaseUnits(balance, decimals), nil
}

// Allowance returns the spender's remaining allowance from owner in base units.
func (r *Reader) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	out, err := r.call(ctx, "allowance", owner, spender)
	if err != nil {
		return nil, err
	}

	allowance, ok := out[0].(*big.Int)
	if !ok {
		return nil, errors.Errorf("unexpected allowance return type: %T", out[0])
	}

	return allowance, nil
}

func (r *Reader) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := ERC20ABI.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to pack %s call", method)
	}

	msg := ethereum.CallMsg{
		To:   &r.token,
		Data: data,
	}

	out, err := r.caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "call %s failed", method)
	}

	if len(out) == 0 {
		return nil, &RevertError{Method: method}
	}

	unpacked, err := ERC20ABI.Unpack(method, out)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to unpack %s result", method)
	}

	if len(unpacked) == 0 {
		return nil, &RevertError{Method: method}
	}

	return unpacked, nil
}
