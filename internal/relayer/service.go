package relayer

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/stablemail/go-relay/internal/config"
	"github.com/stablemail/go-relay/internal/permit"
	"github.com/stablemail/go-relay/internal/token"
)

const eip1559FeeMultiplier = 2

type service struct {
	client  ChainClient
	chainID *big.Int
	key     *ecdsa.PrivateKey
	address common.Address
	token   common.Address

	permitGasLimit   uint64
	transferGasLimit uint64

	// submitMu serializes nonce read through broadcast so the relayer's
	// account nonce stays monotonic under concurrent requests. Confirmation
	// waits happen outside the lock.
	submitMu sync.Mutex
}

// NewService loads the relayer key (env hex or encrypted keystore file),
// derives the spender address and binds the executor to the token contract.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(ctx context.Context, client ChainClient, cfg config.Relayer, tokenAddress common.Address) (Service, error) {
	privateKeyHex := cfg.PrivateKey
	if privateKeyHex == "" && cfg.KeystorePath != "" {
		loaded, err := LoadKeyFromFile(cfg.KeystorePath, cfg.KeystorePassword)
		if err != nil {
			return nil, errors.Wrap(err, "failed to unlock relayer keystore")
		}
		privateKeyHex = loaded
	}

	if privateKeyHex == "" {
		return nil, errors.New("relayer private key is not configured")
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid relayer private key")
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get chain ID")
	}

	address := crypto.PubkeyToAddress(key.PublicKey)

	log.Info().
		Str("relayer_address", address.Hex()).
		Str("token_address", tokenAddress.Hex()).
		Str("chain_id", chainID.String()).
		Msg("Relayer executor initialized")

	return &service{
		client:           client,
		chainID:          chainID,
		key:              key,
		address:          address,
		token:            tokenAddress,
		permitGasLimit:   cfg.PermitGasLimit,
		transferGasLimit: cfg.TransferGasLimit,
	}, nil
}

// Address returns the relayer (spender) wallet address.
func (s *service) Address() common.Address {
	return s.address
}

// ExecutePermit submits permit(owner, spender, value, deadline, v, r, s) and
// waits for confirmation.
func (s *service) ExecutePermit(ctx context.Context, payload *permit.Payload) Result {
	if err := payload.Validate(); err != nil {
		return failure(errors.Wrap(err, "invalid permit payload"))
	}

	value, err := payload.ValueBig()
	if err != nil {
		return failure(err)
	}

	deadline, err := payload.DeadlineBig()
	if err != nil {
		return failure(err)
	}

	r, sigS, err := payload.RS()
	if err != nil {
		return failure(err)
	}

	data, err := token.ERC20ABI.Pack(
		"permit",
		common.HexToAddress(payload.Owner),
		common.HexToAddress(payload.Spender),
		value,
		deadline,
		payload.V,
		r,
		sigS,
	)
	if err != nil {
		return failure(errors.Wrap(err, "failed to pack permit call"))
	}

	result := s.submitAndWait(ctx, data, s.permitGasLimit)
	if result.Success {
		log.Info().
			Str("tx_hash", result.TransactionHash).
			Str("owner", payload.Owner).
			Str("value", payload.Value).
			Msg("Permit transaction confirmed")
	}

	return result
}

// ExecuteTransfer submits transferFrom(owner, recipient, value) and waits for
// confirmation. Callers must not invoke this before the permit confirmed.
func (s *service) ExecuteTransfer(ctx context.Context, owner, recipient common.Address, value *big.Int) Result {
	if value == nil || value.Sign() <= 0 {
		return failure(errors.New("transfer value must be positive"))
	}

	data, err := token.ERC20ABI.Pack("transferFrom", owner, recipient, value)
	if err != nil {
		return failure(errors.Wrap(err, "failed to pack transferFrom call"))
	}

	result := s.submitAndWait(ctx, data, s.transferGasLimit)
	if result.Success {
		log.Info().
			Str("tx_hash", result.TransactionHash).
			Str("owner", owner.Hex()).
			Str("recipient", recipient.Hex()).
			Str("value", value.String()).
			Msg("Gasless transfer confirmed")
	}

	return result
}

// submitAndWait signs and broadcasts a call against the token contract, then
// waits for it to be mined. The submit lock is released as soon as the node
// accepts the broadcast, not when the transaction confirms.
func (s *service) submitAndWait(ctx context.Context, data []byte, fallbackGasLimit uint64) Result {
	tx, err := s.submit(ctx, data, fallbackGasLimit)
	if err != nil {
		return failure(err)
	}

	receipt, err := s.client.WaitMined(ctx, tx)
	if err != nil {
		return failure(errors.Wrap(err, "failed while waiting for confirmation"))
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return failure(errors.Errorf("transaction %s reverted on-chain", tx.Hash().Hex()))
	}

	return success(tx.Hash().Hex())
}

func (s *service) submit(ctx context.Context, data []byte, fallbackGasLimit uint64) (*types.Transaction, error) {
	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	nonce, err := s.client.PendingNonceAt(ctx, s.address)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get relayer account nonce")
	}

	tipCap, err := s.client.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to suggest gas tip cap")
	}

	header, err := s.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get latest header")
	}

	if header.BaseFee == nil {
		return nil, errors.New("chain does not support EIP-1559 (baseFee is nil)")
	}

	maxFee := new(big.Int).Add(new(big.Int).Mul(header.BaseFee, big.NewInt(eip1559FeeMultiplier)), tipCap)

	gasLimit, err := s.client.EstimateGas(ctx, ethereum.CallMsg{
		From: s.address,
		To:   &s.token,
		Data: data,
	})
	if err != nil {
		log.Warn().Err(err).Uint64("fallback", fallbackGasLimit).Msg("Gas estimation failed, using fallback limit")
		gasLimit = fallbackGasLimit
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     nonce,
		GasTipCap: tipCap,
		GasFeeCap: maxFee,
		Gas:       gasLimit,
		To:        &s.token,
		Data:      data,
	})

	signedTx, err := types.SignTx(tx, types.NewLondonSigner(s.chainID), s.key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign transaction")
	}

	if err := s.client.SendTransaction(ctx, signedTx); err != nil {
		return nil, errors.Wrap(err, "failed to broadcast transaction")
	}

	return signedTx, nil
}
