package chain

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ErrConfirmationTimeout marks a confirmation wait that expired before the
// transaction was mined. Distinct from an on-chain revert.
var ErrConfirmationTimeout = errors.New("timed out waiting for transaction confirmation")

// Client wraps ethclient with multi-URL failover. A URL that fails to dial at
// startup is retried lazily on use.
type Client struct {
	urls        []string
	clients     []*ethclient.Client
	mu          sync.Mutex
	current     int
	waitTimeout time.Duration
}

// NewClient connects to the given RPC URLs. At least one must be dialable.
func NewClient(urls []string, waitTimeout time.Duration) (*Client, error) {
	if len(urls) == 0 {
		return nil, errors.New("at least one RPC URL is required")
	}

	clients := make([]*ethclient.Client, len(urls))
	connected := 0

	for i, url := range urls {
		client, err := ethclient.Dial(url)
		if err != nil {
			log.Warn().Str("url", url).Err(err).Msg("Failed to connect to RPC node, will retry on use")
			continue
		}

		clients[i] = client
		connected++
	}

	if connected == 0 {
		return nil, errors.New("failed to connect to any RPC node")
	}

	return &Client{
		urls:        urls,
		clients:     clients,
		waitTimeout: waitTimeout,
	}, nil
}

// Close closes all underlying connections.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, client := range c.clients {
		if client != nil {
			client.Close()
		}
	}
}

// getClient returns the current client, redialing or advancing to the next
// URL if the current one is unavailable.
func (c *Client) getClient() (*ethclient.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := 0; i < len(c.clients); i++ {
		idx := (c.current + i) % len(c.clients)

		if c.clients[idx] == nil {
			client, err := ethclient.Dial(c.urls[idx])
			if err != nil {
				log.Warn().Str("url", c.urls[idx]).Err(err).Msg("RPC redial failed")
				continue
			}

			c.clients[idx] = client
		}

		c.current = idx

		return c.clients[idx], nil
	}

	return nil, errors.New("all RPC clients are unavailable")
}

// failover drops the current client so the next call advances to another URL.
func (c *Client) failover() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.clients[c.current] != nil {
		c.clients[c.current].Close()
		c.clients[c.current] = nil
	}

	c.current = (c.current + 1) % len(c.clients)
}

// ChainID returns the chain id of the connected network.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	client, err := c.getClient()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get RPC client")
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		c.failover()
		return nil, errors.Wrap(err, "failed to get chain ID")
	}

	return chainID, nil
}

// CallContract executes a read-only contract call.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	client, err := c.getClient()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get RPC client")
	}

	out, err := client.CallContract(ctx, msg, blockNumber)
	if err != nil {
		return nil, errors.Wrap(err, "contract call failed")
	}

	return out, nil
}

// PendingNonceAt returns the pending account nonce for the given address.
func (c *Client) PendingNonceAt(ctx context.Context, address common.Address) (uint64, error) {
	client, err := c.getClient()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get RPC client")
	}

	nonce, err := client.PendingNonceAt(ctx, address)
	if err != nil {
		c.failover()
		return 0, errors.Wrap(err, "failed to get pending nonce")
	}

	return nonce, nil
}

// SuggestGasTipCap returns the suggested EIP-1559 priority fee.
func (c *Client) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	client, err := c.getClient()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get RPC client")
	}

	tipCap, err := client.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to suggest gas tip cap")
	}

	return tipCap, nil
}

// HeaderByNumber returns the header of the given block, or the latest when nil.
func (c *Client) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	client, err := c.getClient()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get RPC client")
	}

	header, err := client.HeaderByNumber(ctx, number)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get block header")
	}

	return header, nil
}

// EstimateGas estimates the gas needed for the given call.
func (c *Client) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	client, err := c.getClient()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get RPC client")
	}

	gas, err := client.EstimateGas(ctx, msg)
	if err != nil {
		return 0, errors.Wrap(err, "failed to estimate gas")
	}

	return gas, nil
}

// SendTransaction broadcasts a signed transaction.
func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	client, err := c.getClient()
	if err != nil {
		return errors.Wrap(err, "failed to get RPC client")
	}

	if err := client.SendTransaction(ctx, tx); err != nil {
		return errors.Wrap(err, "failed to send transaction")
	}

	return nil
}

// BalanceAt returns the native balance of the address at the latest block.
func (c *Client) BalanceAt(ctx context.Context, address common.Address) (*big.Int, error) {
	client, err := c.getClient()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get RPC client")
	}

	balance, err := client.BalanceAt(ctx, address, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get balance")
	}

	return balance, nil
}

// WaitMined blocks until the transaction is mined or the configured
// confirmation timeout expires, returning ErrConfirmationTimeout in the
// latter case.
func (c *Client) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	client, err := c.getClient()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get RPC client")
	}

	waitCtx, cancel := context.WithTimeout(ctx, c.waitTimeout)
	defer cancel()

	receipt, err := bind.WaitMined(waitCtx, client, tx)
	if err != nil {
		if errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
			return nil, ErrConfirmationTimeout
		}

		return nil, errors.Wrap(err, "failed to wait for transaction")
	}

	return receipt, nil
}
