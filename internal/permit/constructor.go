package permit

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/stablemail/go-relay/internal/token"
)

// MetadataReader is the chain-state snapshot dependency of the constructor.
type MetadataReader interface {
	Nonce(ctx context.Context, owner common.Address) (*big.Int, error)
	Decimals(ctx context.Context) (uint8, error)
	Name(ctx context.Context) (string, error)
	Version(ctx context.Context) (string, error)
}

// DomainConfig pins the token's EIP-712 domain identity. FallbackName and
// FallbackVersion cover tokens that do not expose name()/version().
// PinnedSeparator, when non-zero, bypasses querying and computation entirely.
type DomainConfig struct {
	FallbackName    string
	FallbackVersion string
	PinnedSeparator common.Hash
}

// Constructor builds complete, signed EIP-2612 permits for one token on one chain.
type Constructor struct {
	reader  MetadataReader
	chainID *big.Int
	token   common.Address
	domain  DomainConfig
}

// NewConstructor creates a permit constructor bound to a token contract.
func NewConstructor(reader MetadataReader, chainID *big.Int, tokenAddress common.Address, domain DomainConfig) *Constructor {
	return &Constructor{
		reader:  reader,
		chainID: chainID,
		token:   tokenAddress,
		domain:  domain,
	}
}

// CreateGaslessPermit reads the owner's current nonce and the token decimals,
// converts the human-readable amount to base units, builds the permit digest
// and signs it with the supplied raw private key.
//
// A nil deadline means the infinite max-uint256 sentinel. The key is used for
// the duration of this call only and is never persisted or logged.
func (c *Constructor) CreateGaslessPermit(
	ctx context.Context,
	privateKeyHex string,
	owner common.Address,
	spender common.Address,
	humanAmount string,
	deadline *big.Int,
) (*Payload, error) {
	signer, err := NewRawKeySigner(privateKeyHex)
	if err != nil {
		return nil, errors.Wrap(err, "unusable key material")
	}

	if signer.Address() != owner {
		return nil, errors.New("owner address does not match private key")
	}

	nonce, err := c.reader.Nonce(ctx, owner)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read permit nonce")
	}

	decimals, err := c.reader.Decimals(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read token decimals")
	}

	value, err := token.ToBaseUnits(humanAmount, decimals)
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert amount to base units")
	}

	if value.Sign() <= 0 {
		return nil, errors.New("amount must be positive")
	}

	if deadline == nil {
		deadline = MaxUint256
	}

	separator := c.domainSeparator(ctx)
	digest := PermitDigest(separator, owner, spender, value, nonce, deadline)

	sig, err := signer.SignDigest(ctx, digest)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign permit digest")
	}

	return &Payload{
		V:        sig.V,
		R:        sig.R,
		S:        sig.S,
		Owner:    owner.Hex(),
		Spender:  spender.Hex(),
		Value:    value.String(),
		Deadline: deadline.String(),
		Nonce:    nonce.Uint64(),
	}, nil
}

// domainSeparator resolves the token's domain separator: pinned value if
// configured, otherwise computed from queried name/version with configured
// fallbacks for tokens that omit them.
func (c *Constructor) domainSeparator(ctx context.Context) common.Hash {
	if c.domain.PinnedSeparator != (common.Hash{}) {
		return c.domain.PinnedSeparator
	}

	name, err := c.reader.Name(ctx)
	if err != nil || name == "" {
		log.Debug().Err(err).Str("fallback", c.domain.FallbackName).Msg("Token name() unavailable, using fallback")
		name = c.domain.FallbackName
	}

	version, err := c.reader.Version(ctx)
	if err != nil || version == "" {
		log.Debug().Err(err).Str("fallback", c.domain.FallbackVersion).Msg("Token version() unavailable, using fallback")
		version = c.domain.FallbackVersion
	}

	return DomainSeparator(name, version, c.chainID, c.token)
}
