package permit

import (
	"context"
	"crypto/ecdsa"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

const (
	signatureLength = 65
	legacyVOffset   = 27
)

// Signer produces a split (v, r, s) signature over a 32-byte digest.
// Implementations must never log or persist the key material they hold.
type Signer interface {
	SignDigest(ctx context.Context, digest common.Hash) (*Signature, error)
}

// WalletProvider is the session-scoped identity collaborator. Key material
// export fails once the session has expired.
type WalletProvider interface {
	GetAddress(ctx context.Context) (common.Address, error)
	SignMessage(ctx context.Context, message []byte) ([]byte, error)
	ExportPrivateKey(ctx context.Context) (string, error)
}

// RawKeySigner signs digests directly with an in-memory secp256k1 key.
type RawKeySigner struct {
	key *ecdsa.PrivateKey
}

// NewRawKeySigner parses a hex private key (0x prefix optional).
func NewRawKeySigner(privateKeyHex string) (*RawKeySigner, error) {
	if privateKeyHex == "" {
		return nil, errors.New("private key is empty")
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid private key")
	}

	return &RawKeySigner{key: key}, nil
}

// Address returns the address derived from the held key.
func (s *RawKeySigner) Address() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

// SignDigest signs the digest and returns the split signature with V in 27/28.
func (s *RawKeySigner) SignDigest(_ context.Context, digest common.Hash) (*Signature, error) {
	sig, err := crypto.Sign(digest.Bytes(), s.key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign digest")
	}

	return SplitSignature(sig)
}

// ProviderSigner signs through a connected wallet provider's message-signing API.
type ProviderSigner struct {
	provider WalletProvider
}

// NewProviderSigner wraps the given wallet provider.
func NewProviderSigner(provider WalletProvider) *ProviderSigner {
	return &ProviderSigner{provider: provider}
}

// SignDigest asks the provider to sign the digest bytes and splits the result.
func (s *ProviderSigner) SignDigest(ctx context.Context, digest common.Hash) (*Signature, error) {
	sig, err := s.provider.SignMessage(ctx, digest.Bytes())
	if err != nil {
		return nil, errors.Wrap(err, "wallet provider failed to sign")
	}

	return SplitSignature(sig)
}

// SplitSignature splits a 65-byte signature into (v, r, s), normalizing a
// 0/1 recovery id to the 27/28 convention.
func SplitSignature(sig []byte) (*Signature, error) {
	if len(sig) != signatureLength {
		return nil, errors.Errorf("invalid signature length: %d", len(sig))
	}

	v := sig[64]
	if v < legacyVOffset {
		v += legacyVOffset
	}

	return &Signature{
		V: v,
		R: hexutil.Encode(sig[:32]),
		S: hexutil.Encode(sig[32:64]),
	}, nil
}

// RecoverSigner recovers the address that produced the given split signature
// over the digest. Used to verify a permit signs back to its owner.
func RecoverSigner(digest common.Hash, sig *Signature) (common.Address, error) {
	if sig.V != legacyVOffset && sig.V != legacyVOffset+1 {
		return common.Address{}, errors.Errorf("invalid recovery id: %d", sig.V)
	}

	raw := make([]byte, signatureLength)
	copy(raw[:32], common.FromHex(sig.R))
	copy(raw[32:64], common.FromHex(sig.S))
	raw[64] = sig.V - legacyVOffset

	pub, err := crypto.SigToPub(digest.Bytes(), raw)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "failed to recover public key")
	}

	return crypto.PubkeyToAddress(*pub), nil
}
