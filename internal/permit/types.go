package permit

import (
	"math/big"
	"regexp"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// Signature holds the split ECDSA signature components of a permit,
// with V normalized to the 27/28 convention.
type Signature struct {
	V uint8  `json:"v"`
	R string `json:"r"`
	S string `json:"s"`
}

// Payload is a complete, ready-to-submit EIP-2612 permit.
// Value and Deadline are decimal strings to preserve uint256 precision.
type Payload struct {
	V        uint8  `json:"v"`
	R        string `json:"r"`
	S        string `json:"s"`
	Owner    string `json:"owner"`
	Spender  string `json:"spender"`
	Value    string `json:"value"`
	Deadline string `json:"deadline"`
	Nonce    uint64 `json:"nonce"`
}

var (
	addressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
	word32Pattern  = regexp.MustCompile(`^0x[a-fA-F0-9]{64}$`)
	numericPattern = regexp.MustCompile(`^[0-9]+$`)
)

// Validate checks that the payload is structurally complete. Signature
// correctness against the digest is enforced on-chain, not here.
func (p *Payload) Validate() error {
	switch {
	case p.V != 27 && p.V != 28:
		return errors.Errorf("invalid recovery id: %d", p.V)
	case !word32Pattern.MatchString(p.R):
		return errors.New("r must be a 32-byte hex string")
	case !word32Pattern.MatchString(p.S):
		return errors.New("s must be a 32-byte hex string")
	case !addressPattern.MatchString(p.Owner):
		return errors.New("owner must be a hex address")
	case !addressPattern.MatchString(p.Spender):
		return errors.New("spender must be a hex address")
	case !numericPattern.MatchString(p.Value):
		return errors.New("value must be a base-10 unsigned integer string")
	case !numericPattern.MatchString(p.Deadline):
		return errors.New("deadline must be a base-10 unsigned integer string")
	}

	return nil
}

// ValueBig parses the base-unit value.
func (p *Payload) ValueBig() (*big.Int, error) {
	v, ok := new(big.Int).SetString(p.Value, 10)
	if !ok {
		return nil, errors.Errorf("invalid permit value: %s", p.Value)
	}

	return v, nil
}

// DeadlineBig parses the deadline.
func (p *Payload) DeadlineBig() (*big.Int, error) {
	d, ok := new(big.Int).SetString(p.Deadline, 10)
	if !ok {
		return nil, errors.Errorf("invalid permit deadline: %s", p.Deadline)
	}

	return d, nil
}

// RS returns the signature halves as fixed 32-byte words for ABI packing.
func (p *Payload) RS() (r [32]byte, s [32]byte, err error) {
	if !word32Pattern.MatchString(p.R) || !word32Pattern.MatchString(p.S) {
		return r, s, errors.New("r and s must be 32-byte hex strings")
	}

	copy(r[:], common.FromHex(p.R))
	copy(s[:], common.FromHex(p.S))

	return r, s, nil
}
