package token

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ToBaseUnits converts a human-readable decimal amount into token base units
// (amount * 10^decimals). Amounts with more fractional digits than the token
// supports are rejected instead of rounded.
func ToBaseUnits(amount string, decimals uint8) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid amount %q", amount)
	}

	if d.Sign() < 0 {
		return nil, errors.New("amount must not be negative")
	}

	shifted := d.Shift(int32(decimals))
	if !shifted.IsInteger() {
		return nil, errors.Errorf("amount %s has more than %d decimal places", amount, decimals)
	}

	return shifted.BigInt(), nil
}

// FromBaseUnits converts base units back into a human-readable decimal string.
// ToBaseUnits and FromBaseUnits round-trip exactly.
func FromBaseUnits(value *big.Int, decimals uint8) string {
	return decimal.NewFromBigInt(value, -int32(decimals)).String()
}
