package permit

import (
	"math/big"
	"time"

	"github.com/pkg/errors"
)

// DeadlineInfinite selects the max-uint256 sentinel deadline.
const DeadlineInfinite = "infinite"

// ResolveDeadline turns a configured deadline mode into a concrete permit
// deadline: "infinite" yields nil (the max-uint256 sentinel downstream),
// anything else is parsed as a duration relative to now.
func ResolveDeadline(mode string, now time.Time) (*big.Int, error) {
	if mode == "" || mode == DeadlineInfinite {
		return nil, nil
	}

	d, err := time.ParseDuration(mode)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid permit deadline %q", mode)
	}

	if d <= 0 {
		return nil, errors.Errorf("permit deadline must be positive, got %q", mode)
	}

	return big.NewInt(now.Add(d).Unix()), nil
}
