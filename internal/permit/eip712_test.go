package permit_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"

	"github.com/stablemail/go-relay/internal/permit"
)

var (
	testToken   = common.HexToAddress("0xCaC524BcA292aaade2DF8A05cC58F0a65B1B3bB9")
	testOwner   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testSpender = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func TestDomainSeparatorDeterministic(t *testing.T) {
	a := permit.DomainSeparator("PYUSD", "1", big.NewInt(11155111), testToken)
	b := permit.DomainSeparator("PYUSD", "1", big.NewInt(11155111), testToken)

	assert.Equal(t, a, b)
	assert.NotEqual(t, common.Hash{}, a)
}

func TestDomainSeparatorSensitivity(t *testing.T) {
	base := permit.DomainSeparator("PYUSD", "1", big.NewInt(11155111), testToken)

	assert.NotEqual(t, base, permit.DomainSeparator("USDC", "1", big.NewInt(11155111), testToken))
	assert.NotEqual(t, base, permit.DomainSeparator("PYUSD", "2", big.NewInt(11155111), testToken))
	assert.NotEqual(t, base, permit.DomainSeparator("PYUSD", "1", big.NewInt(1), testToken))
	assert.NotEqual(t, base, permit.DomainSeparator("PYUSD", "1", big.NewInt(11155111), testSpender))
}

func TestPermitDigestSensitivity(t *testing.T) {
	sep := permit.DomainSeparator("PYUSD", "1", big.NewInt(11155111), testToken)

	base := permit.PermitDigest(sep, testOwner, testSpender, big.NewInt(1000), big.NewInt(0), permit.MaxUint256)

	assert.Equal(t, base,
		permit.PermitDigest(sep, testOwner, testSpender, big.NewInt(1000), big.NewInt(0), permit.MaxUint256))

	assert.NotEqual(t, base,
		permit.PermitDigest(sep, testOwner, testSpender, big.NewInt(1001), big.NewInt(0), permit.MaxUint256))
	assert.NotEqual(t, base,
		permit.PermitDigest(sep, testOwner, testSpender, big.NewInt(1000), big.NewInt(1), permit.MaxUint256))
	assert.NotEqual(t, base,
		permit.PermitDigest(sep, testOwner, testSpender, big.NewInt(1000), big.NewInt(0), big.NewInt(9999999999)))
	assert.NotEqual(t, base,
		permit.PermitDigest(sep, testSpender, testOwner, big.NewInt(1000), big.NewInt(0), permit.MaxUint256))
}

func TestMaxUint256(t *testing.T) {
	expected := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	assert.Zero(t, permit.MaxUint256.Cmp(expected))
}
