package permit_test

import (
	"context"
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stablemail/go-relay/internal/permit"
	"github.com/stablemail/go-relay/internal/token"
)

type fakeReader struct {
	nonce    *big.Int
	decimals uint8
	name     string
	version  string

	nameErr    error
	versionErr error
}

func (f *fakeReader) Nonce(_ context.Context, _ common.Address) (*big.Int, error) {
	return f.nonce, nil
}

func (f *fakeReader) Decimals(_ context.Context) (uint8, error) {
	return f.decimals, nil
}

func (f *fakeReader) Name(_ context.Context) (string, error) {
	return f.name, f.nameErr
}

func (f *fakeReader) Version(_ context.Context) (string, error) {
	return f.version, f.versionErr
}

func newTestConstructor(reader *fakeReader, domain permit.DomainConfig) *permit.Constructor {
	return permit.NewConstructor(reader, big.NewInt(11155111), testToken, domain)
}

func TestCreateGaslessPermit(t *testing.T) {
	ctx := t.Context()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	owner := crypto.PubkeyToAddress(key.PublicKey)

	reader := &fakeReader{nonce: big.NewInt(7), decimals: 6, name: "PYUSD", version: "1"}
	constructor := newTestConstructor(reader, permit.DomainConfig{FallbackName: "PYUSD", FallbackVersion: "1"})

	payload, err := constructor.CreateGaslessPermit(ctx, hex.EncodeToString(crypto.FromECDSA(key)), owner, testSpender, "12.50", nil)
	require.NoError(t, err)

	assert.Equal(t, owner.Hex(), payload.Owner)
	assert.Equal(t, testSpender.Hex(), payload.Spender)
	assert.Equal(t, "12500000", payload.Value)
	assert.Equal(t, uint64(7), payload.Nonce)
	assert.Equal(t, permit.MaxUint256.String(), payload.Deadline)
	require.NoError(t, payload.Validate())

	// the signature must recover back to the owner over the same digest
	sep := permit.DomainSeparator("PYUSD", "1", big.NewInt(11155111), testToken)
	value, err := token.ToBaseUnits("12.50", 6)
	require.NoError(t, err)
	digest := permit.PermitDigest(sep, owner, testSpender, value, big.NewInt(7), permit.MaxUint256)

	recovered, err := permit.RecoverSigner(digest, &permit.Signature{V: payload.V, R: payload.R, S: payload.S})
	require.NoError(t, err)
	assert.Equal(t, owner, recovered)
}

func TestCreateGaslessPermitExplicitDeadline(t *testing.T) {
	ctx := t.Context()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	owner := crypto.PubkeyToAddress(key.PublicKey)

	reader := &fakeReader{nonce: big.NewInt(0), decimals: 6, name: "PYUSD", version: "1"}
	constructor := newTestConstructor(reader, permit.DomainConfig{FallbackName: "PYUSD", FallbackVersion: "1"})

	deadline := big.NewInt(1893456000)

	payload, err := constructor.CreateGaslessPermit(ctx, hex.EncodeToString(crypto.FromECDSA(key)), owner, testSpender, "1", deadline)
	require.NoError(t, err)
	assert.Equal(t, "1893456000", payload.Deadline)
}

func TestCreateGaslessPermitOwnerMismatch(t *testing.T) {
	ctx := t.Context()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	reader := &fakeReader{nonce: big.NewInt(0), decimals: 6, name: "PYUSD", version: "1"}
	constructor := newTestConstructor(reader, permit.DomainConfig{FallbackName: "PYUSD", FallbackVersion: "1"})

	_, err = constructor.CreateGaslessPermit(ctx, hex.EncodeToString(crypto.FromECDSA(key)), testOwner, testSpender, "1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "owner address does not match")
}

func TestCreateGaslessPermitRejectsNonPositiveAmount(t *testing.T) {
	ctx := t.Context()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	owner := crypto.PubkeyToAddress(key.PublicKey)

	reader := &fakeReader{nonce: big.NewInt(0), decimals: 6, name: "PYUSD", version: "1"}
	constructor := newTestConstructor(reader, permit.DomainConfig{FallbackName: "PYUSD", FallbackVersion: "1"})

	_, err = constructor.CreateGaslessPermit(ctx, hex.EncodeToString(crypto.FromECDSA(key)), owner, testSpender, "0", nil)
	require.Error(t, err)

	_, err = constructor.CreateGaslessPermit(ctx, hex.EncodeToString(crypto.FromECDSA(key)), owner, testSpender, "0.0000001", nil)
	require.Error(t, err, "more fractional digits than the token supports")
}

func TestCreateGaslessPermitUsesFallbackDomain(t *testing.T) {
	ctx := t.Context()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	owner := crypto.PubkeyToAddress(key.PublicKey)

	// token without name()/version(): permit still verifies against the
	// separator computed from the configured fallbacks
	reader := &fakeReader{
		nonce:      big.NewInt(3),
		decimals:   6,
		nameErr:    &token.RevertError{Method: "name"},
		versionErr: &token.RevertError{Method: "version"},
	}
	constructor := newTestConstructor(reader, permit.DomainConfig{FallbackName: "PYUSD", FallbackVersion: "1"})

	payload, err := constructor.CreateGaslessPermit(ctx, hex.EncodeToString(crypto.FromECDSA(key)), owner, testSpender, "5", nil)
	require.NoError(t, err)

	sep := permit.DomainSeparator("PYUSD", "1", big.NewInt(11155111), testToken)
	digest := permit.PermitDigest(sep, owner, testSpender, big.NewInt(5000000), big.NewInt(3), permit.MaxUint256)

	recovered, err := permit.RecoverSigner(digest, &permit.Signature{V: payload.V, R: payload.R, S: payload.S})
	require.NoError(t, err)
	assert.Equal(t, owner, recovered)
}

func TestCreateGaslessPermitUsesPinnedSeparator(t *testing.T) {
	ctx := t.Context()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	owner := crypto.PubkeyToAddress(key.PublicKey)

	pinned := common.HexToHash("0xeb1535de0433e1aef3829afd2ac55ec7cceed66557c581c4273fbf7fc537c14a")

	reader := &fakeReader{nonce: big.NewInt(0), decimals: 6, name: "SomethingElse", version: "9"}
	constructor := newTestConstructor(reader, permit.DomainConfig{
		FallbackName:    "PYUSD",
		FallbackVersion: "1",
		PinnedSeparator: pinned,
	})

	payload, err := constructor.CreateGaslessPermit(ctx, hex.EncodeToString(crypto.FromECDSA(key)), owner, testSpender, "1", nil)
	require.NoError(t, err)

	digest := permit.PermitDigest(pinned, owner, testSpender, big.NewInt(1000000), big.NewInt(0), permit.MaxUint256)

	recovered, err := permit.RecoverSigner(digest, &permit.Signature{V: payload.V, R: payload.R, S: payload.S})
	require.NoError(t, err)
	assert.Equal(t, owner, recovered)
}
