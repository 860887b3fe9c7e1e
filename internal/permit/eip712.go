package permit

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// PermitTypehash is keccak256 of the canonical EIP-2612 Permit type string.
var PermitTypehash = crypto.Keccak256Hash(
	[]byte("Permit(address owner,address spender,uint256 value,uint256 nonce,uint256 deadline)"),
)

var eip712DomainTypehash = crypto.Keccak256Hash(
	[]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"),
)

// MaxUint256 is the sentinel used for infinite permit deadlines.
var MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

const abiWordSize = 32

// DomainSeparator computes the EIP-712 domain separator binding a permit
// signature to one token contract on one chain.
func DomainSeparator(name, version string, chainID *big.Int, verifyingContract common.Address) common.Hash {
	enc := make([]byte, 0, 5*abiWordSize)
	enc = append(enc, eip712DomainTypehash.Bytes()...)
	enc = append(enc, crypto.Keccak256([]byte(name))...)
	enc = append(enc, crypto.Keccak256([]byte(version))...)
	enc = append(enc, common.BigToHash(chainID).Bytes()...)
	enc = append(enc, common.LeftPadBytes(verifyingContract.Bytes(), abiWordSize)...)

	return crypto.Keccak256Hash(enc)
}

// PermitDigest computes the final signable digest
// keccak256(0x1901 || domainSeparator || structHash) for the given permit parameters.
func PermitDigest(domainSeparator common.Hash, owner, spender common.Address, value, nonce, deadline *big.Int) common.Hash {
	enc := make([]byte, 0, 6*abiWordSize)
	enc = append(enc, PermitTypehash.Bytes()...)
	enc = append(enc, common.LeftPadBytes(owner.Bytes(), abiWordSize)...)
	enc = append(enc, common.LeftPadBytes(spender.Bytes(), abiWordSize)...)
	enc = append(enc, common.BigToHash(value).Bytes()...)
	enc = append(enc, common.BigToHash(nonce).Bytes()...)
	enc = append(enc, common.BigToHash(deadline).Bytes()...)

	structHash := crypto.Keccak256(enc)

	return crypto.Keccak256Hash([]byte{0x19, 0x01}, domainSeparator.Bytes(), structHash)
}
