package relayer

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/scrypt"
)

// KeystoreJSON is the Ethereum keystore v3 structure used to hold the
// relayer private key at rest.
//
//nolint:revive // KeystoreJSON is the standard name for Ethereum keystore JSON structure
type KeystoreJSON struct {
	Version int    `json:"version"`
	ID      string `json:"id"`
	Crypto  struct {
		Ciphertext   string `json:"ciphertext"`
		CipherParams struct {
			IV string `json:"iv"`
		} `json:"cipherparams"`
		Cipher    string `json:"cipher"`
		KDF       string `json:"kdf"`
		KDFParams struct {
			DKLen int    `json:"dklen"`
			Salt  string `json:"salt"`
			N     int    `json:"n"`
			R     int    `json:"r"`
			P     int    `json:"p"`
		} `json:"kdfparams"`
		MAC string `json:"mac"`
	} `json:"crypto"`
}

const (
	scryptDKLen = 32
	scryptN     = 262144
	scryptR     = 8
	scryptP     = 1

	keystoreVersion = 3
	saltSize        = 32
	ivSize          = 16 // AES-128-CTR requires a 16-byte IV
)

// EncryptKey encrypts a hex private key into keystore v3 form.
func EncryptKey(privateKeyHex string, password string) (*KeystoreJSON, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, errors.Wrap(err, "failed to generate salt")
	}

	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, errors.Wrap(err, "failed to generate IV")
	}

	derivedKey, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, scryptDKLen)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive key")
	}

	ciphertext, err := runAES128CTR(derivedKey[:16], iv, []byte(privateKeyHex))
	if err != nil {
		return nil, errors.Wrap(err, "failed to encrypt key")
	}

	mac := calculateMAC(derivedKey[16:32], ciphertext)

	ks := &KeystoreJSON{
		Version: keystoreVersion,
		ID:      uuid.New().String(),
	}

	ks.Crypto.Ciphertext = hex.EncodeToString(ciphertext)
	ks.Crypto.CipherParams.IV = hex.EncodeToString(iv)
	ks.Crypto.Cipher = "aes-128-ctr"
	ks.Crypto.KDF = "scrypt"
	ks.Crypto.KDFParams.DKLen = scryptDKLen
	ks.Crypto.KDFParams.Salt = hex.EncodeToString(salt)
	ks.Crypto.KDFParams.N = scryptN
	ks.Crypto.KDFParams.R = scryptR
	ks.Crypto.KDFParams.P = scryptP
	ks.Crypto.MAC = hex.EncodeToString(mac)

	return ks, nil
}

// DecryptKey recovers the hex private key from keystore v3 form.
func DecryptKey(ks *KeystoreJSON, password string) (string, error) {
	salt, err := hex.DecodeString(ks.Crypto.KDFParams.Salt)
	if err != nil {
		return "", errors.Wrap(err, "failed to decode salt")
	}

	iv, err := hex.DecodeString(ks.Crypto.CipherParams.IV)
	if err != nil {
		return "", errors.Wrap(err, "failed to decode IV")
	}

	ciphertext, err := hex.DecodeString(ks.Crypto.Ciphertext)
	if err != nil {
		return "", errors.Wrap(err, "failed to decode ciphertext")
	}

	expectedMAC, err := hex.DecodeString(ks.Crypto.MAC)
	if err != nil {
		return "", errors.Wrap(err, "failed to decode MAC")
	}

	derivedKey, err := scrypt.Key(
		[]byte(password),
		salt,
		ks.Crypto.KDFParams.N,
		ks.Crypto.KDFParams.R,
		ks.Crypto.KDFParams.P,
		ks.Crypto.KDFParams.DKLen,
	)
	if err != nil {
		return "", errors.Wrap(err, "failed to derive key")
	}

	mac := calculateMAC(derivedKey[16:32], ciphertext)
	if !constantTimeCompare(mac, expectedMAC) {
		return "", errors.New("invalid password: MAC mismatch")
	}

	plaintext, err := runAES128CTR(derivedKey[:16], iv, ciphertext)
	if err != nil {
		return "", errors.Wrap(err, "failed to decrypt key")
	}

	return string(plaintext), nil
}

// WriteKeystoreFile encrypts the key and writes it to path with owner-only
// permissions.
func WriteKeystoreFile(path, privateKeyHex, password string) error {
	ks, err := EncryptKey(privateKeyHex, password)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(ks, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal keystore")
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrap(err, "failed to write keystore file")
	}

	return nil
}

// LoadKeyFromFile reads and decrypts a keystore file.
func LoadKeyFromFile(path, password string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(err, "failed to read keystore file")
	}

	var ks KeystoreJSON
	if err := json.Unmarshal(data, &ks); err != nil {
		return "", errors.Wrap(err, "failed to parse keystore file")
	}

	return DecryptKey(&ks, password)
}

// runAES128CTR encrypts or decrypts (CTR mode is symmetric).
//
//nolint:varnamelen // iv is a common abbreviation for initialization vector
func runAES128CTR(key []byte, iv []byte, input []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cipher")
	}

	output := make([]byte, len(input))
	stream := cipher.NewCTR(block, iv)
	stream.XORKeyStream(output, input)

	return output, nil
}

// calculateMAC calculates SHA-256(derivedKey[16:32] + ciphertext).
func calculateMAC(key []byte, ciphertext []byte) []byte {
	h := sha256.New()
	h.Write(key)
	h.Write(ciphertext)

	return h.Sum(nil)
}

// constantTimeCompare performs constant-time comparison of two byte slices.
//
//nolint:varnamelen // a and b are standard parameter names for comparison functions
func constantTimeCompare(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}

	result := 0
	for i := 0; i < len(a); i++ {
		result |= int(a[i] ^ b[i])
	}

	return result == 0
}
