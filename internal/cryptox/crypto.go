// Package cryptox seals small secrets (auth tokens) for storage at rest.
//
// Keys are either random 32-byte keys or derived from a passphrase with
// argon2id. Sealed values are AES-256-GCM: nonce || ciphertext || tag.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"

	"github.com/dmitrijs2005/whatbmphotos/internal/common"
	"golang.org/x/crypto/argon2"
)

// KeySize is the length of keys accepted by Seal and Open.
const KeySize = 32

// ErrMalformed is returned by Open when the input is too short to contain a
// nonce, or when authentication fails.
var ErrMalformed = errors.New("malformed sealed value")

// DeriveMasterKey derives a 32-byte key from password and salt with argon2id.
func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, KeySize)
}

// NewKey returns a fresh random key.
func NewKey() []byte {
	return common.GenerateRandByteArray(KeySize)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Seal encrypts plaintext with key. additional is bound to the ciphertext
// but not stored; the same value must be passed to Open. Callers use the
// storage key name so a value cannot be moved to another slot.
func Seal(key, plaintext, additional []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := common.GenerateRandByteArray(aead.NonceSize())
	return aead.Seal(nonce, nonce, plaintext, additional), nil
}

// Open reverses Seal.
func Open(key, sealed, additional []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(sealed) < aead.NonceSize() {
		return nil, ErrMalformed
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, additional)
	if err != nil {
		return nil, ErrMalformed
	}
	return plaintext, nil
}
