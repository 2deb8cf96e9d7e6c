// Package encryption provides field-level authenticated encryption for cost basis values.
package encryption

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/chacha20poly1305"

	apperrors "github.com/gurnoorsh/wealthwise/internal/errors"
)

// KeySize is the required key length in bytes.
const KeySize = chacha20poly1305.KeySize

const formatV1 byte = 0x01

// Encrypter encrypts a cost basis.
type Encrypter interface {
	Encrypt(plaintext decimal.Decimal) (string, error)
}

// Decrypter recovers a cost basis from ciphertext.
type Decrypter interface {
	Decrypt(ciphertext string) (decimal.Decimal, error)
}

// Cipher encrypts decimals with XChaCha20-Poly1305 under one process-wide key.
// Ciphertext layout, base64 encoded: version(1) | nonce(24) | sealed payload.
// A Cipher is immutable and safe for concurrent use.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher builds a Cipher from a raw 32-byte key.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", KeySize, len(key))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise cipher: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// NewCipherFromBase64 builds a Cipher from a standard base64 encoded key.
func NewCipherFromBase64(encoded string) (*Cipher, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid base64: %w", err)
	}
	return NewCipher(key)
}

// GenerateKey returns a fresh random key, base64 encoded.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// Encrypt seals the canonical string form of a non-negative decimal.
func (c *Cipher) Encrypt(plaintext decimal.Decimal) (string, error) {
	if plaintext.IsNegative() {
		return "", &apperrors.ErrValidation{Field: "cost_basis", Message: "must not be negative"}
	}

	nonceSize := c.aead.NonceSize()
	out := make([]byte, 1+nonceSize, 1+nonceSize+len(plaintext.String())+c.aead.Overhead())
	out[0] = formatV1
	if _, err := rand.Read(out[1:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	nonce := out[1 : 1+nonceSize]
	// The version byte is bound as associated data.
	out = c.aead.Seal(out, nonce, []byte(plaintext.String()), []byte{formatV1})
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt opens ciphertext produced by Encrypt. Every failure is a *errors.DecryptionError.
func (c *Cipher) Decrypt(ciphertext string) (decimal.Decimal, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return decimal.Zero, &apperrors.DecryptionError{Err: fmt.Errorf("malformed base64: %w", err)}
	}

	nonceSize := c.aead.NonceSize()
	if len(raw) < 1+nonceSize+c.aead.Overhead() {
		return decimal.Zero, &apperrors.DecryptionError{Err: errors.New("ciphertext too short")}
	}
	if raw[0] != formatV1 {
		return decimal.Zero, &apperrors.DecryptionError{Err: fmt.Errorf("unknown ciphertext version %d", raw[0])}
	}

	plain, err := c.aead.Open(nil, raw[1:1+nonceSize], raw[1+nonceSize:], []byte{formatV1})
	if err != nil {
		return decimal.Zero, &apperrors.DecryptionError{Err: err}
	}

	d, err := decimal.NewFromString(string(plain))
	if err != nil {
		return decimal.Zero, &apperrors.DecryptionError{Err: fmt.Errorf("plaintext is not a decimal: %w", err)}
	}
	if d.IsNegative() {
		return decimal.Zero, &apperrors.DecryptionError{Err: errors.New("plaintext is negative")}
	}
	return d, nil
}
