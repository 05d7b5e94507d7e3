// Package secrets encrypts integration credentials at rest. Configs are
// stored as base64(nonce || AES-256-GCM ciphertext) of their JSON encoding.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrMissingKey is returned when no encryption key is configured. This is a
// configuration error: the process should refuse to start rather than store
// credentials in the clear.
var ErrMissingKey = errors.New("ENCRYPTION_KEY is not set")

// Cipher encrypts and decrypts integration config maps
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher builds a Cipher from a hex-encoded 32-byte key
func NewCipher(hexKey string) (*Cipher, error) {
	if hexKey == "" {
		return nil, ErrMissingKey
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: aead}, nil
}

// EncryptConfig serializes and encrypts an integration config map
func (c *Cipher) EncryptConfig(config map[string]interface{}) (string, error) {
	plaintext, err := json.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := c.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptConfig decrypts and deserializes an integration config blob
func (c *Cipher) DecryptConfig(encoded string) (map[string]interface{}, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("config blob is not valid base64: %w", err)
	}
	if len(sealed) < c.aead.NonceSize() {
		return nil, errors.New("config blob is too short")
	}

	nonce, ciphertext := sealed[:c.aead.NonceSize()], sealed[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt config: %w", err)
	}

	var config map[string]interface{}
	if err := json.Unmarshal(plaintext, &config); err != nil {
		return nil, fmt.Errorf("decrypted config is not valid JSON: %w", err)
	}
	return config, nil
}
