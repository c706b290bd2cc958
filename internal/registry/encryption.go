package registry

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"

	"golang.org/x/crypto/pbkdf2"
)

const (
	encryptionSalt   = "satbridge-subs-v1"
	encryptionIters  = 100000
	encryptionKeyLen = 32
	nonceSize        = 12
)

// encryptor protects bearer tokens at rest in the subscriptions file. It is
// a no-op passthrough unless SATBRIDGE_SUBS_KEY is set.
type encryptor struct {
	gcm cipher.AEAD
}

func newEncryptor() (*encryptor, error) {
	secret := os.Getenv("SATBRIDGE_SUBS_KEY")
	if secret == "" {
		return &encryptor{gcm: nil}, nil
	}
	if len(secret) < 16 {
		return nil, fmt.Errorf("SATBRIDGE_SUBS_KEY must be at least 16 characters long")
	}

	key := pbkdf2.Key([]byte(secret), []byte(encryptionSalt), encryptionIters, encryptionKeyLen, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &encryptor{gcm: gcm}, nil
}

func (e *encryptor) encrypt(plaintext string) (string, error) {
	if plaintext == "" || e.gcm == nil {
		return plaintext, nil
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := e.gcm.Seal(nil, nonce, []byte(plaintext), nil)
	result := append(nonce, ciphertext...)
	return "enc:" + base64.StdEncoding.EncodeToString(result), nil
}

func (e *encryptor) decrypt(stored string) (string, error) {
	if stored == "" || e.gcm == nil {
		return stored, nil
	}
	if len(stored) < 4 || stored[:4] != "enc:" {
		// Plaintext written before encryption was enabled.
		return stored, nil
	}

	data, err := base64.StdEncoding.DecodeString(stored[4:])
	if err != nil {
		return "", fmt.Errorf("failed to decode token: %w", err)
	}
	if len(data) < nonceSize {
		return "", fmt.Errorf("stored token too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := e.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt token: %w", err)
	}
	return string(plaintext), nil
}
