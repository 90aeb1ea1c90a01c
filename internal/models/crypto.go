package models

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"os"

	"golang.org/x/crypto/hkdf"
)

// SecretKeyEnv names the environment variable holding the at-rest key.
const SecretKeyEnv = "LIFTLOG_SECRET_KEY"

// ErrNoSecretKey is returned when encryption is needed but no key is set.
var ErrNoSecretKey = errors.New(SecretKeyEnv + " not set")

// secretKey derives a 32-byte AES-256 key from LIFTLOG_SECRET_KEY with HKDF.
func secretKey() []byte {
	key := os.Getenv(SecretKeyEnv)
	if key == "" {
		return nil
	}
	h := hkdf.New(sha256.New, []byte(key), []byte("liftlog-secrets-v1"), []byte("aes-256-gcm"))
	derived := make([]byte, 32)
	if _, err := io.ReadFull(h, derived); err != nil {
		return nil
	}
	return derived
}

func newGCM() (cipher.AEAD, error) {
	key := secretKey()
	if key == nil {
		return nil, ErrNoSecretKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func encryptValue(plaintext string) (string, error) {
	gcm, err := newGCM()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func decryptValue(encoded string) (string, error) {
	gcm, err := newGCM()
	if err != nil {
		return "", err
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	if len(raw) < gcm.NonceSize() {
		return "", errors.New("ciphertext too short")
	}
	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
