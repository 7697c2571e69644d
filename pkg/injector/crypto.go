package injector

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// At-rest credential encryption: AES-256-GCM with a scrypt-derived key and
// a fresh random nonce per encryption. The encoded form is
// nonce:authTag:ciphertext, each component base64.
const (
	gcmNonceSize = 12
	gcmTagSize   = 16
	keySize      = 32

	scryptN = 32768
	scryptR = 8
	scryptP = 1
)

// keySalt is fixed so that the three-part encoding stays self-contained;
// rotating it invalidates every stored payload.
var keySalt = []byte("waflow.credentials.v1")

// ErrDecryptionFailed is returned when the ciphertext is malformed, was
// tampered with, or the passphrase is wrong. Decryption fails closed and
// never returns corrupted plaintext.
var ErrDecryptionFailed = errors.New("credential decryption failed")

func deriveKey(passphrase string) ([]byte, error) {
	return scrypt.Key([]byte(passphrase), keySalt, scryptN, scryptR, scryptP, keySize)
}

// EncryptCredential encrypts a credential payload for persistence.
func EncryptCredential(plaintext, passphrase string) (string, error) {
	key, err := deriveKey(passphrase)
	if err != nil {
		return "", fmt.Errorf("key derivation failed: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("cipher setup failed: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("cipher setup failed: %w", err)
	}

	nonce := make([]byte, gcmNonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce generation failed: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)

	// Seal appends the auth tag to the ciphertext; split them so the
	// encoding matches the nonce:authTag:ciphertext contract.
	ciphertext := sealed[:len(sealed)-gcmTagSize]
	tag := sealed[len(sealed)-gcmTagSize:]

	encode := base64.StdEncoding.EncodeToString

	return encode(nonce) + ":" + encode(tag) + ":" + encode(ciphertext), nil
}

// DecryptCredential reverses EncryptCredential. Any malformed component,
// authentication failure or wrong passphrase yields ErrDecryptionFailed.
func DecryptCredential(encoded, passphrase string) (string, error) {
	parts := strings.Split(encoded, ":")
	if len(parts) != 3 {
		return "", ErrDecryptionFailed
	}

	nonce, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil || len(nonce) != gcmNonceSize {
		return "", ErrDecryptionFailed
	}

	tag, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil || len(tag) != gcmTagSize {
		return "", ErrDecryptionFailed
	}

	ciphertext, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return "", ErrDecryptionFailed
	}

	key, err := deriveKey(passphrase)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	plaintext, err := gcm.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	return string(plaintext), nil
}
