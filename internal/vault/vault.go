// Package vault encrypts stored credentials with AES-256-GCM.
//
// The ciphertext format is "hex(nonce):hex(tag):hex(payload)" with a 16-byte
// nonce, so values written by earlier installations keep decrypting.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/spigell/jobai/internal/apperr"
	"go.uber.org/zap"
)

const (
	nonceSize = 16
	tagSize   = 16
	keyHexLen = 64
	separator = ":"
)

// Vault encrypts and decrypts credential values with a single key.
type Vault struct {
	key    []byte
	logger *zap.Logger
}

// New derives a 32-byte key from secret. A secret of at least 64 hex characters
// is used directly; anything else is hashed with SHA-256.
func New(secret string, logger *zap.Logger) *Vault {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Vault{key: deriveKey(secret), logger: logger}
}

func deriveKey(secret string) []byte {
	if len(secret) >= keyHexLen {
		if key, err := hex.DecodeString(secret[:keyHexLen]); err == nil {
			return key
		}
	}

	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}

// Encrypt seals plaintext with a fresh random nonce.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	gcm, err := v.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w: %w", apperr.ErrEncryption, err)
	}

	// Seal returns payload || tag.
	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	payload, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	return strings.Join([]string{
		hex.EncodeToString(nonce),
		hex.EncodeToString(tag),
		hex.EncodeToString(payload),
	}, separator), nil
}

// Decrypt opens a value produced by Encrypt. Values that are not in the
// three-part format are returned unchanged. Any failure to open a well-formed
// value yields "" and a warning; Decrypt never fails loudly.
func (v *Vault) Decrypt(ciphertext string) string {
	if ciphertext == "" {
		return ""
	}

	parts := strings.Split(ciphertext, separator)
	if len(parts) != 3 {
		return ciphertext
	}

	plaintext, err := v.open(parts)
	if err != nil {
		v.logger.Warn("decrypting credential failed", zap.Error(err))
		return ""
	}

	return plaintext
}

func (v *Vault) open(parts []string) (string, error) {
	nonce, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("decode nonce: %w", err)
	}
	if len(nonce) != nonceSize {
		return "", fmt.Errorf("unexpected nonce size %d", len(nonce))
	}

	tag, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("decode tag: %w", err)
	}

	payload, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", fmt.Errorf("decode payload: %w", err)
	}

	gcm, err := v.gcm()
	if err != nil {
		return "", err
	}

	plaintext, err := gcm.Open(nil, nonce, append(payload, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("gcm open: %w", err)
	}

	return string(plaintext), nil
}

func (v *Vault) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(v.key)
	if err != nil {
		return nil, fmt.Errorf("aes cipher: %w: %w", apperr.ErrEncryption, err)
	}

	gcm, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w: %w", apperr.ErrEncryption, err)
	}

	return gcm, nil
}

// IsEncrypted reports whether text looks like a value produced by Encrypt:
// three colon-separated parts whose first two are 32 hex characters long.
func IsEncrypted(text string) bool {
	parts := strings.Split(text, separator)
	if len(parts) != 3 {
		return false
	}

	for _, part := range parts[:2] {
		if len(part) != nonceSize*2 {
			return false
		}
		if _, err := hex.DecodeString(part); err != nil {
			return false
		}
	}

	return true
}
