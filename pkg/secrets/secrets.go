package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

const (
	separator    = "."
	segmentCount = 4
)

var encoding = base64.StdEncoding

// Engine encrypts and decrypts payloads into the salt.iv.tag.ciphertext envelope.
// It holds only read-only state and is safe for concurrent use.
type Engine struct {
	secret []byte
	cfg    Config
}

// New creates an Engine. The secret is copied.
func New(secret []byte, cfg Config) (*Engine, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: need at least %d bytes, got %d", ErrSecretTooShort, MinSecretLength, len(secret))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	s := make([]byte, len(secret))
	copy(s, secret)

	return &Engine{secret: s, cfg: cfg}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Encrypt derives a key from a fresh random salt and seals plaintext under a
// fresh random IV. Two calls with the same plaintext never return the same output.
func (e *Engine) Encrypt(plaintext string) (string, error) {
	salt := make([]byte, e.cfg.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("%w: read salt: %w", ErrEncryptionFailed, err)
	}
	iv := make([]byte, e.cfg.IVLength)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("%w: read iv: %w", ErrEncryptionFailed, err)
	}

	aead, err := e.aead(salt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncryptionFailed, err)
	}

	sealed := aead.Seal(nil, iv, []byte(plaintext), nil)
	split := len(sealed) - e.cfg.TagLength
	ciphertext, tag := sealed[:split], sealed[split:]

	return strings.Join([]string{
		encoding.EncodeToString(salt),
		encoding.EncodeToString(iv),
		encoding.EncodeToString(tag),
		encoding.EncodeToString(ciphertext),
	}, separator), nil
}

// Decrypt opens an envelope produced by Encrypt. Every failure, whatever its
// cause, is reported as ErrDecryptionFailed.
func (e *Engine) Decrypt(payload string) (string, error) {
	parts := strings.Split(payload, separator)
	if len(parts) != segmentCount {
		return "", ErrDecryptionFailed
	}

	salt, ok := e.segment(parts[0], e.cfg.SaltLength)
	if !ok {
		return "", ErrDecryptionFailed
	}
	iv, ok := e.segment(parts[1], e.cfg.IVLength)
	if !ok {
		return "", ErrDecryptionFailed
	}
	tag, ok := e.segment(parts[2], e.cfg.TagLength)
	if !ok {
		return "", ErrDecryptionFailed
	}
	ciphertext, err := encoding.DecodeString(parts[3])
	if err != nil {
		return "", ErrDecryptionFailed
	}

	aead, err := e.aead(salt)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

// IsValid reports whether payload decrypts successfully.
func (e *Engine) IsValid(payload string) bool {
	_, err := e.Decrypt(payload)
	return err == nil
}

// segment decodes s and checks it has exactly n bytes.
func (e *Engine) segment(s string, n int) ([]byte, bool) {
	b, err := encoding.DecodeString(s)
	if err != nil || len(b) != n {
		return nil, false
	}
	return b, true
}

func (e *Engine) aead(salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(e.secret, salt, e.cfg.ScryptN, e.cfg.ScryptR, e.cfg.ScryptP, e.cfg.KeyLength)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	defer clear(key)

	switch e.cfg.Algorithm {
	case AlgorithmChaCha20Poly1305:
		return chacha20poly1305.New(key)
	case AlgorithmXChaCha20Poly1305:
		return chacha20poly1305.NewX(key)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	switch {
	case e.cfg.TagLength != gcmTagSize:
		return cipher.NewGCMWithTagSize(block, e.cfg.TagLength)
	case e.cfg.IVLength != gcmNonceSize:
		return cipher.NewGCMWithNonceSize(block, e.cfg.IVLength)
	default:
		return cipher.NewGCM(block)
	}
}

// GenerateSecret returns MinSecretLength random bytes.
func GenerateSecret() ([]byte, error) {
	b := make([]byte, MinSecretLength)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}
	return b, nil
}
