package secrets

import "errors"

var (
	ErrSecretTooShort   = errors.New("secrets: secret too short")
	ErrInvalidConfig    = errors.New("secrets: invalid configuration")
	ErrEncryptionFailed = errors.New("secrets: encryption failed")
	ErrDecryptionFailed = errors.New("secrets: decryption failed")
)
