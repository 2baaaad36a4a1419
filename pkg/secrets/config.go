package secrets

import (
	"github.com/dmitrymomot/sessionguard/core/config"
)

// Supported algorithm identifiers.
const (
	AlgorithmAES128GCM         = "aes-128-gcm"
	AlgorithmAES192GCM         = "aes-192-gcm"
	AlgorithmAES256GCM         = "aes-256-gcm"
	AlgorithmChaCha20Poly1305  = "chacha20-poly1305"
	AlgorithmXChaCha20Poly1305 = "xchacha20-poly1305"
)

const (
	// MinSecretLength is the minimum accepted length of the static secret.
	MinSecretLength = 32

	minSaltLength = 16
	gcmNonceSize  = 12
	gcmTagSize    = 16
	minGCMTagSize = 12
	minGCMIVSize  = 12
	scryptMaxRP   = 1 << 30
)

// Config describes the envelope layout and key derivation cost.
// Lengths are in bytes.
type Config struct {
	Algorithm  string `env:"ENCRYPTION_ALGORITHM" envDefault:"aes-256-gcm"`
	KeyLength  int    `env:"ENCRYPTION_KEY_LENGTH" envDefault:"32"`
	IVLength   int    `env:"ENCRYPTION_IV_LENGTH" envDefault:"12"`
	SaltLength int    `env:"ENCRYPTION_SALT_LENGTH" envDefault:"32"`
	TagLength  int    `env:"ENCRYPTION_TAG_LENGTH" envDefault:"16"`
	ScryptN    int    `env:"ENCRYPTION_SCRYPT_N" envDefault:"16384"`
	ScryptR    int    `env:"ENCRYPTION_SCRYPT_R" envDefault:"8"`
	ScryptP    int    `env:"ENCRYPTION_SCRYPT_P" envDefault:"1"`
}

// DefaultConfig returns aes-256-gcm with a 12-byte IV, 32-byte salt,
// 16-byte tag and scrypt N=2^14, r=8, p=1.
func DefaultConfig() Config {
	return Config{
		Algorithm:  AlgorithmAES256GCM,
		KeyLength:  32,
		IVLength:   gcmNonceSize,
		SaltLength: 32,
		TagLength:  gcmTagSize,
		ScryptN:    1 << 14,
		ScryptR:    8,
		ScryptP:    1,
	}
}

// keyLengths maps algorithms to their required key size.
var keyLengths = map[string]int{
	AlgorithmAES128GCM:         16,
	AlgorithmAES192GCM:         24,
	AlgorithmAES256GCM:         32,
	AlgorithmChaCha20Poly1305:  32,
	AlgorithmXChaCha20Poly1305: 32,
}

func isGCM(alg string) bool {
	switch alg {
	case AlgorithmAES128GCM, AlgorithmAES192GCM, AlgorithmAES256GCM:
		return true
	}
	return false
}

// Validate checks the configuration and returns a *config.ValidationError
// listing every violation, or nil.
func (c Config) Validate() error {
	var v config.ValidationError

	want, known := keyLengths[c.Algorithm]
	if !known {
		v.Addf("ENCRYPTION_ALGORITHM: unsupported algorithm %q", c.Algorithm)
	} else if c.KeyLength != want {
		v.Addf("ENCRYPTION_KEY_LENGTH: %s requires %d bytes, got %d", c.Algorithm, want, c.KeyLength)
	}

	if c.SaltLength < minSaltLength {
		v.Addf("ENCRYPTION_SALT_LENGTH: must be at least %d bytes, got %d", minSaltLength, c.SaltLength)
	}

	switch {
	case isGCM(c.Algorithm):
		if c.IVLength < minGCMIVSize {
			v.Addf("ENCRYPTION_IV_LENGTH: must be at least %d bytes, got %d", minGCMIVSize, c.IVLength)
		}
		if c.TagLength < minGCMTagSize || c.TagLength > gcmTagSize {
			v.Addf("ENCRYPTION_TAG_LENGTH: must be between %d and %d bytes, got %d", minGCMTagSize, gcmTagSize, c.TagLength)
		}
		if c.IVLength != gcmNonceSize && c.TagLength != gcmTagSize {
			v.Addf("ENCRYPTION_IV_LENGTH/ENCRYPTION_TAG_LENGTH: a non-standard IV length and tag length cannot be combined")
		}
	case c.Algorithm == AlgorithmChaCha20Poly1305:
		if c.IVLength != 12 {
			v.Addf("ENCRYPTION_IV_LENGTH: %s requires 12 bytes, got %d", c.Algorithm, c.IVLength)
		}
		if c.TagLength != 16 {
			v.Addf("ENCRYPTION_TAG_LENGTH: %s requires 16 bytes, got %d", c.Algorithm, c.TagLength)
		}
	case c.Algorithm == AlgorithmXChaCha20Poly1305:
		if c.IVLength != 24 {
			v.Addf("ENCRYPTION_IV_LENGTH: %s requires 24 bytes, got %d", c.Algorithm, c.IVLength)
		}
		if c.TagLength != 16 {
			v.Addf("ENCRYPTION_TAG_LENGTH: %s requires 16 bytes, got %d", c.Algorithm, c.TagLength)
		}
	}

	if c.ScryptN <= 1 || c.ScryptN&(c.ScryptN-1) != 0 {
		v.Addf("ENCRYPTION_SCRYPT_N: must be a power of two greater than 1, got %d", c.ScryptN)
	}
	if c.ScryptR <= 0 || c.ScryptP <= 0 {
		v.Addf("ENCRYPTION_SCRYPT_R/ENCRYPTION_SCRYPT_P: must be positive, got r=%d p=%d", c.ScryptR, c.ScryptP)
	} else if uint64(c.ScryptR)*uint64(c.ScryptP) >= scryptMaxRP {
		v.Addf("ENCRYPTION_SCRYPT_R/ENCRYPTION_SCRYPT_P: r*p must be below 2^30")
	}

	return v.Err()
}
