// Package secrets provides authenticated symmetric encryption of session
// payloads with a per-operation derived key.
//
// Every call to Encrypt draws a fresh random salt and IV, derives a key from
// the static secret and the salt with scrypt, and seals the plaintext with an
// AEAD cipher. The result is a transport string of four standard base64
// segments joined with dots:
//
//	base64(salt).base64(iv).base64(tag).base64(ciphertext)
//
// # Usage
//
//	engine, err := secrets.New(secret, secrets.DefaultConfig())
//	if err != nil {
//		return err
//	}
//
//	payload, err := engine.Encrypt(token)
//	// ...
//	token, err := engine.Decrypt(payload)
//
// # Algorithms
//
// Supported identifiers are aes-128-gcm, aes-192-gcm, aes-256-gcm,
// chacha20-poly1305 and xchacha20-poly1305. The configured key length must
// match the algorithm. AES-GCM accepts either a non-standard IV length or a
// non-standard tag length, not both.
//
// # Key derivation cost
//
// scrypt runs on every Encrypt and Decrypt. With the default parameters
// (N=2^14, r=8, p=1) this costs roughly 16 MiB and tens of milliseconds per
// call, which callers should budget for on the request path.
//
// # Error Handling
//
// Decrypt returns ErrDecryptionFailed for a wrong segment count, a segment
// of the wrong decoded length, invalid base64 and an authentication tag
// mismatch alike, so callers cannot tell which check failed.
package secrets
