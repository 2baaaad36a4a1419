package cookie

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

const signatureSeparator = "|"

var b64 = base64.URLEncoding

// signer produces base64url(value)|base64url(hmac-sha256(name, value)).
// The MAC binds the cookie name so a value cannot be replayed under another
// name. The first key signs; every key verifies.
type signer struct {
	keys [][]byte
}

func newSigner(secrets []string) signer {
	keys := make([][]byte, len(secrets))
	for i, s := range secrets {
		keys[i] = []byte(s)
	}
	return signer{keys: keys}
}

func (s signer) mac(key []byte, name, value string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(name))
	h.Write([]byte{0})
	h.Write([]byte(value))
	return h.Sum(nil)
}

func (s signer) sign(name, value string) string {
	return b64.EncodeToString([]byte(value)) + signatureSeparator + b64.EncodeToString(s.mac(s.keys[0], name, value))
}

func (s signer) verify(name, signed string) (string, error) {
	encoded, sig, ok := strings.Cut(signed, signatureSeparator)
	if !ok {
		return "", ErrMalformed
	}
	raw, err := b64.DecodeString(encoded)
	if err != nil {
		return "", ErrMalformed
	}
	want, err := b64.DecodeString(sig)
	if err != nil {
		return "", ErrBadSignature
	}

	value := string(raw)
	for _, key := range s.keys {
		if hmac.Equal(want, s.mac(key, name, value)) {
			return value, nil
		}
	}
	return "", ErrBadSignature
}
