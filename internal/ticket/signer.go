package ticket

import (
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Signer produces a keyed BLAKE2b-256 digest of an artifact so gate
// scanners holding the same key can tell a printed ticket was issued here.
type Signer struct {
	key []byte
}

// NewSigner returns a Signer for key, or nil when key is empty.  Keys longer
// than 64 bytes are rejected by BLAKE2b.
func NewSigner(key []byte) (*Signer, error) {
	if len(key) == 0 {
		return nil, nil
	}
	if len(key) > blake2b.Size {
		return nil, fmt.Errorf("signing key must be at most %d bytes, got %d", blake2b.Size, len(key))
	}
	return &Signer{key: append([]byte(nil), key...)}, nil
}

// Sign returns the hex digest of payload.
func (s *Signer) Sign(payload []byte) string {
	h, err := blake2b.New256(s.key)
	if err != nil {
		// key length is checked in NewSigner
		panic(err)
	}
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// Verify reports whether sig matches payload.
func (s *Signer) Verify(payload []byte, sig string) bool {
	want, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	got, _ := hex.DecodeString(s.Sign(payload))
	return subtle.ConstantTimeCompare(got, want) == 1
}
