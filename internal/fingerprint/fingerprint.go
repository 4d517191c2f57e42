// Package fingerprint binds a certificate document and its canonical
// metadata into a single SHA-256 content fingerprint.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// Size is the length of a fingerprint in hex characters.
const Size = sha256.Size * 2

var ErrInvalid = errors.New("fingerprint: expected 64 hex characters")

// Fingerprint is the lowercase hex SHA-256 digest of document bytes followed
// by canonical metadata bytes.
type Fingerprint string

// Bind hashes document || canonicalMetadata with no separator. Changing any
// byte of either input changes the result.
func Bind(document, canonicalMetadata []byte) Fingerprint {
	h := sha256.New()
	h.Write(document)
	h.Write(canonicalMetadata)
	return Fingerprint(hex.EncodeToString(h.Sum(nil)))
}

// Parse accepts a fingerprint with or without a 0x prefix, in any case, and
// returns its normalized form.
func Parse(s string) (Fingerprint, error) {
	n := normalize(s)
	if len(n) != Size {
		return "", ErrInvalid
	}
	if _, err := hex.DecodeString(n); err != nil {
		return "", ErrInvalid
	}
	return Fingerprint(n), nil
}

// FromBytes32 converts a raw 32 byte digest, as stored on the ledger.
func FromBytes32(b [32]byte) Fingerprint {
	return Fingerprint(hex.EncodeToString(b[:]))
}

// Equal compares two fingerprints after normalizing prefix and case.
func Equal(a, b string) bool {
	na, nb := normalize(a), normalize(b)
	return len(na) == Size && na == nb
}

func (f Fingerprint) String() string {
	return string(f)
}

// Hex0x returns the 0x prefixed form used in ledger calls.
func (f Fingerprint) Hex0x() string {
	return "0x" + string(f)
}

// Bytes32 decodes the fingerprint. The zero array is returned for values that
// did not come from Bind or Parse.
func (f Fingerprint) Bytes32() [32]byte {
	var out [32]byte
	raw, err := hex.DecodeString(normalize(string(f)))
	if err != nil || len(raw) != len(out) {
		return out
	}
	copy(out[:], raw)
	return out
}

// IsZero reports whether the fingerprint is empty or all zero bytes. The
// ledger returns the zero digest for unknown certificate ids.
func (f Fingerprint) IsZero() bool {
	return f == "" || f.Bytes32() == [32]byte{}
}

func normalize(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	return strings.ToLower(s)
}
