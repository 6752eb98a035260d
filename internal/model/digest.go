package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// DigestLen is the length of a hex-encoded SHA-256 digest.
const DigestLen = sha256.Size * 2

// Digest is the lowercase hex SHA-256 of a blob's bytes. It doubles as the
// blob's file name inside the library.
type Digest string

// ParseDigest validates s as a lowercase hex SHA-256 digest.
func ParseDigest(s string) (Digest, error) {
	if len(s) != DigestLen {
		return "", fmt.Errorf("invalid digest %q: want %d hex characters, got %d", s, DigestLen, len(s))
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", fmt.Errorf("invalid digest %q: character %q is not lowercase hex", s, c)
		}
	}
	return Digest(s), nil
}

// DigestOf hashes everything readable from r.
func DigestOf(r io.Reader) (Digest, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return Digest(hex.EncodeToString(h.Sum(nil))), nil
}

// DigestBytes hashes b.
func DigestBytes(b []byte) Digest {
	sum := sha256.Sum256(b)
	return Digest(hex.EncodeToString(sum[:]))
}

// String returns the hex form.
func (d Digest) String() string {
	return string(d)
}
