package content

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// Hash is a content hash. The empty hash stands for absent content.
type Hash []byte

// ParseHash decodes a hex encoded hash. The empty string decodes to the empty hash.
func ParseHash(s string) (Hash, error) {
	if s == "" {
		return Hash{}, nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	return Hash(b), nil
}

// IsEmpty reports whether the hash denotes absent content.
func (h Hash) IsEmpty() bool {
	return len(h) == 0
}

// Equal compares two hashes; nil and empty are equal.
func (h Hash) Equal(other []byte) bool {
	return bytes.Equal(h, other)
}

// String returns the hex form of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h)
}

// MarshalText implements encoding.TextMarshaler.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(h)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
