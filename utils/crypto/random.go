package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math/big"
)

const (
	// ResetTokenBytes is the entropy of a password-reset token before hex encoding
	ResetTokenBytes = 20

	// DefaultPasswordLength is the length of generated initial credentials
	DefaultPasswordLength = 12
)

// Ambiguous glyphs (0/O, 1/l/I) are left out so mailed passwords can be typed back.
const (
	lowerChars  = "abcdefghijkmnopqrstuvwxyz"
	upperChars  = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	digitChars  = "23456789"
	symbolChars = "!@#$%*?"
)

var ErrPasswordLength = errors.New("generated password must be at least 8 characters")

// RandomBytes returns n cryptographically secure random bytes
func RandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return buf, nil
}

// RandomHex returns n random bytes hex-encoded (2n characters)
func RandomHex(n int) (string, error) {
	buf, err := RandomBytes(n)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// NewResetToken generates a password-reset token
func NewResetToken() (string, error) {
	return RandomHex(ResetTokenBytes)
}

// RandomPassword generates a password containing at least one lower-case letter,
// one upper-case letter, one digit and one symbol.
func RandomPassword(length int) (string, error) {
	if length < 8 {
		return "", ErrPasswordLength
	}

	classes := []string{lowerChars, upperChars, digitChars, symbolChars}
	all := lowerChars + upperChars + digitChars + symbolChars

	out := make([]byte, length)
	for i := range out {
		set := all
		if i < len(classes) {
			set = classes[i]
		}
		ch, err := pick(set)
		if err != nil {
			return "", err
		}
		out[i] = ch
	}

	// Shuffle so the guaranteed classes are not always in front.
	for i := len(out) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", fmt.Errorf("failed to shuffle password: %w", err)
		}
		out[i], out[j.Int64()] = out[j.Int64()], out[i]
	}

	return string(out), nil
}

func pick(set string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, fmt.Errorf("failed to pick random character: %w", err)
	}
	return set[n.Int64()], nil
}
