package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Character classes for generated temporary passwords. Visually ambiguous
// glyphs (I, O, l, 0, 1) are excluded because these passwords are read out of
// an email and typed by hand.
const (
	tempPasswordUpper   = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	tempPasswordLower   = "abcdefghijkmnopqrstuvwxyz"
	tempPasswordDigits  = "23456789"
	tempPasswordSymbols = "!@#$%^&*_-+=?"

	// minTempPasswordLength is the floor applied to requested lengths.
	minTempPasswordLength = 8
)

// GenerateTempPassword produces a temporary password of max(length, 8)
// characters containing at least one uppercase letter, one lowercase letter,
// one digit, and one symbol from the fixed sets above.
//
// These credentials are handed to end users as initial secrets, so both
// character selection and the final shuffle use crypto/rand.
func GenerateTempPassword(length int) (string, error) {
	if length < minTempPasswordLength {
		length = minTempPasswordLength
	}

	all := tempPasswordUpper + tempPasswordLower + tempPasswordDigits + tempPasswordSymbols

	chars := make([]byte, 0, length)
	for _, set := range []string{tempPasswordUpper, tempPasswordLower, tempPasswordDigits, tempPasswordSymbols} {
		c, err := pickRandom(set)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}
	for len(chars) < length {
		c, err := pickRandom(all)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}

	// Fisher-Yates so the guaranteed class characters don't sit at fixed
	// positions.
	for i := len(chars) - 1; i > 0; i-- {
		j, err := randomInt(i + 1)
		if err != nil {
			return "", err
		}
		chars[i], chars[j] = chars[j], chars[i]
	}

	return string(chars), nil
}

func pickRandom(set string) (byte, error) {
	i, err := randomInt(len(set))
	if err != nil {
		return 0, err
	}
	return set[i], nil
}

func randomInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("secure random source unavailable: %w", err)
	}
	return int(v.Int64()), nil
}
