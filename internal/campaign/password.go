package campaign

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Password character classes. Visually ambiguous characters (0/O, 1/l/I, |)
// are excluded: these passwords get read aloud and typed from printed
// handouts at events.
const (
	passwordUpper   = "ABCDEFGHJKMNPQRSTUVWXYZ"
	passwordLower   = "abcdefghijkmnpqrstuvwxyz"
	passwordDigits  = "23456789"
	passwordSymbols = "!@#$%^&*-_=+"
)

// GeneratePassword returns a random password of the given length containing
// at least one character from each class. The result is surfaced once in the
// provisioning report and never persisted.
func GeneratePassword(length int) (string, error) {
	if length < 12 {
		return "", fmt.Errorf("password length %d is below the minimum of 12", length)
	}

	classes := []string{passwordUpper, passwordLower, passwordDigits, passwordSymbols}
	all := passwordUpper + passwordLower + passwordDigits + passwordSymbols

	chars := make([]byte, 0, length)
	for _, class := range classes {
		c, err := randomFrom(class)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}
	for len(chars) < length {
		c, err := randomFrom(all)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}

	// Fisher-Yates so the guaranteed class characters are not predictably
	// positioned at the front.
	for i := len(chars) - 1; i > 0; i-- {
		j, err := randomIndex(i + 1)
		if err != nil {
			return "", err
		}
		chars[i], chars[j] = chars[j], chars[i]
	}

	return string(chars), nil
}

func randomFrom(alphabet string) (byte, error) {
	i, err := randomIndex(len(alphabet))
	if err != nil {
		return 0, err
	}
	return alphabet[i], nil
}

func randomIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("reading random bytes: %w", err)
	}
	return int(v.Int64()), nil
}
