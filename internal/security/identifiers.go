package security

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"
)

const (
	submissionAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	digitAlphabet      = "0123456789"
	submissionPrefix   = "4T"
)

var (
	errNegativeLength = errors.New("length must be non-negative")
	errEmptyAlphabet  = errors.New("alphabet must not be empty")
)

// NewSubmissionID returns an id shaped like 4T-K7QX2M-2026-03-01.
func NewSubmissionID(now time.Time) (string, error) {
	suffix, err := RandomString(6, submissionAlphabet)
	if err != nil {
		return "", err
	}
	return strings.Join([]string{submissionPrefix, suffix, now.UTC().Format("2006-01-02")}, "-"), nil
}

// NumericCode is used for emailed password reset codes.
func NumericCode(length int) (string, error) {
	return RandomString(length, digitAlphabet)
}

// RandomString draws length characters uniformly from alphabet using crypto/rand.
func RandomString(length int, alphabet string) (string, error) {
	switch {
	case length < 0:
		return "", errNegativeLength
	case length == 0:
		return "", nil
	case alphabet == "":
		return "", errEmptyAlphabet
	}

	size := big.NewInt(int64(len(alphabet)))
	var builder strings.Builder
	builder.Grow(length)
	for builder.Len() < length {
		position, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		builder.WriteByte(alphabet[position.Int64()])
	}
	return builder.String(), nil
}
