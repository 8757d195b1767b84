package utils

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

const referencePrefix = "YAYA"

// GenerateReferenceCode returns a short human-readable booking reference like
// "YAYA-4821". The 4-digit space collides at scale, so callers must insert
// under a unique index and retry on duplicates (see GenerateLongReferenceCode
// for the widened fallback).
func GenerateReferenceCode() (string, error) {
	n, err := randomDigits(4)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s", referencePrefix, n), nil
}

// GenerateLongReferenceCode returns an 8-digit reference, used once the short
// space has been exhausted by collision retries.
func GenerateLongReferenceCode() (string, error) {
	n, err := randomDigits(8)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s", referencePrefix, n), nil
}

// randomDigits produces n decimal digits from crypto/rand without modulo bias.
func randomDigits(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("invalid length")
	}
	max := big.NewInt(10)
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = byte('0' + d.Int64())
	}
	return string(out), nil
}
