package core

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"strings"
)

// RandomIDGenerator draws fixed-width numeric ids from crypto/rand.
type RandomIDGenerator struct {
	Reader io.Reader
}

func (g RandomIDGenerator) Next(digits int) (AssetID, error) {
	if digits <= 0 || digits > maxGenerationDigits {
		return "", fmt.Errorf("%w: digits must be between 1 and %d", ErrInvalidInput, maxGenerationDigits)
	}
	reader := g.Reader
	if reader == nil {
		reader = rand.Reader
	}
	var b strings.Builder
	b.Grow(digits)
	ten := big.NewInt(10)
	for range digits {
		n, err := rand.Int(reader, ten)
		if err != nil {
			return "", fmt.Errorf("core: draw asset id digit: %w", err)
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return AssetID(b.String()), nil
}

// ContentAssetID returns the lowercase hex SHA-256 digest of r.
func ContentAssetID(r io.Reader) (AssetID, error) {
	if r == nil {
		return "", fmt.Errorf("%w: content reader is required", ErrInvalidInput)
	}
	hasher := sha256.New()
	if _, err := io.Copy(hasher, r); err != nil {
		return "", fmt.Errorf("core: hash asset content: %w", err)
	}
	return AssetID(hex.EncodeToString(hasher.Sum(nil))), nil
}
