package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// MinTokenBytes is the smallest accepted token size (160 bits).
const MinTokenBytes = 20

// TokenGenerator produces opaque, unguessable tokens.
type TokenGenerator interface {
	Generate() (string, error)
}

// RandomTokenGenerator renders size random bytes as lowercase hex, so every
// token is 2*size characters long.
type RandomTokenGenerator struct {
	size   int
	reader io.Reader
}

func NewRandomTokenGenerator(size int) *RandomTokenGenerator {
	if size < MinTokenBytes {
		size = MinTokenBytes
	}
	return &RandomTokenGenerator{size: size, reader: rand.Reader}
}

func (g *RandomTokenGenerator) Generate() (string, error) {
	buf := make([]byte, g.size)
	if _, err := io.ReadFull(g.reader, buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
