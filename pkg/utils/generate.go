package utils

import (
	"errors"
	"math/rand/v2"
	"strings"
)

const (
	batchRefAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	// no 0/O or 1/I, serials get read out at the box office
	serialAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	serialLength   = 8
)

var ErrBatchRefExhausted = errors.New("no free batch reference after max attempts")

// BatchRefGenerator draws short uppercase group codes, redrawing while the
// code is already taken.
type BatchRefGenerator struct {
	Alphabet    string
	Length      int
	MaxAttempts int
	intn        func(n int) int
}

func NewBatchRefGenerator(length, maxAttempts int) *BatchRefGenerator {
	if length <= 0 {
		length = 6
	}
	if maxAttempts <= 0 {
		maxAttempts = 64
	}

	return &BatchRefGenerator{
		Alphabet:    batchRefAlphabet,
		Length:      length,
		MaxAttempts: maxAttempts,
		intn:        rand.IntN,
	}
}

// Generate returns a code that is not a key of taken.
func (g *BatchRefGenerator) Generate(taken map[string]struct{}) (string, error) {
	for attempt := 0; attempt < g.MaxAttempts; attempt++ {
		code := g.draw()
		if _, exists := taken[code]; !exists {
			return code, nil
		}
	}
	return "", ErrBatchRefExhausted
}

func (g *BatchRefGenerator) draw() string {
	var b strings.Builder
	b.Grow(g.Length)
	for i := 0; i < g.Length; i++ {
		b.WriteByte(g.Alphabet[g.intn(len(g.Alphabet))])
	}
	return b.String()
}

// GenerateSerialNo returns a ticket serial number. Uniqueness is enforced by
// the bookings table; callers redraw on conflict.
func GenerateSerialNo() string {
	buf := make([]byte, serialLength)
	for i := range buf {
		buf[i] = serialAlphabet[rand.IntN(len(serialAlphabet))]
	}
	return string(buf)
}
