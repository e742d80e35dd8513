package rng

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"hash"
	"math"
)

// Seeds is a server/client seed pair. Both are used as ASCII; the server
// seed is never hex-decoded.
type Seeds struct {
	Server string `json:"server" validate:"required"`
	Client string `json:"client"`
}

// ByteGenerator streams HMAC-SHA256 output for one (seeds, nonce) pair.
// Each 32-byte round is HMAC(server, "client:nonce:round").
type ByteGenerator struct {
	mac        hash.Hash
	clientSeed string
	nonce      uint64
	round      uint64
	pos        int
	buffer     [32]byte
}

// NewByteGenerator starts the stream at the given byte cursor.
func NewByteGenerator(seeds Seeds, nonce uint64, cursor uint64) *ByteGenerator {
	bg := &ByteGenerator{
		mac:        hmac.New(sha256.New, []byte(seeds.Server)),
		clientSeed: seeds.Client,
		nonce:      nonce,
		round:      cursor / 32,
		pos:        int(cursor % 32),
	}
	bg.generateRound()
	return bg
}

// Next returns the next byte.
func (bg *ByteGenerator) Next() byte {
	if bg.pos >= 32 {
		bg.round++
		bg.pos = 0
		bg.generateRound()
	}
	b := bg.buffer[bg.pos]
	bg.pos++
	return b
}

// NextFloat consumes 4 bytes and returns a float in [0, 1).
func (bg *ByteGenerator) NextFloat() float64 {
	return bytesToFloat([4]byte{bg.Next(), bg.Next(), bg.Next(), bg.Next()})
}

func (bg *ByteGenerator) generateRound() {
	bg.mac.Reset()
	fmt.Fprintf(bg.mac, "%s:%d:%d", bg.clientSeed, bg.nonce, bg.round)
	bg.mac.Sum(bg.buffer[:0])
}

func bytesToFloat(b [4]byte) float64 {
	result := 0.0
	for i, x := range b {
		result += float64(x) / math.Pow(256, float64(i+1))
	}
	return result
}

// Floats returns count floats starting at the byte cursor.
func Floats(seeds Seeds, nonce uint64, cursor uint64, count int) []float64 {
	return FloatsInto(nil, seeds, nonce, cursor, count)
}

// FloatsInto fills dst, growing it only when it is too short.
func FloatsInto(dst []float64, seeds Seeds, nonce uint64, cursor uint64, count int) []float64 {
	if cap(dst) < count {
		dst = make([]float64, count)
	}
	dst = dst[:count]

	bg := NewByteGenerator(seeds, nonce, cursor)
	for i := range dst {
		dst[i] = bg.NextFloat()
	}
	return dst
}
