// Package compress implements the BLAKE3 compression function.
//
// The compression function maps an 8-word chaining value, a 16-word message
// block, a 64-bit counter, a block length, and a set of domain separation
// flags to a 16-word output state. It is the sole primitive of BLAKE3: chunk
// hashing, parent-node merging, and extendable output all reduce to calls of
// this function with different counters and flags.
package compress

import (
	"encoding/binary"
	"math/bits"
)

// BlockSize is the compression block size in bytes.
const BlockSize = 64

// Domain separation flags. Each compression carries the bitwise OR of the
// flags for its role, making chunk, parent, root, and mode outputs
// independent pseudorandom functions.
const (
	ChunkStart        uint32 = 1 << 0 // first block of a chunk
	ChunkEnd          uint32 = 1 << 1 // last block of a chunk
	Parent            uint32 = 1 << 2 // merge of two child chaining values
	Root              uint32 = 1 << 3 // compression yields extendable output
	KeyedHash         uint32 = 1 << 4 // keyed (MAC) mode
	DeriveKeyContext  uint32 = 1 << 5 // key derivation, context phase
	DeriveKeyMaterial uint32 = 1 << 6 // key derivation, material phase
)

// IV is the BLAKE3 initialization vector, shared with SHA-256 and BLAKE2s.
var IV = [8]uint32{
	0x6a09e667, 0xbb67ae85, 0x3c6ef372, 0xa54ff53a,
	0x510e527f, 0x9b05688c, 0x1f83d9ab, 0x5be0cd19,
}

// msgSchedule[r] gives the message word order for round r. Row 0 is the
// identity; each subsequent row applies the BLAKE3 word permutation to the
// row before it.
var msgSchedule = [7][16]int{
	{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
	{2, 6, 3, 10, 7, 0, 4, 13, 1, 11, 12, 5, 9, 14, 15, 8},
	{3, 4, 10, 12, 13, 2, 7, 14, 6, 5, 9, 0, 11, 15, 8, 1},
	{10, 7, 12, 9, 14, 3, 13, 15, 4, 0, 11, 2, 5, 8, 1, 6},
	{12, 13, 9, 11, 15, 10, 14, 8, 7, 2, 5, 3, 0, 1, 6, 4},
	{9, 14, 11, 5, 8, 12, 15, 1, 13, 3, 0, 10, 2, 6, 4, 7},
	{11, 15, 5, 0, 1, 9, 8, 6, 14, 10, 2, 12, 3, 4, 7, 13},
}

// Compress applies the BLAKE3 compression function to a single block.
//
// cv is the input chaining value, block the sixteen little-endian message
// words, counter the chunk index (or output block index for extendable
// output; zero for parent nodes), blockLen the number of message bytes in
// the block, and flags the domain separation bits. The full 16-word output
// state is returned; its first eight words are the output chaining value.
//
// Compress is a pure function and safe for concurrent use.
func Compress(cv *[8]uint32, block *[16]uint32, counter uint64, blockLen uint32, flags uint32) [16]uint32 {
	v := [16]uint32{
		cv[0], cv[1], cv[2], cv[3],
		cv[4], cv[5], cv[6], cv[7],
		IV[0], IV[1], IV[2], IV[3],
		uint32(counter), uint32(counter >> 32),
		blockLen, flags,
	}

	for r := range msgSchedule {
		s := &msgSchedule[r]

		// Columns.
		v[0], v[4], v[8], v[12] = g(v[0], v[4], v[8], v[12], block[s[0]], block[s[1]])
		v[1], v[5], v[9], v[13] = g(v[1], v[5], v[9], v[13], block[s[2]], block[s[3]])
		v[2], v[6], v[10], v[14] = g(v[2], v[6], v[10], v[14], block[s[4]], block[s[5]])
		v[3], v[7], v[11], v[15] = g(v[3], v[7], v[11], v[15], block[s[6]], block[s[7]])

		// Diagonals.
		v[0], v[5], v[10], v[15] = g(v[0], v[5], v[10], v[15], block[s[8]], block[s[9]])
		v[1], v[6], v[11], v[12] = g(v[1], v[6], v[11], v[12], block[s[10]], block[s[11]])
		v[2], v[7], v[8], v[13] = g(v[2], v[7], v[8], v[13], block[s[12]], block[s[13]])
		v[3], v[4], v[9], v[14] = g(v[3], v[4], v[9], v[14], block[s[14]], block[s[15]])
	}

	for i := range 8 {
		v[i] ^= v[i+8]
		v[i+8] ^= cv[i]
	}

	return v
}

// g is the BLAKE3 quarter-round, mixing two message words into four state
// words with wrapping adds and fixed right rotations.
func g(a, b, c, d, mx, my uint32) (uint32, uint32, uint32, uint32) {
	a += b + mx
	d = bits.RotateLeft32(d^a, -16)
	c += d
	b = bits.RotateLeft32(b^c, -12)
	a += b + my
	d = bits.RotateLeft32(d^a, -8)
	c += d
	b = bits.RotateLeft32(b^c, -7)
	return a, b, c, d
}

// BlockWords loads a 64-byte block as sixteen little-endian words.
func BlockWords(block *[BlockSize]byte, w *[16]uint32) {
	for i := range w {
		w[i] = binary.LittleEndian.Uint32(block[4*i:])
	}
}

// StoreWords serializes a 16-word state as 64 little-endian bytes.
func StoreWords(v *[16]uint32, out *[BlockSize]byte) {
	for i := range v {
		binary.LittleEndian.PutUint32(out[4*i:], v[i])
	}
}
