// Package blake3 implements the BLAKE3 cryptographic hash function.
//
// BLAKE3 is an eXtendable-Output Function (XOF) built as a binary Merkle tree
// over a 7-round compression function. Input is split into 1024-byte chunks
// whose chaining values form the leaves of the tree; the root compression
// yields output of any requested length. The same primitive provides a plain
// hash, a keyed hash (MAC) under a 32-byte key, and a key derivation function
// separated by a context string.
//
// [Hasher] implements hash.Hash, io.Writer, and non-destructive finalization:
// output may be requested at any point and writing may continue afterward.
// For output streams, [Hasher.Digest] returns an io.Reader over the XOF.
package blake3

import (
	"encoding/binary"
	"errors"

	"github.com/codahale/blake3/hazmat/compress"
	"github.com/codahale/blake3/internal/mem"
)

const (
	// Size is the default digest size in bytes.
	Size = 32

	// KeySize is the key size for the keyed hash mode in bytes.
	KeySize = 32

	// BlockSize is the compression block size in bytes.
	BlockSize = compress.BlockSize

	// ChunkSize is the chunk (tree leaf) size in bytes.
	ChunkSize = 1024

	blocksPerChunk = ChunkSize / BlockSize

	// stackDepth bounds the subtree chaining value stack. After M chunks the
	// stack holds popcount(M) entries, so 54 entries cover 2^54 chunks (16
	// EiB of input); deeper states are unreachable.
	stackDepth = 54
)

// ErrInvalidKeyLength is returned by the keyed hash constructors when the key
// is not exactly [KeySize] bytes.
var ErrInvalidKeyLength = errors.New("blake3: key must be 32 bytes")

// Hasher is an incremental BLAKE3 instance. It implements hash.Hash and
// io.Writer.
//
// The zero value is not valid; use [New], [NewKeyed], or [NewDeriveKey]. A
// Hasher must not be used concurrently from multiple goroutines, but distinct
// Hashers are independent and need no coordination.
type Hasher struct {
	key      [8]uint32
	flags    uint32
	chunk    chunkState
	stack    [stackDepth][8]uint32
	stackLen int
}

// New returns a Hasher for the plain hash mode.
func New() *Hasher {
	return newHasher(compress.IV, 0)
}

// NewKeyed returns a Hasher for the keyed hash mode. The keyed hash is a
// MAC and a PRF; the key must be exactly [KeySize] bytes.
func NewKeyed(key []byte) (*Hasher, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeyLength
	}
	return newHasher(keyWords((*[KeySize]byte)(key)), compress.KeyedHash), nil
}

// NewDeriveKey returns a Hasher for the key derivation mode. The context
// string should be hardcoded, globally unique, and application-specific;
// material written to the hasher is the input keying material. Two contexts
// that differ in any way produce independent keys.
func NewDeriveKey(context string) *Hasher {
	ctx := newHasher(compress.IV, compress.DeriveKeyContext)
	_, _ = ctx.Write([]byte(context))

	var contextKey [KeySize]byte
	_, _ = ctx.Digest().Read(contextKey[:])

	return newHasher(keyWords(&contextKey), compress.DeriveKeyMaterial)
}

func newHasher(key [8]uint32, flags uint32) *Hasher {
	h := &Hasher{key: key, flags: flags}
	h.chunk.reset(&key, 0, flags)
	return h
}

// Write absorbs input into the hash state. It never returns an error.
func (h *Hasher) Write(p []byte) (int, error) {
	n := len(p)

	for len(p) > 0 {
		// A completed chunk leaves the buffer only once more input follows,
		// so the final chunk is always in hand at finalization.
		if h.chunk.size() == ChunkSize {
			cv := h.chunk.chainingValue()
			total := h.chunk.counter + 1
			h.pushChunkCV(cv, total)
			h.chunk.reset(&h.key, total, h.flags)
		}

		// Large-write fast path: hash whole chunks straight from p, keeping
		// at least one byte back for the final chunk.
		if h.chunk.size() == 0 && len(p) > ChunkSize {
			whole := (len(p) - 1) / ChunkSize
			for range whole {
				counter := h.chunk.counter
				cv := chunkCV((*[ChunkSize]byte)(p), &h.key, counter, h.flags)
				p = p[ChunkSize:]
				h.pushChunkCV(cv, counter+1)
				h.chunk.reset(&h.key, counter+1, h.flags)
			}
			continue
		}

		take := min(ChunkSize-h.chunk.size(), len(p))
		h.chunk.update(p[:take])
		p = p[take:]
	}

	return n, nil
}

// Sum appends the default [Size]-byte digest to b and returns the resulting
// slice. It does not change the hash state.
func (h *Hasher) Sum(b []byte) []byte {
	return h.Finalize(b, Size)
}

// Finalize appends outputLen bytes of hash output to dst and returns the
// resulting slice. It does not change the hash state: it may be called
// repeatedly, with different lengths, and interleaved with further writes.
// Shorter outputs are prefixes of longer ones.
func (h *Hasher) Finalize(dst []byte, outputLen int) []byte {
	if outputLen < 0 {
		panic("blake3: output length must not be negative")
	}

	ret, out := mem.SliceForAppend(dst, outputLen)
	_, _ = h.Digest().Read(out)
	return ret
}

// Digest returns a reader over the extendable output for the input written
// so far. The reader is independent of the hasher: later writes or resets do
// not affect it.
func (h *Hasher) Digest() *Digest {
	o := h.rootOutput()
	return o.rootDigest()
}

// Reset restores the hasher to its state just after construction, preserving
// the mode and key.
func (h *Hasher) Reset() {
	h.chunk.reset(&h.key, 0, h.flags)
	h.stackLen = 0
}

// Clone returns an independent copy of the hasher. The original and clone
// evolve independently.
func (h *Hasher) Clone() *Hasher {
	c := *h
	return &c
}

// Size returns the default digest size in bytes.
func (h *Hasher) Size() int { return Size }

// BlockSize returns the compression block size in bytes.
func (h *Hasher) BlockSize() int { return BlockSize }

// pushChunkCV pushes a completed chunk's chaining value onto the subtree
// stack, first merging completed subtree pairs. The trailing zero count of
// total (the number of chunks hashed so far) is exactly the number of pairs
// ready to merge, which keeps one stack entry per set bit of total.
func (h *Hasher) pushChunkCV(cv [8]uint32, total uint64) {
	for total&1 == 0 {
		h.stackLen--
		o := parentOutput(&h.stack[h.stackLen], &cv, &h.key, h.flags)
		cv = o.chainingValue()
		total >>= 1
	}
	h.stack[h.stackLen] = cv
	h.stackLen++
}

// rootOutput folds the buffered final chunk through the subtree stack, top
// to bottom. Exactly one compression in the whole tree carries the root
// flag: the outermost parent merge, or the lone chunk's final block when the
// stack is empty.
func (h *Hasher) rootOutput() output {
	o := h.chunk.output()
	for i := h.stackLen - 1; i >= 0; i-- {
		cv := o.chainingValue()
		o = parentOutput(&h.stack[i], &cv, &h.key, h.flags)
	}
	return o
}

// Hash computes the plain BLAKE3 hash of msg and returns outputLen bytes of
// output.
func Hash(msg []byte, outputLen int) []byte {
	h := New()
	_, _ = h.Write(msg)
	return h.Finalize(nil, outputLen)
}

// KeyedHash computes the keyed BLAKE3 hash of msg under a [KeySize]-byte key
// and returns outputLen bytes of output.
func KeyedHash(key, msg []byte, outputLen int) ([]byte, error) {
	h, err := NewKeyed(key)
	if err != nil {
		return nil, err
	}
	_, _ = h.Write(msg)
	return h.Finalize(nil, outputLen), nil
}

// DeriveKey derives outputLen bytes of key material from the given context
// string and input keying material.
func DeriveKey(context string, material []byte, outputLen int) []byte {
	h := NewDeriveKey(context)
	_, _ = h.Write(material)
	return h.Finalize(nil, outputLen)
}

// keyWords loads a 32-byte key as eight little-endian words.
func keyWords(key *[KeySize]byte) (w [8]uint32) {
	for i := range w {
		w[i] = binary.LittleEndian.Uint32(key[4*i:])
	}
	return w
}
