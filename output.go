package blake3

import "github.com/codahale/blake3/hazmat/compress"

// output is the material of a deferred compression: the input chaining value,
// message words, counter, block length, and flags of a chunk's final block or
// a parent merge. Retaining the inputs rather than the result lets the same
// node finalize either as an interior chaining value or, with the root flag,
// as the source of extendable output.
type output struct {
	cv       [8]uint32
	block    [16]uint32
	counter  uint64
	blockLen uint32
	flags    uint32
}

// chainingValue finalizes the node as a non-root 8-word chaining value.
func (o *output) chainingValue() [8]uint32 {
	st := compress.Compress(&o.cv, &o.block, o.counter, o.blockLen, o.flags)

	var cv [8]uint32
	copy(cv[:], st[:8])
	return cv
}

// rootDigest finalizes the node as the root of the tree, returning a reader
// over its extendable output.
func (o *output) rootDigest() *Digest {
	return &Digest{
		cv:       o.cv,
		block:    o.block,
		blockLen: o.blockLen,
		flags:    o.flags | compress.Root,
	}
}

// parentOutput merges two child chaining values into a parent node. The
// message block is the concatenation of the children; the counter is always
// zero and the block always full.
func parentOutput(left, right *[8]uint32, key *[8]uint32, flags uint32) output {
	o := output{
		cv:       *key,
		blockLen: compress.BlockSize,
		flags:    flags | compress.Parent,
	}
	copy(o.block[:8], left[:])
	copy(o.block[8:], right[:])
	return o
}

// Digest reads extendable output derived from a root compression. It
// implements io.Reader; the stream is unbounded and Read never returns an
// error. Output block j is the root compression re-run with counter j, so
// any prefix of the stream is independent of how reads are sized.
type Digest struct {
	cv       [8]uint32
	block    [16]uint32
	counter  uint64
	blockLen uint32
	flags    uint32
	buf      [compress.BlockSize]byte
	unread   int
}

// Read fills p with output bytes. It always returns len(p), nil.
func (d *Digest) Read(p []byte) (int, error) {
	n := len(p)

	for len(p) > 0 {
		if d.unread == 0 {
			st := compress.Compress(&d.cv, &d.block, d.counter, d.blockLen, d.flags)
			compress.StoreWords(&st, &d.buf)
			d.counter++
			d.unread = len(d.buf)
		}

		r := copy(p, d.buf[len(d.buf)-d.unread:])
		d.unread -= r
		p = p[r:]
	}

	return n, nil
}
