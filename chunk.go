package blake3

import "github.com/codahale/blake3/hazmat/compress"

// chunkState hashes a single chunk of up to [ChunkSize] bytes. Every block of
// a chunk is compressed with the chunk's index as counter; the first block
// carries the chunk-start flag and the last the chunk-end flag. A buffered
// block is compressed only once more input arrives, so the chunk's final
// block is always still in hand when the chunk turns out to be the last.
type chunkState struct {
	cv       [8]uint32
	counter  uint64
	block    [compress.BlockSize]byte
	blockLen int
	blocks   int
	flags    uint32
}

func (cs *chunkState) reset(key *[8]uint32, counter uint64, flags uint32) {
	cs.cv = *key
	cs.counter = counter
	cs.blockLen = 0
	cs.blocks = 0
	cs.flags = flags
}

// size returns the number of chunk bytes absorbed so far.
func (cs *chunkState) size() int {
	return cs.blocks*compress.BlockSize + cs.blockLen
}

func (cs *chunkState) startFlag() uint32 {
	if cs.blocks == 0 {
		return compress.ChunkStart
	}
	return 0
}

func (cs *chunkState) update(p []byte) {
	for len(p) > 0 {
		if cs.blockLen == compress.BlockSize {
			var w [16]uint32
			compress.BlockWords(&cs.block, &w)
			st := compress.Compress(&cs.cv, &w, cs.counter, compress.BlockSize, cs.flags|cs.startFlag())
			copy(cs.cv[:], st[:8])
			cs.blocks++
			cs.blockLen = 0
		}

		n := copy(cs.block[cs.blockLen:], p)
		cs.blockLen += n
		p = p[n:]
	}
}

// output captures the material for the chunk's final block without changing
// the chunk state. The block is zero-padded to a full block; its true byte
// length rides separately into the compression. An empty chunk is a single
// zero-length block carrying both the chunk-start and chunk-end flags.
func (cs *chunkState) output() output {
	var block [compress.BlockSize]byte
	copy(block[:], cs.block[:cs.blockLen])

	var w [16]uint32
	compress.BlockWords(&block, &w)

	return output{
		cv:       cs.cv,
		block:    w,
		counter:  cs.counter,
		blockLen: uint32(cs.blockLen),
		flags:    cs.flags | cs.startFlag() | compress.ChunkEnd,
	}
}

// chainingValue finalizes the chunk as a non-root leaf.
func (cs *chunkState) chainingValue() [8]uint32 {
	o := cs.output()
	return o.chainingValue()
}

// chunkCV computes the chaining value of one complete chunk directly from
// the caller's bytes, bypassing the block buffer. It is the large-write fast
// path and must agree bit-for-bit with the buffered chunkState path.
func chunkCV(chunk *[ChunkSize]byte, key *[8]uint32, counter uint64, flags uint32) [8]uint32 {
	cv := *key

	var w [16]uint32
	for i := range blocksPerChunk {
		f := flags
		if i == 0 {
			f |= compress.ChunkStart
		}
		if i == blocksPerChunk-1 {
			f |= compress.ChunkEnd
		}

		compress.BlockWords((*[compress.BlockSize]byte)(chunk[i*compress.BlockSize:]), &w)
		st := compress.Compress(&cv, &w, counter, compress.BlockSize, f)
		copy(cv[:], st[:8])
	}

	return cv
}
