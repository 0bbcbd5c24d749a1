package ctrutil

import (
	"crypto/cipher"
	"encoding/binary"
)

// CTR is a counter-mode stream whose cursor can be repositioned to an
// arbitrary byte offset of the keystream. The standard library's CTR stream
// only runs forward from its IV; extracting a single NCCH section requires
// decrypting from the middle of a region without processing the bytes before
// it.
type CTR struct {
	block  cipher.Block
	iv     [16]byte
	stream cipher.Stream
}

var _ cipher.Stream = (*CTR)(nil)

// NewCTR returns a seekable counter-mode stream over block, positioned at
// byte offset 0. The cipher block size and the IV must both be 16 bytes.
func NewCTR(block cipher.Block, iv []byte) *CTR {
	if block.BlockSize() != len(iv) || len(iv) != 16 {
		panic("ctrutil: CTR requires a 16-byte block size and IV")
	}

	c := &CTR{block: block}
	copy(c.iv[:], iv)
	c.Seek(0)
	return c
}

// Seek positions the keystream cursor at byte offset n, counted from the
// stream's IV: the counter is rebased to iv + n/16 and the first n%16 bytes
// of that block are discarded. The offset is absolute, not relative to the
// current position, and need not be block-aligned.
func (c *CTR) Seek(n int64) {
	if n < 0 {
		panic("ctrutil: negative CTR offset")
	}

	ctr := c.iv
	addCounter(&ctr, uint64(n)/16)
	c.stream = cipher.NewCTR(c.block, ctr[:])

	if skip := n % 16; skip > 0 {
		var discard [16]byte
		c.stream.XORKeyStream(discard[:skip], discard[:skip])
	}
}

// XORKeyStream implements cipher.Stream.
func (c *CTR) XORKeyStream(dst, src []byte) {
	c.stream.XORKeyStream(dst, src)
}

// addCounter adds n to a 128-bit big-endian counter in place.
func addCounter(ctr *[16]byte, n uint64) {
	hi := binary.BigEndian.Uint64(ctr[:8])
	lo := binary.BigEndian.Uint64(ctr[8:])

	sum := lo + n
	if sum < lo {
		hi++
	}

	binary.BigEndian.PutUint64(ctr[:8], hi)
	binary.BigEndian.PutUint64(ctr[8:], sum)
}
