package ncchdump

import (
	"encoding/binary"
	"fmt"
)

// counterScheme derives the initial AES-CTR counters of the exheader and
// ExeFS regions. The NCCH format went through three layouts: versions 0 and 2
// tag a byte-reversed partition ID with a per-region magic byte, while
// version 1 treats the whole image as a single CTR stream and bakes each
// region's absolute byte offset into its counter.
type counterScheme interface {
	exheaderCounter() [16]byte
	exefsCounter() [16]byte
}

// newCounterScheme picks the derivation variant for the given header version.
// An unknown version has no safe interpretation: a guessed counter would
// decrypt to silent garbage instead of failing, so refuse it outright.
func newCounterScheme(version uint16, partitionID uint64, exefsOffsetUnits uint32) (counterScheme, error) {
	switch version {
	case 0, 2:
		return taggedCounter{partitionID: partitionID}, nil
	case 1:
		return offsetCounter{
			partitionID:    partitionID,
			exheaderOffset: headerLen,
			exefsOffset:    exefsOffsetUnits * mediaUnit,
		}, nil
	default:
		return nil, fmt.Errorf("ncch: %w: unknown version %d", ErrEncrypted, version)
	}
}

// taggedCounter implements versions 0 and 2: the partition ID in reverse byte
// order followed by a region tag, 1 for the exheader and 2 for the ExeFS.
type taggedCounter struct {
	partitionID uint64
}

func (c taggedCounter) counter(tag byte) [16]byte {
	var ctr [16]byte
	// The on-disk partition ID is little-endian, so reversing its bytes is a
	// big-endian encode.
	binary.BigEndian.PutUint64(ctr[:8], c.partitionID)
	ctr[8] = tag
	return ctr
}

func (c taggedCounter) exheaderCounter() [16]byte { return c.counter(1) }

func (c taggedCounter) exefsCounter() [16]byte { return c.counter(2) }

// offsetCounter implements version 1: the partition ID in on-disk byte order,
// with the region's absolute byte offset encoded big-endian in bytes 12-15.
type offsetCounter struct {
	partitionID    uint64
	exheaderOffset uint32
	exefsOffset    uint32
}

func (c offsetCounter) counter(offset uint32) [16]byte {
	var ctr [16]byte
	binary.LittleEndian.PutUint64(ctr[:8], c.partitionID)
	binary.BigEndian.PutUint32(ctr[12:], offset)
	return ctr
}

func (c offsetCounter) exheaderCounter() [16]byte { return c.counter(c.exheaderOffset) }

func (c offsetCounter) exefsCounter() [16]byte { return c.counter(c.exefsOffset) }
