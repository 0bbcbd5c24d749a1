package ncchdump

import (
	"encoding/binary"
	"fmt"
)

const (
	ivfcHeaderLen = 0x60
	ivfcVersion   = 0x10000
)

// ivfcLevel describes one hash or data level of an IVFC tree.
type ivfcLevel struct {
	offset        uint64
	size          uint64
	blockSizeLog2 uint32
}

// parseIVFC decodes the IVFC sub-header found at the start of a RomFS region.
func parseIVFC(raw []byte) (masterHashSize uint32, levels [3]ivfcLevel, err error) {
	if string(raw[:0x4]) != "IVFC" {
		return 0, levels, fmt.Errorf("romfs: IVFC magic not found")
	}
	if version := binary.LittleEndian.Uint32(raw[0x4:]); version != ivfcVersion {
		return 0, levels, fmt.Errorf("romfs: IVFC version must be 0x%x, got 0x%x", ivfcVersion, version)
	}

	masterHashSize = binary.LittleEndian.Uint32(raw[0x8:])
	for i := range levels {
		desc := raw[0xc+i*0x18:]
		levels[i] = ivfcLevel{
			offset:        binary.LittleEndian.Uint64(desc),
			size:          binary.LittleEndian.Uint64(desc[0x8:]),
			blockSizeLog2: binary.LittleEndian.Uint32(desc[0x10:]),
		}
	}
	return masterHashSize, levels, nil
}

// ExtractSharedRomFS slices the level-3 (raw file data) region out of a
// fully-buffered, already-decrypted NCCH image, such as a dumped shared
// system archive. Only the IVFC geometry is interpreted; the directory and
// file tables inside the payload are returned as stored.
func ExtractSharedRomFS(data []byte) ([]byte, error) {
	if len(data) < headerLen {
		return nil, fmt.Errorf("romfs: image smaller than an NCCH header: %d bytes", len(data))
	}
	if string(data[0x100:0x104]) != "NCCH" {
		return nil, fmt.Errorf("romfs: %w: NCCH magic not found", ErrInvalidFormat)
	}

	offset := int64(binary.LittleEndian.Uint32(data[0x1b0:])) * mediaUnit
	if int64(len(data)) < offset+ivfcHeaderLen {
		return nil, fmt.Errorf("romfs: image truncated before IVFC header at 0x%x", offset)
	}

	masterHashSize, levels, err := parseIVFC(data[offset : offset+ivfcHeaderLen])
	if err != nil {
		return nil, err
	}

	level3 := levels[2]
	if level3.blockSizeLog2 >= 32 {
		return nil, fmt.Errorf("romfs: unreasonable level-3 block size: 2^%d", level3.blockSizeLog2)
	}

	// The data starts at the first level-3 block boundary past the IVFC
	// header and master hashes (calculation from ctrtool).
	dataOffset := offset + alignUp(ivfcHeaderLen+int64(masterHashSize), int64(1)<<level3.blockSizeLog2)
	end := dataOffset + int64(level3.size)
	if end < dataOffset || int64(len(data)) < end {
		return nil, fmt.Errorf("romfs: image truncated before end of level-3 data")
	}

	result := make([]byte, level3.size)
	copy(result, data[dataOffset:end])
	return result, nil
}

// alignUp rounds x up to the next multiple of align, a power of two.
func alignUp(x, align int64) int64 {
	return (x + align - 1) &^ (align - 1)
}
