package ncchdump

import (
	"bytes"
	"encoding/binary"
)

const (
	exefsHeaderLen   = 0x200
	exefsMaxSections = 8
	exefsSectionLen  = 0x10
)

// ExeFSSectionInfo describes one named section of an ExeFS directory. The
// offset is relative to the end of the directory header.
type ExeFSSectionInfo struct {
	Name   string
	Offset Hex32
	Size   Hex32
}

// parseExeFSHeader decodes the fixed-size section directory at the head of an
// ExeFS region. All 8 descriptor slots are kept, including unused ones with
// an empty name, so lookups see the directory exactly as stored.
func parseExeFSHeader(raw []byte) []ExeFSSectionInfo {
	sections := make([]ExeFSSectionInfo, exefsMaxSections)
	for i := range sections {
		desc := raw[i*exefsSectionLen : (i+1)*exefsSectionLen]
		sections[i] = ExeFSSectionInfo{
			Name:   string(bytes.TrimRight(desc[:0x8], "\x00")),
			Offset: Hex32(binary.LittleEndian.Uint32(desc[0x8:])),
			Size:   Hex32(binary.LittleEndian.Uint32(desc[0xc:])),
		}
	}
	return sections
}
