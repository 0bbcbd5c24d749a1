package ncchdump

import (
	"bytes"
	"encoding/binary"
)

// exheaderLen covers the extended header proper plus the access descriptor
// that follows it; both are encrypted as one block.
const exheaderLen = 0x800

// Extended header field offsets. The structure is decoded field by field so
// the on-disk layout never depends on Go struct alignment.
const (
	exhName                  = 0x000
	exhTextAddress           = 0x010
	exhTextCodeSize          = 0x018
	exhStackSize             = 0x01c
	exhBssSize               = 0x03c
	exhJumpID                = 0x1c8
	exhCoreVersion           = 0x208
	exhFlags                 = 0x20e
	exhPriority              = 0x20f
	exhExtSaveDataID         = 0x230
	exhAccessibleIDs         = 0x240
	exhOtherAttributes       = 0x24f
	exhResourceLimitCategory = 0x36f
)

// ExHeader carries the program metadata of an NCCH extended header.
type ExHeader struct {
	Name                  string
	EntryPoint            Hex32
	CodeSize              Hex32
	StackSize             Hex32
	BssSize               Hex32
	JumpID                Hex64
	CoreVersion           uint32
	SystemMode            uint8
	Priority              uint8
	ResourceLimitCategory uint8

	storage storageInfo
}

// storageInfo is the storage block of the ARM11 local capabilities. Its two
// 64-bit ID fields double as packed triplets of 20-bit extdata IDs when the
// title uses extended save-data access.
type storageInfo struct {
	extSaveDataID   uint64
	accessibleIDs   uint64
	otherAttributes uint8
}

func parseExHeader(raw []byte) *ExHeader {
	return &ExHeader{
		Name:                  string(bytes.TrimRight(raw[exhName:exhName+8], "\x00")),
		EntryPoint:            Hex32(binary.LittleEndian.Uint32(raw[exhTextAddress:])),
		CodeSize:              Hex32(binary.LittleEndian.Uint32(raw[exhTextCodeSize:])),
		StackSize:             Hex32(binary.LittleEndian.Uint32(raw[exhStackSize:])),
		BssSize:               Hex32(binary.LittleEndian.Uint32(raw[exhBssSize:])),
		JumpID:                Hex64(binary.LittleEndian.Uint64(raw[exhJumpID:])),
		CoreVersion:           binary.LittleEndian.Uint32(raw[exhCoreVersion:]),
		SystemMode:            raw[exhFlags] >> 4,
		Priority:              raw[exhPriority],
		ResourceLimitCategory: raw[exhResourceLimitCategory],
		storage: storageInfo{
			extSaveDataID:   binary.LittleEndian.Uint64(raw[exhExtSaveDataID:]),
			accessibleIDs:   binary.LittleEndian.Uint64(raw[exhAccessibleIDs:]),
			otherAttributes: raw[exhOtherAttributes],
		},
	}
}

// extendedAccess reports whether the title uses extended save-data access, in
// which case the single extdata ID field is replaced by packed candidates.
func (s storageInfo) extendedAccess() bool {
	return s.otherAttributes>>1 != 0
}

// extdataCandidates unpacks the six 20-bit extdata IDs in their fixed scan
// order: lowest bits first within each field, accessible IDs before the
// save-data IDs.
func (s storageInfo) extdataCandidates() [6]uint64 {
	const mask = 1<<20 - 1
	return [6]uint64{
		s.accessibleIDs & mask,
		s.accessibleIDs >> 20 & mask,
		s.accessibleIDs >> 40 & mask,
		s.extSaveDataID & mask,
		s.extSaveDataID >> 20 & mask,
		s.extSaveDataID >> 40 & mask,
	}
}
