package ncchdump

import (
	"crypto/aes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/ctrtools/ncchdump/ctrutil"
	"github.com/ctrtools/ncchdump/keydb"
)

// mediaUnit is the scaling factor of NCCH offset and size fields.
const mediaUnit = 0x200

// headerLen is the size of the fixed NCCH header.
const headerLen = 0x200

// Crypto bits of NCCH header flag byte 7.
const (
	flagFixedKey = 0x01
	flagNoCrypto = 0x04
)

// Source opens independent read handles on one backing file. Every call must
// return a fresh handle with its own cursor.
type Source interface {
	Open() (io.ReadSeekCloser, error)
}

// Container reads one NCCH container. Load resolves the key material and the
// per-region AES-CTR counters once; the optional regions are decrypted on
// demand with a cursor seeked to their exact byte offset.
//
// A Container is not safe for concurrent use. Callers processing several
// containers use one instance each, sharing the key registry, which is
// internally synchronized.
type Container struct {
	src  Source
	keys *keydb.DB

	loaded          bool
	encrypted       bool
	failedToDecrypt bool

	file      io.ReadSeekCloser
	exefsFile io.ReadSeekCloser

	key         [16]byte
	exheaderCTR [16]byte
	exefsCTR    [16]byte

	partitionID uint64
	programID   uint64
	version     uint16

	exheader    *ExHeader
	sections    []ExeFSSectionInfo
	exefsOffset int64
}

// NewContainer prepares a container backed by src. Key material is looked up
// in keys during Load; passing one shared registry lets every container of a
// run reuse the slots derived from a single key file.
func NewContainer(src Source, keys *keydb.DB) *Container {
	return &Container{src: src, keys: keys}
}

// Load parses the container header and the optional exheader and ExeFS
// directory, establishing all decryption state. It is idempotent: once a
// container has loaded successfully, further calls return nil without
// touching the file again.
func (c *Container) Load() error {
	if c.loaded {
		return nil
	}

	file, err := c.src.Open()
	if err != nil {
		return fmt.Errorf("ncch: %w", err)
	}

	if err := c.load(file); err != nil {
		file.Close()
		if c.exefsFile != nil {
			c.exefsFile.Close()
			c.exefsFile = nil
		}
		return err
	}

	c.file = file
	c.loaded = true
	return nil
}

func (c *Container) load(file io.ReadSeekCloser) error {
	header := make([]byte, headerLen)
	if _, err := io.ReadFull(file, header); err != nil {
		return fmt.Errorf("ncch: failed to read header: %w", err)
	}

	if string(header[0x100:0x104]) != "NCCH" {
		return fmt.Errorf("ncch: %w: magic not found", ErrInvalidFormat)
	}

	c.partitionID = binary.LittleEndian.Uint64(header[0x108:])
	c.version = binary.LittleEndian.Uint16(header[0x112:])
	c.programID = binary.LittleEndian.Uint64(header[0x118:])

	exheaderSize := binary.LittleEndian.Uint32(header[0x180:])
	flags := header[0x188:0x190]
	exefsOffsetUnits := binary.LittleEndian.Uint32(header[0x1a0:])
	exefsSize := binary.LittleEndian.Uint32(header[0x1a4:])

	if flags[7]&flagNoCrypto != 0 {
		log.Debug().Msg("ncch: no crypto")
		c.encrypted = false
	} else {
		c.encrypted = true
		c.resolveKey(header, flags)

		scheme, err := newCounterScheme(c.version, c.partitionID, exefsOffsetUnits)
		if err != nil {
			return err
		}
		c.exheaderCTR = scheme.exheaderCounter()
		c.exefsCTR = scheme.exefsCounter()
	}

	// System archives and DLC have no extended header but may carry a RomFS.
	if exheaderSize != 0 {
		if err := c.loadExHeader(file); err != nil {
			return err
		}
	}

	// DLC can have an ExeFS and a RomFS but no extended header.
	if exefsSize != 0 {
		if err := c.loadExeFSHeader(file, exefsOffsetUnits); err != nil {
			return err
		}
	}

	return nil
}

// resolveKey determines the normal key for the container's encrypted regions.
// A missing derived key is recorded rather than reported: the exheader may
// turn out to be stored in plaintext, in which case no key is ever needed.
func (c *Container) resolveKey(header, flags []byte) {
	if flags[7]&flagFixedKey != 0 {
		log.Debug().Msg("ncch: fixed-key crypto")
		c.key = [16]byte{}
		return
	}

	// The KeyY half is the first 16 bytes of the header signature.
	var keyY keydb.Key
	copy(keyY[:], header[:0x10])
	c.keys.SetKeyY(keydb.NCCHSecure1, keyY)

	key, ok := c.keys.NormalKey(keydb.NCCHSecure1)
	if !ok {
		log.Warn().Msg("ncch: secure1 KeyX missing")
		c.failedToDecrypt = true
		return
	}
	c.key = [16]byte(key)
}

func (c *Container) loadExHeader(file io.ReadSeekCloser) error {
	raw := make([]byte, exheaderLen)
	if _, err := io.ReadFull(file, raw); err != nil {
		return fmt.Errorf("ncch: failed to read exheader: %w", err)
	}

	if c.encrypted {
		// Only the low 32 bits are compared: ROMs produced by merging a game
		// with its update carry mismatching high bits.
		jumpID := binary.LittleEndian.Uint64(raw[exhJumpID:])
		switch {
		case uint32(jumpID) == uint32(c.programID):
			log.Warn().Msg("ncch: marked as encrypted but the exheader is plaintext, forcing no crypto")
			c.encrypted = false
		case c.failedToDecrypt:
			return fmt.Errorf("ncch: %w: secure1 key unavailable", ErrEncrypted)
		default:
			if err := c.decrypt(raw, c.exheaderCTR, 0); err != nil {
				return err
			}
		}
	}

	c.exheader = parseExHeader(raw)
	return nil
}

func (c *Container) loadExeFSHeader(file io.ReadSeekCloser, offsetUnits uint32) error {
	c.exefsOffset = int64(offsetUnits) * mediaUnit

	if _, err := file.Seek(c.exefsOffset, io.SeekStart); err != nil {
		return fmt.Errorf("ncch: failed to seek to ExeFS: %w", err)
	}

	raw := make([]byte, exefsHeaderLen)
	if _, err := io.ReadFull(file, raw); err != nil {
		return fmt.Errorf("ncch: failed to read ExeFS header: %w", err)
	}

	if c.encrypted {
		if err := c.decrypt(raw, c.exefsCTR, 0); err != nil {
			return err
		}
	}
	c.sections = parseExeFSHeader(raw)

	// Section reads get their own handle so they never disturb the main
	// cursor.
	exefsFile, err := c.src.Open()
	if err != nil {
		return fmt.Errorf("ncch: %w", err)
	}
	c.exefsFile = exefsFile
	return nil
}

// decrypt applies the container's AES-CTR keystream to buf in place, with the
// keystream cursor positioned offset bytes past the counter ctr anchors.
func (c *Container) decrypt(buf []byte, ctr [16]byte, offset int64) error {
	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return fmt.Errorf("ncch: failed to initialize cipher: %w", err)
	}

	stream := ctrutil.NewCTR(block, ctr[:])
	if offset != 0 {
		stream.Seek(offset)
	}
	stream.XORKeyStream(buf, buf)
	return nil
}

// ExeFSSection extracts and decrypts the named ExeFS section, for example
// ".code", "icon" or "banner". The decryption cursor is seeked directly to
// the section's byte offset, so sections can be read in any order without
// processing the data before them.
//
// A section missing from the directory reports ErrNotPresent; a container
// without an ExeFS reports a plain error.
func (c *Container) ExeFSSection(name string) ([]byte, error) {
	if err := c.Load(); err != nil {
		return nil, err
	}
	if c.exefsFile == nil {
		return nil, fmt.Errorf("ncch: container has no ExeFS")
	}

	for _, section := range c.sections {
		if section.Name != name {
			continue
		}

		// Section offsets are relative to the end of the directory header.
		relOffset := int64(section.Offset) + exefsHeaderLen
		if _, err := c.exefsFile.Seek(c.exefsOffset+relOffset, io.SeekStart); err != nil {
			return nil, fmt.Errorf("ncch: failed to seek to section %q: %w", name, err)
		}

		buf := make([]byte, section.Size)
		if _, err := io.ReadFull(c.exefsFile, buf); err != nil {
			return nil, fmt.Errorf("ncch: failed to read section %q: %w", name, err)
		}

		if c.encrypted {
			if err := c.decrypt(buf, c.exefsCTR, relOffset); err != nil {
				return nil, err
			}
		}
		return buf, nil
	}

	return nil, fmt.Errorf("ncch: section %q: %w", name, ErrNotPresent)
}

// ProgramID returns the title's program ID.
func (c *Container) ProgramID() (uint64, error) {
	if err := c.Load(); err != nil {
		return 0, err
	}
	return c.programID, nil
}

// PartitionID returns the container's partition ID.
func (c *Container) PartitionID() (uint64, error) {
	if err := c.Load(); err != nil {
		return 0, err
	}
	return c.partitionID, nil
}

// Version returns the NCCH format version, which selects the counter
// derivation scheme.
func (c *Container) Version() (uint16, error) {
	if err := c.Load(); err != nil {
		return 0, err
	}
	return c.version, nil
}

// ExtdataID resolves the title's extdata ID from the exheader storage info.
//
// Titles using extended save-data access record up to six candidate IDs and
// the active one is ambiguous; the first nonzero candidate is returned as a
// best guess. ErrNotPresent is reported when the container has no exheader or
// no candidate is set.
func (c *Container) ExtdataID() (uint64, error) {
	if err := c.Load(); err != nil {
		return 0, err
	}
	if c.exheader == nil {
		return 0, fmt.Errorf("ncch: extdata ID: %w", ErrNotPresent)
	}

	storage := c.exheader.storage
	if !storage.extendedAccess() {
		return storage.extSaveDataID, nil
	}

	for _, id := range storage.extdataCandidates() {
		if id != 0 {
			return id, nil
		}
	}
	return 0, fmt.Errorf("ncch: extdata ID: %w", ErrNotPresent)
}

// ExHeader returns the parsed extended header, or ErrNotPresent if the
// container has none.
func (c *Container) ExHeader() (*ExHeader, error) {
	if err := c.Load(); err != nil {
		return nil, err
	}
	if c.exheader == nil {
		return nil, fmt.Errorf("ncch: exheader: %w", ErrNotPresent)
	}
	return c.exheader, nil
}

// ExeFSSections returns the named entries of the section directory, or
// ErrNotPresent if the container has no ExeFS.
func (c *Container) ExeFSSections() ([]ExeFSSectionInfo, error) {
	if err := c.Load(); err != nil {
		return nil, err
	}
	if c.exefsFile == nil {
		return nil, fmt.Errorf("ncch: ExeFS: %w", ErrNotPresent)
	}

	named := make([]ExeFSSectionInfo, 0, len(c.sections))
	for _, section := range c.sections {
		if section.Name != "" {
			named = append(named, section)
		}
	}
	return named, nil
}

// HasExHeader reports whether the container carries an extended header.
func (c *Container) HasExHeader() bool {
	if err := c.Load(); err != nil {
		return false
	}
	return c.exheader != nil
}

// HasExeFS reports whether the container carries an ExeFS.
func (c *Container) HasExeFS() bool {
	if err := c.Load(); err != nil {
		return false
	}
	return c.exefsFile != nil
}

// Encrypted reports whether the container's regions are stored encrypted.
// It may flip to false during Load when the exheader turns out to be
// plaintext despite the header's crypto flags.
func (c *Container) Encrypted() bool {
	if err := c.Load(); err != nil {
		return false
	}
	return c.encrypted
}

// Close releases the container's file handles.
func (c *Container) Close() error {
	var firstErr error
	if c.file != nil {
		firstErr = c.file.Close()
		c.file = nil
	}
	if c.exefsFile != nil {
		if err := c.exefsFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		c.exefsFile = nil
	}
	return firstErr
}
