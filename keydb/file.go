package keydb

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// keysFile is the on-disk YAML layout:
//
//	slots:
//	  "0x2C":
//	    keyX: 00112233445566778899AABBCCDDEEFF
//	  "0x25":
//	    normal: 00112233445566778899AABBCCDDEEFF
type keysFile struct {
	Slots map[string]slotEntry `yaml:"slots"`
}

type slotEntry struct {
	KeyX   string `yaml:"keyX"`
	KeyY   string `yaml:"keyY"`
	Normal string `yaml:"normal"`
}

// Load installs the key material described by a YAML document into the
// registry.
func (db *DB) Load(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("keydb: failed to read key file: %w", err)
	}

	var file keysFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("keydb: failed to parse key file: %w", err)
	}

	for name, entry := range file.Slots {
		id, err := strconv.ParseUint(strings.TrimPrefix(name, "0x"), 16, 8)
		if err != nil {
			return fmt.Errorf("keydb: invalid slot ID %q: %w", name, err)
		}
		if err := db.installHex(SlotID(id), entry); err != nil {
			return fmt.Errorf("keydb: slot %q: %w", name, err)
		}
	}
	return nil
}

// LoadFile reads a YAML key file from disk into the registry.
func (db *DB) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("keydb: %w", err)
	}
	defer f.Close()

	return db.Load(f)
}

func (db *DB) installHex(id SlotID, entry slotEntry) error {
	install := func(material string, set func(SlotID, Key)) error {
		if material == "" {
			return nil
		}
		raw, err := hex.DecodeString(material)
		if err != nil {
			return err
		}
		if len(raw) != 16 {
			return fmt.Errorf("key material must be 16 bytes, got %d", len(raw))
		}
		var key Key
		copy(key[:], raw)
		set(id, key)
		return nil
	}

	if err := install(entry.KeyX, db.SetKeyX); err != nil {
		return fmt.Errorf("keyX: %w", err)
	}
	if err := install(entry.KeyY, db.SetKeyY); err != nil {
		return fmt.Errorf("keyY: %w", err)
	}
	if err := install(entry.Normal, db.SetNormalKey); err != nil {
		return fmt.Errorf("normal: %w", err)
	}
	return nil
}
