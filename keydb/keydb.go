// Package keydb implements the AES key-slot registry of the 3DS crypto
// engine: each slot holds KeyX and KeyY halves that the hardware key
// scrambler combines into the normal key actually used for en/decryption.
package keydb

import "sync"

// SlotID identifies a hardware AES key slot.
type SlotID uint8

// Key slots used by NCCH content crypto.
const (
	NCCHSecure1    SlotID = 0x2C
	NCCHSecure2    SlotID = 0x25
	NCCHSecure3    SlotID = 0x18
	NCCHSecure3New SlotID = 0x1B
)

// Key is 16 bytes of AES key material.
type Key [16]byte

type slot struct {
	keyX, keyY, normal    Key
	hasX, hasY, hasNormal bool
}

// derive recomputes the slot's normal key once both halves are present.
// Installing a normal key directly always wins over derivation.
func (s *slot) derive() {
	if s.hasX && s.hasY {
		s.normal = scramble(s.keyX, s.keyY)
		s.hasNormal = true
	}
}

// DB is a key-slot registry. One DB is typically shared by every container
// processed in a run, so all methods are safe for concurrent use.
type DB struct {
	mu    sync.Mutex
	slots map[SlotID]*slot
}

// New returns an empty registry.
func New() *DB {
	return &DB{slots: make(map[SlotID]*slot)}
}

func (db *DB) slot(id SlotID) *slot {
	s := db.slots[id]
	if s == nil {
		s = &slot{}
		db.slots[id] = s
	}
	return s
}

// SetKeyX installs the X half of a slot, deriving the normal key if the Y
// half is already present.
func (db *DB) SetKeyX(id SlotID, key Key) {
	db.mu.Lock()
	defer db.mu.Unlock()

	s := db.slot(id)
	s.keyX = key
	s.hasX = true
	s.derive()
}

// SetKeyY installs the Y half of a slot, deriving the normal key if the X
// half is already present. Re-installing the same Y is idempotent.
func (db *DB) SetKeyY(id SlotID, key Key) {
	db.mu.Lock()
	defer db.mu.Unlock()

	s := db.slot(id)
	s.keyY = key
	s.hasY = true
	s.derive()
}

// SetNormalKey installs final key material directly, bypassing the scrambler.
func (db *DB) SetNormalKey(id SlotID, key Key) {
	db.mu.Lock()
	defer db.mu.Unlock()

	s := db.slot(id)
	s.normal = key
	s.hasNormal = true
}

// IsNormalKeyAvailable reports whether the slot holds usable key material.
func (db *DB) IsNormalKeyAvailable(id SlotID) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	return db.slot(id).hasNormal
}

// NormalKey returns the slot's normal key, if available.
func (db *DB) NormalKey(id SlotID) (Key, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()

	s := db.slot(id)
	return s.normal, s.hasNormal
}
