// Package ncchdump parses and decrypts NCCH containers, the content format
// used by Nintendo 3DS (CTR) titles on cartridges and SD cards.
//
// Containers are read from untrusted storage, so every structure is decoded
// field by field with explicit offsets and widths, and size fields are
// checked before use. Encrypted regions are decrypted on demand once the key
// material and per-region AES-CTR counters have been resolved during Load.
//
// This package comes with a CLI. You can install it like this:
//
//	go install github.com/ctrtools/ncchdump/cmd/ncchdump@latest
package ncchdump
