// Package sdmc provides read-only access to files below a fixed root
// directory, typically a dump of a console SD card or NAND.
package sdmc

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Dir is the root directory below which all paths are resolved.
type Dir string

// File identifies one file below a root. Each Open call returns an
// independent handle with its own cursor, so one consumer can hold several
// cursors into the same file.
type File struct {
	root Dir
	path string
}

// File resolves a slash-separated path relative to the root.
func (d Dir) File(path string) *File {
	return &File{root: d, path: path}
}

// Open opens a fresh read handle on the file.
func (f *File) Open() (io.ReadSeekCloser, error) {
	handle, err := os.Open(filepath.Join(string(f.root), filepath.FromSlash(f.path)))
	if err != nil {
		return nil, fmt.Errorf("sdmc: %w", err)
	}
	return handle, nil
}

// Name returns the file's path relative to its root.
func (f *File) Name() string {
	return f.path
}
