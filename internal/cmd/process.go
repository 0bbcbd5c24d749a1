package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/ctrtools/ncchdump/keydb"
	"github.com/ctrtools/ncchdump/sdmc"
)

var (
	commonFlags pflag.FlagSet
	keysPath    = commonFlags.StringP("keys", "k", "", "YAML file with AES key slot material")
	compact     = commonFlags.BoolP("compact", "c", false, "disable pretty-printing of JSON output")
)

func loadKeys() (*keydb.DB, error) {
	keys := keydb.New()
	if *keysPath == "" {
		return keys, nil
	}
	if err := keys.LoadFile(*keysPath); err != nil {
		return nil, err
	}
	return keys, nil
}

// fileSource exposes one local file as an ncchdump.Source.
func fileSource(path string) *sdmc.File {
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	return sdmc.Dir(dir).File(name)
}

func newEncoder() *json.Encoder {
	encoder := json.NewEncoder(os.Stdout)
	if !*compact {
		encoder.SetIndent("", "  ")
	}
	encoder.SetEscapeHTML(false)
	return encoder
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
