package helpers

import (
	"errors"
	"strings"

	"github.com/BurntSushi/toml"
)

var FileNotFound error = errors.New("File not found")

// CheckForConfigFlag looks for "-config <file>" or "-config=<file>" (one or
// two dashes) before the flag package runs, so that the file can provide
// defaults that command-line flags then override.
func CheckForConfigFlag(args []string) *FilePath {
	for k, opt := range args {
		if len(opt) < 2 || opt[0] != '-' {
			continue
		}
		opt = strings.TrimPrefix(opt[1:], "-")
		if opt == "config" {
			if k+1 < len(args) {
				return NewFilePath(args[k+1])
			}
			return nil
		}
		if strings.HasPrefix(opt, "config=") {
			return NewFilePath(strings.TrimPrefix(opt, "config="))
		}
	}
	return nil
}

// LoadConfiguration decodes a TOML file into settings. Keys that do not map
// to a field of settings are an error.
func LoadConfiguration(file *FilePath, settings interface{}) error {
	if file == nil || !file.Exists() {
		return FileNotFound
	}

	md, err := toml.DecodeFile(file.String(), settings)
	if err != nil {
		return err
	}

	if len(md.Undecoded()) > 0 {
		keys := make([]string, 0, len(md.Undecoded()))
		for _, v := range md.Undecoded() {
			keys = append(keys, v.String())
		}
		return errors.New("Unrecognized configuration keys: " + strings.Join(keys, ", "))
	}

	return nil
}
