package main

import (
	"os"

	"github.com/BurntSushi/toml"
)

// fileDefaults holds connection defaults read from an optional TOML
// config file, the way config.Config reads honeytrap's listener/service
// sections: unmarshal straight into a small struct, let flags override
// whatever fields are set.
type fileDefaults struct {
	URL    string `toml:"url"`
	BindDN string `toml:"binddn"`
	BaseDN string `toml:"basedn"`
}

func loadFileDefaults(path string) (fileDefaults, error) {
	var d fileDefaults
	if path == "" {
		return d, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return d, nil
	}
	_, err := toml.DecodeFile(path, &d)
	return d, err
}
