package trussfs

import _ "embed"

// DefaultConfig is the built-in settings file.
//
//go:embed config/trussfs.toml
var DefaultConfig []byte
