// Package fsutil wraps the directory, path and metadata syscalls that the
// context exposes: one-level listings, path decomposition and recursive
// directory creation.
package fsutil

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// CleanFSPath normalizes a slash-separated path for use with fs.FS and
// rejects paths that escape their root.
func CleanFSPath(pathValue string) (string, error) {
	slashPath := filepath.ToSlash(pathValue)
	slashPath = strings.TrimPrefix(slashPath, "/")
	if slashPath == "" {
		return ".", nil
	}
	cleaned := path.Clean(slashPath)
	if cleaned == "." {
		return ".", nil
	}
	if !fs.ValidPath(cleaned) {
		return "", fmt.Errorf("invalid fs path: %q", pathValue)
	}
	return cleaned, nil
}

// SplitPath breaks p into its components in order. A leading root becomes
// its own component, repeated separators and interior "." segments are
// dropped, ".." is kept, and a leading "." is kept.
func SplitPath(p string) []string {
	parts := []string{}
	rest := p
	if volume := filepath.VolumeName(rest); volume != "" {
		parts = append(parts, volume)
		rest = rest[len(volume):]
	}
	rooted := rest != "" && os.IsPathSeparator(rest[0])
	if rooted {
		parts = append(parts, string(os.PathSeparator))
	}

	segments := strings.FieldsFunc(rest, func(r rune) bool {
		return r < 0x80 && os.IsPathSeparator(uint8(r))
	})
	for index, segment := range segments {
		if segment == "." && (index > 0 || len(parts) > 0) {
			continue
		}
		parts = append(parts, segment)
	}
	return parts
}

// MakeDirs creates path and any missing parents.
func MakeDirs(p string) error {
	if strings.TrimSpace(p) == "" {
		return fmt.Errorf("path is required")
	}
	return os.MkdirAll(p, 0o755)
}

func WorkingDir() (string, error) {
	return os.Getwd()
}

// BinaryDir returns the directory holding the running executable.
func BinaryDir() (string, error) {
	executable, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(executable), nil
}
