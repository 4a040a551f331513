package fsutil

import (
	"os"
	"path/filepath"
)

type EntryKind byte

const (
	KindFile    EntryKind = 'F'
	KindDir     EntryKind = 'D'
	KindUnknown EntryKind = '?'
)

// Entry is one directory member as reported by ReadDir.
type Entry struct {
	Name    string
	Kind    EntryKind
	Symlink bool
}

// Format renders the entry name, prefixed with "{kind} {symlink}:" when
// includeMetadata is set, where symlink is S or _.
func (e Entry) Format(includeMetadata bool) string {
	if !includeMetadata {
		return e.Name
	}
	link := byte('_')
	if e.Symlink {
		link = 'S'
	}
	return string([]byte{byte(e.Kind), ' ', link, ':'}) + e.Name
}

// ReadDir lists one level of dir. Kind follows symlinks; Symlink reports
// whether the entry itself is a link. Entries that cannot be stat'ed (for
// example dangling links) are skipped. With filesOnly, only entries that
// resolve to regular files are returned.
func ReadDir(dir string, filesOnly bool) ([]Entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil && len(dirEntries) == 0 {
		return nil, err
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, dirEntry := range dirEntries {
		full := filepath.Join(dir, dirEntry.Name())
		info, err := os.Stat(full)
		if err != nil {
			continue
		}
		if filesOnly && !info.Mode().IsRegular() {
			continue
		}
		entry := Entry{
			Name:    dirEntry.Name(),
			Kind:    kindOf(info),
			Symlink: dirEntry.Type()&os.ModeSymlink != 0,
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func kindOf(info os.FileInfo) EntryKind {
	switch {
	case info.Mode().IsRegular():
		return KindFile
	case info.IsDir():
		return KindDir
	default:
		return KindUnknown
	}
}
