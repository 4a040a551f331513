// Package archive reads zip containers: it lists entries and decodes single
// entries fully into memory. Entries stored with zstd (method 93) are
// supported in addition to store and deflate.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"

	"trussfs/internal/fsutil"
)

var (
	ErrEntryNotFound = errors.New("archive entry not found")
	ErrEntryTooLarge = errors.New("archive entry exceeds size limit")
)

// Kind classifies an archive entry.
type Kind byte

const (
	KindFile    Kind = 'F'
	KindDir     Kind = 'D'
	KindUnknown Kind = '?'
	// KindUnsafe marks entries whose name would escape the archive root.
	KindUnsafe Kind = 'X'
)

// Entry describes one member of the container.
type Entry struct {
	Index int
	Size  uint64
	Kind  Kind
	Name  string
}

// String renders "{index} {size} {kind}:{name}". Unsafe names render as
// "{index} 0 X:" so the raw path never leaves the package.
func (e Entry) String() string {
	if e.Kind == KindUnsafe {
		return strconv.Itoa(e.Index) + " 0 X:"
	}
	return fmt.Sprintf("%d %d %c:%s", e.Index, e.Size, e.Kind, e.Name)
}

type Options struct {
	// MaxEntryBytes bounds how much a single read may decode; 0 disables it.
	MaxEntryBytes uint64
}

// Archive is an open container. It is safe for concurrent reads.
type Archive struct {
	path    string
	file    *os.File
	reader  *zip.Reader
	byName  map[string]int
	options Options
	once    sync.Once
}

const maxPrealloc = 64 << 20

// Open opens the container at path.
func Open(path string, options Options) (*Archive, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	reader, err := zip.NewReader(file, info.Size())
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		_ = file.Close()
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	reader.RegisterDecompressor(zstd.ZipMethodWinZip, zstd.ZipDecompressor())

	byName := make(map[string]int, len(reader.File))
	for index, entry := range reader.File {
		if _, exists := byName[entry.Name]; !exists {
			byName[entry.Name] = index
		}
	}

	return &Archive{
		path:    path,
		file:    file,
		reader:  reader,
		byName:  byName,
		options: options,
	}, nil
}

func (a *Archive) Path() string {
	return a.path
}

// Len returns the number of entries in the central directory.
func (a *Archive) Len() int {
	return len(a.reader.File)
}

// Entries lists every entry in central directory order.
func (a *Archive) Entries() []Entry {
	entries := make([]Entry, 0, len(a.reader.File))
	for index, file := range a.reader.File {
		entries = append(entries, describe(index, file))
	}
	return entries
}

// SizeByIndex returns the uncompressed size of entry index.
func (a *Archive) SizeByIndex(index uint64) (uint64, error) {
	file, err := a.fileByIndex(index)
	if err != nil {
		return 0, err
	}
	return file.UncompressedSize64, nil
}

// SizeByName returns the uncompressed size of the entry called name.
func (a *Archive) SizeByName(name string) (uint64, error) {
	file, err := a.fileByName(name)
	if err != nil {
		return 0, err
	}
	return file.UncompressedSize64, nil
}

// ReadByIndex decodes entry index into memory.
func (a *Archive) ReadByIndex(index uint64) ([]byte, error) {
	file, err := a.fileByIndex(index)
	if err != nil {
		return nil, err
	}
	return a.read(file)
}

// ReadByName decodes the entry called name into memory.
func (a *Archive) ReadByName(name string) ([]byte, error) {
	file, err := a.fileByName(name)
	if err != nil {
		return nil, err
	}
	return a.read(file)
}

// Close releases the underlying file. Further reads fail.
func (a *Archive) Close() error {
	var err error
	a.once.Do(func() {
		err = a.file.Close()
	})
	return err
}

func (a *Archive) fileByIndex(index uint64) (*zip.File, error) {
	if index >= uint64(len(a.reader.File)) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrEntryNotFound, index, len(a.reader.File))
	}
	return a.reader.File[index], nil
}

func (a *Archive) fileByName(name string) (*zip.File, error) {
	index, ok := a.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrEntryNotFound, name)
	}
	return a.reader.File[index], nil
}

func (a *Archive) read(file *zip.File) ([]byte, error) {
	size := file.UncompressedSize64
	if limit := a.options.MaxEntryBytes; limit > 0 && size > limit {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrEntryTooLarge, file.Name, size, limit)
	}

	reader, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry %s: %w", file.Name, err)
	}
	defer reader.Close()

	// The decompressor verifies the declared size and CRC on EOF, so a
	// short or oversized entry surfaces as an error here.
	var buffer bytes.Buffer
	if size <= maxPrealloc {
		buffer.Grow(int(size))
	}
	if _, err := io.Copy(&buffer, reader); err != nil {
		return nil, fmt.Errorf("read entry %s: %w", file.Name, err)
	}
	return buffer.Bytes(), nil
}

// enclosed reports whether name stays inside the archive root once
// extracted: no NUL, no absolute or drive-qualified path, no escaping "..".
func enclosed(name string) bool {
	if strings.IndexByte(name, 0) >= 0 {
		return false
	}
	if strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return false
	}
	if len(name) >= 2 && name[1] == ':' {
		return false
	}
	_, err := fsutil.CleanFSPath(strings.ReplaceAll(name, `\`, "/"))
	return err == nil
}

func describe(index int, file *zip.File) Entry {
	if !enclosed(file.Name) {
		return Entry{Index: index, Kind: KindUnsafe}
	}
	entry := Entry{
		Index: index,
		Size:  file.UncompressedSize64,
		Name:  file.Name,
	}
	mode := file.Mode()
	switch {
	case mode.IsDir():
		entry.Kind = KindDir
	case mode.IsRegular():
		entry.Kind = KindFile
	default:
		entry.Kind = KindUnknown
	}
	return entry
}
