package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/zeebo/blake3"

	"trussfs/internal/fsapi"
)

func runZipList(env *commandEnv, args []string) error {
	fs := newFlagSet("zip-ls")
	if err := parseCommandFlags(env, "zip-ls", fs, args, 1); err != nil {
		return err
	}
	mounted, err := env.mount(fs.Arg(0))
	if err != nil {
		return err
	}
	defer env.ctx.FreeArchive(mounted)
	return env.printList(env.ctx.ListArchive(mounted))
}

func runZipCat(env *commandEnv, args []string) error {
	fs := newFlagSet("zip-cat")
	byIndex := fs.Bool("index", false, "Address the entry by index instead of name")
	if err := parseCommandFlags(env, "zip-cat", fs, args, 2); err != nil {
		return err
	}
	data, err := env.readEntry(fs.Arg(0), fs.Arg(1), *byIndex)
	if err != nil {
		return err
	}
	_, err = env.out.Write(data)
	return err
}

func runZipExtract(env *commandEnv, args []string) error {
	fs := newFlagSet("zip-extract")
	byIndex := fs.Bool("index", false, "Address the entry by index instead of name")
	if err := parseCommandFlags(env, "zip-extract", fs, args, 3); err != nil {
		return err
	}
	data, err := env.readEntry(fs.Arg(0), fs.Arg(1), *byIndex)
	if err != nil {
		return err
	}
	dest := fs.Arg(2)
	if err := atomic.WriteFile(dest, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	env.logger.Info("entry extracted", map[string]string{
		"entry": fs.Arg(1),
		"dest":  dest,
		"bytes": strconv.Itoa(len(data)),
	})
	return nil
}

// runZipSum prints "{digest}  {name}" for every file entry.
func runZipSum(env *commandEnv, args []string) error {
	fs := newFlagSet("zip-sum")
	if err := parseCommandFlags(env, "zip-sum", fs, args, 1); err != nil {
		return err
	}
	mounted, err := env.mount(fs.Arg(0))
	if err != nil {
		return err
	}
	defer env.ctx.FreeArchive(mounted)

	listing := env.ctx.ListArchive(mounted)
	if listing == fsapi.InvalidList {
		return env.failure()
	}
	items, _ := env.ctx.ListItems(listing)
	env.ctx.FreeList(listing)

	for _, item := range items {
		entry, ok := parseEntry(item)
		if !ok || entry.kind != "F" {
			continue
		}
		data, err := env.read(mounted, entry.index)
		if err != nil {
			return err
		}
		sum := blake3.Sum256(data)
		fmt.Fprintf(env.out, "%s  %s\n", hex.EncodeToString(sum[:]), entry.name)
	}
	return nil
}

func (env *commandEnv) mount(path string) (fsapi.ArchiveHandle, error) {
	mounted := env.ctx.MountArchive(path)
	if mounted == fsapi.InvalidArchive {
		return mounted, env.failure()
	}
	return mounted, nil
}

func (env *commandEnv) readEntry(path, key string, byIndex bool) ([]byte, error) {
	mounted, err := env.mount(path)
	if err != nil {
		return nil, err
	}
	defer env.ctx.FreeArchive(mounted)

	if byIndex {
		index, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid entry index %q", key)
		}
		return env.read(mounted, index)
	}
	// A zero size is ambiguous, so the error slot decides.
	env.ctx.ClearError()
	size := env.ctx.ArchiveSizeByName(mounted, key)
	if size == 0 {
		if err := env.ctx.Err(); err != nil {
			return nil, env.failure()
		}
		return []byte{}, nil
	}
	buffer, err := entryBuffer(size)
	if err != nil {
		return nil, err
	}
	n := env.ctx.ReadArchiveByName(mounted, key, buffer)
	if n < 0 {
		return nil, env.failure()
	}
	return buffer[:n], nil
}

func (env *commandEnv) read(mounted fsapi.ArchiveHandle, index uint64) ([]byte, error) {
	env.ctx.ClearError()
	size := env.ctx.ArchiveSizeByIndex(mounted, index)
	if size == 0 {
		if err := env.ctx.Err(); err != nil {
			return nil, env.failure()
		}
		return []byte{}, nil
	}
	buffer, err := entryBuffer(size)
	if err != nil {
		return nil, err
	}
	n := env.ctx.ReadArchiveByIndex(mounted, index, buffer)
	if n < 0 {
		return nil, env.failure()
	}
	return buffer[:n], nil
}

type listedEntry struct {
	index uint64
	size  uint64
	kind  string
	name  string
}

// parseEntry reads back an archive listing line "{index} {size} {kind}:{name}".
func parseEntry(item string) (listedEntry, bool) {
	head, name, ok := strings.Cut(item, ":")
	if !ok {
		return listedEntry{}, false
	}
	fields := strings.Fields(head)
	if len(fields) != 3 {
		return listedEntry{}, false
	}
	index, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return listedEntry{}, false
	}
	size, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return listedEntry{}, false
	}
	return listedEntry{index: index, size: size, kind: fields[2], name: name}, true
}

// entryBuffer allocates room for an entry whose size comes from the archive
// header, refusing sizes no slice can hold.
func entryBuffer(size uint64) ([]byte, error) {
	if size > math.MaxInt {
		return nil, fmt.Errorf("entry of %d bytes is too large to read", size)
	}
	return make([]byte, size), nil
}
