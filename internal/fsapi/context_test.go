package fsapi

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"trussfs/internal/config"
	"trussfs/internal/handle"
	"trussfs/internal/metrics"
	"trussfs/internal/version"
)

func newContext(t *testing.T) *Context {
	t.Helper()
	return newContextWith(t, Options{})
}

func newContextWith(t *testing.T, options Options) *Context {
	t.Helper()
	ctx := New(options)
	t.Cleanup(ctx.Shutdown)
	return ctx
}

func expectError(t *testing.T, ctx *Context, kind error) {
	t.Helper()
	err := ctx.Err()
	if !errors.Is(err, kind) {
		t.Fatalf("expected %v, got %v", kind, err)
	}
	message, ok := ctx.LastError()
	if !ok || message == "" {
		t.Fatalf("expected error message, got %q (ok=%v)", message, ok)
	}
	ctx.ClearError()
}

func items(t *testing.T, ctx *Context, h ListHandle) []string {
	t.Helper()
	values, ok := ctx.ListItems(h)
	if !ok {
		t.Fatalf("list %v does not resolve: %v", h, ctx.Err())
	}
	return values
}

func TestVersionIsAPIRevision(t *testing.T) {
	ctx := newContext(t)
	if ctx.Version() != version.APIRevision {
		t.Fatalf("expected %d, got %d", version.APIRevision, ctx.Version())
	}
	if _, ok := ctx.LastError(); ok {
		t.Fatal("fresh context has a pending error")
	}
}

func TestErrorSlotKeepsLastFailure(t *testing.T) {
	ctx := newContext(t)

	ctx.ListLen(InvalidList)
	first, _ := ctx.LastError()

	list := ctx.NewList()
	if !ctx.ListPush(list, "ok") {
		t.Fatalf("push failed: %v", ctx.Err())
	}
	if message, ok := ctx.LastError(); !ok || message != first {
		t.Fatalf("success changed the error slot: %q (ok=%v)", message, ok)
	}

	ctx.MountArchive(filepath.Join(t.TempDir(), "missing.zip"))
	second, _ := ctx.LastError()
	if second == first {
		t.Fatal("second failure did not overwrite the slot")
	}
	if !strings.HasPrefix(second, "archive_mount: ") {
		t.Fatalf("expected operation prefix, got %q", second)
	}

	ctx.ClearError()
	if _, ok := ctx.LastError(); ok {
		t.Fatal("clear left an error behind")
	}
	if ctx.Err() != nil {
		t.Fatalf("clear left %v behind", ctx.Err())
	}
}

func TestListLifecycle(t *testing.T) {
	ctx := newContext(t)
	list := ctx.NewList()
	if list == InvalidList {
		t.Fatalf("new list failed: %v", ctx.Err())
	}
	for _, value := range []string{"one", "two", ""} {
		if !ctx.ListPush(list, value) {
			t.Fatalf("push %q failed: %v", value, ctx.Err())
		}
	}
	if n := ctx.ListLen(list); n != 3 {
		t.Fatalf("expected 3 items, got %d", n)
	}
	if value, ok := ctx.ListGet(list, 1); !ok || value != "two" {
		t.Fatalf("expected two, got %q (ok=%v)", value, ok)
	}

	if _, ok := ctx.ListGet(list, 3); ok {
		t.Fatal("out of range get succeeded")
	}
	expectError(t, ctx, ErrNotFound)

	if ctx.ListPush(list, "nul\x00byte") {
		t.Fatal("push with NUL succeeded")
	}
	expectError(t, ctx, ErrEncoding)
	if n := ctx.ListLen(list); n != 3 {
		t.Fatalf("rejected push changed the list: %d items", n)
	}

	if !ctx.FreeList(list) {
		t.Fatal("free failed")
	}
	if ctx.FreeList(list) {
		t.Fatal("second free reported success")
	}
	if ctx.ListLen(list) != 0 {
		t.Fatal("freed list has items")
	}
	expectError(t, ctx, ErrInvalidHandle)
}

func TestHandlesAreCheckedAcrossPools(t *testing.T) {
	ctx := newContext(t)
	list := ctx.NewList()

	if got := ctx.ListArchive(ArchiveHandle(list)); got != InvalidList {
		t.Fatalf("archive pool accepted a list handle: %v", got)
	}
	expectError(t, ctx, ErrInvalidHandle)
	if got := ctx.PollEvents(WatcherHandle(list)); got != InvalidList {
		t.Fatalf("watcher pool accepted a list handle: %v", got)
	}
	expectError(t, ctx, ErrInvalidHandle)
	if ctx.Stats().Lists != 1 {
		t.Fatalf("failed lookups touched the list pool: %+v", ctx.Stats())
	}
	if handle.Handle(list).Kind() != handle.KindList {
		t.Fatalf("list handle carries kind %v", handle.Handle(list).Kind())
	}
}

func TestStaleListHandleDoesNotAlias(t *testing.T) {
	ctx := newContext(t)
	stale := ctx.NewList()
	ctx.ListPush(stale, "old")
	ctx.FreeList(stale)

	fresh := ctx.NewList()
	ctx.ListPush(fresh, "new")
	if handle.Handle(fresh).Index() != handle.Handle(stale).Index() {
		t.Fatal("expected slot reuse")
	}
	if _, ok := ctx.ListGet(stale, 0); ok {
		t.Fatal("stale handle resolved to the new list")
	}
	expectError(t, ctx, ErrInvalidHandle)
}

func TestSplitPath(t *testing.T) {
	ctx := newContext(t)
	cases := map[string][]string{
		"a/b/c":    {"a", "b", "c"},
		"/usr/lib": {"/", "usr", "lib"},
		"./x//y/.": {".", "x", "y"},
		"a/../b":   {"a", "..", "b"},
		"":         {},
	}
	for input, want := range cases {
		got := items(t, ctx, ctx.SplitPath(input))
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("SplitPath(%q) (-want +got):\n%s", input, diff)
		}
	}

	if got := ctx.SplitPath("a/b\x00c"); got != InvalidList {
		t.Fatalf("expected failure for NUL path, got %v", got)
	}
	expectError(t, ctx, ErrEncoding)
}

func TestListDir(t *testing.T) {
	ctx := newContext(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "file.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.Symlink("file.txt", filepath.Join(dir, "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if err := os.Symlink("missing", filepath.Join(dir, "dangling")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	all := ctx.ListDir(dir, false, false)
	if n := ctx.ListLen(all); n != uint64(len(entries)-1) {
		t.Fatalf("expected %d entries without the dangling link, got %d", len(entries)-1, n)
	}

	got := items(t, ctx, ctx.ListDir(dir, false, true))
	want := []string{"F _:file.txt", "F S:link", "D _:sub"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("metadata listing (-want +got):\n%s", diff)
	}

	files := items(t, ctx, ctx.ListDir(dir, true, false))
	if diff := cmp.Diff([]string{"file.txt", "link"}, files); diff != "" {
		t.Fatalf("files-only listing (-want +got):\n%s", diff)
	}

	if got := ctx.ListDir(filepath.Join(dir, "missing"), false, false); got != InvalidList {
		t.Fatalf("expected failure, got %v", got)
	}
	expectError(t, ctx, ErrNotFound)
}

func TestMakeDirsAndDirectories(t *testing.T) {
	ctx := newContext(t)
	target := filepath.Join(t.TempDir(), "a", "b", "c")
	if !ctx.MakeDirs(target) {
		t.Fatalf("make dirs failed: %v", ctx.Err())
	}
	if info, err := os.Stat(target); err != nil || !info.IsDir() {
		t.Fatalf("expected directory at %s: %v", target, err)
	}
	if ctx.MakeDirs("") {
		t.Fatal("empty path succeeded")
	}
	expectError(t, ctx, ErrIO)

	wd, _ := os.Getwd()
	if got, ok := ctx.WorkingDir(); !ok || got != wd {
		t.Fatalf("expected %q, got %q (ok=%v)", wd, got, ok)
	}
	executable, _ := os.Executable()
	if got, ok := ctx.BinaryDir(); !ok || got != filepath.Dir(executable) {
		t.Fatalf("expected %q, got %q (ok=%v)", filepath.Dir(executable), got, ok)
	}
}

func TestShutdownInvalidatesEverything(t *testing.T) {
	registry := &metrics.Registry{}
	ctx := New(Options{Metrics: registry})
	list := ctx.NewList()
	mounted := ctx.MountArchive(writeArchive(t, []testEntry{{name: "a.txt", body: "a"}}))
	watched := ctx.Watch(t.TempDir(), false)
	if watched == InvalidWatcher {
		t.Fatalf("watch failed: %v", ctx.Err())
	}

	ctx.Shutdown()
	ctx.Shutdown()

	if stats := ctx.Stats(); stats != (Stats{}) {
		t.Fatalf("expected empty pools, got %+v", stats)
	}
	if ctx.ListLen(list) != 0 || ctx.ListArchive(mounted) != InvalidList || ctx.PollEvents(watched) != InvalidList {
		t.Fatal("handle survived shutdown")
	}
	if ctx.NewList() != InvalidList {
		t.Fatal("shut down context issued a handle")
	}
	expectError(t, ctx, ErrInvalidHandle)
	for _, pool := range []string{"list", "archive", "watcher"} {
		if live := registry.Live(pool); live != 0 {
			t.Fatalf("pool %s has %d live handles after shutdown", pool, live)
		}
	}
}

func TestFailuresAreCounted(t *testing.T) {
	registry := &metrics.Registry{}
	ctx := newContextWith(t, Options{Metrics: registry, Settings: config.Settings{}})
	ctx.ListLen(InvalidList)
	ctx.ListLen(InvalidList)
	ctx.MountArchive(filepath.Join(t.TempDir(), "missing.zip"))

	if got := registry.Failures("invalid_handle"); got != 2 {
		t.Fatalf("expected 2 invalid handle failures, got %d", got)
	}
	if got := registry.Failures("not_found"); got != 1 {
		t.Fatalf("expected 1 not found failure, got %d", got)
	}
}
