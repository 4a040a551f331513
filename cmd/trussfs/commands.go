package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"trussfs/internal/cli"
	"trussfs/internal/fsapi"
	"trussfs/internal/logging"
	"trussfs/internal/metrics"
	"trussfs/internal/version"
)

type commandEnv struct {
	ctx     *fsapi.Context
	out     io.Writer
	errOut  io.Writer
	logger  *logging.Logger
	metrics *metrics.Registry
}

type command struct {
	name    string
	usage   string
	summary string
	run     func(env *commandEnv, args []string) error
}

// commands is filled in init because the handlers look themselves up in it.
var commands []command

func init() {
	commands = []command{
		{name: "ls", usage: "ls [--files] [--long] DIR", summary: "List one directory level", run: runList},
		{name: "split", usage: "split PATH", summary: "Print the components of a path", run: runSplit},
		{name: "mkdir", usage: "mkdir PATH", summary: "Create a directory and its parents", run: runMakeDirs},
		{name: "dirs", usage: "dirs", summary: "Print the working and executable directories", run: runDirs},
		{name: "zip-ls", usage: "zip-ls ARCHIVE", summary: "List archive entries", run: runZipList},
		{name: "zip-cat", usage: "zip-cat [--index] ARCHIVE ENTRY", summary: "Write one archive entry to stdout", run: runZipCat},
		{name: "zip-extract", usage: "zip-extract [--index] ARCHIVE ENTRY DEST", summary: "Extract one archive entry atomically", run: runZipExtract},
		{name: "zip-sum", usage: "zip-sum ARCHIVE", summary: "Print BLAKE3 digests of archive files", run: runZipSum},
		{name: "watch", usage: "watch [--recursive] [--interval D] [--duration D] [--count N] [--listen ADDR] PATH...", summary: "Print change records for paths", run: runWatch},
		{name: "version", usage: "version", summary: "Print version and interface revision", run: runVersion},
	}
}

func lookupCommand(name string) (command, bool) {
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd, true
		}
	}
	return command{}, false
}

// parseCommandFlags parses args for cmd and checks the positional count;
// a negative want accepts one or more.
func parseCommandFlags(env *commandEnv, cmd string, fs *pflag.FlagSet, args []string, want int) error {
	c, _ := lookupCommand(cmd)
	fs.SetOutput(env.errOut)
	fs.Usage = func() {
		fmt.Fprintf(env.errOut, "Usage: trussfs %s\n", c.usage)
		fmt.Fprint(env.errOut, fs.FlagUsages())
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return cli.Usagef("%s: %v", cmd, err)
	}
	if want < 0 {
		if fs.NArg() == 0 {
			return cli.Usagef("usage: trussfs %s", c.usage)
		}
		return nil
	}
	return cli.ExactArgs(fs, want, "trussfs "+c.usage)
}

func newFlagSet(name string) *pflag.FlagSet {
	return pflag.NewFlagSet("trussfs "+name, pflag.ContinueOnError)
}

// failure turns the Context's pending error into a command error.
func (env *commandEnv) failure() error {
	if err := env.ctx.Err(); err != nil {
		env.ctx.ClearError()
		return err
	}
	return errors.New("operation failed")
}

// printList writes every item of h, one per line, and frees it.
func (env *commandEnv) printList(h fsapi.ListHandle) error {
	if h == fsapi.InvalidList {
		return env.failure()
	}
	defer env.ctx.FreeList(h)
	items, ok := env.ctx.ListItems(h)
	if !ok {
		return env.failure()
	}
	for _, item := range items {
		fmt.Fprintln(env.out, item)
	}
	return nil
}

func runVersion(env *commandEnv, args []string) error {
	fs := newFlagSet("version")
	if err := parseCommandFlags(env, "version", fs, args, 0); err != nil {
		return err
	}
	fmt.Fprintln(env.out, version.GetVersionInfo().String())
	return nil
}
