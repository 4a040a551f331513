// Package cli holds flag helpers shared by the trussfs commands.
package cli

import (
	"fmt"

	"github.com/spf13/pflag"
)

const (
	defaultHelpDesc    = "Show help"
	defaultVersionDesc = "Print version and exit"
)

type HelpVersionFlags struct {
	Help    bool
	Version bool
}

func AddHelpVersionFlags(fs *pflag.FlagSet, helpDesc, versionDesc string) *HelpVersionFlags {
	if fs == nil {
		return &HelpVersionFlags{}
	}
	if helpDesc == "" {
		helpDesc = defaultHelpDesc
	}
	if versionDesc == "" {
		versionDesc = defaultVersionDesc
	}
	flags := &HelpVersionFlags{}
	fs.BoolVarP(&flags.Help, "help", "h", false, helpDesc)
	fs.BoolVarP(&flags.Version, "version", "v", false, versionDesc)
	return flags
}

// UsageError marks a command-line mistake, as opposed to an operation that
// ran and failed.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

func Usagef(format string, args ...any) error {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

// ExactArgs checks the positional argument count of a subcommand.
func ExactArgs(fs *pflag.FlagSet, want int, usage string) error {
	if fs.NArg() != want {
		return Usagef("usage: %s", usage)
	}
	return nil
}
