package cli

import (
	"errors"
	"io"
	"testing"

	"github.com/spf13/pflag"
)

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestHelpFlag(t *testing.T) {
	fs := newFlagSet()
	flags := AddHelpVersionFlags(fs, "", "")

	if err := fs.Parse([]string{"-h"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !flags.Help {
		t.Fatalf("expected help flag set")
	}
}

func TestVersionFlag(t *testing.T) {
	fs := newFlagSet()
	flags := AddHelpVersionFlags(fs, "", "")

	if err := fs.Parse([]string{"--version"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !flags.Version {
		t.Fatalf("expected version flag set")
	}
}

func TestExactArgs(t *testing.T) {
	fs := newFlagSet()
	if err := fs.Parse([]string{"one", "two"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := ExactArgs(fs, 2, "cmd A B"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := ExactArgs(fs, 1, "cmd A")
	var usage *UsageError
	if !errors.As(err, &usage) || usage.Message != "usage: cmd A" {
		t.Fatalf("expected usage error, got %v", err)
	}
}
