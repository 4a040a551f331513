// Command trussfs drives the trussfs library from the shell: directory
// listings, path splitting, zip inspection and extraction, and change
// watching, all through the same Context the C library exposes.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"trussfs"
	"trussfs/internal/cli"
	"trussfs/internal/config"
	"trussfs/internal/fsapi"
	"trussfs/internal/logging"
	"trussfs/internal/metrics"
	"trussfs/internal/version"
)

const (
	exitCodeSuccess = 0
	exitCodeFailure = 1
	exitCodeUsage   = 2
)

type globalOptions struct {
	ConfigPath  string
	LogLevel    string
	ShowMetrics bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	return runWithEnv(args, out, errOut, os.LookupEnv)
}

func runWithEnv(args []string, out io.Writer, errOut io.Writer, lookup func(string) (string, bool)) int {
	fs := pflag.NewFlagSet("trussfs", pflag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.SetInterspersed(false)
	var global globalOptions
	fs.StringVar(&global.ConfigPath, "config", "", "Settings file, TOML or YAML (env: TRUSSFS_CONFIG)")
	fs.StringVar(&global.LogLevel, "log-level", "", "Log level: trace, debug, info, warning, error (env: TRUSSFS_LOG_LEVEL)")
	fs.BoolVar(&global.ShowMetrics, "metrics", false, "Print Prometheus counters to stderr after the command")
	helpVersion := cli.AddHelpVersionFlags(fs, "Show this help message", "Print version and exit")
	fs.Usage = func() {
		printHelp(fs.Output(), fs)
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitCodeSuccess
		}
		return exitCodeUsage
	}
	if helpVersion.Help {
		fs.Usage()
		return exitCodeSuccess
	}
	if helpVersion.Version {
		fmt.Fprintln(out, version.GetVersionInfo().String())
		return exitCodeSuccess
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitCodeUsage
	}

	name := fs.Arg(0)
	cmd, ok := lookupCommand(name)
	if !ok {
		fmt.Fprintf(errOut, "unknown command %q\n", name)
		fs.Usage()
		return exitCodeUsage
	}

	settings, err := loadSettings(global, lookup)
	if err != nil {
		return exitCode(fmt.Errorf("load settings: %w", err), errOut)
	}
	logger := settings.NewLogger()
	registry := &metrics.Registry{}

	ctx := fsapi.New(fsapi.Options{
		Logger:   logger,
		Metrics:  registry,
		Settings: settings,
	})
	env := &commandEnv{
		ctx:     ctx,
		out:     out,
		errOut:  errOut,
		logger:  logger,
		metrics: registry,
	}
	err = cmd.run(env, fs.Args()[1:])
	ctx.Shutdown()

	if global.ShowMetrics {
		_ = registry.WritePrometheus(errOut)
	}
	return exitCode(err, errOut)
}

func loadSettings(global globalOptions, lookup func(string) (string, bool)) (config.Settings, error) {
	path := strings.TrimSpace(global.ConfigPath)
	if path == "" {
		if value, ok := lookup(config.EnvConfigPath); ok {
			path = strings.TrimSpace(value)
		}
	}
	overrides := config.EnvOverrides(lookup)
	if level := strings.TrimSpace(global.LogLevel); level != "" {
		if _, ok := logging.ParseLevel(level); !ok {
			return config.Settings{}, cli.Usagef("invalid log level %q", level)
		}
		overrides["log.level"] = level
	}
	return config.LoadSettings(path, trussfs.DefaultConfig, overrides)
}

func exitCode(err error, errOut io.Writer) int {
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return exitCodeSuccess
	}
	fmt.Fprintf(errOut, "trussfs: %v\n", err)
	var usage *cli.UsageError
	if errors.As(err, &usage) {
		return exitCodeUsage
	}
	return exitCodeFailure
}

func printHelp(out io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintln(out, "Usage: trussfs [options] <command> [args]")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(out, "  %-12s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Options:")
	fmt.Fprint(out, fs.FlagUsages())
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Exit codes:")
	fmt.Fprintln(out, "  0  Success")
	fmt.Fprintln(out, "  1  Operation failed")
	fmt.Fprintln(out, "  2  Usage error")
}
