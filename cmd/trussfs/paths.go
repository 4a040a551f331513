package main

import "fmt"

func runList(env *commandEnv, args []string) error {
	fs := newFlagSet("ls")
	filesOnly := fs.Bool("files", false, "Only list entries that resolve to regular files")
	long := fs.BoolP("long", "l", false, "Prefix entries with kind and symlink flags")
	if err := parseCommandFlags(env, "ls", fs, args, 1); err != nil {
		return err
	}
	return env.printList(env.ctx.ListDir(fs.Arg(0), *filesOnly, *long))
}

func runSplit(env *commandEnv, args []string) error {
	fs := newFlagSet("split")
	if err := parseCommandFlags(env, "split", fs, args, 1); err != nil {
		return err
	}
	return env.printList(env.ctx.SplitPath(fs.Arg(0)))
}

func runMakeDirs(env *commandEnv, args []string) error {
	fs := newFlagSet("mkdir")
	if err := parseCommandFlags(env, "mkdir", fs, args, 1); err != nil {
		return err
	}
	if !env.ctx.MakeDirs(fs.Arg(0)) {
		return env.failure()
	}
	return nil
}

func runDirs(env *commandEnv, args []string) error {
	fs := newFlagSet("dirs")
	if err := parseCommandFlags(env, "dirs", fs, args, 0); err != nil {
		return err
	}
	working, ok := env.ctx.WorkingDir()
	if !ok {
		return env.failure()
	}
	binary, ok := env.ctx.BinaryDir()
	if !ok {
		return env.failure()
	}
	fmt.Fprintf(env.out, "working %s\n", working)
	fmt.Fprintf(env.out, "binary  %s\n", binary)
	return nil
}
