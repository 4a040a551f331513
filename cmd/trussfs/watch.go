package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trussfs/internal/api"
	"trussfs/internal/fsapi"
)

const (
	defaultWatchInterval = 250 * time.Millisecond
	serverShutdownGrace  = 2 * time.Second
)

func runWatch(env *commandEnv, args []string) error {
	fs := newFlagSet("watch")
	recursive := fs.BoolP("recursive", "r", false, "Watch every directory below each path")
	interval := fs.Duration("interval", defaultWatchInterval, "Poll interval")
	duration := fs.Duration("duration", 0, "Stop after this long (0 runs until interrupted)")
	count := fs.Int("count", 0, "Stop after printing this many records (0 means no limit)")
	listen := fs.String("listen", "", "Serve records as a websocket stream on ADDR (/events, /metrics, /logs)")
	token := fs.String("token", "", "Bearer token required by --listen clients")
	if err := parseCommandFlags(env, "watch", fs, args, -1); err != nil {
		return err
	}
	if *interval <= 0 {
		*interval = defaultWatchInterval
	}

	paths := fs.Args()
	watched := env.ctx.Watch(paths[0], *recursive)
	if watched == fsapi.InvalidWatcher {
		return env.failure()
	}
	defer env.ctx.FreeWatcher(watched)
	for _, path := range paths[1:] {
		if !env.ctx.AddWatch(watched, path, *recursive) {
			return env.failure()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signalCh := make(chan os.Signal, 2)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signalCh)
	stopSignals := watchShutdownSignals(env.logger, cancel, signalCh)
	defer stopSignals()
	if *duration > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, *duration)
		defer cancelTimeout()
	}

	poll := func() ([]string, error) {
		return env.poll(watched)
	}
	if *listen != "" {
		return env.serveEvents(ctx, *listen, *token, *interval, poll)
	}

	printed := 0
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		records, err := poll()
		if err != nil {
			return err
		}
		for _, record := range records {
			fmt.Fprintln(env.out, record)
			printed++
			if *count > 0 && printed >= *count {
				return nil
			}
		}
	}
}

func (env *commandEnv) poll(watched fsapi.WatcherHandle) ([]string, error) {
	list := env.ctx.PollEvents(watched)
	if list == fsapi.InvalidList {
		return nil, env.failure()
	}
	defer env.ctx.FreeList(list)
	records, ok := env.ctx.ListItems(list)
	if !ok {
		return nil, env.failure()
	}
	return records, nil
}

func (env *commandEnv) serveEvents(ctx context.Context, addr, token string, interval time.Duration, poll api.PollFunc) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	handler := api.NewRouter(api.RouterOptions{
		Events:       poll,
		PollInterval: interval,
		Metrics:      env.metrics,
		AuthToken:    token,
		Logger:       env.logger,
	})
	server := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	fmt.Fprintf(env.errOut, "serving change records on ws://%s/events\n", listener.Addr())

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownGrace)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
