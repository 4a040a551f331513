package main

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"trussfs/internal/logging"
)

func TestWatchShutdownSignalsCancelsOnce(t *testing.T) {
	buffer := logging.NewLogBuffer(16)
	logger := logging.NewLoggerWithOutput(buffer, logging.LevelInfo, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals := make(chan os.Signal, 3)
	stop := watchShutdownSignals(logger, cancel, signals)
	defer stop()

	signals <- os.Interrupt
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("signal did not cancel")
	}

	signals <- os.Interrupt
	signals <- os.Interrupt
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if countMessages(buffer, "already stopping") == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	if got := countMessages(buffer, "stop signal received"); got != 1 {
		t.Fatalf("expected one stop log, got %d", got)
	}
	if got := countMessages(buffer, "already stopping"); got != 1 {
		t.Fatalf("expected one repeat log, got %d", got)
	}
}

func countMessages(buffer *logging.LogBuffer, prefix string) int {
	count := 0
	for _, entry := range buffer.List() {
		if strings.HasPrefix(entry.Message, prefix) {
			count++
		}
	}
	return count
}
