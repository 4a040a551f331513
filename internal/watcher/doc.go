// Package watcher bridges asynchronous filesystem notifications to a
// synchronously polled queue.
//
// Each FileWatcher runs exactly one worker goroutine that receives
// notifications from its Backend, normalizes them to Event records, and
// appends them to an in-memory FIFO. Poll drains the FIFO without blocking.
// Delivery is best effort: the OS may coalesce or drop notifications under
// load, but every record that reaches the queue is kept in arrival order
// until polled. With no queue limit an unpolled watcher grows without bound;
// polling is the caller's responsibility.
package watcher
