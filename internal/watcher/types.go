package watcher

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"trussfs/internal/buffer"
	"trussfs/internal/logging"
	"trussfs/internal/metrics"
)

var (
	ErrMaxWatchesExceeded = errors.New("max watches exceeded")
	ErrNotWatched         = errors.New("path is not watched")
	ErrClosed             = errors.New("watcher is closed")
)

// Kind classifies a normalized change.
type Kind string

const (
	KindAdd    Kind = "ADD"
	KindAccess Kind = "ACC"
	KindModify Kind = "MOD"
	KindRemove Kind = "REM"
	KindOther  Kind = "other"
)

// Event is one record in the poll queue: either a change notification or an
// error reported by the backend.
type Event struct {
	Kind  Kind
	Paths []string
	Err   error
}

// String renders "{kind}:{path;path...}", or the error text for error
// records.
func (e Event) String() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind) + ":" + strings.Join(e.Paths, ";")
}

// Backend is the OS-level notification mechanism.
type Backend interface {
	Add(path string) error
	Remove(path string) error
	// Run delivers notifications and errors until Close is called, then
	// returns. It is called once, from the watcher's worker goroutine.
	Run(deliver func(Event), fail func(error))
	Close() error
}

// Options controls watcher behavior.
type Options struct {
	Logger  *logging.Logger
	Metrics *metrics.Registry
	// QueueLimit caps undelivered records; the oldest is dropped when full.
	// Zero keeps everything.
	QueueLimit int
	// MaxWatches caps subscribed paths, counting every directory of a
	// recursive subscription. Zero is unlimited.
	MaxWatches int
	// Backend overrides the fsnotify backend.
	Backend Backend
}

// Stats reports current watcher counters.
type Stats struct {
	ActiveWatches   int
	Pending         int
	EventsDelivered uint64
	EventsDropped   uint64
	Errors          uint64
}

type subscription struct {
	recursive bool
	paths     []string
}

// FileWatcher owns a backend subscription set and the queue its worker
// fills.
type FileWatcher struct {
	backend    Backend
	logger     *logging.Logger
	metrics    *metrics.Registry
	maxWatches int

	mutex   sync.Mutex
	roots   map[string]*subscription
	watched map[string]int
	closed  bool

	queueMutex sync.Mutex
	queue      *buffer.Queue[Event]
	stopped    bool

	worker sync.WaitGroup

	eventsDelivered atomic.Uint64
	eventsDropped   atomic.Uint64
	errorCount      atomic.Uint64
}
