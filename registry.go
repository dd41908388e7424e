package asynccall

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/alitto/asynccall/queue"
)

// Kind selects one of the two queues of a Registry.
type Kind int

const (
	// KindIO is the queue for blocking, mostly waiting work such as file system calls.
	KindIO Kind = iota
	// KindCPU is the queue for CPU intensive work such as compression.
	KindCPU
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "I/O-oriented"
	case KindCPU:
		return "CPU-oriented"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Factory builds the queue of a kind from its configuration.
type Factory func(kind Kind, cfg QueueConfig) (*queue.Queue, error)

// Option customizes a Registry.
type Option func(*Registry)

// WithLogger sets the logger of the registry and of the queues it builds. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithFactory replaces the function used to build queues.
func WithFactory(factory Factory) Option {
	return func(r *Registry) {
		if factory != nil {
			r.factory = factory
		}
	}
}

// Registry owns an I/O-oriented and a CPU-oriented queue, each constructed on first access.
//
// Construction happens at most once per queue even under concurrent first access. Once
// constructed, access is a single atomic load. If construction fails, the queue is poisoned and
// every access panics with an error wrapping ErrPoisoned.
type Registry struct {
	cfg     Config
	logger  *slog.Logger
	factory Factory
	io      lazyQueue
	cpu     lazyQueue

	// handedOut is set once Default has returned this registry
	handedOut atomic.Bool
}

// NewRegistry creates a registry. No queue is built until it is first accessed.
func NewRegistry(cfg Config, opts ...Option) *Registry {
	r := &Registry{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.factory == nil {
		r.factory = r.newQueue
	}

	r.io.init(r, KindIO, cfg.IO)
	r.cpu.init(r, KindCPU, cfg.CPU)

	return r
}

// IO returns the I/O-oriented queue.
func (r *Registry) IO() *queue.Queue {
	return r.io.get()
}

// CPU returns the CPU-oriented queue.
func (r *Registry) CPU() *queue.Queue {
	return r.cpu.get()
}

// Queue returns the queue of the given kind.
func (r *Registry) Queue(kind Kind) *queue.Queue {
	switch kind {
	case KindIO:
		return r.IO()
	case KindCPU:
		return r.CPU()
	default:
		panic(fmt.Sprintf("asynccall: unknown queue kind %d", int(kind)))
	}
}

// Initialized reports whether the queue of the given kind has been constructed.
func (r *Registry) Initialized(kind Kind) bool {
	switch kind {
	case KindIO:
		return r.io.cached.Load() != nil
	case KindCPU:
		return r.cpu.cached.Load() != nil
	default:
		return false
	}
}

// Queues returns the queues constructed so far, without constructing the others.
func (r *Registry) Queues() []*queue.Queue {
	queues := make([]*queue.Queue, 0, 2)
	for _, l := range []*lazyQueue{&r.io, &r.cpu} {
		if q := l.cached.Load(); q != nil {
			queues = append(queues, q)
		}
	}
	return queues
}

// Stop stops the queues constructed so far and waits for their accepted tasks.
// Stopped queues stay in the registry and reject new tasks.
func (r *Registry) Stop() {
	for _, q := range r.Queues() {
		q.Stop()
	}
}

func (r *Registry) newQueue(kind Kind, cfg QueueConfig) (*queue.Queue, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	name := cfg.Name
	if name == "" {
		name = defaultQueueName(kind)
	}

	opts := append(cfg.options(), queue.WithLogger(r.logger))
	return queue.New(name, opts...)
}

func defaultQueueName(kind Kind) string {
	if kind == KindIO {
		return DefaultIOQueueName
	}
	return DefaultCPUQueueName
}

// lazyQueue is a queue constructed at most once, guarded by a mutex on the slow path only.
type lazyQueue struct {
	registry *Registry
	kind     Kind
	cfg      QueueConfig
	cached   atomic.Pointer[queue.Queue]
	mutex    sync.Mutex
	poisoned error
}

func (l *lazyQueue) init(r *Registry, kind Kind, cfg QueueConfig) {
	l.registry = r
	l.kind = kind
	l.cfg = cfg
}

func (l *lazyQueue) get() *queue.Queue {
	if q := l.cached.Load(); q != nil {
		return q
	}
	return l.construct()
}

func (l *lazyQueue) construct() *queue.Queue {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.poisoned != nil {
		panic(l.poisoned)
	}

	// Another goroutine may have won the race for the mutex
	if q := l.cached.Load(); q != nil {
		return q
	}

	logger := l.registry.logger.With(slog.String("kind", l.kind.String()))

	q, err := l.build()
	if err != nil {
		l.poisoned = fmt.Errorf("%w: %s queue: %w", ErrPoisoned, l.kind, err)
		logger.Error("default queue construction failed", slog.Any("error", err))
		panic(l.poisoned)
	}

	l.cached.Store(q)

	logger.Info("default queue initialized",
		slog.String("queue", q.Name()),
		slog.String("executor", q.Executor().String()),
		slog.Int("max_workers", q.MaxWorkers()))

	return q
}

// build runs the factory, turning a panic into an error
func (l *lazyQueue) build() (q *queue.Queue, err error) {
	defer func() {
		if p := recover(); p != nil {
			q, err = nil, fmt.Errorf("construction panicked: %v", p)
		}
	}()

	q, err = l.registry.factory(l.kind, l.cfg)
	if err == nil && q == nil {
		err = errors.New("factory returned no queue")
	}
	return q, err
}
