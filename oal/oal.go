// Package oal is the operating-system abstraction layer (C12): contracts
// for threads, mutexes, time, and aligned allocation, with host
// implementations. The scheduler's thread is started through these
// contracts; other packages still use sync and sync/atomic directly for
// their own locks and counters, and pipeline.Destroy joins goroutines
// through errgroup.
package oal

import "context"

// Thread creates and joins a worker goroutine. The host implementation in
// host.go backs it with go func() + sync.WaitGroup; a constrained target
// would back it with a real OS thread of a fixed stack size.
type Thread interface {
	// Start launches entry on its own thread. Name and Priority are hints;
	// a host implementation may ignore them.
	Start(cfg ThreadConfig, entry func(ctx context.Context))
	// Stop cancels the thread's context and blocks until entry returns.
	Stop()
}

// ThreadConfig carries the thread parameters a constrained target needs
// up front; a host implementation may treat most of them as hints.
type ThreadConfig struct {
	Name         string
	StackBytes   int
	StackInExt   bool // place the stack in external memory, if supported
	Priority     int
	CoreAffinity int // -1 = no affinity
}

// Mutex is a lock that, unless explicitly configured otherwise, must not
// be re-entered by the same goroutine.
type Mutex interface {
	Lock()
	Unlock()
}

// MutexFactory creates a Mutex, optionally allowing recursive locking.
type MutexFactory interface {
	New(recursive bool) Mutex
}

// Clock is the monotonic time source used for PTS stamping and scheduler
// timeouts.
type Clock interface {
	NowMs() int64
	Sleep(ms int64)
}

// Allocator abstracts aligned allocation so a constrained target can back
// it with a real aligned-alloc/external-RAM allocator.
type Allocator interface {
	// Malloc returns a zeroed buffer of at least n bytes, aligned to align
	// bytes (align must be a power of two; 1 means "no special alignment").
	Malloc(align, n int) []byte
}

// Logger is the ambient logging sink. Print-family calls never allocate on
// a host that routes through x/fmtx's MCU backend; the default host
// implementation uses x/fmtx's host backend, which is just fmt.
type Logger interface {
	Printf(format string, args ...any)
	Println(args ...any)
}
