package oal

import (
	"context"
	"runtime"
	"sync"

	"gmf-go/x/fmtx"
	"gmf-go/x/timex"
)

// HostThread is the go-routine-backed Thread implementation used on a
// regular Go host (and by every test in this module).
type HostThread struct {
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewHostThread() *HostThread { return &HostThread{} }

func (t *HostThread) Start(cfg ThreadConfig, entry func(ctx context.Context)) {
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		entry(ctx)
	}()
}

func (t *HostThread) Stop() {
	if t.cancel != nil {
		t.cancel()
	}
	t.wg.Wait()
}

// HostMutexFactory backs Mutex with sync.Mutex (non-recursive) or a
// goroutine-owned recursive mutex when recursive is requested.
type HostMutexFactory struct{}

func (HostMutexFactory) New(recursive bool) Mutex {
	if recursive {
		return newRecursiveMutex()
	}
	return &sync.Mutex{}
}

// recursiveMutex allows the owning goroutine to re-enter Lock. The owner is
// identified by goroutine id (parsed from runtime.Stack, the only portable
// way to get one); a non-owner blocks on the inner mutex until the owner's
// outermost Unlock releases it.
type recursiveMutex struct {
	mu    sync.Mutex
	state sync.Mutex // guards owner/depth
	owner uint64
	depth int
}

func newRecursiveMutex() *recursiveMutex {
	return &recursiveMutex{}
}

func (m *recursiveMutex) Lock() {
	id := goid()
	m.state.Lock()
	if m.depth > 0 && m.owner == id {
		m.depth++
		m.state.Unlock()
		return
	}
	m.state.Unlock()

	m.mu.Lock()
	m.state.Lock()
	m.owner = id
	m.depth = 1
	m.state.Unlock()
}

func (m *recursiveMutex) Unlock() {
	m.state.Lock()
	m.depth--
	release := m.depth == 0
	m.state.Unlock()
	if release {
		m.mu.Unlock()
	}
}

// goid parses the current goroutine's id from the first line of its stack
// trace ("goroutine N [running]:").
func goid() uint64 {
	var buf [32]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for _, c := range buf[10:n] { // skip "goroutine "
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + uint64(c-'0')
	}
	return id
}

// HostClock backs Clock with x/timex and time.Sleep.
type HostClock struct{}

func (HostClock) NowMs() int64 { return timex.NowMs() }
func (HostClock) Sleep(ms int64) {
	if ms <= 0 {
		return
	}
	sleepMs(ms)
}

// HostAllocator approximates aligned allocation on top of Go's
// GC-managed slices: it over-allocates by align bytes and returns a
// sub-slice whose backing pointer satisfies the alignment. A constrained
// target backs Allocator with a real aligned allocator instead.
type HostAllocator struct{}

func (HostAllocator) Malloc(align, n int) []byte {
	if align <= 1 {
		return make([]byte, n)
	}
	buf := make([]byte, n+align)
	off := alignOffset(buf, align)
	return buf[off : off+n : off+n]
}

// DefaultLogger prints through x/fmtx's host backend (plain fmt on a
// regular Go build).
type DefaultLogger struct{}

func (DefaultLogger) Printf(format string, args ...any) { fmtx.Printf(format, args...) }
func (DefaultLogger) Println(args ...any)               { fmtx.Print(append(args, "\n")...) }
