package tee

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/marmos91/ztee/pkg/splice"
)

// result is one scripted primitive outcome.
type result struct {
	n   int64
	err error
}

// wbCall is one recorded writeback request.
type wbCall struct {
	kind string
	fd   int
	off  int64
	n    int64
}

// fakeSys records calls and either forwards them to a real splice.Syscalls or
// answers from scripts. With no real backend, pipes get synthetic descriptor
// numbers that are never passed to the kernel.
type fakeSys struct {
	real splice.Syscalls

	failPipe  int // fail the n-th Pipe call, 1-based
	pipeLimit int // largest capacity granted to synthetic pipes, 0 for no limit
	pipeCalls int
	nextFd    int

	tees    map[int][]result // scripted tee results per output fd
	teeLog  []int            // output fd of every tee call
	splices []result         // scripted splice results, in order

	writebacks []wbCall
	wbErr      error

	closed []int
}

func newFakeSys() *fakeSys {
	return &fakeSys{nextFd: 100, tees: make(map[int][]result)}
}

func (f *fakeSys) Pipe(size int) (int, int, int, error) {
	f.pipeCalls++
	if f.pipeCalls == f.failPipe {
		return -1, -1, 0, unix.EMFILE
	}
	if f.real != nil {
		return f.real.Pipe(size)
	}
	r, w := f.nextFd, f.nextFd+1
	f.nextFd += 2
	if f.pipeLimit > 0 && size > f.pipeLimit {
		size = f.pipeLimit
	}
	return r, w, size, nil
}

func (f *fakeSys) Tee(in, out, n int) (int64, error) {
	f.teeLog = append(f.teeLog, out)
	if script := f.tees[out]; len(script) > 0 {
		f.tees[out] = script[1:]
		return min(script[0].n, int64(n)), script[0].err
	}
	if f.real != nil {
		return f.real.Tee(in, out, n)
	}
	return 0, nil
}

func (f *fakeSys) Splice(in, out, n int) (int64, error) {
	if len(f.splices) > 0 {
		r := f.splices[0]
		f.splices = f.splices[1:]
		return min(r.n, int64(n)), r.err
	}
	if f.real != nil {
		return f.real.Splice(in, out, n)
	}
	return int64(n), nil
}

func (f *fakeSys) StartWriteback(fd int, off, n int64) error {
	f.writebacks = append(f.writebacks, wbCall{WritebackAsync, fd, off, n})
	if f.wbErr != nil {
		return f.wbErr
	}
	if f.real != nil {
		return f.real.StartWriteback(fd, off, n)
	}
	return nil
}

func (f *fakeSys) WritebackEvict(fd int, off, n int64) error {
	f.writebacks = append(f.writebacks, wbCall{WritebackEvict, fd, off, n})
	if f.wbErr != nil {
		return f.wbErr
	}
	if f.real != nil {
		return f.real.WritebackEvict(fd, off, n)
	}
	return nil
}

func (f *fakeSys) Close(fd int) error {
	f.closed = append(f.closed, fd)
	if f.real != nil {
		return f.real.Close(fd)
	}
	return nil
}

// recordingMetrics is a Metrics implementation for assertions.
type recordingMetrics struct {
	mu         sync.Mutex
	chunks     int
	bytes      int64
	retries    int
	relays     int
	writebacks map[string]int
	runs       int
	runErr     error
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{writebacks: make(map[string]int)}
}

func (m *recordingMetrics) ObserveChunk(bytes int64, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks++
	m.bytes += bytes
}

func (m *recordingMetrics) RecordRetry() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retries++
}

func (m *recordingMetrics) RecordRelays(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relays = count
}

func (m *recordingMetrics) RecordWriteback(kind string, _ int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writebacks[kind]++
}

func (m *recordingMetrics) ObserveRun(_ int64, _ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs++
	m.runErr = err
}

// openFds counts the descriptors open in this process.
func openFds(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir("/proc/self/fd")
	require.NoError(t, err)
	return len(entries)
}
