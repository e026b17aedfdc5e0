package digest

import (
	"encoding/hex"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

const (
	// bufSize is the outer read window a worker consumes from the shared
	// backing view per iteration.
	bufSize = 4 << 20 // 4 MiB
	// feedSize is the inner increment fed to the running hash, chosen to
	// keep the working set cache friendly.
	feedSize = 8 << 10 // 8 KiB
)

// Job describes one record's digest computation: a byte range against the
// pool's shared backing view, and where to deposit the result.
type Job struct {
	Offset int64
	Size   int64
	Result *string
}

// Pool is a fixed-size (1-20) group of workers draining a single FIFO
// queue of Jobs against one shared, read-only backing view. It mirrors a
// classic mutex-plus-two-condition-variables work queue: "not empty"
// wakes an idle worker, "drained" wakes a shutdown waiter.
type Pool struct {
	data    []byte
	newHash NewFunc

	mu       sync.Mutex
	notEmpty *sync.Cond
	drained  *sync.Cond
	queue    []Job
	inflight int
	closed   bool
	shutdown bool

	wg sync.WaitGroup
}

// NewPool starts a pool of workers reading payloads out of data (the
// archive's mmap'd view) and hashing them with newHash.
func NewPool(data []byte, workers int, newHash NewFunc) *Pool {
	p := &Pool{data: data, newHash: newHash}
	p.notEmpty = sync.NewCond(&p.mu)
	p.drained = sync.NewCond(&p.mu)
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit enqueues a job. It is a no-op after CloseAndWait has begun
// draining the queue.
func (p *Pool) Submit(j Job) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.queue = append(p.queue, j)
	p.inflight++
	p.mu.Unlock()
	p.notEmpty.Signal()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.shutdown {
			p.notEmpty.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		j := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()

		compute(j, p.data, p.newHash)

		p.mu.Lock()
		p.inflight--
		if p.inflight == 0 && len(p.queue) == 0 {
			p.drained.Broadcast()
		}
		p.mu.Unlock()
	}
}

// compute streams the job's payload through a fresh hash in bufSize outer
// reads fed feedSize at a time, and hex-encodes the result. Each time a
// full outer buffer is consumed, it advises the kernel to prefetch the
// next one so the worker doesn't stall on a page fault for it.
func compute(j Job, data []byte, newHash NewFunc) {
	h := newHash()
	start := j.Offset
	remaining := j.Size
	for remaining > 0 {
		chunk := int64(bufSize)
		if remaining < chunk {
			chunk = remaining
		}
		end := start + chunk
		if end > int64(len(data)) {
			end = int64(len(data))
		}
		buf := data[start:end]
		for len(buf) > 0 {
			n := feedSize
			if n > len(buf) {
				n = len(buf)
			}
			h.Write(buf[:n])
			buf = buf[n:]
		}

		nextEnd := end + bufSize
		// madvise needs a page-aligned start; the mmap'd view itself is.
		nextStart := end &^ int64(os.Getpagesize()-1)
		if nextEnd > int64(len(data)) {
			nextEnd = int64(len(data))
		}
		if nextEnd > nextStart {
			unix.Madvise(data[nextStart:nextEnd], unix.MADV_WILLNEED)
		}

		start = end
		remaining -= chunk
	}
	*j.Result = hex.EncodeToString(h.Sum(nil))
}

// CloseAndWait implements the queue's shutdown protocol: prevent new
// enqueues, wait for the queue to fully drain, signal every worker to
// wake and exit, then join them all.
func (p *Pool) CloseAndWait() {
	p.mu.Lock()
	p.closed = true
	for p.inflight > 0 || len(p.queue) > 0 {
		p.drained.Wait()
	}
	p.shutdown = true
	p.mu.Unlock()
	p.notEmpty.Broadcast()
	p.wg.Wait()
}
