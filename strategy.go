package gradblend

import (
	"fmt"
	"sync"

	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

// Strategy decides how the sweeps of a reconstruction are executed. Every
// strategy must produce bit-identical results; they differ only in speed.
type Strategy interface {
	Name() string
	// Bind prepares working state for reconstructing f.
	Bind(f *Field) (Kernel, error)
}

// Kernel executes the sweeps of one reconstruction.
type Kernel interface {
	// Sweep runs one phase over every channel and returns when all of its
	// updates are complete.
	Sweep(p Phase)
	// Sync waits for outstanding work. It is called once, after the last
	// sweep.
	Sync()
	// Release drops working state.
	Release()
}

// Serial returns the strategy that runs every sweep on the calling
// goroutine.
func Serial() Strategy {
	return serial{}
}

type serial struct{}

func (serial) Name() string { return "serial" }

func (serial) Bind(f *Field) (Kernel, error) {
	return &serialKernel{f: f}, nil
}

type serialKernel struct {
	f *Field
}

func (k *serialKernel) Sweep(p Phase) {
	f := k.f
	if f.w < 3 || f.h < 3 {
		return
	}
	for c := range f.img {
		img := f.img[c].RawMatrix()
		if p.Horizontal() {
			sweepRows(p, img, f.gradX[c].RawMatrix(), 1, f.h-1)
		} else {
			sweepCols(p, img, f.gradY[c].RawMatrix(), 1, f.w-1)
		}
	}
}

func (k *serialKernel) Sync()    {}
func (k *serialKernel) Release() { k.f = nil }

// Parallel splits each sweep into bands of scanlines, one channel at a time,
// and runs the bands on a persistent worker pool. Horizontal sweeps read a
// transposed working copy of grad_x; the field itself is never transposed.
//
// A Parallel strategy may be shared by solvers on different fields. Close
// stops its workers.
type Parallel struct {
	// mu is held for reading while a sweep uses the pool and for writing by
	// Close, so the pool is never closed under a running sweep.
	mu   sync.RWMutex
	pool *workerpool.Pool
}

// NewParallel starts a strategy with the given number of workers.
// If workers <= 0, GOMAXPROCS is used.
func NewParallel(workers int) *Parallel {
	return &Parallel{pool: workerpool.New(workers)}
}

func (s *Parallel) Name() string { return "parallel" }

// Workers returns the number of worker goroutines.
func (s *Parallel) Workers() int { return s.pool.NumWorkers() }

// Close stops the workers once the sweeps in flight have finished. It may
// be called while other goroutines are solving; later sweeps run on the
// calling goroutine.
func (s *Parallel) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pool.Close()
	return nil
}

func (s *Parallel) Bind(f *Field) (Kernel, error) {
	k := &parallelKernel{
		s:   s,
		w:   f.w,
		h:   f.h,
		img: make([]blas64.General, len(f.img)),
		gxT: make([]*mat.Dense, len(f.gradX)),
		gy:  make([]blas64.General, len(f.gradY)),
	}
	if f.w < 3 || f.h < 3 {
		// No interior samples; Sweep does nothing.
		return k, nil
	}
	for c := range f.img {
		k.img[c] = f.img[c].RawMatrix()
		k.gxT[c] = mat.DenseCopyOf(f.gradX[c].T())
		k.gy[c] = f.gradY[c].RawMatrix()
		if r, n := k.gxT[c].Dims(); r != f.w-1 || n != f.h {
			return nil, fmt.Errorf("%w: transposed grad_x of channel %d is %dx%d", ErrShapeMismatch, c, n, r)
		}
	}
	return k, nil
}

type parallelKernel struct {
	s    *Parallel
	w, h int
	img  []blas64.General
	gxT  []*mat.Dense
	gy   []blas64.General
}

func (k *parallelKernel) Sweep(p Phase) {
	if k.w < 3 || k.h < 3 {
		return
	}
	if p.Horizontal() {
		k.fanOut(k.h-2, func(c, lo, hi int) {
			sweepRowsT(p, k.img[c], k.gxT[c].RawMatrix(), lo+1, hi+1)
		})
		return
	}
	k.fanOut(k.w-2, func(c, lo, hi int) {
		sweepCols(p, k.img[c], k.gy[c], lo+1, hi+1)
	})
}

// fanOut distributes n interior scanlines of every channel over the pool.
// fn receives a channel and a half-open range of scanlines within it.
func (k *parallelKernel) fanOut(n int, fn func(c, lo, hi int)) {
	if n <= 0 {
		return
	}
	k.s.mu.RLock()
	defer k.s.mu.RUnlock()
	k.s.pool.ParallelFor(len(k.img)*n, func(start, end int) {
		for start < end {
			c, lo := start/n, start%n
			hi := min(n, lo+end-start)
			fn(c, lo, hi)
			start += hi - lo
		}
	})
}

func (k *parallelKernel) Sync() {}

func (k *parallelKernel) Release() {
	k.img, k.gxT, k.gy = nil, nil, nil
}

// StrategyByName returns "serial" or "parallel". The parallel strategy
// implements io.Closer and should be closed by the caller.
func StrategyByName(name string, workers int) (Strategy, error) {
	switch name {
	case "", "serial":
		return Serial(), nil
	case "parallel":
		return NewParallel(workers), nil
	default:
		return nil, fmt.Errorf("gradblend: unknown strategy %q", name)
	}
}
