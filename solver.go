package gradblend

import (
	"context"
	"fmt"
	"time"
)

// Solver reconstructs image buffers from their target gradients by cycling
// through the four directional relaxation sweeps. Each update averages a
// sample with the value its already-updated neighbor predicts:
//
//	left-to-right  img[y][x] = (img[y][x] + img[y][x-1] + gx[y][x-1]) / 2
//	top-to-bottom  img[y][x] = (img[y][x] + img[y-1][x] + gy[y-1][x]) / 2
//	right-to-left  img[y][x] = (img[y][x] + img[y][x+1] - gx[y][x]) / 2
//	bottom-to-top  img[y][x] = (img[y][x] + img[y+1][x] - gy[y][x]) / 2
//
// The outermost rows and columns are never written; they act as a fixed
// boundary.
type Solver struct {
	strategy Strategy
}

// NewSolver returns a solver that executes sweeps with s. A nil s selects
// Serial.
func NewSolver(s Strategy) *Solver {
	if s == nil {
		s = Serial()
	}
	return &Solver{strategy: s}
}

func (s *Solver) Strategy() Strategy {
	return s.strategy
}

// Reconstruct runs exactly steps sweeps on f, starting left to right.
// There is no convergence check. Zero steps is a no-op.
func (s *Solver) Reconstruct(f *Field, steps int) error {
	return s.ReconstructContext(context.Background(), f, steps)
}

// ReconstructContext is Reconstruct with cancellation. ctx is checked only
// between sweeps, so a cancelled solve leaves f holding the result of the
// sweeps that completed.
func (s *Solver) ReconstructContext(ctx context.Context, f *Field, steps int) error {
	if f == nil {
		return fmt.Errorf("%w: nil field", ErrShapeMismatch)
	}
	if steps < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidIterationCount, steps)
	}
	if err := f.checkShape(); err != nil {
		return err
	}
	if steps == 0 {
		return nil
	}
	if err := f.acquire(); err != nil {
		return err
	}
	defer f.release()

	k, err := s.strategy.Bind(f)
	if err != nil {
		return fmt.Errorf("gradblend: %s strategy: %w", s.strategy.Name(), err)
	}
	defer k.Release()

	start := time.Now()
	phase := LeftToRight
	for step := range steps {
		if err := ctx.Err(); err != nil {
			k.Sync()
			return fmt.Errorf("gradblend: reconstruct stopped after %d of %d steps: %w", step, steps, err)
		}
		k.Sweep(phase)
		phase = phase.Next()
	}
	k.Sync()

	Logger().Debug("reconstruct",
		"strategy", s.strategy.Name(),
		"steps", steps,
		"size", f.Bounds().Size(),
		"channels", f.Channels(),
		"elapsed", time.Since(start))
	return nil
}

// Reconstruct runs steps sweeps on f with the serial strategy.
func (f *Field) Reconstruct(steps int) error {
	return NewSolver(nil).Reconstruct(f, steps)
}
