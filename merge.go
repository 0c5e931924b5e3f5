package gradblend

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// mergePlane is one channel of a planned merge: views into the target's
// gradients and boosted copies of the source's gradients over the same
// region.
type mergePlane struct {
	dstX, dstY *mat.Dense
	srcX, srcY *mat.Dense
}

// MergeInto pastes the gradients of src into dst with src's top-left corner
// at (x, y) in dst. Offsets may be negative and src may overhang any edge of
// dst; the parts outside are ignored. At every overlapping position where
// the boosted source gradient is strictly stronger than dst's, both the
// horizontal and the vertical component of dst are replaced.
//
// src is never modified and may be dst itself. The image buffer of dst is
// left alone. All checks run before dst is touched; a placement without
// overlap is a no-op.
func MergeInto(dst, src *Field, x, y int, boost float64) error {
	if dst == nil || src == nil {
		return fmt.Errorf("%w: nil field", ErrShapeMismatch)
	}
	if math.IsNaN(boost) || math.IsInf(boost, 0) || boost < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidBoost, boost)
	}
	if err := dst.checkShape(); err != nil {
		return fmt.Errorf("merge target: %w", err)
	}
	if err := src.checkShape(); err != nil {
		return fmt.Errorf("merge source: %w", err)
	}
	if dst.Channels() != src.Channels() {
		return fmt.Errorf("%w: target has %d channels, source %d", ErrShapeMismatch, dst.Channels(), src.Channels())
	}
	if err := dst.acquire(); err != nil {
		return err
	}
	defer dst.release()

	planes, err := planMerge(dst, src, x, y, boost)
	if err != nil {
		return err
	}
	if planes == nil {
		Logger().Debug("merge: no overlap", "x", x, "y", y)
		return nil
	}

	replaced := 0
	for _, p := range planes {
		replaced += replaceStronger(p)
	}
	rows, cols := planes[0].dstX.Dims()
	Logger().Debug("merge", "x", x, "y", y, "w", cols, "h", rows, "boost", boost, "replaced", replaced)
	return nil
}

// planMerge computes the overlap of src placed at (x, y) with dst and
// prepares one mergePlane per channel. It returns nil planes when there is
// no overlap. dst is not written.
func planMerge(dst, src *Field, x, y int, boost float64) ([]mergePlane, error) {
	// Drop the part of src left of / above dst.
	sx, sy := 0, 0
	if x < 0 {
		sx, x = -x, 0
	}
	if y < 0 {
		sy, y = -y, 0
	}
	w := src.w - sx
	h := src.h - sy

	// grad_x is one column short and grad_y one row short; the region must
	// fit both. A target one pixel wide or tall has nothing to merge into.
	w = min(w, dst.w-1-x)
	h = min(h, dst.h-1-y)
	if w <= 0 || h <= 0 {
		return nil, nil
	}

	planes := make([]mergePlane, src.Channels())
	for c := range planes {
		padX, padY, err := padGradients(src, c)
		if err != nil {
			return nil, err
		}
		p := mergePlane{
			dstX: dst.gradX[c].Slice(y, y+h, x, x+w).(*mat.Dense),
			dstY: dst.gradY[c].Slice(y, y+h, x, x+w).(*mat.Dense),
			srcX: padX.Slice(sy, sy+h, sx, sx+w).(*mat.Dense),
			srcY: padY.Slice(sy, sy+h, sx, sx+w).(*mat.Dense),
		}
		for _, m := range []*mat.Dense{p.dstX, p.dstY, p.srcX, p.srcY} {
			if r, k := m.Dims(); r != h || k != w {
				return nil, fmt.Errorf("%w: merge region of channel %d is %dx%d, want %dx%d", ErrShapeMismatch, c, k, r, w, h)
			}
		}
		p.srcX.Scale(boost, p.srcX)
		p.srcY.Scale(boost, p.srcY)
		planes[c] = p
	}
	return planes, nil
}

// padGradients returns copies of src's gradients for channel c, padded
// with a zero column (grad_x) and a zero row (grad_y) so that both cover
// the full image extent.
func padGradients(src *Field, c int) (padX, padY *mat.Dense, err error) {
	padX = mat.NewDense(src.h, src.w, nil)
	padY = mat.NewDense(src.h, src.w, nil)
	if src.w > 1 {
		if r, k := padX.Slice(0, src.h, 0, src.w-1).(*mat.Dense).Copy(src.gradX[c]); r != src.h || k != src.w-1 {
			return nil, nil, fmt.Errorf("%w: padded grad_x of channel %d copied %dx%d", ErrShapeMismatch, c, k, r)
		}
	}
	if src.h > 1 {
		if r, k := padY.Slice(0, src.h-1, 0, src.w).(*mat.Dense).Copy(src.gradY[c]); r != src.h-1 || k != src.w {
			return nil, nil, fmt.Errorf("%w: padded grad_y of channel %d copied %dx%d", ErrShapeMismatch, c, k, r)
		}
	}
	return padX, padY, nil
}

// replaceStronger overwrites both target components wherever the source
// magnitude is strictly greater, and reports how many positions changed.
func replaceStronger(p mergePlane) int {
	dx, dy := p.dstX.RawMatrix(), p.dstY.RawMatrix()
	sx, sy := p.srcX.RawMatrix(), p.srcY.RawMatrix()
	n := 0
	for i := range dx.Rows {
		tx := dx.Data[i*dx.Stride : i*dx.Stride+dx.Cols]
		ty := dy.Data[i*dy.Stride : i*dy.Stride+dy.Cols]
		ox := sx.Data[i*sx.Stride : i*sx.Stride+sx.Cols]
		oy := sy.Data[i*sy.Stride : i*sy.Stride+sy.Cols]
		for j := range tx {
			// Explicit conversions keep the squares from being fused.
			target := float64(tx[j]*tx[j]) + float64(ty[j]*ty[j])
			source := float64(ox[j]*ox[j]) + float64(oy[j]*oy[j])
			if source > target {
				tx[j] = ox[j]
				ty[j] = oy[j]
				n++
			}
		}
	}
	return n
}
