package gradblend

import "gonum.org/v1/gonum/blas/blas64"

// The sweep kernels below update interior samples only: x in [1, w-2] and
// y in [1, h-2]. Along the swept axis each update reads the neighbor that
// was just written, so that axis is strictly sequential. The other axis and
// the channels are independent and may be split between goroutines.

// sweepRows runs horizontal phase p over rows [y0, y1) of img.
// gx is the h x (w-1) horizontal gradient.
func sweepRows(p Phase, img, gx blas64.General, y0, y1 int) {
	w := img.Cols
	for y := y0; y < y1; y++ {
		r := img.Data[y*img.Stride : y*img.Stride+w]
		g := gx.Data[y*gx.Stride : y*gx.Stride+w-1]
		if p == LeftToRight {
			for x := 1; x < w-1; x++ {
				r[x] = (r[x] + r[x-1] + g[x-1]) / 2
			}
		} else {
			for x := w - 2; x > 0; x-- {
				r[x] = (r[x] + r[x+1] - g[x]) / 2
			}
		}
	}
}

// sweepRowsT is sweepRows reading a transposed (w-1) x h gradient. It walks
// x in the outer loop, advancing every row of the band one column at a time,
// so the gradient is read contiguously. The arithmetic matches sweepRows
// exactly.
func sweepRowsT(p Phase, img, gxT blas64.General, y0, y1 int) {
	w, s, d := img.Cols, img.Stride, img.Data
	if p == LeftToRight {
		for x := 1; x < w-1; x++ {
			g := gxT.Data[(x-1)*gxT.Stride : (x-1)*gxT.Stride+gxT.Cols]
			for y := y0; y < y1; y++ {
				i := y*s + x
				d[i] = (d[i] + d[i-1] + g[y]) / 2
			}
		}
		return
	}
	for x := w - 2; x > 0; x-- {
		g := gxT.Data[x*gxT.Stride : x*gxT.Stride+gxT.Cols]
		for y := y0; y < y1; y++ {
			i := y*s + x
			d[i] = (d[i] + d[i+1] - g[y]) / 2
		}
	}
}

// sweepCols runs vertical phase p over columns [x0, x1) of img.
// gy is the (h-1) x w vertical gradient.
func sweepCols(p Phase, img, gy blas64.General, x0, x1 int) {
	h, w, s := img.Rows, img.Cols, img.Stride
	if p == TopToBottom {
		for y := 1; y < h-1; y++ {
			cur := img.Data[y*s : y*s+w]
			prev := img.Data[(y-1)*s : (y-1)*s+w]
			g := gy.Data[(y-1)*gy.Stride : (y-1)*gy.Stride+w]
			for x := x0; x < x1; x++ {
				cur[x] = (cur[x] + prev[x] + g[x]) / 2
			}
		}
		return
	}
	for y := h - 2; y > 0; y-- {
		cur := img.Data[y*s : y*s+w]
		next := img.Data[(y+1)*s : (y+1)*s+w]
		g := gy.Data[y*gy.Stride : y*gy.Stride+w]
		for x := x0; x < x1; x++ {
			cur[x] = (cur[x] + next[x] - g[x]) / 2
		}
	}
}
