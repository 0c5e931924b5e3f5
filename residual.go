package gradblend

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Residual returns the root-mean-square difference between the finite
// differences of the current image and the target gradients, over all
// channels and both axes. It is zero for a freshly built field.
func Residual(f *Field) float64 {
	var sum float64
	n := 0
	for c, p := range f.img {
		if f.w > 1 {
			var dx mat.Dense
			dx.Sub(p.Slice(0, f.h, 1, f.w), p.Slice(0, f.h, 0, f.w-1))
			dx.Sub(&dx, f.gradX[c])
			nx := mat.Norm(&dx, 2)
			sum += nx * nx
			n += f.h * (f.w - 1)
		}
		if f.h > 1 {
			var dy mat.Dense
			dy.Sub(p.Slice(1, f.h, 0, f.w), p.Slice(0, f.h-1, 0, f.w))
			dy.Sub(&dy, f.gradY[c])
			ny := mat.Norm(&dy, 2)
			sum += ny * ny
			n += (f.h - 1) * f.w
		}
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(n))
}
