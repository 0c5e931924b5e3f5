package gradblend

import (
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// newTestField returns a field with uniformly random samples in [0,1).
// The same arguments always give the same field.
func newTestField(t testing.TB, w, h, channels int) *Field {
	t.Helper()
	rng := rand.New(rand.NewPCG(uint64(w*131+h), uint64(channels)))
	planes := make([]*mat.Dense, channels)
	for c := range planes {
		data := make([]float64, w*h)
		for i := range data {
			data[i] = rng.Float64()
		}
		planes[c] = mat.NewDense(h, w, data)
	}
	f, err := FromPlanes(planes)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func snapshot(ms []*mat.Dense) [][]float64 {
	out := make([][]float64, len(ms))
	for i, m := range ms {
		if m != nil {
			out[i] = mat.DenseCopyOf(m).RawMatrix().Data
		}
	}
	return out
}

type fieldState struct {
	Img, GradX, GradY [][]float64
}

func stateOf(f *Field) fieldState {
	return fieldState{
		Img:   snapshot(f.img),
		GradX: snapshot(f.gradX),
		GradY: snapshot(f.gradY),
	}
}

// referenceSweep applies one phase with plain At/Set, straight from the
// update formulas.
func referenceSweep(f *Field, p Phase) {
	for c := range f.img {
		m, gx, gy := f.img[c], f.gradX[c], f.gradY[c]
		switch p {
		case LeftToRight:
			for y := 1; y < f.h-1; y++ {
				for x := 1; x < f.w-1; x++ {
					m.Set(y, x, (m.At(y, x)+m.At(y, x-1)+gx.At(y, x-1))/2)
				}
			}
		case TopToBottom:
			for x := 1; x < f.w-1; x++ {
				for y := 1; y < f.h-1; y++ {
					m.Set(y, x, (m.At(y, x)+m.At(y-1, x)+gy.At(y-1, x))/2)
				}
			}
		case RightToLeft:
			for y := 1; y < f.h-1; y++ {
				for x := f.w - 2; x > 0; x-- {
					m.Set(y, x, (m.At(y, x)+m.At(y, x+1)-gx.At(y, x))/2)
				}
			}
		case BottomToTop:
			for x := 1; x < f.w-1; x++ {
				for y := f.h - 2; y > 0; y-- {
					m.Set(y, x, (m.At(y, x)+m.At(y+1, x)-gy.At(y, x))/2)
				}
			}
		}
	}
}
