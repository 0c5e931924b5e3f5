package gradblend

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync/atomic"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/mat"
)

const maxChannels = 4

// Field is an image together with its horizontal and vertical forward
// differences. The gradients are taken once, at construction; afterwards
// they are only changed by MergeInto and serve as the fixed target that
// reconstruction tries to satisfy.
//
// A Field is not safe for concurrent mutation. MergeInto (on the target) and
// the solvers hold it exclusively and fail with ErrFieldBusy otherwise.
type Field struct {
	w, h  int
	img   []*mat.Dense // h x w per channel
	gradX []*mat.Dense // h x (w-1): img[y][x+1] - img[y][x]; nil if w == 1
	gradY []*mat.Dense // (h-1) x w: img[y+1][x] - img[y][x]; nil if h == 1

	alpha  int // index of the plane read from an alpha channel, -1 if none
	linear bool

	busy atomic.Bool
}

// FromImage builds a field from src. Samples are normalized to [0,1];
// 16-bit images keep their full precision.
func FromImage(src image.Image, opt Options) (*Field, error) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	avail, gray := channelLayout(src)
	deep := sixteenBit(src)

	sel := opt.Channels
	if len(sel) == 0 {
		sel = make([]int, avail)
		for i := range sel {
			sel[i] = i
		}
	}
	if len(sel) > maxChannels {
		return nil, fmt.Errorf("%w: %d channels selected, at most %d supported", ErrInvalidChannelSelection, len(sel), maxChannels)
	}
	for _, ch := range sel {
		if ch < 0 || ch >= avail {
			return nil, fmt.Errorf("%w: channel %d, image has %d", ErrInvalidChannelSelection, ch, avail)
		}
	}
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("%w: image is %dx%d", ErrShapeMismatch, w, h)
	}

	scale := 255
	if deep {
		scale = 65535
	}
	data := make([][]float64, len(sel))
	for i := range data {
		data[i] = make([]float64, w*h)
	}
	var px [maxChannels]uint16
	for y := range h {
		for x := range w {
			c := src.At(b.Min.X+x, b.Min.Y+y)
			switch {
			case gray && deep:
				px[0] = color.Gray16Model.Convert(c).(color.Gray16).Y
			case gray:
				px[0] = uint16(color.GrayModel.Convert(c).(color.Gray).Y)
			case deep:
				n := color.NRGBA64Model.Convert(c).(color.NRGBA64)
				px = [maxChannels]uint16{n.R, n.G, n.B, n.A}
			default:
				n := color.NRGBAModel.Convert(c).(color.NRGBA)
				px = [maxChannels]uint16{uint16(n.R), uint16(n.G), uint16(n.B), uint16(n.A)}
			}
			off := y*w + x
			for i, ch := range sel {
				data[i][off] = float64(px[ch]) / float64(scale)
			}
		}
	}

	alpha := -1
	if avail == maxChannels {
		for i, ch := range sel {
			if ch == 3 {
				alpha = i
				break
			}
		}
	}

	if opt.Linear {
		lut := linearLUT(scale)
		for i := range data {
			if i == alpha {
				continue
			}
			for j, v := range data[i] {
				data[i][j] = lut[int(math.Round(v*float64(scale)))]
			}
		}
	}

	planes := make([]*mat.Dense, len(sel))
	for i := range planes {
		planes[i] = mat.NewDense(h, w, data[i])
	}
	f := newField(planes)
	f.alpha = alpha
	f.linear = opt.Linear
	return f, nil
}

// FromPlanes builds a field from already normalized planes. The planes are
// copied; all of them must have the same dimensions. Four planes are taken
// as R, G, B, A; fewer planes carry no alpha.
func FromPlanes(planes []*mat.Dense) (*Field, error) {
	if len(planes) == 0 || len(planes) > maxChannels {
		return nil, fmt.Errorf("%w: %d planes, want 1 to %d", ErrInvalidChannelSelection, len(planes), maxChannels)
	}
	if planes[0] == nil {
		return nil, fmt.Errorf("%w: plane 0 is nil", ErrShapeMismatch)
	}
	h, w := planes[0].Dims()
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("%w: planes are %dx%d", ErrShapeMismatch, w, h)
	}
	owned := make([]*mat.Dense, len(planes))
	for i, p := range planes {
		if p == nil {
			return nil, fmt.Errorf("%w: plane %d is nil", ErrShapeMismatch, i)
		}
		if r, c := p.Dims(); r != h || c != w {
			return nil, fmt.Errorf("%w: plane %d is %dx%d, plane 0 is %dx%d", ErrShapeMismatch, i, c, r, w, h)
		}
		owned[i] = mat.DenseCopyOf(p)
	}
	f := newField(owned)
	if len(owned) == maxChannels {
		f.alpha = maxChannels - 1
	}
	return f, nil
}

func newField(planes []*mat.Dense) *Field {
	h, w := planes[0].Dims()
	f := &Field{
		w:     w,
		h:     h,
		img:   planes,
		gradX: make([]*mat.Dense, len(planes)),
		gradY: make([]*mat.Dense, len(planes)),
		alpha: -1,
	}
	for i, p := range planes {
		f.gradX[i], f.gradY[i] = forwardDiffs(p)
	}
	return f
}

// forwardDiffs returns the horizontal and vertical forward differences of
// p. An axis of length 1 has no differences and gives a nil plane, since
// gonum has no empty matrices.
func forwardDiffs(p *mat.Dense) (gx, gy *mat.Dense) {
	h, w := p.Dims()
	if w > 1 {
		gx = mat.NewDense(h, w-1, nil)
		gx.Sub(p.Slice(0, h, 1, w), p.Slice(0, h, 0, w-1))
	}
	if h > 1 {
		gy = mat.NewDense(h-1, w, nil)
		gy.Sub(p.Slice(1, h, 0, w), p.Slice(0, h-1, 0, w))
	}
	return gx, gy
}

// channelLayout reports how many channels FromImage can select from src and
// whether they are read as luma.
func channelLayout(src image.Image) (n int, gray bool) {
	switch src.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		return 1, true
	}
	if o, ok := src.(interface{ Opaque() bool }); ok && o.Opaque() {
		return 3, false
	}
	return 4, false
}

// sixteenBit reports whether src stores more than 8 bits per sample.
func sixteenBit(src image.Image) bool {
	switch src.ColorModel() {
	case color.Gray16Model, color.RGBA64Model, color.NRGBA64Model:
		return true
	}
	return false
}

// linearLUT maps every sample value in [0, top] to linear light.
func linearLUT(top int) []float64 {
	lut := make([]float64, top+1)
	for i := range lut {
		r, _, _ := colorful.Color{R: float64(i) / float64(top)}.LinearRgb()
		lut[i] = r
	}
	return lut
}

// Image renders the current image buffer. Samples are clamped to [0,1] and
// rounded half up to 8 bits. A single plane gives an *image.Gray. Otherwise
// the result is an *image.NRGBA whose alpha comes from the plane read from
// an alpha channel (opaque if there is none) and whose color comes from the
// remaining planes: one is drawn as gray, two or three fill R, G, B in
// order. Color planes past the third are not drawn. The field is not
// modified.
func (f *Field) Image() image.Image {
	rect := image.Rect(0, 0, f.w, f.h)

	if len(f.img) == 1 {
		out := image.NewGray(rect)
		for y := range f.h {
			row := f.row(0, y)
			for x, v := range row {
				out.Pix[y*out.Stride+x] = f.quantize(0, v)
			}
		}
		return out
	}

	colors := make([]int, 0, len(f.img))
	for i := range f.img {
		if i != f.alpha {
			colors = append(colors, i)
		}
	}
	if len(colors) > 3 {
		colors = colors[:3]
	}

	out := image.NewNRGBA(rect)
	rows := make([][]float64, len(f.img))
	for y := range f.h {
		for i := range f.img {
			rows[i] = f.row(i, y)
		}
		pix := out.Pix[y*out.Stride : y*out.Stride+4*f.w]
		for x := range f.w {
			px := pix[4*x : 4*x+4]
			for j, c := range colors {
				px[j] = f.quantize(c, rows[c][x])
			}
			if len(colors) == 1 {
				px[1], px[2] = px[0], px[0]
			}
			px[3] = 255
			if f.alpha >= 0 {
				px[3] = f.quantize(f.alpha, rows[f.alpha][x])
			}
		}
	}
	return out
}

func (f *Field) quantize(plane int, v float64) uint8 {
	v = clamp01(v)
	if f.linear && plane != f.alpha {
		v = clamp01(colorful.LinearRgb(v, 0, 0).R)
	}
	return uint8(math.Floor(float64(v*255) + 0.5))
}

func clamp01(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// row returns row y of image plane c without copying.
func (f *Field) row(c, y int) []float64 {
	raw := f.img[c].RawMatrix()
	return raw.Data[y*raw.Stride : y*raw.Stride+raw.Cols]
}

// Channels returns the number of planes.
func (f *Field) Channels() int {
	return len(f.img)
}

// Size returns the image width and height.
func (f *Field) Size() (w, h int) {
	return f.w, f.h
}

func (f *Field) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.w, f.h)
}

// ImagePlane returns a copy of image plane c.
func (f *Field) ImagePlane(c int) *mat.Dense {
	return mat.DenseCopyOf(f.img[c])
}

// GradXPlane returns a copy of the horizontal gradient of plane c.
// It is nil for a field one pixel wide.
func (f *Field) GradXPlane(c int) *mat.Dense {
	return copyPlane(f.gradX[c])
}

// GradYPlane returns a copy of the vertical gradient of plane c.
// It is nil for a field one pixel tall.
func (f *Field) GradYPlane(c int) *mat.Dense {
	return copyPlane(f.gradY[c])
}

func copyPlane(m *mat.Dense) *mat.Dense {
	if m == nil {
		return nil
	}
	return mat.DenseCopyOf(m)
}

// Clone returns a deep copy of f.
func (f *Field) Clone() *Field {
	g := &Field{
		w:      f.w,
		h:      f.h,
		img:    make([]*mat.Dense, len(f.img)),
		gradX:  make([]*mat.Dense, len(f.gradX)),
		gradY:  make([]*mat.Dense, len(f.gradY)),
		alpha:  f.alpha,
		linear: f.linear,
	}
	for i := range f.img {
		g.img[i] = mat.DenseCopyOf(f.img[i])
		g.gradX[i] = copyPlane(f.gradX[i])
		g.gradY[i] = copyPlane(f.gradY[i])
	}
	return g
}

// checkShape verifies the buffer invariants every operation relies on.
func (f *Field) checkShape() error {
	n := len(f.img)
	if n == 0 || n > maxChannels || len(f.gradX) != n || len(f.gradY) != n {
		return fmt.Errorf("%w: %d image, %d grad_x, %d grad_y planes", ErrShapeMismatch, n, len(f.gradX), len(f.gradY))
	}
	for c := range n {
		if f.img[c] == nil {
			return fmt.Errorf("%w: image plane %d is nil", ErrShapeMismatch, c)
		}
		if r, k := f.img[c].Dims(); r != f.h || k != f.w {
			return fmt.Errorf("%w: image plane %d is %dx%d, want %dx%d", ErrShapeMismatch, c, k, r, f.w, f.h)
		}
		if err := checkPlane("grad_x", c, f.gradX[c], f.h, f.w-1); err != nil {
			return err
		}
		if err := checkPlane("grad_y", c, f.gradY[c], f.h-1, f.w); err != nil {
			return err
		}
	}
	return nil
}

// checkPlane verifies that m is rows x cols, or nil when that is empty.
func checkPlane(name string, c int, m *mat.Dense, rows, cols int) error {
	if rows == 0 || cols == 0 {
		if m != nil {
			return fmt.Errorf("%w: %s plane %d should be empty", ErrShapeMismatch, name, c)
		}
		return nil
	}
	if m == nil {
		return fmt.Errorf("%w: %s plane %d is nil, want %dx%d", ErrShapeMismatch, name, c, cols, rows)
	}
	if r, k := m.Dims(); r != rows || k != cols {
		return fmt.Errorf("%w: %s plane %d is %dx%d, want %dx%d", ErrShapeMismatch, name, c, k, r, cols, rows)
	}
	return nil
}

func (f *Field) acquire() error {
	if !f.busy.CompareAndSwap(false, true) {
		return ErrFieldBusy
	}
	return nil
}

func (f *Field) release() {
	f.busy.Store(false)
}
