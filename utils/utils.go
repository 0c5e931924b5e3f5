package utils

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"

	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type Pattern int

const (
	PatternGradient Pattern = iota
	PatternChecker
	PatternRings
)

func (p Pattern) String() string {
	switch p {
	case PatternChecker:
		return "checker"
	case PatternRings:
		return "rings"
	default:
		return "gradient"
	}
}

// ParsePattern is the inverse of Pattern.String.
func ParsePattern(s string) (Pattern, error) {
	for _, p := range []Pattern{PatternGradient, PatternChecker, PatternRings} {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown pattern %q", s)
}

// Synthetic draws an opaque test image. Only integer arithmetic is used, so
// the output is identical on every platform.
func Synthetic(p Pattern, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w <= 0 || h <= 0 {
		return img
	}
	cell := max(1, min(w, h)/8)
	cx, cy := w/2, h/2
	ring := max(1, (w*w+h*h)/64)
	palette := [3]color.NRGBA{
		{R: 214, G: 76, B: 48, A: 255},
		{R: 240, G: 201, B: 92, A: 255},
		{R: 36, G: 94, B: 150, A: 255},
	}
	for y := range h {
		for x := range w {
			var c color.NRGBA
			switch p {
			case PatternChecker:
				v := uint8(40)
				if (x/cell+y/cell)%2 == 0 {
					v = 215
				}
				c = color.NRGBA{R: v, G: v - uint8(x*30/w), B: v - uint8(y*30/h), A: 255}
			case PatternRings:
				dx, dy := x-cx, y-cy
				c = palette[((dx*dx+dy*dy)/ring)%3]
			default:
				c = color.NRGBA{
					R: uint8(x * 255 / max(1, w-1)),
					G: uint8(y * 255 / max(1, h-1)),
					B: uint8((x + y) * 255 / max(1, w+h-2)),
					A: 255,
				}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// Resize scales img by factor with Catmull-Rom interpolation.
func Resize(img image.Image, factor float64) (*image.NRGBA, error) {
	if !(factor > 0) {
		return nil, fmt.Errorf("resize factor must be positive, got %v", factor)
	}
	b := img.Bounds()
	w := max(1, int(float64(b.Dx())*factor+0.5))
	h := max(1, int(float64(b.Dy())*factor+0.5))
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst, nil
}

// ReadImage decodes a PNG, JPEG, GIF, BMP, TIFF or WebP file.
func ReadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func SaveImage(img image.Image, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
