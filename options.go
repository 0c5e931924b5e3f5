package gradblend

type Options struct {
	// Channels selects input channels by index into the image's channel
	// layout: 1 for gray images, R,G,B for opaque images, R,G,B,A otherwise.
	// Empty selects all channels. Indices may repeat.
	Channels []int
	// Linear converts color samples from sRGB to linear light before taking
	// gradients, and back when rendering. Alpha is left untouched.
	Linear bool
}

func DefaultOptions() Options {
	return Options{}
}

// RGB selects the three color channels and drops alpha, matching the
// usual (0, 1, 2) selection for photographs.
func RGB() Options {
	return Options{Channels: []int{0, 1, 2}}
}
