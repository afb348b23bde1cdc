package wallscan

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/plastermate/internal/config"
)

// Smoother applies a separable 2-D Gaussian filter.
//
// Boundaries use symmetric reflection about the edge (d c b a | a b c d |
// d c b a), so edge cells see mirrored copies of their neighbours rather
// than zeros. The kernel radius is int(Truncate*Sigma + 0.5) cells and the
// weights are normalised to sum to 1.
type Smoother struct {
	Sigma    float64
	Truncate float64
	kernel   []float64
}

// MaxKernelRadius bounds the kernel radius in cells. It is far wider than
// any grid the pipeline builds.
const MaxKernelRadius = 1 << 12

// NewSmoother validates sigma and truncate and precomputes the kernel.
func NewSmoother(sigma, truncate float64) (*Smoother, error) {
	if !isFinite(sigma) || sigma <= 0 {
		return nil, &config.ConfigurationError{Field: "smoothing_sigma", Reason: fmt.Sprintf("must be positive, got %v", sigma)}
	}
	if !isFinite(truncate) || truncate <= 0 {
		return nil, &config.ConfigurationError{Field: "smoothing_truncate", Reason: fmt.Sprintf("must be positive, got %v", truncate)}
	}
	if r := truncate*sigma + 0.5; r > MaxKernelRadius {
		return nil, &config.ConfigurationError{
			Field:  "smoothing_sigma",
			Reason: fmt.Sprintf("kernel radius %.0f cells (sigma %v x truncate %v) exceeds %d", r, sigma, truncate, MaxKernelRadius),
		}
	}
	return &Smoother{Sigma: sigma, Truncate: truncate, kernel: gaussianKernel(sigma, truncate)}, nil
}

func gaussianKernel(sigma, truncate float64) []float64 {
	radius := int(truncate*sigma + 0.5)
	k := make([]float64, 2*radius+1)
	for i := range k {
		x := float64(i-radius) / sigma
		k[i] = math.Exp(-0.5 * x * x)
	}
	floats.Scale(1/floats.Sum(k), k)
	return k
}

// Kernel returns a copy of the 1-D kernel, centre at len/2.
func (s *Smoother) Kernel() []float64 {
	return append([]float64(nil), s.kernel...)
}

// Smooth returns a new grid of the same shape, filtering along z (down each
// column) first and then along x. The input is not modified.
func (s *Smoother) Smooth(values [][]float64) [][]float64 {
	nz := len(values)
	if nz == 0 {
		return [][]float64{}
	}
	nx := len(values[0])

	tmp := make([][]float64, nz)
	for row := range tmp {
		tmp[row] = make([]float64, nx)
	}

	column := make([]float64, nz)
	filtered := make([]float64, nz)
	for col := 0; col < nx; col++ {
		for row := 0; row < nz; row++ {
			column[row] = values[row][col]
		}
		s.convolve(filtered, column)
		for row := 0; row < nz; row++ {
			tmp[row][col] = filtered[row]
		}
	}

	out := make([][]float64, nz)
	for row := range out {
		out[row] = make([]float64, nx)
		s.convolve(out[row], tmp[row])
	}
	return out
}

// convolve writes the reflected-boundary correlation of src with the
// kernel into dst. The kernel is symmetric, so this is also a convolution.
func (s *Smoother) convolve(dst, src []float64) {
	n := len(src)
	radius := len(s.kernel) / 2
	window := make([]float64, len(s.kernel))
	for i := 0; i < n; i++ {
		for k := range window {
			window[k] = src[reflectIndex(i+k-radius, n)]
		}
		dst[i] = floats.Dot(window, s.kernel)
	}
}

// reflectIndex folds i into [0, n) by half-sample symmetric reflection.
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}
