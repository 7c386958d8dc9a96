package imaging

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// Scaler resizes src to exactly width x height.
type Scaler interface {
	Scale(src image.Image, width, height int) (image.Image, error)
}

// DrawScaler scales with golang.org/x/image/draw.
type DrawScaler struct {
	Interpolator draw.Interpolator
}

func (s DrawScaler) Scale(src image.Image, width, height int) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, &SizeError{Width: width, Height: height}
	}
	interp := s.Interpolator
	if interp == nil {
		interp = draw.CatmullRom
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	interp.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}

var defaultScaler Scaler = DrawScaler{Interpolator: draw.CatmullRom}

// DefaultScaler returns the scaler selected at build time.
func DefaultScaler() Scaler {
	return defaultScaler
}

// SizeError reports a scale request with a non-positive dimension.
type SizeError struct {
	Width, Height int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("imaging: invalid target size %dx%d", e.Width, e.Height)
}

// LongestSide returns the dimensions of a width x height image scaled so that
// its longest side equals size. Neither dimension drops below 1.
func LongestSide(width, height, size int) (int, int) {
	longest := width
	if height > longest {
		longest = height
	}
	if longest <= 0 {
		return 0, 0
	}
	scaling := float64(size) / float64(longest)
	w := int(float64(width) * scaling)
	h := int(float64(height) * scaling)
	return max(w, 1), max(h, 1)
}

// FitInto returns the dimensions of a width x height image scaled to fit a
// frame, filling the frame along the axis that constrains it.
func FitInto(width, height, frameWidth, frameHeight int) (int, int) {
	if width <= 0 || height <= 0 || frameWidth <= 0 || frameHeight <= 0 {
		return width, height
	}
	frameRatio := float64(frameWidth) / float64(frameHeight)
	imgRatio := float64(width) / float64(height)

	if frameRatio <= imgRatio {
		scale := float64(frameWidth) / float64(width)
		return frameWidth, max(int(float64(height)*scale), 1)
	}
	scale := float64(frameHeight) / float64(height)
	return max(int(float64(width)*scale), 1), frameHeight
}
