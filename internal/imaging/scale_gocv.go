//go:build gocv

package imaging

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

func init() {
	defaultScaler = OpenCVScaler{Interpolation: gocv.InterpolationArea}
}

// OpenCVScaler resizes through OpenCV. Selected with the gocv build tag.
type OpenCVScaler struct {
	Interpolation gocv.InterpolationFlags
}

func (s OpenCVScaler) Scale(src image.Image, width, height int) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, &SizeError{Width: width, Height: height}
	}

	mat, err := gocv.ImageToMatRGBA(src)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image to Mat: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("failed to convert image to Mat: empty result")
	}

	dst := gocv.NewMat()
	defer dst.Close()

	gocv.Resize(mat, &dst, image.Pt(width, height), 0, 0, s.Interpolation)

	out, err := dst.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert Mat to image: %w", err)
	}
	return out, nil
}
