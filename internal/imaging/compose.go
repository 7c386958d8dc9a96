package imaging

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// BorderColor outlines every thumbnail and placeholder.
var BorderColor = color.RGBA{R: 0xE5, G: 0xE5, B: 0xE5, A: 0xFF}

var canvasColor = color.RGBA{A: 0xFF}

// Thumbnail scales src so its longest side equals size, centres it on a
// size x size canvas and outlines the canvas.
func Thumbnail(src image.Image, size int, scaler Scaler) (*image.RGBA, error) {
	if size <= 0 {
		return nil, &SizeError{Width: size, Height: size}
	}
	if scaler == nil {
		scaler = DefaultScaler()
	}

	b := src.Bounds()
	w, h := LongestSide(b.Dx(), b.Dy(), size)
	scaled, err := scaler.Scale(src, w, h)
	if err != nil {
		return nil, err
	}

	thumb := newCanvas(size)
	offset := image.Pt((size-w)/2, (size-h)/2)
	sb := scaled.Bounds()
	draw.Draw(thumb, image.Rectangle{Min: offset, Max: offset.Add(sb.Size())}, scaled, sb.Min, draw.Src)
	Outline(thumb)
	return thumb, nil
}

// Placeholder is an empty outlined square used to pad incomplete grids.
func Placeholder(size int) *image.RGBA {
	img := newCanvas(size)
	Outline(img)
	return img
}

// Outline draws a one pixel rectangle from the origin to (width, height).
// The right and bottom edges sit one pixel outside the canvas and are clipped,
// so cells placed side by side in a grid share a single divider line.
func Outline(img *image.RGBA) {
	b := img.Bounds()
	for x := b.Min.X; x < b.Max.X; x++ {
		img.SetRGBA(x, b.Min.Y, BorderColor)
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		img.SetRGBA(b.Min.X, y, BorderColor)
	}
}

// Grid lays cells out row-major in a cols x rows grid of size x size cells.
// Cells beyond cols*rows are ignored; missing cells stay transparent.
func Grid(cells []image.Image, cols, rows, size int) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, cols*size, rows*size))
	for i, cell := range cells {
		if i >= cols*rows {
			break
		}
		col, row := i%cols, i/cols
		dst := image.Rect(col*size, row*size, (col+1)*size, (row+1)*size)
		draw.Draw(out, dst, cell, cell.Bounds().Min, draw.Src)
	}
	return out
}

// Clone copies img into a fresh RGBA buffer.
func Clone(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

func newCanvas(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(canvasColor), image.Point{}, draw.Src)
	return img
}
