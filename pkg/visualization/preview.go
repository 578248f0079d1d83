// Package visualization converts rasters to and from 16-bit grayscale images
// so that inputs can be taken from image files and results can be inspected.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	"polywarp/pkg/raster"
)

// FromImage converts img to a raster of luminance values in [0, 1].
func FromImage(img image.Image) *raster.Raster {
	bounds := img.Bounds()
	r := raster.New(bounds.Dx(), bounds.Dy())
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			g := color.Gray16Model.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray16)
			r.Set(x, y, float64(g.Y)/65535.0)
		}
	}
	return r
}

// ToImage maps the raster's finite range linearly onto 16-bit gray.
// Non-finite samples become black.
func ToImage(r *raster.Raster) *image.Gray16 {
	lo, hi := r.MinMax()
	return ToImageRange(r, lo, hi)
}

// ToImageRange maps [lo, hi] onto 16-bit gray, clamping values outside it.
func ToImageRange(r *raster.Raster, lo, hi float64) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, r.Width, r.Height))
	span := hi - lo
	for y := 0; y < r.Height; y++ {
		for x, v := range r.Row(y) {
			var t float64
			switch {
			case math.IsNaN(v) || math.IsInf(v, 0):
				t = 0
			case span <= 0:
				t = 0
			default:
				t = (v - lo) / span
			}
			value := uint16(math.Round(math.Max(0, math.Min(1, t)) * 65535))
			img.SetGray16(x, y, color.Gray16{Y: value})
		}
	}
	return img
}

// Thumbnail scales img down so that neither side exceeds maxSize, using
// Catmull-Rom filtering. Images that already fit, or a non-positive
// maxSize, are returned unchanged.
func Thumbnail(img image.Image, maxSize int) image.Image {
	b := img.Bounds()
	if maxSize <= 0 || (b.Dx() <= maxSize && b.Dy() <= maxSize) {
		return img
	}
	scale := float64(maxSize) / float64(max(b.Dx(), b.Dy()))
	w := max(1, int(math.Round(float64(b.Dx())*scale)))
	h := max(1, int(math.Round(float64(b.Dy())*scale)))
	dst := image.NewGray16(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// LoadImage decodes a PNG, JPEG or TIFF file.
func LoadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var img image.Image
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		img, err = png.Decode(file)
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(file)
	case ".tif", ".tiff":
		img, err = tiff.Decode(file)
	default:
		return nil, fmt.Errorf("unsupported image format: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("error decoding %s: %w", path, err)
	}
	return img, nil
}

// SaveImage encodes img according to the file extension.
func SaveImage(img image.Image, path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff":
	default:
		return fmt.Errorf("unsupported image format: %s", ext)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	switch ext {
	case ".png":
		err = png.Encode(file, img)
	case ".jpg", ".jpeg":
		err = jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
	default:
		err = tiff.Encode(file, img, &tiff.Options{Compression: tiff.Deflate})
	}
	if err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// IsImagePath reports whether path has an image extension handled here.
func IsImagePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff":
		return true
	}
	return false
}

// SavePreview writes a normalized, size-bounded preview of r.
func SavePreview(r *raster.Raster, path string, maxSize int) error {
	return SaveImage(Thumbnail(ToImage(r), maxSize), path)
}
