// Package imaging normalizes uploaded player portraits.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// Portrait bounds. Stored portraits are cropped to a 3:4 frame and never
// exceed MaxWidth x MaxHeight.
const (
	MaxWidth  = 600
	MaxHeight = 800
)

// MaxUploadBytes caps the raw upload size.
const MaxUploadBytes = 5 << 20

// JPEGQuality is the compression quality for JPEG output.
const JPEGQuality = 85

// ErrTooLarge is returned when the upload exceeds MaxUploadBytes.
var ErrTooLarge = errors.New("image too large")

// AllowedMIME lists the accepted input MIME types.
var AllowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// ProcessResult contains the processed image data.
type ProcessResult struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// Process validates an upload by sniffing its bytes, crops it to a portrait
// frame, downscales it and re-encodes it as JPEG.
func Process(r io.Reader) (*ProcessResult, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, ErrTooLarge
	}

	detected := http.DetectContentType(data)
	if !AllowedMIME[detected] {
		return nil, fmt.Errorf("unsupported image format: %s (only JPEG, PNG and WebP accepted)", detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	img = fit(img, cropRect(img.Bounds()), MaxWidth, MaxHeight)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}

	b := img.Bounds()
	return &ProcessResult{
		Data:   buf.Bytes(),
		MIME:   "image/jpeg",
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

// cropRect returns the largest 3:4 region of b. Wide images are cropped
// around the centre, tall ones keep the top where the face usually is.
func cropRect(b image.Rectangle) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	if w*4 > h*3 {
		cw := h * 3 / 4
		if cw < 1 {
			cw = 1
		}
		x0 := b.Min.X + (w-cw)/2
		return image.Rect(x0, b.Min.Y, x0+cw, b.Max.Y)
	}
	ch := w * 4 / 3
	if ch < 1 {
		ch = 1
	}
	return image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+ch)
}

// fit copies src's region into a new image no larger than maxW x maxH,
// scaling with Catmull-Rom when the region is too big. Small regions are
// copied at their own size.
func fit(src image.Image, region image.Rectangle, maxW, maxH int) image.Image {
	w, h := region.Dx(), region.Dy()
	if w > maxW || h > maxH {
		if w*maxH > h*maxW {
			h = max(1, h*maxW/w)
			w = maxW
		} else {
			w = max(1, w*maxH/h)
			h = maxH
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == region.Dx() && h == region.Dy() {
		draw.Draw(dst, dst.Bounds(), src, region.Min, draw.Src)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, region, draw.Src, nil)
	return dst
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
	image.RegisterFormat("webp", "RIFF????WEBPVP8", webp.Decode, webp.DecodeConfig)
}
