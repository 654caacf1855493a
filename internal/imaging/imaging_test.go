package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func createTestJPEG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{255, 0, 0, 255})
		}
	}
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func createTestPNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{0, 0, 255, 255})
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func decodedSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestProcessJPEG(t *testing.T) {
	result, err := Process(bytes.NewReader(createTestJPEG(90, 120)))
	if err != nil {
		t.Fatalf("Process JPEG: %v", err)
	}
	if result.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", result.MIME)
	}
	if len(result.Data) == 0 {
		t.Error("expected non-empty data")
	}
}

func TestProcessPNGOutputsJPEG(t *testing.T) {
	result, err := Process(bytes.NewReader(createTestPNG(90, 120)))
	if err != nil {
		t.Fatalf("Process PNG: %v", err)
	}
	if result.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", result.MIME)
	}
}

func TestProcessCropsToPortrait(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{"square", 300, 300, 225, 300},
		{"landscape", 400, 200, 150, 200},
		{"tall", 300, 900, 300, 400},
		{"already portrait", 150, 200, 150, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Process(bytes.NewReader(createTestPNG(tt.w, tt.h)))
			if err != nil {
				t.Fatalf("Process: %v", err)
			}
			if result.Width != tt.wantW || result.Height != tt.wantH {
				t.Errorf("expected %dx%d, got %dx%d", tt.wantW, tt.wantH, result.Width, result.Height)
			}
			w, h := decodedSize(t, result.Data)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("encoded image is %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestProcessDownscale(t *testing.T) {
	result, err := Process(bytes.NewReader(createTestJPEG(1800, 2400)))
	if err != nil {
		t.Fatalf("Process large image: %v", err)
	}

	w, h := decodedSize(t, result.Data)
	if w != MaxWidth || h != MaxHeight {
		t.Errorf("expected %dx%d, got %dx%d", MaxWidth, MaxHeight, w, h)
	}
}

func TestProcessSmallImageNotUpscaled(t *testing.T) {
	result, err := Process(bytes.NewReader(createTestJPEG(30, 40)))
	if err != nil {
		t.Fatalf("Process small image: %v", err)
	}

	w, h := decodedSize(t, result.Data)
	if w != 30 || h != 40 {
		t.Errorf("small image should not be resized: got %dx%d", w, h)
	}
}

func TestProcessTooLarge(t *testing.T) {
	data := make([]byte, MaxUploadBytes+10)
	copy(data, createTestPNG(4, 4))
	_, err := Process(bytes.NewReader(data))
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
}

func TestProcessInvalidFormat(t *testing.T) {
	_, err := Process(bytes.NewReader([]byte("not an image")))
	if err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestProcessGIFRejected(t *testing.T) {
	_, err := Process(bytes.NewReader([]byte("GIF89a...")))
	if err == nil {
		t.Error("expected error for GIF")
	}
}
