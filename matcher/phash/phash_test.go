package phash

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/JaCARYK/beartracks/internal/errs"
)

// gradient builds a deterministic test image with some structure so the
// hash is neither all zeros nor all ones.
func gradient(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8((x*7 + y*13) % 256)
			img.Set(x, y, color.RGBA{R: v, G: v / 2, B: 255 - v, A: 255})
		}
	}
	return img
}

func TestHashDeterministic(t *testing.T) {
	img := gradient(120, 90)
	h1 := Hash(img)
	h2 := Hash(img)
	if h1 != h2 {
		t.Errorf("hash not deterministic: %x vs %x", h1, h2)
	}
}

func TestSimilarImagesClose(t *testing.T) {
	img := gradient(120, 90)

	var jpegBuf, pngBuf bytes.Buffer
	if err := jpeg.Encode(&jpegBuf, img, &jpeg.Options{Quality: 80}); err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(&pngBuf, img); err != nil {
		t.Fatal(err)
	}

	h1, err := FromBytes(jpegBuf.Bytes())
	if err != nil {
		t.Fatalf("FromBytes(jpeg): %v", err)
	}
	h2, err := FromBytes(pngBuf.Bytes())
	if err != nil {
		t.Fatalf("FromBytes(png): %v", err)
	}

	// JPEG artifacts shift a few bits but the hashes must stay close.
	if d := Distance(h1, h2); d > 10 {
		t.Errorf("re-encoded image drifted too far: distance %d", d)
	}
}

func TestDissimilarImagesFar(t *testing.T) {
	h1 := Hash(gradient(120, 90))

	inverted := image.NewRGBA(image.Rect(0, 0, 120, 90))
	for y := 0; y < 90; y++ {
		for x := 0; x < 120; x++ {
			v := uint8(255 - (x*7+y*13)%256)
			inverted.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	h2 := Hash(inverted)

	if d := Distance(h1, h2); d < 16 {
		t.Errorf("expected inverted image to be distant, got distance %d", d)
	}
}

func TestFromBytesCorruptInput(t *testing.T) {
	_, err := FromBytes([]byte("definitely not an image"))
	if err == nil {
		t.Fatal("expected error for corrupt input")
	}
	if !errs.IsExtraction(err) {
		t.Errorf("expected ExtractionError, got %T", err)
	}
}

func TestDistanceBounds(t *testing.T) {
	if d := Distance(0, ^uint64(0)); d != 64 {
		t.Errorf("expected max distance 64, got %d", d)
	}
	if d := Distance(42, 42); d != 0 {
		t.Errorf("expected distance 0 for equal hashes, got %d", d)
	}
}
