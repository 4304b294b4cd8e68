// Package phash computes 64-bit perceptual hashes for item photos. The
// hash is a difference hash: the photo is reduced to a 9x8 grayscale grid
// and each bit records whether a pixel is brighter than its right
// neighbor. Near-duplicate photos land within a small Hamming distance of
// each other, which makes the hash a cheap pre-filter before full image
// embedding comparison.
package phash

import (
	"bytes"
	"image"
	"math/bits"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"github.com/JaCARYK/beartracks/internal/errs"
)

const (
	hashWidth  = 9
	hashHeight = 8
)

// Hash computes the difference hash of an image. Identical pixels produce
// identical hashes; the result does not depend on the source encoding.
func Hash(img image.Image) uint64 {
	small := imaging.Resize(imaging.Grayscale(img), hashWidth, hashHeight, imaging.Lanczos)

	var h uint64
	bit := 0
	for y := 0; y < hashHeight; y++ {
		for x := 0; x < hashWidth-1; x++ {
			left := luminance(small, x, y)
			right := luminance(small, x+1, y)
			if left > right {
				h |= 1 << uint(bit)
			}
			bit++
		}
	}
	return h
}

// FromBytes decodes photo bytes and hashes them. Corrupt or unsupported
// input yields an ExtractionError; callers degrade to text-only scoring.
func FromBytes(data []byte) (uint64, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, &errs.ExtractionError{Source: "phash", Err: errors.Wrap(err, "decode photo")}
	}
	return Hash(img), nil
}

// Distance returns the Hamming distance between two hashes, in [0, 64].
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

func luminance(img image.Image, x, y int) uint32 {
	r, g, b, _ := img.At(img.Bounds().Min.X+x, img.Bounds().Min.Y+y).RGBA()
	// Grayscale already, but keep the standard weights in case the
	// conversion is skipped upstream.
	return (299*r + 587*g + 114*b) / 1000
}
