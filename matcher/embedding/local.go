package embedding

import (
	"bytes"
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"github.com/JaCARYK/beartracks/internal/errs"
)

// localService is a dependency-free deterministic embedder. Text is
// feature-hashed token counts, images are a downsampled grayscale
// intensity grid. Not a learned model, but it preserves the property the
// scorer relies on: similar descriptions and similar photos land close in
// cosine space, and identical input always yields the identical vector.
type localService struct {
	dim  int
	side int // image grid side, side*side <= dim
}

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

func newLocalService(dim int) *localService {
	side := int(math.Sqrt(float64(dim)))
	if side < 1 {
		side = 1
	}
	return &localService{dim: dim, side: side}
}

func (s *localService) Dimension() int { return s.dim }

func (s *localService) Model() string { return "local-feature-hash-v1" }

func (s *localService) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, &errs.ExtractionError{Source: "text", Err: errors.New("empty text")}
	}

	vec := make([]float32, s.dim)
	for _, token := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		h := fnv.New32a()
		h.Write([]byte(token))
		sum := h.Sum32()
		bucket := int(sum % uint32(s.dim))
		// Sign trick: half the hash space subtracts, which keeps the
		// expected dot product of unrelated texts near zero.
		if sum&0x80000000 != 0 {
			vec[bucket]--
		} else {
			vec[bucket]++
		}
	}
	normalize(vec)
	return vec, nil
}

func (s *localService) EmbedImage(ctx context.Context, data []byte) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &errs.ExtractionError{Source: "image", Err: errors.Wrap(err, "decode photo")}
	}

	small := imaging.Resize(imaging.Grayscale(img), s.side, s.side, imaging.Lanczos)
	vec := make([]float32, s.dim)
	for y := 0; y < s.side; y++ {
		for x := 0; x < s.side; x++ {
			r, _, _, _ := small.At(x, y).RGBA()
			vec[y*s.side+x] = float32(r) / 0xffff
		}
	}
	normalize(vec)
	return vec, nil
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}
