package embedding

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/JaCARYK/beartracks/internal/errs"
)

func TestNewService(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "default local", cfg: Config{}, wantErr: false},
		{name: "explicit local", cfg: Config{Provider: "local", Dimension: 64}, wantErr: false},
		{name: "openai without key", cfg: Config{Provider: "openai"}, wantErr: true},
		{name: "openai with key", cfg: Config{Provider: "openai", APIKey: "test-key"}, wantErr: false},
		{name: "unknown provider", cfg: Config{Provider: "hornet"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewService(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewService() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLocalTextDeterministic(t *testing.T) {
	svc := newLocalService(256)
	ctx := context.Background()

	v1, err := svc.EmbedText(ctx, "blue hydro flask with UCLA sticker")
	if err != nil {
		t.Fatalf("EmbedText: %v", err)
	}
	v2, err := svc.EmbedText(ctx, "blue hydro flask with UCLA sticker")
	if err != nil {
		t.Fatalf("EmbedText: %v", err)
	}
	for i := range v1 {
		if v1[i] != v2[i] {
			t.Fatalf("vectors differ at %d: %v vs %v", i, v1[i], v2[i])
		}
	}
	if len(v1) != svc.Dimension() {
		t.Errorf("vector length %d, want %d", len(v1), svc.Dimension())
	}
}

func TestLocalTextSimilarityOrdering(t *testing.T) {
	svc := newLocalService(256)
	ctx := context.Background()

	base, _ := svc.EmbedText(ctx, "blue hydro flask water bottle with stickers")
	near, _ := svc.EmbedText(ctx, "blue hydro flask bottle covered in stickers")
	far, _ := svc.EmbedText(ctx, "black leather wallet with student id card")

	simNear := Cosine(base, near)
	simFar := Cosine(base, far)
	if simNear <= simFar {
		t.Errorf("expected similar descriptions to score higher: near=%.3f far=%.3f", simNear, simFar)
	}
}

func TestLocalEmptyText(t *testing.T) {
	svc := newLocalService(64)
	_, err := svc.EmbedText(context.Background(), "   ")
	if !errs.IsExtraction(err) {
		t.Errorf("expected ExtractionError for empty text, got %v", err)
	}
}

func TestLocalImageEmbedding(t *testing.T) {
	svc := newLocalService(256)

	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	v1, err := svc.EmbedImage(context.Background(), buf.Bytes())
	if err != nil {
		t.Fatalf("EmbedImage: %v", err)
	}
	v2, _ := svc.EmbedImage(context.Background(), buf.Bytes())

	if Cosine(v1, v2) < 0.999 {
		t.Error("identical photos should produce identical embeddings")
	}

	var norm float64
	for _, v := range v1 {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1) > 1e-3 {
		t.Errorf("embedding not L2-normalized: norm^2 = %f", norm)
	}
}

func TestLocalImageCorrupt(t *testing.T) {
	svc := newLocalService(64)
	_, err := svc.EmbedImage(context.Background(), []byte("not a photo"))
	if !errs.IsExtraction(err) {
		t.Errorf("expected ExtractionError, got %v", err)
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"empty", nil, []float32{1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cosine(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine() = %v, want %v", got, tt.want)
			}
		})
	}
}
