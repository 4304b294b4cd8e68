package sqlite

import (
	"encoding/binary"
	"math"
	"strings"

	"github.com/pkg/errors"
)

func joinAnd(where []string) string {
	return strings.Join(where, " AND ")
}

func joinComma(parts []string) string {
	return strings.Join(parts, ", ")
}

// placeholders returns "?, ?, ..." for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Embeddings are stored as little-endian float32 BLOBs. The dimension is
// configuration, so the codec derives it from the blob length instead of
// enforcing a constant.

func vectorToBlob(vec []float32) []byte {
	if len(vec) == 0 {
		return nil
	}
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(v))
	}
	return buf
}

func blobToVector(blob []byte) ([]float32, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	if len(blob)%4 != 0 {
		return nil, errors.Errorf("invalid embedding blob length %d", len(blob))
	}
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		bits := binary.LittleEndian.Uint32(blob[i*4 : i*4+4])
		vec[i] = math.Float32frombits(bits)
	}
	return vec, nil
}

// Perceptual hashes are unsigned 64-bit values stored in a signed BIGINT
// column via two's complement.

func phashToInt64(h uint64) int64 { return int64(h) }

func int64ToPhash(v int64) uint64 { return uint64(v) }
