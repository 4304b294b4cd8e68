package postgres

import (
	"github.com/pgvector/pgvector-go"
)

// vectorParam converts an embedding to a query parameter, mapping empty
// vectors to NULL.
func vectorParam(vec []float32) any {
	if len(vec) == 0 {
		return nil
	}
	return pgvector.NewVector(vec)
}

// nullVector scans a nullable vector column.
type nullVector struct {
	vec   pgvector.Vector
	valid bool
}

func (v *nullVector) Scan(src any) error {
	if src == nil {
		v.valid = false
		return nil
	}
	v.valid = true
	return v.vec.Scan(src)
}

func (v *nullVector) Slice() []float32 {
	if !v.valid {
		return nil
	}
	return v.vec.Slice()
}

// Perceptual hashes are unsigned 64-bit values stored in a signed BIGINT
// column via two's complement.

func phashToInt64(h uint64) int64 { return int64(h) }

func int64ToPhash(v int64) uint64 { return uint64(v) }
