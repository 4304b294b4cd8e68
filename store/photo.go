package store

// Photo belongs to a found item. Raw bytes live on disk under the data
// directory; the row carries the perceptual hash and the optional image
// embedding so the ranker never touches the filesystem.
type Photo struct {
	ID             string
	ItemID         string
	Filename       string
	Phash          uint64
	HasPhash       bool
	ImageEmbedding []float32
	Position       int
	CreatedTs      int64
}
