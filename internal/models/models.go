package models

// Chunk is a parsed piece of a source file with its position metadata.
type Chunk struct {
	Content    string
	PageNumber int
	ChunkID    int
}
