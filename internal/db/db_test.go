package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceToSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, DistanceToSimilarity(0), 1e-6)
	assert.InDelta(t, 0.5, DistanceToSimilarity(1), 1e-6)
	assert.Greater(t, DistanceToSimilarity(0.2), DistanceToSimilarity(2.0))
	assert.Greater(t, DistanceToSimilarity(100), float32(0))
}

func TestRowsToDocuments(t *testing.T) {
	rows := []Document{
		{Content: "near match", Source: "https://example.com/a", ChunkID: 1, Distance: 0},
		{Content: "far match", Source: "https://example.com/b", ChunkID: 2, Distance: 3},
	}

	docs := RowsToDocuments(rows)
	require.Len(t, docs, 2)

	assert.Equal(t, "near match", docs[0].PageContent)
	assert.Equal(t, "https://example.com/a", docs[0].Metadata["source"])
	assert.Equal(t, 1, docs[0].Metadata["chunk"])
	assert.InDelta(t, 1.0, docs[0].Score, 1e-6)

	// scores must be populated and ordered with distance
	assert.Greater(t, docs[0].Score, docs[1].Score)
	assert.Greater(t, docs[1].Score, float32(0))
}
