package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRankerBackends(t *testing.T) {
	idx := buildTestIndex(t, map[string]string{
		"a": "insulin regulates blood sugar",
	})

	t.Run("bleve", func(t *testing.T) {
		r, err := NewRanker(idx, BackendBleve)
		require.NoError(t, err)
		assert.Equal(t, "bleve-bm25", r.Name())
		assert.True(t, AdvancedRanking(r))
	})

	t.Run("default is bleve", func(t *testing.T) {
		r, err := NewRanker(idx, "")
		require.NoError(t, err)
		assert.True(t, AdvancedRanking(r))
	})

	t.Run("native", func(t *testing.T) {
		r, err := NewRanker(idx, BackendNative)
		require.NoError(t, err)
		assert.Equal(t, "native-bm25", r.Name())
		assert.False(t, AdvancedRanking(r))
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := NewRanker(idx, "quantum")
		assert.Error(t, err)
	})
}

func TestRankerVariantsAgreeOnNumericTerms(t *testing.T) {
	idx := buildTestIndex(t, map[string]string{
		"budget": "The 2024 budget forecast is final.",
		"other":  "An unrelated planning note.",
	})

	for _, backend := range []string{BackendBleve, BackendNative} {
		r, err := NewRanker(idx, backend)
		require.NoError(t, err)

		hits, err := r.Rank([]string{"2024"}, 5)
		require.NoError(t, err)
		require.Len(t, hits, 1, "backend %s missed the numeric term", backend)
		assert.Equal(t, "budget", idx.Chunks[hits[0].ChunkIdx].DocID)
	}
}

func TestRankerVariantsAgreeOnTopResult(t *testing.T) {
	idx := buildTestIndex(t, map[string]string{
		"diabetes":  "Diabetes treatment relies on insulin therapy and diet. Diabetes management is ongoing.",
		"unrelated": "The cafeteria menu changes weekly.",
		"partial":   "A treatment plan for back pain.",
	})

	for _, backend := range []string{BackendBleve, BackendNative} {
		r, err := NewRanker(idx, backend)
		require.NoError(t, err)

		hits, err := r.Rank([]string{"diabetes", "treatment"}, 5)
		require.NoError(t, err)
		require.NotEmpty(t, hits, "backend %s returned no hits", backend)
		assert.Equal(t, "diabetes", idx.Chunks[hits[0].ChunkIdx].DocID,
			"backend %s ranked the wrong document first", backend)
	}
}
