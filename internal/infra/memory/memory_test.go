package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/jobmatch/internal/core/corpus"
	"github.com/jinford/jobmatch/internal/core/indexing"
	"github.com/jinford/jobmatch/internal/core/retrieval"
)

// TestStoreAssignsSequentialIDs は挿入順に連番IDが採番されることを確認する
func TestStoreAssignsSequentialIDs(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	first, err := store.Upsert(ctx, &corpus.JobRecord{Title: "A", Company: "X"})
	require.NoError(t, err)
	second, err := store.Upsert(ctx, &corpus.JobRecord{Title: "B", Company: "X"})
	require.NoError(t, err)

	assert.Equal(t, "0", first.ID)
	assert.Equal(t, "1", second.ID)
}

// TestStoreUpsertMatchesByTitleAndCompany は(title, company)一致で
// IDを維持したまま上書きされることを確認する
func TestStoreUpsertMatchesByTitleAndCompany(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	original, err := store.Upsert(ctx, &corpus.JobRecord{Title: "A", Company: "X", Description: "old"})
	require.NoError(t, err)

	updated, err := store.Upsert(ctx, &corpus.JobRecord{Title: "A", Company: "X", Description: "new"})
	require.NoError(t, err)

	assert.Equal(t, original.ID, updated.ID)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := store.Get(ctx, original.ID)
	require.NoError(t, err)
	record, ok := got.Get()
	require.True(t, ok)
	assert.Equal(t, "new", record.Description)
}

// TestStoreGetMissing は存在しないIDでNoneが返ることを確認する
func TestStoreGetMissing(t *testing.T) {
	store := NewStore()

	got, err := store.Get(context.Background(), "99")
	require.NoError(t, err)
	assert.True(t, got.IsAbsent())
}

// TestIndexSearchOrdersByCosineSimilarity はコサイン類似度の降順で
// ヒットが返ることを確認する
func TestIndexSearchOrdersByCosineSimilarity(t *testing.T) {
	index := NewIndex()
	ctx := context.Background()

	require.NoError(t, index.ReplaceChunks(ctx, "0", []*indexing.Chunk{
		{JobID: "0", Ordinal: 0, Text: "a", Vector: []float32{1, 0}},
	}))
	require.NoError(t, index.ReplaceChunks(ctx, "1", []*indexing.Chunk{
		{JobID: "1", Ordinal: 0, Text: "b", Vector: []float32{0, 1}},
	}))

	hits, err := index.Search(ctx, []float32{1, 0.1}, 2)
	require.NoError(t, err)

	require.Len(t, hits, 2)
	assert.Equal(t, "0", hits[0].JobID)
	assert.Equal(t, "1", hits[1].JobID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

// TestIndexSearchEmpty は空インデックスでErrNotInitializedを返すことを確認する
func TestIndexSearchEmpty(t *testing.T) {
	index := NewIndex()

	_, err := index.Search(context.Background(), []float32{1, 0}, 3)
	assert.ErrorIs(t, err, retrieval.ErrNotInitialized)
}

// TestIndexSearchTieBreak は同スコアがordinal昇順、次いでJobID昇順で
// 並ぶことを確認する
func TestIndexSearchTieBreak(t *testing.T) {
	index := NewIndex()
	ctx := context.Background()

	vector := []float32{1, 0}
	require.NoError(t, index.ReplaceChunks(ctx, "b", []*indexing.Chunk{
		{JobID: "b", Ordinal: 0, Text: "x", Vector: vector},
		{JobID: "b", Ordinal: 1, Text: "y", Vector: vector},
	}))
	require.NoError(t, index.ReplaceChunks(ctx, "a", []*indexing.Chunk{
		{JobID: "a", Ordinal: 0, Text: "z", Vector: vector},
	}))

	hits, err := index.Search(ctx, vector, 3)
	require.NoError(t, err)

	require.Len(t, hits, 3)
	assert.Equal(t, "a", hits[0].JobID)
	assert.Equal(t, 0, hits[0].Ordinal)
	assert.Equal(t, "b", hits[1].JobID)
	assert.Equal(t, 0, hits[1].Ordinal)
	assert.Equal(t, "b", hits[2].JobID)
	assert.Equal(t, 1, hits[2].Ordinal)
}

// TestIndexReplaceChunksOverwrites は再インデックスで古いチャンクが
// 置き換わることを確認する
func TestIndexReplaceChunksOverwrites(t *testing.T) {
	index := NewIndex()
	ctx := context.Background()

	require.NoError(t, index.ReplaceChunks(ctx, "0", []*indexing.Chunk{
		{JobID: "0", Ordinal: 0, Text: "old", Vector: []float32{1, 0}},
		{JobID: "0", Ordinal: 1, Text: "old2", Vector: []float32{1, 0}},
	}))
	require.NoError(t, index.ReplaceChunks(ctx, "0", []*indexing.Chunk{
		{JobID: "0", Ordinal: 0, Text: "new", Vector: []float32{1, 0}},
	}))

	hits, err := index.Search(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

// TestIndexReplaceChunksWithNilRemoves は空のチャンク列で求人が
// インデックスから除去されることを確認する
func TestIndexReplaceChunksWithNilRemoves(t *testing.T) {
	index := NewIndex()
	ctx := context.Background()

	require.NoError(t, index.ReplaceChunks(ctx, "0", []*indexing.Chunk{
		{JobID: "0", Ordinal: 0, Text: "x", Vector: []float32{1, 0}},
	}))
	require.NoError(t, index.ReplaceChunks(ctx, "0", nil))

	_, err := index.Search(ctx, []float32{1, 0}, 1)
	assert.ErrorIs(t, err, retrieval.ErrNotInitialized)
}
