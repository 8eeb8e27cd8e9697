package indexing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/jobmatch/internal/core/chunking"
	"github.com/jinford/jobmatch/internal/core/corpus"
)

type stubEmbedder struct {
	maxBatch   int
	failOn     string // このテキストを含むバッチで失敗する
	batchSizes []int
}

func (e *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.BatchEmbed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *stubEmbedder) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	e.batchSizes = append(e.batchSizes, len(texts))
	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		if e.failOn != "" && strings.Contains(text, e.failOn) {
			return nil, errors.New("embedding api error")
		}
		vectors = append(vectors, []float32{float32(len(text)), 0, 0})
	}
	return vectors, nil
}

func (e *stubEmbedder) MaxBatchSize() int {
	if e.maxBatch > 0 {
		return e.maxBatch
	}
	return 100
}

func (e *stubEmbedder) Dimension() int { return 3 }

type stubRepo struct {
	replaced map[string][]*Chunk
	failOn   string
}

func newStubRepo() *stubRepo {
	return &stubRepo{replaced: make(map[string][]*Chunk)}
}

func (r *stubRepo) ReplaceChunks(ctx context.Context, jobID string, chunks []*Chunk) error {
	if r.failOn == jobID {
		return errors.New("db error")
	}
	r.replaced[jobID] = chunks
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func indexJob(id, description string) *corpus.JobRecord {
	return &corpus.JobRecord{
		ID:          id,
		Title:       "Engineer",
		Company:     "Acme",
		Remote:      corpus.RemoteUnspecified,
		Description: description,
	}
}

// TestIndexJobsStoresChunksWithOrdinals はチャンクが連番のordinal付きで
// 保存されることを確認する
func TestIndexJobsStoresChunksWithOrdinals(t *testing.T) {
	repo := newStubRepo()
	embedder := &stubEmbedder{}

	svc := NewIndexService(repo, embedder,
		WithIndexLogger(discardLogger()),
		WithIndexSplitter(chunking.NewSplitter(40, 8)),
	)

	longDescription := "Design and build distributed systems in Go. Operate production clusters. Mentor junior engineers across teams."
	result, err := svc.IndexJobs(context.Background(), []*corpus.JobRecord{indexJob("0", longDescription)})
	require.NoError(t, err)

	assert.Equal(t, 1, result.IndexedJobs)
	assert.Zero(t, result.FailedJobs)

	chunks := repo.replaced["0"]
	require.NotEmpty(t, chunks)
	assert.Equal(t, result.TotalChunks, len(chunks))
	for i, chunk := range chunks {
		assert.Equal(t, "0", chunk.JobID)
		assert.Equal(t, i, chunk.Ordinal)
		assert.NotEmpty(t, chunk.Text)
		assert.NotEmpty(t, chunk.Vector)
	}
}

// TestIndexJobsRespectsEmbedderBatchLimit はバッチサイズがEmbedderの
// 上限でクリップされることを確認する
func TestIndexJobsRespectsEmbedderBatchLimit(t *testing.T) {
	repo := newStubRepo()
	embedder := &stubEmbedder{maxBatch: 2}

	svc := NewIndexService(repo, embedder,
		WithIndexLogger(discardLogger()),
		WithIndexSplitter(chunking.NewSplitter(30, 5)),
	)

	longDescription := "Alpha beta gamma delta epsilon zeta eta theta iota kappa lambda mu nu xi omicron pi rho sigma tau."
	_, err := svc.IndexJobs(context.Background(), []*corpus.JobRecord{indexJob("0", longDescription)})
	require.NoError(t, err)

	require.NotEmpty(t, embedder.batchSizes)
	for _, size := range embedder.batchSizes {
		assert.LessOrEqual(t, size, 2)
	}
}

// TestIndexJobsContinuesAfterJobFailure は1求人の失敗が統計に記録され、
// 残りの求人の処理が継続することを確認する
func TestIndexJobsContinuesAfterJobFailure(t *testing.T) {
	repo := newStubRepo()
	repo.failOn = "1"
	embedder := &stubEmbedder{}

	svc := NewIndexService(repo, embedder, WithIndexLogger(discardLogger()))

	jobs := []*corpus.JobRecord{
		indexJob("0", "first job"),
		indexJob("1", "second job"),
		indexJob("2", "third job"),
	}
	result, err := svc.IndexJobs(context.Background(), jobs)
	require.NoError(t, err)

	assert.Equal(t, 2, result.IndexedJobs)
	assert.Equal(t, 1, result.FailedJobs)
	assert.Contains(t, repo.replaced, "0")
	assert.Contains(t, repo.replaced, "2")
	assert.NotContains(t, repo.replaced, "1")
}

// TestIndexJobsFailsJobWithoutID は未採番の求人が失敗として記録されることを確認する
func TestIndexJobsFailsJobWithoutID(t *testing.T) {
	repo := newStubRepo()
	svc := NewIndexService(repo, &stubEmbedder{}, WithIndexLogger(discardLogger()))

	result, err := svc.IndexJobs(context.Background(), []*corpus.JobRecord{indexJob("", "no id")})
	require.NoError(t, err)

	assert.Equal(t, 1, result.FailedJobs)
	assert.Zero(t, result.IndexedJobs)
}

// TestIndexJobsStopsOnContextCancel はキャンセルされたコンテキストで
// エラーを返すことを確認する
func TestIndexJobsStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewIndexService(newStubRepo(), &stubEmbedder{}, WithIndexLogger(discardLogger()))
	_, err := svc.IndexJobs(ctx, []*corpus.JobRecord{indexJob("0", "text")})
	assert.ErrorIs(t, err, context.Canceled)
}

// TestIndexJobsEmbeddingFailure はEmbedding失敗が求人単位の失敗として
// 記録されることを確認する
func TestIndexJobsEmbeddingFailure(t *testing.T) {
	repo := newStubRepo()
	embedder := &stubEmbedder{failOn: "broken"}

	svc := NewIndexService(repo, embedder, WithIndexLogger(discardLogger()))

	jobs := []*corpus.JobRecord{
		indexJob("0", "healthy description"),
		indexJob("1", "broken description"),
	}
	result, err := svc.IndexJobs(context.Background(), jobs)
	require.NoError(t, err)

	assert.Equal(t, 1, result.IndexedJobs)
	assert.Equal(t, 1, result.FailedJobs)
}
