// Package memory はテストおよび小規模データ向けのインメモリ実装を提供する。
package memory

import (
	"context"
	"math"
	"sort"
	"strconv"
	"sync"

	"github.com/samber/mo"

	"github.com/jinford/jobmatch/internal/core/corpus"
	"github.com/jinford/jobmatch/internal/core/indexing"
	"github.com/jinford/jobmatch/internal/core/retrieval"
)

// Store は corpus.Store のインメモリ実装。
// IDは挿入順に "0", "1", ... と採番される。
type Store struct {
	mu      sync.RWMutex
	records []*corpus.JobRecord
	nextID  int
}

// NewStore は空の Store を返す。
func NewStore() *Store {
	return &Store{}
}

func (s *Store) Get(ctx context.Context, id string) (mo.Option[*corpus.JobRecord], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, record := range s.records {
		if record.ID == id {
			clone := *record
			return mo.Some(&clone), nil
		}
	}
	return mo.None[*corpus.JobRecord](), nil
}

func (s *Store) List(ctx context.Context) ([]*corpus.JobRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*corpus.JobRecord, 0, len(s.records))
	for _, record := range s.records {
		clone := *record
		records = append(records, &clone)
	}
	return records, nil
}

func (s *Store) Upsert(ctx context.Context, record *corpus.JobRecord) (*corpus.JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.records {
		if existing.Title == record.Title && existing.Company == record.Company {
			updated := *record
			updated.ID = existing.ID
			s.records[i] = &updated
			clone := updated
			return &clone, nil
		}
	}

	stored := *record
	stored.ID = strconv.Itoa(s.nextID)
	s.nextID++
	s.records = append(s.records, &stored)

	clone := stored
	return &clone, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Index は indexing.Repository と retrieval.Index のインメモリ実装。
// 検索はコサイン類似度の降順で行う。
type Index struct {
	mu     sync.RWMutex
	chunks map[string][]*indexing.Chunk
}

// NewIndex は空の Index を返す。
func NewIndex() *Index {
	return &Index{chunks: make(map[string][]*indexing.Chunk)}
}

func (idx *Index) ReplaceChunks(ctx context.Context, jobID string, chunks []*indexing.Chunk) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if len(chunks) == 0 {
		delete(idx.chunks, jobID)
		return nil
	}

	copied := make([]*indexing.Chunk, len(chunks))
	for i, chunk := range chunks {
		clone := *chunk
		copied[i] = &clone
	}
	idx.chunks[jobID] = copied
	return nil
}

func (idx *Index) Search(ctx context.Context, vector []float32, limit int) ([]retrieval.ChunkHit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var hits []retrieval.ChunkHit
	for jobID, chunks := range idx.chunks {
		for _, chunk := range chunks {
			hits = append(hits, retrieval.ChunkHit{
				JobID:   jobID,
				Ordinal: chunk.Ordinal,
				Score:   cosineSimilarity(vector, chunk.Vector),
			})
		}
	}

	if len(hits) == 0 && limit > 0 {
		return nil, retrieval.ErrNotInitialized
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].Ordinal != hits[j].Ordinal {
			return hits[i].Ordinal < hits[j].Ordinal
		}
		return hits[i].JobID < hits[j].JobID
	})

	if limit < len(hits) {
		hits = hits[:limit]
	}
	return hits, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// インターフェース実装の確認
var (
	_ corpus.Store        = (*Store)(nil)
	_ indexing.Repository = (*Index)(nil)
	_ retrieval.Index     = (*Index)(nil)
)
