package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/jobmatch/internal/core/corpus"
)

// TestLexicalScore はキーワード重なり率の定義を確認する
func TestLexicalScore(t *testing.T) {
	cases := []struct {
		name      string
		query     string
		candidate string
		want      float64
	}{
		{"完全一致", "go developer", "go developer", 1.0},
		{"部分一致", "go developer remote", "senior go engineer remote", 2.0 / 3.0},
		{"一致なし", "rust embedded", "frontend react position", 0},
		{"大文字小文字を無視", "GO Developer", "go developer wanted", 1.0},
		{"空クエリ", "", "anything", 0},
		{"空候補", "go", "", 0},
		{"重複語は1語として数える", "go go go", "go", 1.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, LexicalScore(tc.query, tc.candidate), 1e-9)
		})
	}
}

// TestLexicalRetrieveRanksByOverlap は重なり率の降順で並ぶことを確認する
func TestLexicalRetrieveRanksByOverlap(t *testing.T) {
	store := &stubStore{jobs: []*corpus.JobRecord{
		{ID: "0", Title: "Frontend Developer", Description: "react typescript"},
		{ID: "1", Title: "Go Developer", Description: "backend go services"},
		{ID: "2", Title: "Data Engineer", Description: "python spark"},
	}}

	r := NewLexicalRetriever(store, WithLexicalLogger(discardLogger()))
	results, err := r.Retrieve(context.Background(), "go backend developer", 2)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "1", results[0].ID)
	assert.Equal(t, "0", results[1].ID)
}

// TestLexicalRetrieveEmptyCorpus は空コーパスでErrNotInitializedを返すことを確認する
func TestLexicalRetrieveEmptyCorpus(t *testing.T) {
	r := NewLexicalRetriever(&stubStore{}, WithLexicalLogger(discardLogger()))
	_, err := r.Retrieve(context.Background(), "query", 3)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

// TestLexicalRetrieveEmptyQuery は空クエリが先頭topK件を返すことを確認する
func TestLexicalRetrieveEmptyQuery(t *testing.T) {
	store := &stubStore{jobs: testJobs("0", "1", "2")}

	r := NewLexicalRetriever(store, WithLexicalLogger(discardLogger()))
	results, err := r.Retrieve(context.Background(), "", 2)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "0", results[0].ID)
}

// TestLexicalRetrieveStableOrderOnTies は同スコアでコーパス順が保たれることを確認する
func TestLexicalRetrieveStableOrderOnTies(t *testing.T) {
	store := &stubStore{jobs: []*corpus.JobRecord{
		{ID: "0", Title: "Go Engineer", Description: ""},
		{ID: "1", Title: "Go Engineer", Description: ""},
		{ID: "2", Title: "Go Engineer", Description: ""},
	}}

	r := NewLexicalRetriever(store, WithLexicalLogger(discardLogger()))
	results, err := r.Retrieve(context.Background(), "go", 3)
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Equal(t, "0", results[0].ID)
	assert.Equal(t, "1", results[1].ID)
	assert.Equal(t, "2", results[2].ID)
}
