package chunking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSplitEmptyInput は空文字列にチャンクを返さないことを確認する
func TestSplitEmptyInput(t *testing.T) {
	s := NewSplitter(20, 5)
	assert.Empty(t, s.Split(""))
}

// TestSplitShortInput は予算以下の入力が単一チャンクになることを確認する
func TestSplitShortInput(t *testing.T) {
	s := NewSplitter(100, 10)
	chunks := s.Split("short text")
	require.Len(t, chunks, 1)
	assert.Equal(t, "short text", chunks[0])
}

// TestSplitDeterministic は同一入力に常に同一の境界列を返すことを確認する
func TestSplitDeterministic(t *testing.T) {
	s := NewSplitter(30, 8)
	text := strings.Repeat("lorem ipsum dolor sit amet ", 10)

	first := s.Split(text)
	second := s.Split(text)
	assert.Equal(t, first, second)
}

// TestSplitRespectsChunkSize はいかなるチャンクも指定サイズを超えないことを確認する
func TestSplitRespectsChunkSize(t *testing.T) {
	s := NewSplitter(25, 5)
	text := strings.Repeat("word boundary splitting test case ", 20)

	for _, chunk := range s.Split(text) {
		assert.LessOrEqual(t, len([]rune(chunk)), 25, "chunk exceeds size limit: %q", chunk)
	}
}

// TestSplitPrefersParagraphBoundary は予算後半にある空行で優先的に切ることを確認する
func TestSplitPrefersParagraphBoundary(t *testing.T) {
	// 段落境界が予算(30)の後半に来るよう構成する
	first := strings.Repeat("a", 20)
	second := strings.Repeat("b", 40)
	text := first + "\n\n" + second

	s := NewSplitter(30, 5)
	chunks := s.Split(text)

	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, first+"\n\n", chunks[0])
}

// TestSplitParagraphBoundaryEarlyInWindow はウィンドウ前半の空行でも
// 段落をまたがずに切ることを確認する
func TestSplitParagraphBoundaryEarlyInWindow(t *testing.T) {
	// 空行がウィンドウ(30)の前半、位置8-9に来るよう構成する
	first := strings.Repeat("a", 8)
	second := strings.Repeat("b", 50)
	text := first + "\n\n" + second

	s := NewSplitter(30, 5)
	chunks := s.Split(text)

	require.GreaterOrEqual(t, len(chunks), 2)
	// 先頭チャンクは段落境界で閉じ、次の段落に踏み込まない
	assert.Equal(t, first+"\n\n", chunks[0])
	assert.NotContains(t, chunks[0], "b")
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk)), 30)
	}
}

// TestSplitPrefersNewlineOverSpace は空行がない場合に改行で切ることを確認する
func TestSplitPrefersNewlineOverSpace(t *testing.T) {
	text := "aaaa bbbb cccc dddd\n" + strings.Repeat("e", 30)

	s := NewSplitter(25, 5)
	chunks := s.Split(text)

	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, "aaaa bbbb cccc dddd\n", chunks[0])
}

// TestSplitExactOverlapWithoutBoundaries は境界のない連続文字列で
// 正確にoverlap文字のオーバーラップが保たれることを確認する
func TestSplitExactOverlapWithoutBoundaries(t *testing.T) {
	text := "abcdefghijklmnopqrstuvwxyz"

	s := NewSplitter(20, 5)
	chunks := s.Split(text)

	require.Len(t, chunks, 2)
	assert.Equal(t, "abcdefghijklmnopqrst", chunks[0])
	assert.Equal(t, "pqrstuvwxyz", chunks[1])

	// 前チャンク末尾5文字と次チャンク先頭5文字が一致する
	assert.Equal(t, chunks[0][len(chunks[0])-5:], chunks[1][:5])
	// オーバーラップ部を除いて連結すると元テキストに戻る
	assert.Equal(t, text, chunks[0]+chunks[1][5:])
}

// TestSplitOverlapSnapsToWordBoundary はオーバーラップ開始位置が
// 単語の途中にならないことを確認する
func TestSplitOverlapSnapsToWordBoundary(t *testing.T) {
	text := "aaaa bbbb cccc dddd eeee"

	s := NewSplitter(10, 3)
	chunks := s.Split(text)

	require.GreaterOrEqual(t, len(chunks), 2)
	joined := ""
	for _, chunk := range chunks {
		// チャンク先頭が単語の途中から始まらない
		assert.NotEqual(t, byte(' '), chunk[0])
		joined += chunk
	}
	// 全ての単語が少なくとも1つのチャンクに完全な形で含まれる
	for _, word := range strings.Fields(text) {
		found := false
		for _, chunk := range chunks {
			if strings.Contains(chunk, word) {
				found = true
				break
			}
		}
		assert.True(t, found, "word %q missing from all chunks", word)
	}
}

// TestSplitMultibyteSafe はマルチバイト文字の途中で切らないことを確認する
func TestSplitMultibyteSafe(t *testing.T) {
	text := strings.Repeat("日本語のテキストを分割する ", 20)

	s := NewSplitter(30, 5)
	for _, chunk := range s.Split(text) {
		assert.True(t, strings.ContainsRune("日本語のテキストを分割する ", []rune(chunk)[0]))
		// 不正なUTF-8が生まれていないこと
		assert.Equal(t, chunk, string([]rune(chunk)))
	}
}

// TestNewSplitterClampsInvalidParams は不正パラメータがデフォルトに丸められることを確認する
func TestNewSplitterClampsInvalidParams(t *testing.T) {
	s := NewSplitter(0, -1)
	assert.Equal(t, DefaultChunkSize, s.ChunkSize())
	assert.Equal(t, DefaultOverlap, s.Overlap())

	// オーバーラップが予算以上の場合も丸める
	s = NewSplitter(100, 100)
	assert.Less(t, s.Overlap(), s.ChunkSize())
}
