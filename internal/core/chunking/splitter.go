package chunking

const (
	// DefaultChunkSize はチャンクの文字数上限のデフォルト値
	DefaultChunkSize = 1200
	// DefaultOverlap は連続チャンク間のオーバーラップ文字数のデフォルト値
	DefaultOverlap = 150
)

// Splitter はテキストを文字数予算に基づいてオーバーラップ付きで分割する
// 副作用を持たない純粋な分割器であり、同一入力には常に同一の境界列を返す
// 分割境界の優先順位は 段落（空行） > 改行 > 空白 > 生文字
type Splitter struct {
	chunkSize int
	overlap   int
}

// NewSplitter は新しいSplitterを作成する
// 不正なパラメータはデフォルト値に丸める
func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultOverlap
		if overlap >= chunkSize {
			overlap = chunkSize / 4
		}
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}
}

// ChunkSize は文字数予算を返す
func (s *Splitter) ChunkSize() int { return s.chunkSize }

// Overlap はオーバーラップ文字数を返す
func (s *Splitter) Overlap() int { return s.overlap }

// Split はテキストをチャンクに分割する
// 各チャンクはchunkSize文字以下で、連続チャンクは前チャンク末尾からoverlap文字を
// 共有する（境界スナップによりオーバーラップは縮むことはあっても伸びない）
// 空文字列にはチャンクを返さず、いかなる入力に対してもエラーを返さない
func (s *Splitter) Split(text string) []string {
	if text == "" {
		return nil
	}

	// マルチバイト文字の途中で切らないようルーン単位で扱う
	runes := []rune(text)
	if len(runes) <= s.chunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + s.chunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		cut := s.snapCut(runes, start, end)
		chunks = append(chunks, string(runes[start:cut]))

		next := cut - s.overlap
		if next <= start {
			// オーバーラップを保つと前進しない場合は境界から再開する
			next = cut
		}
		next = s.snapOverlapStart(runes, next, cut)
		start = next
	}

	return chunks
}

// snapCut は切断位置を返す
// ウィンドウ全体から最も優先度の高い種類の境界を探し、同一優先度では
// 最も後方のものを採用する。前方の段落境界は後方の改行・空白境界に勝つ
// 境界が見つからない場合はendをそのまま返す（生文字分割）
func (s *Splitter) snapCut(runes []rune, start, end int) int {
	// 段落境界（空行）
	for i := end - 2; i >= start; i-- {
		if runes[i] == '\n' && runes[i+1] == '\n' {
			return i + 2
		}
	}
	// 改行境界
	for i := end - 1; i >= start; i-- {
		if runes[i] == '\n' {
			return i + 1
		}
	}
	// 空白境界
	for i := end - 1; i >= start; i-- {
		if runes[i] == ' ' {
			return i + 1
		}
	}
	return end
}

// snapOverlapStart はオーバーラップ開始位置を単語境界に前進させる
// 境界が範囲内に存在しない場合（連続した生文字列など）は位置を変えず、
// 正確にoverlap文字のオーバーラップを保つ
func (s *Splitter) snapOverlapStart(runes []rune, next, cut int) int {
	if next <= 0 || next >= cut {
		return next
	}
	// 単語の途中から始まる場合は次の境界まで前進する
	if !isBoundary(runes[next-1]) && !isBoundary(runes[next]) {
		for i := next; i < cut; i++ {
			if isBoundary(runes[i]) {
				next = i + 1
				break
			}
		}
	}
	// チャンクが境界文字から始まらないよう連続する境界文字を読み飛ばす
	for next < cut && isBoundary(runes[next]) {
		next++
	}
	return next
}

func isBoundary(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t'
}
