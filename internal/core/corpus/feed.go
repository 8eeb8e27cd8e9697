package corpus

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// FeedRow は求人フィードの生の1行を表す
// 欠損フィールドは空文字列に正規化される
type FeedRow struct {
	Title          string
	Company        string
	Location       string
	Department     string
	Remote         string
	Description    string
	RecruiterEmail string
}

// ToRecord はフィード行を正規化してJobRecordに変換する（IDは未採番）
func (r FeedRow) ToRecord() *JobRecord {
	return &JobRecord{
		Title:          strings.TrimSpace(r.Title),
		Company:        strings.TrimSpace(r.Company),
		Location:       strings.TrimSpace(r.Location),
		Department:     strings.TrimSpace(r.Department),
		Remote:         ParseRemoteStatus(r.Remote),
		Description:    strings.TrimSpace(r.Description),
		RecruiterEmail: strings.TrimSpace(r.RecruiterEmail),
	}
}

// ReadFeed はCSV形式の求人フィードを読み込む
// 1行目はヘッダとして扱い、未知の列は無視、欠損列は空文字列として読む
func ReadFeed(r io.Reader) ([]FeedRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("フィードヘッダの読み込みに失敗: %w", err)
	}

	// 列名 -> 位置のマッピングを構築
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var rows []FeedRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("フィード行の読み込みに失敗: %w", err)
		}

		rows = append(rows, FeedRow{
			Title:          field(record, "title"),
			Company:        field(record, "company"),
			Location:       field(record, "location"),
			Department:     field(record, "department"),
			Remote:         field(record, "remote"),
			Description:    field(record, "description"),
			RecruiterEmail: field(record, "recruiter_email"),
		})
	}

	return rows, nil
}
