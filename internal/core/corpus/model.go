package corpus

import (
	"fmt"
	"strings"
)

// RemoteStatus は求人のリモート可否を表す列挙値
type RemoteStatus string

const (
	// RemoteYes はリモート勤務可
	RemoteYes RemoteStatus = "yes"
	// RemoteNot はリモート勤務不可
	RemoteNot RemoteStatus = "not"
	// RemoteUnspecified はリモート可否が未記載
	RemoteUnspecified RemoteStatus = "unspecified"
)

// ParseRemoteStatus はフィード上の自由記述をRemoteStatusに正規化する
func ParseRemoteStatus(s string) RemoteStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "remote":
		return RemoteYes
	case "not", "no", "n", "false", "onsite":
		return RemoteNot
	default:
		return RemoteUnspecified
	}
}

// JobRecord は求人コーパスの正規レコードを表す
// IDは採番後不変であり、コーパスとEmbeddingインデックスを結合するキーとなる
type JobRecord struct {
	ID             string
	Title          string
	Company        string
	Location       string
	Department     string
	Remote         RemoteStatus
	Description    string
	RecruiterEmail string
}

// Serialize は求人レコードをチャンク化・Embedding用のラベル付きテキストに直列化する
func (j *JobRecord) Serialize() string {
	content := fmt.Sprintf(
		"Title: %s\nCompany: %s\nLocation: %s\nRemote: %s\nDepartment: %s\nDescription:\n%s",
		j.Title,
		j.Company,
		j.Location,
		j.Remote,
		j.Department,
		j.Description,
	)
	return strings.TrimSpace(content)
}
