package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	"github.com/samber/mo"

	"github.com/jinford/jobmatch/internal/core/corpus"
	"github.com/jinford/jobmatch/internal/core/indexing"
	"github.com/jinford/jobmatch/internal/core/retrieval"
)

// Repository は corpus.Store / indexing.Repository / retrieval.Index を
// 実装する PostgreSQL リポジトリ。ベクトル検索には pgvector を使用する。
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository は新しい Repository を返す。
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema は必要なテーブルと拡張を作成する。
// 冪等であり、起動時に毎回呼び出してよい。
func (r *Repository) EnsureSchema(ctx context.Context, dimension int) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			company TEXT NOT NULL,
			location TEXT NOT NULL DEFAULT '',
			department TEXT NOT NULL DEFAULT '',
			remote TEXT NOT NULL DEFAULT 'unspecified',
			description TEXT NOT NULL DEFAULT '',
			recruiter_email TEXT NOT NULL DEFAULT '',
			UNIQUE (title, company)
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunks (
			job_id TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
			ordinal INTEGER NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			PRIMARY KEY (job_id, ordinal)
		)`, dimension),
	}

	for _, stmt := range stmts {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (mo.Option[*corpus.JobRecord], error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, title, company, location, department, remote, description, recruiter_email
		 FROM jobs WHERE id = $1`, id)

	record, err := scanJobRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return mo.None[*corpus.JobRecord](), nil
		}
		return mo.None[*corpus.JobRecord](), fmt.Errorf("failed to get job: %w", err)
	}
	return mo.Some(record), nil
}

func (r *Repository) List(ctx context.Context) ([]*corpus.JobRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, company, location, department, remote, description, recruiter_email
		 FROM jobs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var records []*corpus.JobRecord
	for rows.Next() {
		record, err := scanJobRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read jobs: %w", err)
	}
	return records, nil
}

func (r *Repository) Upsert(ctx context.Context, record *corpus.JobRecord) (*corpus.JobRecord, error) {
	// (title, company) が一致する既存求人はIDを維持したまま上書きする
	row := r.pool.QueryRow(ctx,
		`INSERT INTO jobs (id, title, company, location, department, remote, description, recruiter_email)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (title, company) DO UPDATE SET
			location = EXCLUDED.location,
			department = EXCLUDED.department,
			remote = EXCLUDED.remote,
			description = EXCLUDED.description,
			recruiter_email = EXCLUDED.recruiter_email
		 RETURNING id, title, company, location, department, remote, description, recruiter_email`,
		uuid.NewString(), record.Title, record.Company, record.Location,
		record.Department, string(record.Remote), record.Description, record.RecruiterEmail)

	stored, err := scanJobRecord(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert job: %w", err)
	}
	return stored, nil
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return count, nil
}

// ReplaceChunks は対象求人のチャンクを単一トランザクションで全置換する。
func (r *Repository) ReplaceChunks(ctx context.Context, jobID string, chunks []*indexing.Chunk) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM chunks WHERE job_id = $1`, jobID); err != nil {
		return fmt.Errorf("failed to delete old chunks: %w", err)
	}

	for _, chunk := range chunks {
		_, err := tx.Exec(ctx,
			`INSERT INTO chunks (job_id, ordinal, content, embedding) VALUES ($1, $2, $3, $4)`,
			chunk.JobID, chunk.Ordinal, chunk.Text, pgvector.NewVector(chunk.Vector))
		if err != nil {
			return fmt.Errorf("failed to insert chunk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Search はコサイン類似度の降順でチャンクを検索する。
// 同スコアの場合は ordinal 昇順、次いで job_id 昇順で並ぶ。
func (r *Repository) Search(ctx context.Context, vector []float32, limit int) ([]retrieval.ChunkHit, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT job_id, ordinal, 1 - (embedding <=> $1) AS score
		 FROM chunks
		 ORDER BY embedding <=> $1, ordinal, job_id
		 LIMIT $2`,
		pgvector.NewVector(vector), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	defer rows.Close()

	var hits []retrieval.ChunkHit
	for rows.Next() {
		var hit retrieval.ChunkHit
		if err := rows.Scan(&hit.JobID, &hit.Ordinal, &hit.Score); err != nil {
			return nil, fmt.Errorf("failed to scan chunk hit: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chunk hits: %w", err)
	}

	// limit > 0 で0件ならインデックス未構築とみなす
	if len(hits) == 0 && limit > 0 {
		return nil, retrieval.ErrNotInitialized
	}
	return hits, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJobRecord(row rowScanner) (*corpus.JobRecord, error) {
	var record corpus.JobRecord
	var remote string
	err := row.Scan(&record.ID, &record.Title, &record.Company, &record.Location,
		&record.Department, &remote, &record.Description, &record.RecruiterEmail)
	if err != nil {
		return nil, err
	}
	record.Remote = corpus.ParseRemoteStatus(remote)
	return &record, nil
}

// インターフェース実装の確認
var (
	_ corpus.Store        = (*Repository)(nil)
	_ indexing.Repository = (*Repository)(nil)
	_ retrieval.Index     = (*Repository)(nil)
)
