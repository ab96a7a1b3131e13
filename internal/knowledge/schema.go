package knowledge

import (
	"context"
	"database/sql"
	"fmt"
)

// EnsureSchema creates the pgvector extension, tables and index when absent.
// dims is the embedding dimension count of the configured model.
func EnsureSchema(ctx context.Context, db *sql.DB, dims int) error {
	if dims <= 0 {
		return fmt.Errorf("invalid embedding dimensions: %d", dims)
	}

	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS courses (
			id SERIAL PRIMARY KEY,
			title TEXT UNIQUE NOT NULL,
			link TEXT NOT NULL DEFAULT '',
			instructor TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS lessons (
			course_id INT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
			number INT NOT NULL,
			title TEXT NOT NULL,
			link TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (course_id, number)
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunks (
			id SERIAL PRIMARY KEY,
			course_id INT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
			lesson_number INT,
			chunk_index INT NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d)
		)`, dims),
		`CREATE INDEX IF NOT EXISTS chunks_embedding_idx ON chunks USING hnsw (embedding vector_cosine_ops)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// EnsureEmbeddingDimensions checks whether the embedding vector column matches
// the target dimension count. When they differ it truncates stale data, alters
// the column type, and rebuilds the index.
// Returns true when a migration was performed.
func EnsureEmbeddingDimensions(ctx context.Context, db *sql.DB, target int) (bool, error) {
	if target <= 0 {
		return false, fmt.Errorf("invalid embedding dimensions: %d", target)
	}

	// pgvector stores the dimension count in atttypmod for vector(N) columns.
	var current int
	err := db.QueryRowContext(ctx, `
		SELECT atttypmod
		FROM pg_attribute
		WHERE attrelid = 'chunks'::regclass
		  AND attname = 'embedding'
	`).Scan(&current)
	if err != nil {
		return false, fmt.Errorf("query current embedding dimensions: %w", err)
	}

	if current == target {
		return false, nil
	}

	// Old embeddings come from a different model and cannot be meaningfully
	// searched, so truncate before altering.
	stmts := []string{
		`DROP INDEX IF EXISTS chunks_embedding_idx`,
		`TRUNCATE chunks`,
		fmt.Sprintf(`ALTER TABLE chunks ALTER COLUMN embedding TYPE vector(%d)`, target),
		`CREATE INDEX chunks_embedding_idx ON chunks USING hnsw (embedding vector_cosine_ops)`,
	}
	for _, stmt := range stmts {
		if _, execErr := db.ExecContext(ctx, stmt); execErr != nil {
			return false, fmt.Errorf("migrate embedding dimensions (%d to %d): %w", current, target, execErr)
		}
	}

	return true, nil
}
