package retrieval

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Snippet is one retrieved text passage.
type Snippet struct {
	Content  string
	Metadata map[string]string
	Distance float64
}

// Index is a sqlite-vec backed nearest-neighbor index, partitioned into
// named collections.
type Index struct {
	db   *sql.DB
	dims int
}

// OpenIndex opens (or creates) the vector index database.
func OpenIndex(path string, dims int) (*Index, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create index directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open index at %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping index at %s: %w", path, err)
	}

	idx := &Index{db: db, dims: dims}
	if err := idx.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize index schema: %w", err)
	}

	return idx, nil
}

// Close closes the index database.
func (i *Index) Close() error {
	return i.db.Close()
}

func (i *Index) initSchema() error {
	if _, err := i.db.Exec(`
		CREATE TABLE IF NOT EXISTS chunks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			collection TEXT NOT NULL,
			content TEXT NOT NULL,
			metadata TEXT,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_chunks_collection ON chunks(collection);
	`); err != nil {
		return err
	}

	vecTable := fmt.Sprintf(`
		CREATE VIRTUAL TABLE IF NOT EXISTS vec_chunks USING vec0(
			embedding float[%d],
			chunk_id INTEGER,
			collection TEXT
		)`, i.dims)
	if _, err := i.db.Exec(vecTable); err != nil {
		return fmt.Errorf("failed to create vec_chunks (is sqlite-vec loaded?): %w", err)
	}

	return nil
}

// Add inserts one chunk with its embedding into a collection.
func (i *Index) Add(ctx context.Context, collection, content string, metadata map[string]string, embedding []float32) error {
	if len(embedding) != i.dims {
		return fmt.Errorf("embedding has %d dimensions, index expects %d", len(embedding), i.dims)
	}

	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal chunk metadata: %w", err)
	}

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin chunk insert: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO chunks (collection, content, metadata, created_at) VALUES (?, ?, ?, ?)`,
		collection, content, string(metaJSON), time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert chunk: %w", err)
	}
	chunkID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read chunk id: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO vec_chunks (embedding, chunk_id, collection) VALUES (?, ?, ?)`,
		encodeFloat32Slice(embedding), chunkID, collection,
	); err != nil {
		return fmt.Errorf("failed to insert embedding: %w", err)
	}

	return tx.Commit()
}

// Search returns the k nearest chunks of a collection by cosine distance.
// The index is never mutated by a search.
func (i *Index) Search(ctx context.Context, collection string, embedding []float32, k int) ([]Snippet, error) {
	rows, err := i.db.QueryContext(ctx, `
		SELECT c.content, COALESCE(c.metadata, ''),
		       vec_distance_cosine(v.embedding, ?) AS distance
		FROM vec_chunks v
		JOIN chunks c ON c.id = v.chunk_id
		WHERE v.collection = ?
		ORDER BY distance ASC
		LIMIT ?`,
		encodeFloat32Slice(embedding), collection, k,
	)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	defer rows.Close()

	var snippets []Snippet
	for rows.Next() {
		var (
			sn       Snippet
			metaJSON string
		)
		if err := rows.Scan(&sn.Content, &metaJSON, &sn.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan snippet: %w", err)
		}
		if metaJSON != "" {
			_ = json.Unmarshal([]byte(metaJSON), &sn.Metadata)
		}
		snippets = append(snippets, sn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snippets: %w", err)
	}

	return snippets, nil
}

// Count returns the number of chunks in a collection.
func (i *Index) Count(ctx context.Context, collection string) (int, error) {
	var n int
	err := i.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chunks WHERE collection = ?`, collection,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return n, nil
}

func encodeFloat32Slice(vec []float32) []byte {
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, binary.LittleEndian, vec); err != nil {
		// Should never happen with bytes.Buffer
		return nil
	}
	return buf.Bytes()
}
