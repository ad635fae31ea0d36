// Package sqlitevec provides a SQLite-backed vector driver using sqlite-vec.
//
// Records are embedded client-side through a configured embeddings.Embedder
// and stored alongside their text and metadata, making this the fully-local
// backend option.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/papercomputeco/engram/pkg/embeddings"
	"github.com/papercomputeco/engram/pkg/vector"
)

// SQLiteVecDriver implements vector.Driver using SQLite with sqlite-vec.
type SQLiteVecDriver struct {
	db       *sql.DB
	embedder embeddings.Embedder
	logger   *zap.Logger
}

// Config holds configuration for the SQLite vec driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint
}

// NewSQLiteVecDriver creates a new SQLite vector driver backed by sqlite-vec.
func NewSQLiteVecDriver(c Config, embedder embeddings.Embedder, logger *zap.Logger) (*SQLiteVecDriver, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, fmt.Errorf("%w: database path is required", vector.ErrCollection)
	}

	if c.Dimensions == 0 {
		return nil, fmt.Errorf("%w: sqlite-vec embedding dimensions cannot be 0, must be configured", vector.ErrCollection)
	}

	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required for sqlite-vec", vector.ErrCollection)
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", vector.ErrConnection, err)
	}

	// Verify sqlite-vec is loaded
	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: sqlite-vec not available: %v", vector.ErrConnection, err)
	}

	// Create the record mapping table. vec0 virtual tables use integer
	// rowids, so we need a mapping from string record IDs to integer
	// rowids; record text and metadata ride along in this table.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS memory_records (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			record_id TEXT NOT NULL UNIQUE,
			text TEXT NOT NULL DEFAULT '',
			metadata TEXT NOT NULL DEFAULT '{}'
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: creating records table: %v", vector.ErrCollection, err)
	}

	// Create the vec0 virtual table for vector storage and KNN queries.
	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS memory_embeddings USING vec0(embedding float[%d])`,
		c.Dimensions,
	)
	if _, err := db.Exec(createVec); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: creating vec0 table: %v", vector.ErrCollection, err)
	}

	logger.Info("sqlite-vec vector driver initialized",
		zap.String("db_path", c.DBPath),
		zap.Uint("dimensions", c.Dimensions),
		zap.String("vec_version", vecVersion),
	)

	return &SQLiteVecDriver{
		db:       db,
		embedder: embedder,
		logger:   logger,
	}, nil
}

// serializeFloat32 converts a float32 slice to a little-endian byte slice
// suitable for sqlite-vec BLOB format.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Store persists a record under the given id, overwriting any existing
// record at that id.
func (d *SQLiteVecDriver) Store(ctx context.Context, id, text string, metadata map[string]any) error {
	embedding, err := d.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embedding record %s: %w", id, err)
	}
	embBlob := serializeFloat32(embedding)

	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshaling metadata for record %s: %w", id, err)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Check if the record already exists
	var existingRowID int64
	err = tx.QueryRowContext(ctx,
		`SELECT rowid FROM memory_records WHERE record_id = ?`, id,
	).Scan(&existingRowID)

	switch err {
	case nil:
		// Record exists: overwrite text, metadata, and embedding
		if _, err := tx.ExecContext(ctx,
			`UPDATE memory_records SET text = ?, metadata = ? WHERE rowid = ?`,
			text, string(metaJSON), existingRowID,
		); err != nil {
			return fmt.Errorf("updating record %s: %w", id, err)
		}

		// Update embedding in vec0 table via DELETE + INSERT
		// (vec0 does not support UPDATE)
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM memory_embeddings WHERE rowid = ?`, existingRowID,
		); err != nil {
			return fmt.Errorf("deleting old embedding for record %s: %w", id, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO memory_embeddings(rowid, embedding) VALUES (?, ?)`,
			existingRowID, embBlob,
		); err != nil {
			return fmt.Errorf("re-inserting embedding for record %s: %w", id, err)
		}
	case sql.ErrNoRows:
		// New record: insert into mapping table first to get the rowid
		result, err := tx.ExecContext(ctx,
			`INSERT INTO memory_records(record_id, text, metadata) VALUES (?, ?, ?)`,
			id, text, string(metaJSON),
		)
		if err != nil {
			return fmt.Errorf("inserting record %s: %w", id, err)
		}

		rowID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting rowid for record %s: %w", id, err)
		}

		// Insert embedding into vec0 table with matching rowid
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO memory_embeddings(rowid, embedding) VALUES (?, ?)`,
			rowID, embBlob,
		); err != nil {
			return fmt.Errorf("inserting embedding for record %s: %w", id, err)
		}
	default:
		return fmt.Errorf("checking for existing record %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("stored record in sqlite-vec",
		zap.String("id", id),
	)

	return nil
}

// Update overwrites the record at id wholesale. Same operation as Store.
func (d *SQLiteVecDriver) Update(ctx context.Context, id, text string, metadata map[string]any) error {
	return d.Store(ctx, id, text, metadata)
}

// Search embeds the query text and runs a KNN query, returning hits with
// relevance at or above threshold.
func (d *SQLiteVecDriver) Search(ctx context.Context, query string, topK int, threshold float32) ([]vector.Hit, error) {
	if topK <= 0 {
		topK = 10
	}

	queryEmbedding, err := d.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	queryBlob := serializeFloat32(queryEmbedding)

	// Use KNN query via vec0 MATCH, then JOIN back to get the record.
	rows, err := d.db.QueryContext(ctx, `
		SELECT
			r.record_id,
			r.text,
			r.metadata,
			me.distance
		FROM memory_embeddings me
		INNER JOIN memory_records r ON r.rowid = me.rowid
		WHERE me.embedding MATCH ?
			AND me.k = ?
		ORDER BY me.distance
	`, queryBlob, topK)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var hits []vector.Hit
	for rows.Next() {
		var recordID, text, metaJSON string
		var distance float64
		if err := rows.Scan(&recordID, &text, &metaJSON, &distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}

		var metadata map[string]any
		if err := json.Unmarshal([]byte(metaJSON), &metadata); err != nil {
			metadata = nil
		}

		hits = append(hits, vector.Hit{
			ID:       recordID,
			Text:     text,
			Metadata: metadata,
			// Convert distance to similarity score: lower distance = higher similarity
			Score: float32(1.0 / (1.0 + distance)),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	hits = vector.FilterHits(hits, threshold)

	d.logger.Debug("queried sqlite-vec",
		zap.Int("hits", len(hits)),
	)

	return hits, nil
}

// Delete removes the record at id. Deleting a missing id is a no-op.
func (d *SQLiteVecDriver) Delete(ctx context.Context, id string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var rowID int64
	err = tx.QueryRowContext(ctx,
		`SELECT rowid FROM memory_records WHERE record_id = ?`, id,
	).Scan(&rowID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("querying rowid for deletion: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM memory_embeddings WHERE rowid = ?`, rowID,
	); err != nil {
		return fmt.Errorf("deleting embedding rowid %d: %w", rowID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM memory_records WHERE rowid = ?`, rowID,
	); err != nil {
		return fmt.Errorf("deleting record %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("deleted record from sqlite-vec",
		zap.String("id", id),
	)

	return nil
}

// Close releases resources held by the driver.
func (d *SQLiteVecDriver) Close() error {
	return d.db.Close()
}
