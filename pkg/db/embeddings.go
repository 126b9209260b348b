package db

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
)

// GetEmbedding returns the cached vector for (model, hash), if present.
func (db *DB) GetEmbedding(model string, hash uint64) ([]float32, bool, error) {
	var dim int
	var blob []byte
	err := db.QueryRow(`
		SELECT dim, vector FROM embedding_cache WHERE model = ? AND text_hash = ?
	`, model, int64(hash)).Scan(&dim, &blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get embedding: %w", err)
	}
	vec, err := decodeVector(blob, dim)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

// PutEmbedding stores a vector, replacing any previous one for the same key.
func (db *DB) PutEmbedding(model string, hash uint64, vec []float32) error {
	_, err := db.Exec(`
		INSERT INTO embedding_cache (model, text_hash, dim, vector)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(model, text_hash) DO UPDATE SET dim = excluded.dim, vector = excluded.vector
	`, model, int64(hash), len(vec), encodeVector(vec))
	if err != nil {
		return fmt.Errorf("failed to put embedding: %w", err)
	}
	return nil
}

// CountEmbeddings returns the number of cached vectors for model, or for all models when model is empty.
func (db *DB) CountEmbeddings(model string) (int, error) {
	var n int
	var err error
	if model == "" {
		err = db.QueryRow(`SELECT COUNT(*) FROM embedding_cache`).Scan(&n)
	} else {
		err = db.QueryRow(`SELECT COUNT(*) FROM embedding_cache WHERE model = ?`, model).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count embeddings: %w", err)
	}
	return n, nil
}

// encodeVector packs float32 values little-endian, 4 bytes each.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(blob []byte, dim int) ([]float32, error) {
	if len(blob) != 4*dim {
		return nil, fmt.Errorf("corrupt embedding: %d bytes for dim %d", len(blob), dim)
	}
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[4*i:]))
	}
	return vec, nil
}
