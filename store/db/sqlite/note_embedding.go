package sqlite

import (
	"context"
	"encoding/binary"
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/hrygo/notesage/store"
)

// float32ArrayToBLOB serializes a vector as little-endian float32 bytes.
func float32ArrayToBLOB(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(v))
	}
	return buf
}

// blobToFloat32Array is the inverse of float32ArrayToBLOB.
func blobToFloat32Array(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, errors.Errorf("invalid BLOB length: %d", len(blob))
	}
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		bits := binary.LittleEndian.Uint32(blob[i*4 : i*4+4])
		vec[i] = math.Float32frombits(bits)
	}
	return vec, nil
}

// cosineSimilarity computes cosine similarity between two vectors.
// Returns 0 for mismatched dimensions or zero vectors.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// UpsertNoteEmbedding inserts or replaces a note embedding.
func (d *DB) UpsertNoteEmbedding(ctx context.Context, embedding *store.NoteEmbedding) (*store.NoteEmbedding, error) {
	stmt := `
		INSERT INTO note_embedding (note_uid, owner_uid, model, embedding, content, created_ts, updated_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_uid, note_uid) DO UPDATE SET
			embedding = excluded.embedding,
			model = excluded.model,
			content = excluded.content,
			updated_ts = excluded.updated_ts
		RETURNING created_ts, updated_ts
	`
	err := d.db.QueryRowContext(ctx, stmt,
		embedding.NoteUID,
		embedding.OwnerUID,
		embedding.Model,
		float32ArrayToBLOB(embedding.Embedding),
		embedding.Content,
		embedding.CreatedTs,
		embedding.UpdatedTs,
	).Scan(&embedding.CreatedTs, &embedding.UpdatedTs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert note embedding")
	}
	return embedding, nil
}

// NoteVectorSearch loads the owner's vectors and ranks them by cosine
// similarity in the application layer. SQLite has no native vector type;
// at personal-note scale a linear scan is fine.
func (d *DB) NoteVectorSearch(ctx context.Context, opts *store.VectorSearchOptions) ([]*store.NoteEmbeddingMatch, error) {
	query := `SELECT note_uid, embedding, content FROM note_embedding WHERE owner_uid = ?`
	rows, err := d.db.QueryContext(ctx, query, opts.OwnerUID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query note embeddings")
	}
	defer rows.Close()

	results := []*store.NoteEmbeddingMatch{}
	for rows.Next() {
		var uid, content string
		var blob []byte
		if err := rows.Scan(&uid, &blob, &content); err != nil {
			return nil, errors.Wrap(err, "failed to scan note embedding")
		}
		vec, err := blobToFloat32Array(blob)
		if err != nil {
			return nil, errors.Wrapf(err, "corrupt embedding blob for note %s", uid)
		}
		results = append(results, &store.NoteEmbeddingMatch{
			NoteUID: uid,
			Content: content,
			Score:   cosineSimilarity(opts.Vector, vec),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

// DeleteNoteEmbedding deletes a note embedding. Absent embeddings are a no-op.
func (d *DB) DeleteNoteEmbedding(ctx context.Context, noteUID, ownerUID string) error {
	stmt := `DELETE FROM note_embedding WHERE note_uid = ? AND owner_uid = ?`
	if _, err := d.db.ExecContext(ctx, stmt, noteUID, ownerUID); err != nil {
		return errors.Wrap(err, "failed to delete note embedding")
	}
	return nil
}

// ListNoteEmbeddingUIDs lists note uids that have an embedding for the owner.
func (d *DB) ListNoteEmbeddingUIDs(ctx context.Context, ownerUID string) ([]string, error) {
	query := `SELECT note_uid FROM note_embedding WHERE owner_uid = ?`
	rows, err := d.db.QueryContext(ctx, query, ownerUID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list note embedding uids")
	}
	defer rows.Close()

	uids := []string{}
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, errors.Wrap(err, "failed to scan note embedding uid")
		}
		uids = append(uids, uid)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return uids, nil
}
