package postgres

import (
	"context"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/hrygo/notesage/store"
)

// UpsertNoteEmbedding inserts or replaces a note embedding.
func (d *DB) UpsertNoteEmbedding(ctx context.Context, embedding *store.NoteEmbedding) (*store.NoteEmbedding, error) {
	stmt := `
		INSERT INTO note_embedding (note_uid, owner_uid, model, embedding, content, created_ts, updated_ts)
		VALUES (` + placeholders(7) + `)
		ON CONFLICT (owner_uid, note_uid)
		DO UPDATE SET
			embedding = EXCLUDED.embedding,
			model = EXCLUDED.model,
			content = EXCLUDED.content,
			updated_ts = EXCLUDED.updated_ts
		RETURNING created_ts, updated_ts
	`

	vector := pgvector.NewVector(embedding.Embedding)
	err := d.db.QueryRowContext(ctx, stmt,
		embedding.NoteUID,
		embedding.OwnerUID,
		embedding.Model,
		vector,
		embedding.Content,
		embedding.CreatedTs,
		embedding.UpdatedTs,
	).Scan(&embedding.CreatedTs, &embedding.UpdatedTs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert note embedding")
	}

	return embedding, nil
}

// NoteVectorSearch performs vector similarity search using pgvector.
// The <=> operator computes cosine distance (1 - cosine_similarity),
// so ordering by distance ASC returns the most similar first.
func (d *DB) NoteVectorSearch(ctx context.Context, opts *store.VectorSearchOptions) ([]*store.NoteEmbeddingMatch, error) {
	query := `
		SELECT
			note_uid, content,
			1 - (embedding <=> ` + placeholder(1) + `) AS score
		FROM note_embedding
		WHERE owner_uid = ` + placeholder(2) + `
		ORDER BY embedding <=> ` + placeholder(3) + `
		LIMIT ` + placeholder(4)

	vector := pgvector.NewVector(opts.Vector)
	rows, err := d.db.QueryContext(ctx, query, vector, opts.OwnerUID, vector, opts.Limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to run note vector search")
	}
	defer rows.Close()

	results := []*store.NoteEmbeddingMatch{}
	for rows.Next() {
		var match store.NoteEmbeddingMatch
		if err := rows.Scan(&match.NoteUID, &match.Content, &match.Score); err != nil {
			return nil, errors.Wrap(err, "failed to scan note vector search result")
		}
		results = append(results, &match)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// DeleteNoteEmbedding deletes a note embedding. Deleting an absent embedding
// is a no-op, not an error.
func (d *DB) DeleteNoteEmbedding(ctx context.Context, noteUID, ownerUID string) error {
	stmt := `DELETE FROM note_embedding WHERE note_uid = ` + placeholder(1) + ` AND owner_uid = ` + placeholder(2)
	if _, err := d.db.ExecContext(ctx, stmt, noteUID, ownerUID); err != nil {
		return errors.Wrap(err, "failed to delete note embedding")
	}
	return nil
}

// ListNoteEmbeddingUIDs lists note uids that have an embedding for the owner.
func (d *DB) ListNoteEmbeddingUIDs(ctx context.Context, ownerUID string) ([]string, error) {
	query := `SELECT note_uid FROM note_embedding WHERE owner_uid = ` + placeholder(1)
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
