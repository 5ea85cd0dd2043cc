package postgres

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/notesage/store"
)

// CreateNote creates a new note.
func (d *DB) CreateNote(ctx context.Context, create *store.Note) (*store.Note, error) {
	stmt := `
		INSERT INTO note (uid, owner_uid, title, content, summary, created_ts, updated_ts)
		VALUES (` + placeholders(7) + `)
		RETURNING created_ts, updated_ts
	`
	err := d.db.QueryRowContext(ctx, stmt,
		create.UID,
		create.OwnerUID,
		create.Title,
		create.Content,
		create.Summary,
		create.CreatedTs,
		create.UpdatedTs,
	).Scan(&create.CreatedTs, &create.UpdatedTs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create note")
	}
	return create, nil
}

// ListNotes lists notes matching the find condition.
func (d *DB) ListNotes(ctx context.Context, find *store.FindNote) ([]*store.Note, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}
	if find.OwnerUID != nil {
		where, args = append(where, "owner_uid = "+placeholder(len(args)+1)), append(args, *find.OwnerUID)
	}

	query := `
		SELECT uid, owner_uid, title, content, summary, created_ts, updated_ts
		FROM note
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY updated_ts DESC
	`
	if find.Limit != nil {
		query += " LIMIT " + placeholder(len(args)+1)
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notes")
	}
	defer rows.Close()

	list := []*store.Note{}
	for rows.Next() {
		var note store.Note
		if err := rows.Scan(
			&note.UID,
			&note.OwnerUID,
			&note.Title,
			&note.Content,
			&note.Summary,
			&note.CreatedTs,
			&note.UpdatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan note")
		}
		list = append(list, &note)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// UpdateNote updates a note and returns the updated record.
func (d *DB) UpdateNote(ctx context.Context, update *store.UpdateNote) (*store.Note, error) {
	set, args := []string{}, []any{}

	if update.Title != nil {
		set, args = append(set, "title = "+placeholder(len(args)+1)), append(args, *update.Title)
	}
	if update.Content != nil {
		set, args = append(set, "content = "+placeholder(len(args)+1)), append(args, *update.Content)
	}
	if update.Summary != nil {
		set, args = append(set, "summary = "+placeholder(len(args)+1)), append(args, *update.Summary)
	}
	set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, update.UpdatedTs)

	stmt := `
		UPDATE note
		SET ` + strings.Join(set, ", ") + `
		WHERE uid = ` + placeholder(len(args)+1) + ` AND owner_uid = ` + placeholder(len(args)+2) + `
		RETURNING uid, owner_uid, title, content, summary, created_ts, updated_ts
	`
	args = append(args, update.UID, update.OwnerUID)

	var note store.Note
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&note.UID,
		&note.OwnerUID,
		&note.Title,
		&note.Content,
		&note.Summary,
		&note.CreatedTs,
		&note.UpdatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to update note")
	}
	return &note, nil
}

// ListNoteOwnerUIDs lists the distinct owners that have notes.
func (d *DB) ListNoteOwnerUIDs(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT DISTINCT owner_uid FROM note`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list note owners")
	}
	defer rows.Close()

	uids := []string{}
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, errors.Wrap(err, "failed to scan note owner")
		}
		uids = append(uids, uid)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return uids, nil
}

// DeleteNote deletes a note.
func (d *DB) DeleteNote(ctx context.Context, delete *store.DeleteNote) error {
	stmt := `DELETE FROM note WHERE uid = ` + placeholder(1) + ` AND owner_uid = ` + placeholder(2)
	if _, err := d.db.ExecContext(ctx, stmt, delete.UID, delete.OwnerUID); err != nil {
		return errors.Wrap(err, "failed to delete note")
	}
	return nil
}
