package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rustsol114/velirion-presale/internal/journal"
)

// AppendJournal seals e with this transaction's sequence number and
// writes it. At most one entry may be appended per transaction.
func (t *Tx) AppendJournal(e *journal.Entry) error {
	if t.readOnly {
		return fmt.Errorf("write journal: read-only transaction")
	}
	if err := e.Seal(t.seq); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO journal (seq, id, request_id, op, caller, args, result, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.Seq,
		e.ID,
		e.RequestID,
		string(e.Op),
		e.Caller,
		string(e.Args),
		string(e.Result),
		e.At,
	)
	if err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	return nil
}

// Journal returns entries with seq > after in ascending order. A limit of
// 0 or less returns all of them.
//
// Returns an empty slice (not nil) if no entries match.
func (s *Store) Journal(ctx context.Context, after int64, limit int) ([]journal.Entry, error) {
	query := `
		SELECT seq, id, request_id, op, caller, args, result, at
		FROM journal
		WHERE seq > ?
		ORDER BY seq ASC
	`
	args := []any{after}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	entries := []journal.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}
	return entries, nil
}

func scanEntry(rows *sql.Rows) (journal.Entry, error) {
	var (
		e            journal.Entry
		op           string
		args, result string
	)
	if err := rows.Scan(&e.Seq, &e.ID, &e.RequestID, &op, &e.Caller, &args, &result, &e.At); err != nil {
		return journal.Entry{}, fmt.Errorf("scan journal entry: %w", err)
	}
	e.Op = journal.Op(op)
	e.Args = []byte(args)
	e.Result = []byte(result)
	return e, nil
}
