package main

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Store is the relational data access layer for the mirror. Every write runs
// in its own transaction, committed on success and rolled back on any error,
// so a failed call never leaves a partial row or a poisoned connection.
//
// All SQL uses $n placeholders, which both supported drivers (pgx, sqlite3)
// accept, and every caller-supplied value is bound, never interpolated.
type Store struct {
	db *sql.DB
}

// OpenStore opens the database for the given driver, verifies the connection
// and applies the create-if-absent schema.
func OpenStore(driver, dsn string) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(schemaFor(driver)); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// nullableID converts a platform id to its column value; the platform uses 0
// for "absent", which is stored as NULL.
func nullableID(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}

// ---------------------------------------------------------------------------
// Channels
// ---------------------------------------------------------------------------

// EnsureChannelKind returns the id of the kind row with the given name,
// inserting it first if absent. Kinds are immutable once created.
func (s *Store) EnsureChannelKind(name string) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRow(`SELECT id FROM channel_kinds WHERE name = $1`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		err = tx.QueryRow(`INSERT INTO channel_kinds (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	}
	if err != nil {
		return 0, fmt.Errorf("ensure channel kind %q: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit channel kind %q: %w", name, err)
	}
	return id, nil
}

// EnsureChannel inserts the channel row if it does not exist yet. The title
// is set only at creation; later platform-side renames are not mirrored.
func (s *Store) EnsureChannel(id int64, title string, kindID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var existing int64
	err = tx.QueryRow(`SELECT id FROM channels WHERE id = $1`, id).Scan(&existing)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := tx.Exec(
			`INSERT INTO channels (id, kind_id, name) VALUES ($1, $2, $3)`,
			id, kindID, title,
		); err != nil {
			return fmt.Errorf("insert channel %d: %w", id, err)
		}
	} else if err != nil {
		return fmt.Errorf("lookup channel %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit channel %d: %w", id, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Messages
// ---------------------------------------------------------------------------

// InsertMessages persists a batch of messages for one channel in a single
// transaction. Each row is conflict-ignored on (dialog_id, id), so replaying
// an overlapping window cannot duplicate rows.
func (s *Store) InsertMessages(channelID int64, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO messages (id, dialog_id, text, created, grouped_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (dialog_id, id) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("prepare message insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range messages {
		if _, err := stmt.Exec(m.ID, channelID, m.Text, m.Date, nullableID(m.GroupedID)); err != nil {
			return fmt.Errorf("insert message (%d, %d): %w", channelID, m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %d messages for channel %d: %w", len(messages), channelID, err)
	}
	return nil
}

// LastMessageID returns the channel's watermark: the highest persisted
// message id, or 0 for a channel with no rows yet.
func (s *Store) LastMessageID(channelID int64) (int64, error) {
	var id int64
	err := s.db.QueryRow(
		`SELECT COALESCE(MAX(id), 0) FROM messages WHERE dialog_id = $1`,
		channelID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("last message id for channel %d: %w", channelID, err)
	}
	return id, nil
}

// ---------------------------------------------------------------------------
// Attachments
// ---------------------------------------------------------------------------

// EnsureAttachmentKind returns the id of the attachment kind row with the
// given type, inserting it first if absent.
func (s *Store) EnsureAttachmentKind(kind string) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRow(`SELECT id FROM attachment_kinds WHERE type = $1`, kind).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		err = tx.QueryRow(`INSERT INTO attachment_kinds (type) VALUES ($1) RETURNING id`, kind).Scan(&id)
	}
	if err != nil {
		return 0, fmt.Errorf("ensure attachment kind %q: %w", kind, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit attachment kind %q: %w", kind, err)
	}
	return id, nil
}

// InsertAttachment persists one materialized attachment. Attachment ids are
// globally unique on the platform side; re-insertion is a conflict-ignored
// no-op rather than a pre-checked one.
func (s *Store) InsertAttachment(id, messageID, dialogID, kindID int64, filePath string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO attachments (id, message_id, dialog_id, kind_id, file_path)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`, id, messageID, dialogID, kindID, filePath); err != nil {
		return fmt.Errorf("insert attachment %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attachment %d: %w", id, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Replies
// ---------------------------------------------------------------------------

// InsertReply persists one thread reply under its root message, ignored on
// id conflict.
func (s *Store) InsertReply(mainDialogID, mainMessageID int64, r Reply) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO replies (id, main_dialog_id, main_message_id, reply_to_dialog_id, reply_to_msg_id, content, sender_id, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`, r.ID, mainDialogID, mainMessageID, nullableID(r.ReplyToDialogID), nullableID(r.ReplyToMsgID),
		r.Content, nullableID(r.SenderID), r.Date); err != nil {
		return fmt.Errorf("insert reply %d: %w", r.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reply %d: %w", r.ID, err)
	}
	return nil
}

// LastReplyID returns the reply watermark for one (channel, root message)
// pair: the highest persisted reply id, or 0.
func (s *Store) LastReplyID(dialogID, messageID int64) (int64, error) {
	var id int64
	err := s.db.QueryRow(
		`SELECT COALESCE(MAX(id), 0) FROM replies WHERE main_dialog_id = $1 AND main_message_id = $2`,
		dialogID, messageID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("last reply id for (%d, %d): %w", dialogID, messageID, err)
	}
	return id, nil
}

// ---------------------------------------------------------------------------
// Read-backs used by tests and debug tooling
// ---------------------------------------------------------------------------

// MessageRow is a persisted message as read back from the store.
type MessageRow struct {
	ID        int64
	DialogID  int64
	Text      string
	Created   time.Time
	GroupedID int64
}

// ChannelMessages returns all rows for a channel in ascending id order.
func (s *Store) ChannelMessages(channelID int64) ([]MessageRow, error) {
	rows, err := s.db.Query(`
		SELECT id, dialog_id, text, created, COALESCE(grouped_id, 0)
		FROM messages
		WHERE dialog_id = $1
		ORDER BY id ASC
	`, channelID)
	if err != nil {
		return nil, fmt.Errorf("query messages for channel %d: %w", channelID, err)
	}
	defer rows.Close()

	out := make([]MessageRow, 0)
	for rows.Next() {
		var m MessageRow
		if err := rows.Scan(&m.ID, &m.DialogID, &m.Text, &m.Created, &m.GroupedID); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return out, nil
}

// CountRows returns the row count of one of the mirror's tables. The table
// name is checked against the known set, not interpolated blindly.
func (s *Store) CountRows(table string) (int, error) {
	switch table {
	case "channel_kinds", "channels", "messages", "attachment_kinds", "attachments", "replies":
	default:
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}
