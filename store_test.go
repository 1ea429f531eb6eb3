package main

import (
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// newTestStore creates a temporary SQLite database with the real schema.
// Foreign keys are enabled so referential mistakes fail loudly in tests.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := OpenStore("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testMessage(id int64, text string) Message {
	return Message{ID: id, Text: text, Date: time.Unix(1700000000+id, 0).UTC()}
}

// mustChannel ensures a kind and a channel row, returning the kind id.
func mustChannel(t *testing.T, store *Store, id int64, title, kind string) int64 {
	t.Helper()
	kindID, err := store.EnsureChannelKind(kind)
	if err != nil {
		t.Fatalf("EnsureChannelKind: %v", err)
	}
	if err := store.EnsureChannel(id, title, kindID); err != nil {
		t.Fatalf("EnsureChannel: %v", err)
	}
	return kindID
}

func TestEnsureChannelKind_Idempotent(t *testing.T) {
	store := newTestStore(t)

	first, err := store.EnsureChannelKind("Channel")
	if err != nil {
		t.Fatalf("EnsureChannelKind: %v", err)
	}
	second, err := store.EnsureChannelKind("Channel")
	if err != nil {
		t.Fatalf("EnsureChannelKind (repeat): %v", err)
	}
	if first != second {
		t.Errorf("kind id changed across calls: %d then %d", first, second)
	}

	other, err := store.EnsureChannelKind("User")
	if err != nil {
		t.Fatalf("EnsureChannelKind (other): %v", err)
	}
	if other == first {
		t.Errorf("distinct kinds share id %d", other)
	}

	count, _ := store.CountRows("channel_kinds")
	if count != 2 {
		t.Errorf("channel_kinds rows = %d, want 2", count)
	}
}

func TestEnsureChannel_TitleSetOnlyAtCreation(t *testing.T) {
	store := newTestStore(t)
	kindID := mustChannel(t, store, 100, "Original", "Channel")

	// A later ensure with a different title must not rename the row.
	if err := store.EnsureChannel(100, "Renamed", kindID); err != nil {
		t.Fatalf("EnsureChannel (repeat): %v", err)
	}

	var name string
	if err := store.db.QueryRow(`SELECT name FROM channels WHERE id = $1`, 100).Scan(&name); err != nil {
		t.Fatalf("read channel name: %v", err)
	}
	if name != "Original" {
		t.Errorf("channel name = %q, want %q", name, "Original")
	}

	count, _ := store.CountRows("channels")
	if count != 1 {
		t.Errorf("channels rows = %d, want 1", count)
	}
}

func TestInsertMessages_ConflictIgnore(t *testing.T) {
	store := newTestStore(t)
	mustChannel(t, store, 10, "Test", "Channel")

	if err := store.InsertMessages(10, []Message{testMessage(5, "first text")}); err != nil {
		t.Fatalf("InsertMessages: %v", err)
	}
	// Same (dialog_id, id) with different text: must be a no-op.
	if err := store.InsertMessages(10, []Message{testMessage(5, "second text")}); err != nil {
		t.Fatalf("InsertMessages (conflict): %v", err)
	}

	rows, err := store.ChannelMessages(10)
	if err != nil {
		t.Fatalf("ChannelMessages: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows for (10, 5), want 1", len(rows))
	}
	if rows[0].Text != "first text" {
		t.Errorf("text = %q, want the original %q", rows[0].Text, "first text")
	}
}

func TestInsertMessages_SameIDInDifferentChannels(t *testing.T) {
	store := newTestStore(t)
	mustChannel(t, store, 10, "A", "Channel")
	mustChannel(t, store, 20, "B", "Channel")

	if err := store.InsertMessages(10, []Message{testMessage(5, "in A")}); err != nil {
		t.Fatalf("InsertMessages A: %v", err)
	}
	if err := store.InsertMessages(20, []Message{testMessage(5, "in B")}); err != nil {
		t.Fatalf("InsertMessages B: %v", err)
	}

	count, _ := store.CountRows("messages")
	if count != 2 {
		t.Errorf("messages rows = %d, want 2 (id is only unique per dialog)", count)
	}
}

func TestLastMessageID(t *testing.T) {
	store := newTestStore(t)
	mustChannel(t, store, 10, "Test", "Channel")

	last, err := store.LastMessageID(10)
	if err != nil {
		t.Fatalf("LastMessageID: %v", err)
	}
	if last != 0 {
		t.Errorf("empty channel watermark = %d, want 0", last)
	}

	if err := store.InsertMessages(10, []Message{
		testMessage(1, "a"), testMessage(7, "b"), testMessage(3, "c"),
	}); err != nil {
		t.Fatalf("InsertMessages: %v", err)
	}

	last, err = store.LastMessageID(10)
	if err != nil {
		t.Fatalf("LastMessageID: %v", err)
	}
	if last != 7 {
		t.Errorf("watermark = %d, want 7", last)
	}
}

func TestInsertMessages_EmptyBatch(t *testing.T) {
	store := newTestStore(t)
	mustChannel(t, store, 10, "Test", "Channel")

	if err := store.InsertMessages(10, nil); err != nil {
		t.Fatalf("InsertMessages(nil): %v", err)
	}
}

func TestInsertAttachment_Idempotent(t *testing.T) {
	store := newTestStore(t)
	mustChannel(t, store, 10, "Test", "Channel")

	kindID, err := store.EnsureAttachmentKind("photo")
	if err != nil {
		t.Fatalf("EnsureAttachmentKind: %v", err)
	}

	if err := store.InsertAttachment(9001, 5, 10, kindID, "/data/images/9001.jpg"); err != nil {
		t.Fatalf("InsertAttachment: %v", err)
	}
	if err := store.InsertAttachment(9001, 5, 10, kindID, "/elsewhere/9001.jpg"); err != nil {
		t.Fatalf("InsertAttachment (conflict): %v", err)
	}

	count, _ := store.CountRows("attachments")
	if count != 1 {
		t.Errorf("attachments rows = %d, want 1", count)
	}

	var path string
	if err := store.db.QueryRow(`SELECT file_path FROM attachments WHERE id = $1`, 9001).Scan(&path); err != nil {
		t.Fatalf("read attachment path: %v", err)
	}
	if path != "/data/images/9001.jpg" {
		t.Errorf("file_path = %q, want the original path", path)
	}
}

func TestInsertReply_IdempotentAndWatermark(t *testing.T) {
	store := newTestStore(t)

	last, err := store.LastReplyID(10, 5)
	if err != nil {
		t.Fatalf("LastReplyID: %v", err)
	}
	if last != 0 {
		t.Errorf("empty thread watermark = %d, want 0", last)
	}

	reply := Reply{
		ID:              501,
		ReplyToDialogID: 10,
		ReplyToMsgID:    5,
		Content:         "a reply",
		SenderID:        777,
		Date:            time.Unix(1700000500, 0).UTC(),
	}
	if err := store.InsertReply(10, 5, reply); err != nil {
		t.Fatalf("InsertReply: %v", err)
	}
	if err := store.InsertReply(10, 5, reply); err != nil {
		t.Fatalf("InsertReply (conflict): %v", err)
	}

	count, _ := store.CountRows("replies")
	if count != 1 {
		t.Errorf("replies rows = %d, want 1", count)
	}

	if err := store.InsertReply(10, 5, Reply{ID: 510, Content: "later", Date: reply.Date}); err != nil {
		t.Fatalf("InsertReply (second): %v", err)
	}

	last, err = store.LastReplyID(10, 5)
	if err != nil {
		t.Fatalf("LastReplyID: %v", err)
	}
	if last != 510 {
		t.Errorf("thread watermark = %d, want 510", last)
	}

	// A different root message has its own watermark.
	last, err = store.LastReplyID(10, 6)
	if err != nil {
		t.Fatalf("LastReplyID (other root): %v", err)
	}
	if last != 0 {
		t.Errorf("unrelated thread watermark = %d, want 0", last)
	}
}

func TestStoreError_LeavesConnectionUsable(t *testing.T) {
	store := newTestStore(t)

	// No channel 999 exists; with foreign keys on this insert must fail and
	// roll back.
	err := store.InsertMessages(999, []Message{testMessage(1, "orphan")})
	if err == nil {
		t.Fatal("insert for missing channel should fail")
	}

	count, _ := store.CountRows("messages")
	if count != 0 {
		t.Errorf("failed batch left %d rows behind", count)
	}

	// The connection must still work after the rollback.
	mustChannel(t, store, 10, "Test", "Channel")
	if err := store.InsertMessages(10, []Message{testMessage(1, "ok")}); err != nil {
		t.Fatalf("insert after failed tx: %v", err)
	}
}

func TestCountRows_RejectsUnknownTable(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.CountRows("messages; DROP TABLE messages"); err == nil {
		t.Error("CountRows accepted an unknown table name")
	}
}
