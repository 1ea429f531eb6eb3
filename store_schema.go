package main

// Schema DDL per backend. Both variants describe the same tables; they differ
// only in serial-column syntax and timestamp affinity. All statements are
// create-if-absent so a restart against an initialized database is a no-op.

const postgresSchema = `
CREATE TABLE IF NOT EXISTS channel_kinds (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS channels (
    id BIGINT PRIMARY KEY,
    kind_id BIGINT NOT NULL REFERENCES channel_kinds(id),
    name TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS messages (
    id BIGINT NOT NULL,
    dialog_id BIGINT NOT NULL REFERENCES channels(id),
    text TEXT NOT NULL DEFAULT '',
    created TIMESTAMPTZ,
    grouped_id BIGINT,
    PRIMARY KEY (dialog_id, id)
);

CREATE TABLE IF NOT EXISTS attachment_kinds (
    id BIGSERIAL PRIMARY KEY,
    type TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS attachments (
    id BIGINT PRIMARY KEY,
    message_id BIGINT NOT NULL,
    dialog_id BIGINT NOT NULL REFERENCES channels(id),
    kind_id BIGINT NOT NULL REFERENCES attachment_kinds(id),
    file_path TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS replies (
    id BIGINT PRIMARY KEY,
    main_dialog_id BIGINT NOT NULL,
    main_message_id BIGINT NOT NULL,
    reply_to_dialog_id BIGINT,
    reply_to_msg_id BIGINT,
    content TEXT NOT NULL DEFAULT '',
    sender_id BIGINT,
    date TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_replies_main ON replies(main_dialog_id, main_message_id, id);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS channel_kinds (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS channels (
    id INTEGER PRIMARY KEY,
    kind_id INTEGER NOT NULL REFERENCES channel_kinds(id),
    name TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS messages (
    id INTEGER NOT NULL,
    dialog_id INTEGER NOT NULL REFERENCES channels(id),
    text TEXT NOT NULL DEFAULT '',
    created DATETIME,
    grouped_id INTEGER,
    PRIMARY KEY (dialog_id, id)
);

CREATE TABLE IF NOT EXISTS attachment_kinds (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    type TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS attachments (
    id INTEGER PRIMARY KEY,
    message_id INTEGER NOT NULL,
    dialog_id INTEGER NOT NULL REFERENCES channels(id),
    kind_id INTEGER NOT NULL REFERENCES attachment_kinds(id),
    file_path TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS replies (
    id INTEGER PRIMARY KEY,
    main_dialog_id INTEGER NOT NULL,
    main_message_id INTEGER NOT NULL,
    reply_to_dialog_id INTEGER,
    reply_to_msg_id INTEGER,
    content TEXT NOT NULL DEFAULT '',
    sender_id INTEGER,
    date DATETIME
);

CREATE INDEX IF NOT EXISTS idx_replies_main ON replies(main_dialog_id, main_message_id, id);
`

// schemaFor returns the DDL for a driver name as passed to sql.Open.
func schemaFor(driver string) string {
	if driver == "sqlite3" {
		return sqliteSchema
	}
	return postgresSchema
}
