package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id                 TEXT PRIMARY KEY,
	date               TEXT NOT NULL,
	start_time         TEXT NOT NULL DEFAULT '',
	end_time           TEXT NOT NULL DEFAULT '',
	code               TEXT NOT NULL DEFAULT '',
	channel            TEXT NOT NULL DEFAULT '',
	type               TEXT NOT NULL DEFAULT '',
	action             TEXT NOT NULL DEFAULT '',
	participants       TEXT NOT NULL DEFAULT '[]',
	status             TEXT NOT NULL DEFAULT 'Beklemede',
	audit_request      INTEGER NOT NULL DEFAULT 0,
	audit_requested_by TEXT,
	audit_approved_by  TEXT,
	audit_approved_at  DATETIME,
	version            INTEGER NOT NULL DEFAULT 1,
	created_at         DATETIME NOT NULL,
	updated_at         DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	codes      TEXT NOT NULL DEFAULT '[]',
	channels   TEXT NOT NULL DEFAULT '[]',
	types      TEXT NOT NULL DEFAULT '[]',
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS notification_preferences (
	username         TEXT PRIMARY KEY,
	enabled          INTEGER NOT NULL DEFAULT 1,
	reminder_minutes INTEGER NOT NULL DEFAULT 15,
	updated_at       DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	id         TEXT PRIMARY KEY,
	task_id    TEXT NOT NULL,
	username   TEXT NOT NULL,
	title      TEXT NOT NULL,
	body       TEXT NOT NULL DEFAULT '',
	read       INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_tasks_date ON tasks(date);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_notifications_user_read ON notifications(username, read);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS task_events (
	id      TEXT PRIMARY KEY,
	task_id TEXT NOT NULL,
	kind    TEXT NOT NULL,
	actor   TEXT NOT NULL DEFAULT '',
	at      DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_task_events_task_id ON task_events(task_id, at);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
