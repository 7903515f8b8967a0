package store

// schemaVersion is the current schema version this binary expects. Startup
// aborts if the database's recorded version is higher than this (a newer
// binary wrote it); lower versions are brought forward by applying
// migrations in order.
const schemaVersion = 1

// schemaDDL defines the SQLite schema for the hive memory database: tasks,
// dependencies, assignments, messages, agent_state, activity, and
// injection_log, plus three read-only views. Execute against a SQLite
// database with db.Exec(schemaDDL).
const schemaDDL = `
CREATE TABLE IF NOT EXISTS schema_meta (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    version INTEGER NOT NULL
);
INSERT OR IGNORE INTO schema_meta (id, version) VALUES (1, 1);

CREATE TABLE IF NOT EXISTS tasks (
    task_id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending'
        CHECK (status IN ('pending','in_progress','completed','failed','cancelled')),
    priority TEXT NOT NULL DEFAULT 'medium'
        CHECK (priority IN ('low','medium','high','critical')),
    assigned_to TEXT,
    created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
    updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
    started_at TEXT,
    completed_at TEXT,
    created_by TEXT NOT NULL,
    parent_task_id TEXT REFERENCES tasks(task_id),
    metadata TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_assigned_to ON tasks(assigned_to);
CREATE INDEX IF NOT EXISTS idx_tasks_parent ON tasks(parent_task_id);

CREATE TABLE IF NOT EXISTS task_dependencies (
    task_id TEXT NOT NULL REFERENCES tasks(task_id),
    depends_on_task_id TEXT NOT NULL REFERENCES tasks(task_id),
    type TEXT NOT NULL DEFAULT 'blocks' CHECK (type IN ('blocks','related','subtask')),
    created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
    PRIMARY KEY (task_id, depends_on_task_id)
);

CREATE TABLE IF NOT EXISTS assignments (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    task_id TEXT NOT NULL REFERENCES tasks(task_id),
    assignee TEXT NOT NULL,
    assigner TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'primary' CHECK (role IN ('primary','reviewer','collaborator')),
    status TEXT NOT NULL DEFAULT 'active',
    assigned_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
    accepted_at TEXT,
    completed_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_assignments_task ON assignments(task_id);
CREATE INDEX IF NOT EXISTS idx_assignments_assignee ON assignments(assignee);

CREATE TABLE IF NOT EXISTS messages (
    message_id INTEGER PRIMARY KEY AUTOINCREMENT,
    from_bee TEXT NOT NULL,
    to_bee TEXT NOT NULL,
    type TEXT NOT NULL,
    subject TEXT,
    content TEXT NOT NULL,
    task_id TEXT REFERENCES tasks(task_id),
    priority TEXT NOT NULL DEFAULT 'normal' CHECK (priority IN ('low','normal','high','urgent')),
    processed INTEGER NOT NULL DEFAULT 0,
    processed_at TEXT,
    created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
    expires_at TEXT,
    reply_to INTEGER REFERENCES messages(message_id),
    sender_cli_used INTEGER NOT NULL DEFAULT 1,
    conversation_id TEXT
);

CREATE INDEX IF NOT EXISTS idx_messages_to_bee ON messages(to_bee, processed);
CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id);
CREATE INDEX IF NOT EXISTS idx_messages_violation ON messages(from_bee, sender_cli_used, created_at);

CREATE TABLE IF NOT EXISTS agent_state (
    bee_name TEXT PRIMARY KEY,
    status TEXT NOT NULL DEFAULT 'idle' CHECK (status IN ('idle','busy','waiting','offline','error')),
    current_task_id TEXT REFERENCES tasks(task_id),
    last_activity TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
    last_heartbeat TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
    workload_score REAL NOT NULL DEFAULT 0,
    performance_score REAL NOT NULL DEFAULT 100,
    capabilities TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS activity (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    task_id TEXT REFERENCES tasks(task_id),
    bee_name TEXT NOT NULL,
    activity_type TEXT NOT NULL,
    description TEXT NOT NULL,
    old_value TEXT,
    new_value TEXT,
    created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);

CREATE INDEX IF NOT EXISTS idx_activity_task ON activity(task_id);

CREATE TABLE IF NOT EXISTS injection_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session TEXT NOT NULL,
    pane TEXT NOT NULL,
    payload_hash TEXT NOT NULL,
    type TEXT,
    sender TEXT,
    metadata TEXT,
    dry_run INTEGER NOT NULL DEFAULT 0,
    outcome TEXT NOT NULL,
    created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);

CREATE TABLE IF NOT EXISTS protocol_violation_alerts (
    from_bee TEXT NOT NULL,
    window_start TEXT NOT NULL,
    PRIMARY KEY (from_bee, window_start)
);

CREATE VIEW IF NOT EXISTS active_tasks AS
SELECT
    t.task_id, t.title, t.status, t.priority, t.assigned_to,
    (SELECT COUNT(*) FROM task_dependencies d WHERE d.task_id = t.task_id) AS dependency_count,
    (SELECT COUNT(*) FROM tasks c WHERE c.parent_task_id = t.task_id) AS child_count
FROM tasks t
WHERE t.status IN ('pending','in_progress');

CREATE VIEW IF NOT EXISTS pending_messages AS
SELECT *
FROM messages
WHERE processed = 0 AND (expires_at IS NULL OR expires_at >= strftime('%Y-%m-%dT%H:%M:%fZ','now'))
ORDER BY
    CASE priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'normal' THEN 2 ELSE 3 END,
    created_at ASC;

CREATE VIEW IF NOT EXISTS agent_workload AS
SELECT
    a.bee_name,
    (SELECT COUNT(*) FROM tasks t WHERE t.assigned_to = a.bee_name AND t.status IN ('pending','in_progress')) AS open_task_count,
    (SELECT COUNT(*) FROM assignments s WHERE s.assignee = a.bee_name AND s.status = 'active') AS active_assignment_count
FROM agent_state a;
`

// migration is one forward schema step, applied in ascending Version order.
type migration struct {
	Version int
	DDL     string
}

// migrations lists schema changes beyond the base schemaDDL, applied to
// existing databases created by an older binary. Each statement must be
// safe to run against a database that may already have been migrated
// partway (IF NOT EXISTS / try-ignore style, matching the teacher's
// migration idiom).
var migrations = []migration{
	// No migrations yet; schemaVersion 1 is the base schema.
}
