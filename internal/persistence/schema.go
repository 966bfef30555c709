package persistence

// schema holds the full database layout. The service persists exactly
// two tables; AUTOINCREMENT on complaints.seq guarantees ids are
// strictly increasing and never reused, and history rows reference the
// sequence number rather than the rendered reference.
const schema = `
CREATE TABLE IF NOT EXISTS complaints (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    submitter_ref TEXT NOT NULL,
    submitter_name TEXT NOT NULL DEFAULT '',
    raw_text TEXT NOT NULL,
    issue_type TEXT NOT NULL DEFAULT '',
    location TEXT NOT NULL DEFAULT '',
    department_id TEXT NOT NULL,
    priority TEXT NOT NULL DEFAULT 'medium' CHECK(priority IN ('low','medium','high','urgent')),
    status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending','acknowledged','in_progress','resolved','closed')),
    confidence REAL NOT NULL DEFAULT 0,
    summary TEXT NOT NULL DEFAULT '',
    sla_hours INTEGER NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_complaints_status ON complaints(status);
CREATE INDEX IF NOT EXISTS idx_complaints_department ON complaints(department_id);
CREATE INDEX IF NOT EXISTS idx_complaints_priority ON complaints(priority);
CREATE INDEX IF NOT EXISTS idx_complaints_submitter ON complaints(submitter_ref);

CREATE TABLE IF NOT EXISTS status_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    complaint_seq INTEGER NOT NULL REFERENCES complaints(seq),
    old_status TEXT NOT NULL,
    new_status TEXT NOT NULL,
    note TEXT NOT NULL DEFAULT '',
    changed_by TEXT NOT NULL,
    changed_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_complaint ON status_history(complaint_seq, id);
`
