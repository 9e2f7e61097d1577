package store

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at TIMESTAMP NOT NULL,
    seed INTEGER NOT NULL,
    os TEXT NOT NULL,
    arch TEXT NOT NULL,
    vault_path TEXT NOT NULL,
    inbox_requested INTEGER NOT NULL,
    entry_count INTEGER NOT NULL,
    inbox_count INTEGER NOT NULL,
    snoozed_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS run_entries (
    run_id INTEGER NOT NULL,
    entry_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    title TEXT NOT NULL,
    type TEXT NOT NULL,
    source TEXT NOT NULL,
    path TEXT,
    PRIMARY KEY (run_id, entry_id),
    FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_run_entries_run ON run_entries(run_id);
CREATE INDEX IF NOT EXISTS idx_run_entries_kind ON run_entries(run_id, kind);
`
