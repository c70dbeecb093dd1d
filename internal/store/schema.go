package store

// Domain table names. The initialization guard and the integrity verifier
// key their checks off this set.
const (
	TableAccounts = "accounts"
	TableScans    = "scans"
	TableScores   = "scores"
)

// DomainTables lists the tables that hold user data, in creation order.
var DomainTables = []string{TableAccounts, TableScans, TableScores}

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    email TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS scans (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    account_id INTEGER NOT NULL,
    scanned_at TIMESTAMP NOT NULL,
    weight_kg REAL,
    body_fat_pct REAL,
    muscle_kg REAL,
    file_key TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS scores (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    account_id INTEGER NOT NULL,
    scan_id INTEGER NOT NULL,
    points REAL NOT NULL,
    rank_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE,
    FOREIGN KEY (scan_id) REFERENCES scans(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_scans_account ON scans(account_id);
CREATE INDEX IF NOT EXISTS idx_scans_scanned_at ON scans(scanned_at);
CREATE INDEX IF NOT EXISTS idx_scores_account ON scores(account_id);
CREATE INDEX IF NOT EXISTS idx_scores_scan ON scores(scan_id);
`
