package db

// Schema for learned vectorizer state. A fit owns its vocabulary and the
// structure counts of the corpus it was learned from.
const schema = `
-- One row per vectorizer fit
CREATE TABLE IF NOT EXISTS fits (
    id TEXT PRIMARY KEY,
    vocabulary_size INTEGER NOT NULL,
    options TEXT NOT NULL,      -- JSON encoded normalizer options
    stem_language TEXT NOT NULL DEFAULT 'english',
    corpus_path TEXT,
    message_count INTEGER DEFAULT 0,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Vocabulary tokens by slot (1..N; slot 0 is the out-of-vocabulary column)
CREATE TABLE IF NOT EXISTS vocabulary (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    fit_id TEXT NOT NULL,
    slot INTEGER NOT NULL,
    token TEXT NOT NULL,
    UNIQUE(fit_id, slot),
    FOREIGN KEY(fit_id) REFERENCES fits(id) ON DELETE CASCADE
);

-- Full-text index over tokens for prefix lookup
CREATE VIRTUAL TABLE IF NOT EXISTS vocabulary_fts USING fts5(
    token,
    content='vocabulary',
    content_rowid='id'
);

-- Triggers to keep FTS in sync
CREATE TRIGGER IF NOT EXISTS vocabulary_ai AFTER INSERT ON vocabulary BEGIN
    INSERT INTO vocabulary_fts(rowid, token) VALUES (new.id, new.token);
END;

CREATE TRIGGER IF NOT EXISTS vocabulary_ad AFTER DELETE ON vocabulary BEGIN
    INSERT INTO vocabulary_fts(vocabulary_fts, rowid, token) VALUES ('delete', old.id, old.token);
END;

-- Structure signatures of the fit corpus, most common first
CREATE TABLE IF NOT EXISTS structures (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    fit_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    signature TEXT NOT NULL,
    occurrences INTEGER NOT NULL,
    UNIQUE(fit_id, position),
    FOREIGN KEY(fit_id) REFERENCES fits(id) ON DELETE CASCADE
);

-- Settings table (active fit, preferences)
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Indexes for performance
CREATE INDEX IF NOT EXISTS idx_fits_created_at ON fits(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_vocabulary_fit_id ON vocabulary(fit_id);
CREATE INDEX IF NOT EXISTS idx_structures_fit_id ON structures(fit_id);
`
