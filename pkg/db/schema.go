package db

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;
PRAGMA temp_store = MEMORY;

-- URLs table: normalized URL components + document classification
CREATE TABLE IF NOT EXISTS urls (
    url_id INTEGER PRIMARY KEY AUTOINCREMENT,
    original_url TEXT NOT NULL UNIQUE,
    canonical_url TEXT,
    scheme TEXT NOT NULL,
    domain TEXT NOT NULL,
    path TEXT,
    fragment TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,

    kind TEXT,                    -- Legal, App
    language TEXT,                -- ISO 639-1 of the last fetch

    -- Top keywords as JSON object: {"word1": count1, "word2": count2, ...}
    top_keywords TEXT
);

CREATE INDEX IF NOT EXISTS idx_urls_domain ON urls(domain);
CREATE INDEX IF NOT EXISTS idx_urls_kind ON urls(kind);

-- URL query parameters: normalized query strings
CREATE TABLE IF NOT EXISTS url_query_params (
    param_id INTEGER PRIMARY KEY AUTOINCREMENT,
    url_id INTEGER NOT NULL,
    key TEXT NOT NULL,
    value TEXT,
    FOREIGN KEY (url_id) REFERENCES urls(url_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_params_url ON url_query_params(url_id);

-- URL accesses: every fetch attempt tracked
CREATE TABLE IF NOT EXISTS url_accesses (
    access_id INTEGER PRIMARY KEY AUTOINCREMENT,
    url_id INTEGER NOT NULL,
    accessed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    status_code INTEGER,
    error_type TEXT,
    success BOOLEAN NOT NULL,
    FOREIGN KEY (url_id) REFERENCES urls(url_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_accesses_url ON url_accesses(url_id);
CREATE INDEX IF NOT EXISTS idx_accesses_time ON url_accesses(accessed_at);

-- Runs: one row per check/monitor iteration/search
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    mode TEXT NOT NULL,
    rule_set TEXT,
    embedder TEXT,
    document_count INTEGER NOT NULL DEFAULT 0,
    success_count INTEGER DEFAULT 0,
    failed_count INTEGER DEFAULT 0,
    record_count INTEGER DEFAULT 0,
    issue_count INTEGER DEFAULT 0,
    report_dir TEXT,
    top_keywords TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);

-- Run documents: per-source fetch outcome within a run
CREATE TABLE IF NOT EXISTS run_documents (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    url_id INTEGER NOT NULL,
    name TEXT NOT NULL,
    kind TEXT,
    language TEXT,
    paragraph_count INTEGER DEFAULT 0,
    status TEXT NOT NULL,
    status_code INTEGER,
    error_type TEXT,
    error_message TEXT,
    content_hash TEXT,
    size_bytes INTEGER,
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE,
    FOREIGN KEY (url_id) REFERENCES urls(url_id),
    UNIQUE(run_id, url_id)
);

CREATE INDEX IF NOT EXISTS idx_run_documents_run ON run_documents(run_id);

-- Run records: the score table of a run
CREATE TABLE IF NOT EXISTS run_records (
    record_id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    document TEXT NOT NULL,
    paragraph_id INTEGER,
    rule TEXT NOT NULL,
    rule_source TEXT,
    metric TEXT,
    value TEXT,
    threshold REAL NOT NULL,
    similarity REAL NOT NULL,
    label TEXT NOT NULL,
    suggestion TEXT,
    missing_actionable BOOLEAN NOT NULL,
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_run_records_run ON run_records(run_id);
CREATE INDEX IF NOT EXISTS idx_run_records_missing ON run_records(missing_actionable) WHERE missing_actionable = 1;

-- Embedding cache: vectors keyed by model and highwayhash of the text
CREATE TABLE IF NOT EXISTS embedding_cache (
    model TEXT NOT NULL,
    text_hash INTEGER NOT NULL,
    dim INTEGER NOT NULL,
    vector BLOB NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (model, text_hash)
);
`
