package store

// Schema is the single-slot key-value layout. Exactly two keys are used:
// KeyProblemInfo holds the snapshot JSON and KeyLastUpdated its RFC 3339
// save time.
const Schema = `
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

const (
	KeyProblemInfo = "problemInfo"
	KeyLastUpdated = "lastUpdated"
)
