package cache

import (
	"database/sql"
	"time"
)

func buildCreateResponsesTable() string {
	return `CREATE TABLE IF NOT EXISTS responses (
		key TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		body BLOB NOT NULL,
		size INTEGER NOT NULL,
		fetched_at INTEGER NOT NULL);`
}

func buildSelectResponseCommand() string {
	return `SELECT body FROM responses WHERE key = ?`
}

func buildUpsertResponseCommand() string {
	fields := "key, url, body, size, fetched_at"
	return `INSERT OR REPLACE INTO responses (` + fields + `) VALUES (?, ?, ?, ?, ?)`
}

func buildStatsCommand() (string, func(*sql.Row) (Stats, error)) {
	return `SELECT COUNT(*), COALESCE(SUM(size), 0), COALESCE(MIN(fetched_at), 0), COALESCE(MAX(fetched_at), 0) FROM responses`, processStatsRow
}

func processStatsRow(row *sql.Row) (Stats, error) {
	var st Stats
	var oldest, newest int64
	err := row.Scan(&st.Entries, &st.Bytes, &oldest, &newest)
	if err != nil {
		return st, err
	}
	if st.Entries > 0 {
		st.Oldest = time.Unix(oldest, 0)
		st.Newest = time.Unix(newest, 0)
	}
	return st, nil
}

func buildDeleteAllCommand() string {
	return `DELETE FROM responses`
}
