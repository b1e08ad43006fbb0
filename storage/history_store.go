package storage

import (
	"fmt"
	"time"
)

// HistoryStore persists submitted prompts across runs, scoped to a
// working directory.
type HistoryStore struct {
	db      *DB
	workdir string
	limit   int
}

// HistoryEntry is a single recorded prompt.
type HistoryEntry struct {
	Content   string
	Timestamp time.Time
}

// NewHistoryStore builds a store for workdir. limit caps the rows kept
// per workdir; zero keeps everything.
func NewHistoryStore(db *DB, workdir string, limit int) *HistoryStore {
	return &HistoryStore{db: db, workdir: workdir, limit: limit}
}

// AppendPrompt records a prompt and trims past the configured limit.
func (h *HistoryStore) AppendPrompt(prompt string) error {
	_, err := h.db.conn.Exec(`
		INSERT INTO prompt_history (workdir, prompt, timestamp)
		VALUES (?, ?, ?)`,
		h.workdir, prompt, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to append prompt: %w", err)
	}

	if h.limit > 0 {
		_, err = h.db.conn.Exec(`
			DELETE FROM prompt_history
			WHERE workdir = ?
			AND id NOT IN (
				SELECT id FROM prompt_history
				WHERE workdir = ?
				ORDER BY timestamp DESC, id DESC
				LIMIT ?
			)`,
			h.workdir, h.workdir, h.limit,
		)
		if err != nil {
			return fmt.Errorf("failed to trim prompt history: %w", err)
		}
	}
	return nil
}

// LoadPrompts returns the most recent prompts, newest first.
func (h *HistoryStore) LoadPrompts(limit int) ([]HistoryEntry, error) {
	query := `
		SELECT prompt, timestamp
		FROM prompt_history
		WHERE workdir = ?
		ORDER BY timestamp DESC, id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := h.db.conn.Query(query, h.workdir)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var prompt string
		var ts int64
		if err := rows.Scan(&prompt, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan prompt: %w", err)
		}
		entries = append(entries, HistoryEntry{Content: prompt, Timestamp: time.Unix(ts, 0)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prompts: %w", err)
	}
	return entries, nil
}

// Clear removes all recorded prompts for the working directory.
func (h *HistoryStore) Clear() error {
	_, err := h.db.conn.Exec("DELETE FROM prompt_history WHERE workdir = ?", h.workdir)
	if err != nil {
		return fmt.Errorf("failed to clear prompt history: %w", err)
	}
	return nil
}

// CleanupOld removes prompts older than maxAgeDays.
func (h *HistoryStore) CleanupOld(maxAgeDays int) error {
	if maxAgeDays <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -maxAgeDays).Unix()
	_, err := h.db.conn.Exec("DELETE FROM prompt_history WHERE timestamp < ?", cutoff)
	if err != nil {
		return fmt.Errorf("failed to clean up old prompt history: %w", err)
	}
	return nil
}
