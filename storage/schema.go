package storage

// Schema creates the prompt-history table. The workdir column scopes
// history per project so recall stays relevant to the checkout.
const Schema = `
CREATE TABLE IF NOT EXISTS prompt_history (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	workdir   TEXT NOT NULL,
	prompt    TEXT NOT NULL,
	timestamp INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_prompt_history_workdir
	ON prompt_history (workdir, timestamp DESC);
`
