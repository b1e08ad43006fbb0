package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is the durable record of one conversation.
type Session struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastModifiedAt time.Time          `json:"last_modified_at"`
	InitialPrompt  string             `json:"initial_prompt"`
	History        []ConversationTurn `json:"history"`

	// Unknown fields read from disk, carried through saves.
	extra map[string]json.RawMessage
}

// sessionKnownFields lists the keys owned by this version of the format.
var sessionKnownFields = map[string]bool{
	"id": true, "name": true, "created_at": true,
	"last_modified_at": true, "initial_prompt": true, "history": true,
}

// UnmarshalJSON keeps unrecognized fields so a newer format survives a
// load/save round trip.
func (s *Session) UnmarshalJSON(data []byte) error {
	type plain Session
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = Session(p)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k := range sessionKnownFields {
		delete(raw, k)
	}
	if len(raw) > 0 {
		s.extra = raw
	}
	return nil
}

// MarshalJSON writes known fields plus any preserved unknown ones.
func (s Session) MarshalJSON() ([]byte, error) {
	type plain Session
	data, err := json.Marshal(plain(s))
	if err != nil {
		return nil, err
	}
	if len(s.extra) == 0 {
		return data, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, v := range s.extra {
		if _, owned := merged[k]; !owned {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

const (
	sessionFileName    = "session.json"
	sessionTempName    = "session.tmp"
	sessionCorruptName = "session.corrupted"
	attachmentsDirName = "attachments"
)

// initialPromptLimit is the visible-character cap on the derived prompt.
const initialPromptLimit = 50

// SessionManager owns the chats directory and the current session. All
// writes are serialized behind a single mutex and go through a temp file
// followed by an atomic rename; session.json is never truncated in place.
type SessionManager struct {
	root string

	mu      sync.Mutex
	current *Session
}

// NewSessionManager creates a manager rooted at <home>/.mogzi/chats.
func NewSessionManager(root string) (*SessionManager, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating chats directory %s: %w", root, err)
	}
	return &SessionManager{root: root}, nil
}

// DefaultChatsRoot resolves the chats directory under the user home.
func DefaultChatsRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".mogzi", "chats"), nil
}

// Current returns the active session.
func (m *SessionManager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *SessionManager) sessionDir(id string) string {
	return filepath.Join(m.root, id)
}

// CreateNew starts a fresh session named after its creation time and
// persists it immediately.
func (m *SessionManager) CreateNew() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createNewLocked()
}

func (m *SessionManager) createNewLocked() (*Session, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating session id: %w", err)
	}
	now := time.Now().UTC()
	s := &Session{
		ID:             id.String(),
		Name:           now.Format("2006-01-02 15:04:05 UTC"),
		CreatedAt:      now,
		LastModifiedAt: now,
	}
	if err := os.MkdirAll(m.sessionDir(s.ID), 0o755); err != nil {
		return nil, fmt.Errorf("creating session directory: %w", err)
	}
	m.current = s
	if err := m.saveLocked(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load replaces the current session with the one stored under id. A file
// that fails to deserialize is quarantined and a new session is created
// silently in its place.
func (m *SessionManager) Load(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := filepath.Join(m.sessionDir(id), sessionFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading session %s: %w", id, err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		slog.Error("session file corrupted, quarantining", "id", id, "error", err)
		m.quarantineLocked(id)
		return m.createNewLocked()
	}

	m.current = &s
	return &s, nil
}

// quarantineLocked renames a bad session.json to session.corrupted,
// appending .N when earlier quarantines exist.
func (m *SessionManager) quarantineLocked(id string) {
	dir := m.sessionDir(id)
	src := filepath.Join(dir, sessionFileName)
	dst := filepath.Join(dir, sessionCorruptName)
	for n := 1; ; n++ {
		if _, err := os.Stat(dst); os.IsNotExist(err) {
			break
		}
		dst = filepath.Join(dir, fmt.Sprintf("%s.%d", sessionCorruptName, n))
	}
	if err := os.Rename(src, dst); err != nil {
		slog.Error("failed to quarantine corrupt session", "id", id, "error", err)
	}
}

// SaveCurrent persists the active session atomically.
func (m *SessionManager) SaveCurrent() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked()
}

func (m *SessionManager) saveLocked() error {
	if m.current == nil {
		return nil
	}
	m.current.LastModifiedAt = time.Now().UTC()

	data, err := json.MarshalIndent(m.current, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	dir := m.sessionDir(m.current.ID)
	tmp := filepath.Join(dir, sessionTempName)
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing session temp file: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, sessionFileName)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing session file: %w", err)
	}
	return nil
}

// ClearCurrent empties the history and derived prompt, keeping the id.
func (m *SessionManager) ClearCurrent() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	m.current.History = nil
	m.current.InitialPrompt = ""
	return m.saveLocked()
}

// Rename sets a new session name; the name must be non-empty after
// trimming.
func (m *SessionManager) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("session name must not be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return fmt.Errorf("no active session")
	}
	m.current.Name = name
	return m.saveLocked()
}

// AddTurn externalizes attachments, appends the turn, derives the initial
// prompt from the first user text, and persists. An attachment write
// failure fails the whole append without touching in-memory state.
func (m *SessionManager) AddTurn(turn ConversationTurn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return fmt.Errorf("no active session")
	}

	turnIndex := len(m.current.History)
	if err := m.externalizeAttachments(&turn, turnIndex); err != nil {
		return err
	}

	m.current.History = append(m.current.History, turn)
	if turn.Kind == TurnUser && m.current.InitialPrompt == "" {
		m.current.InitialPrompt = truncateVisible(turn.Text, initialPromptLimit)
	}
	return m.saveLocked()
}

// externalizeAttachments writes inline payloads under attachments/ and
// rewrites each attachment to a relative path reference.
func (m *SessionManager) externalizeAttachments(turn *ConversationTurn, turnIndex int) error {
	hasData := false
	for _, a := range turn.Attachments {
		if len(a.Data) > 0 {
			hasData = true
			break
		}
	}
	if !hasData {
		return nil
	}

	dir := filepath.Join(m.sessionDir(m.current.ID), attachmentsDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating attachments directory: %w", err)
	}

	out := make([]Attachment, len(turn.Attachments))
	copy(out, turn.Attachments)
	for i := range out {
		if len(out[i].Data) == 0 {
			continue
		}
		name := fmt.Sprintf("%d-%s%s", turnIndex, contentHash(out[i].Data), extensionForMediaType(out[i].MediaType))
		if err := os.WriteFile(filepath.Join(dir, name), out[i].Data, 0o644); err != nil {
			return fmt.Errorf("writing attachment %s: %w", name, err)
		}
		out[i].Path = filepath.Join(attachmentsDirName, name)
		out[i].Data = nil
	}
	turn.Attachments = out
	return nil
}

// MarkToolCallsCancelled flags the stored tool-call turns for the given
// call ids and persists the session.
func (m *SessionManager) MarkToolCallsCancelled(ids map[string]bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil || len(ids) == 0 {
		return nil
	}
	changed := false
	for i := range m.current.History {
		t := &m.current.History[i]
		if t.Kind == TurnToolCall && ids[t.CallID] && !t.Cancelled {
			t.Cancelled = true
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return m.saveLocked()
}

// List reads every session under the chats root, skipping directories
// whose session.json is missing or corrupt, sorted most recent first.
func (m *SessionManager) List() ([]*Session, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		return nil, fmt.Errorf("listing chats directory: %w", err)
	}

	var sessions []*Session
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(m.root, e.Name(), sessionFileName))
		if err != nil {
			continue
		}
		var s Session
		if err := json.Unmarshal(data, &s); err != nil {
			slog.Warn("skipping unreadable session", "id", e.Name(), "error", err)
			continue
		}
		sessions = append(sessions, &s)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastModifiedAt.After(sessions[j].LastModifiedAt)
	})
	return sessions, nil
}

func extensionForMediaType(mediaType string) string {
	switch mediaType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "application/pdf":
		return ".pdf"
	default:
		return ".bin"
	}
}
