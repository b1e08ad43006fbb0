package main

import (
	"log/slog"
)

// HistoryManager is the in-memory conversation log used for rendering.
// Every append is persisted through the session manager; a failed persist
// surfaces as an info turn while the in-memory state is kept, so the next
// append retries the write.
type HistoryManager struct {
	turns   []ConversationTurn
	pending []ConversationTurn
	nextID  int

	sessions *SessionManager
}

// NewHistoryManager builds a history bound to a session store. sessions
// may be nil in tests; persistence is then skipped.
func NewHistoryManager(sessions *SessionManager) *HistoryManager {
	return &HistoryManager{nextID: 1, sessions: sessions}
}

// Append numbers the turn, records it, and persists it. A failed persist
// keeps the in-memory state (the next append retries the write) and
// returns a "failed to save session" info turn, already recorded, which
// the caller must route to the display like any other turn.
func (h *HistoryManager) Append(turn ConversationTurn) *ConversationTurn {
	turn.ID = h.nextID
	h.nextID++
	h.turns = append(h.turns, turn)
	return h.persist(turn)
}

func (h *HistoryManager) persist(turn ConversationTurn) *ConversationTurn {
	if h.sessions == nil || h.sessions.Current() == nil {
		return nil
	}
	if err := h.sessions.AddTurn(turn); err != nil {
		slog.Error("session persist failed", "error", err)
		info := NewInfoTurn("failed to save session", InfoLevelError)
		info.ID = h.nextID
		h.nextID++
		h.turns = append(h.turns, info)
		return &info
	}
	return nil
}

// AddUser appends a user text turn.
func (h *HistoryManager) AddUser(text string) *ConversationTurn {
	return h.Append(NewUserTurn(text))
}

// AddAssistantText appends an assistant text turn.
func (h *HistoryManager) AddAssistantText(text string) *ConversationTurn {
	return h.Append(NewAssistantTurn(text))
}

// AddToolGroup appends a contiguous group of calls and results, returning
// any save-failure info turns produced along the way.
func (h *HistoryManager) AddToolGroup(calls []ConversationTurn, results []ConversationTurn) []ConversationTurn {
	var failures []ConversationTurn
	for _, c := range calls {
		if fail := h.Append(c); fail != nil {
			failures = append(failures, *fail)
		}
	}
	for _, r := range results {
		if fail := h.Append(r); fail != nil {
			failures = append(failures, *fail)
		}
	}
	return failures
}

// AddInfo appends an informational turn.
func (h *HistoryManager) AddInfo(text string, level InfoLevel) *ConversationTurn {
	return h.Append(NewInfoTurn(text, level))
}

// MarkToolCallsCancelled flags recorded tool-call turns whose call ids
// were still outstanding when the user cancelled, in memory and in the
// stored session.
func (h *HistoryManager) MarkToolCallsCancelled(ids map[string]bool) {
	if len(ids) == 0 {
		return
	}
	for i := range h.turns {
		if h.turns[i].Kind == TurnToolCall && ids[h.turns[i].CallID] {
			h.turns[i].Cancelled = true
		}
	}
	if h.sessions != nil && h.sessions.Current() != nil {
		if err := h.sessions.MarkToolCallsCancelled(ids); err != nil {
			slog.Error("failed to persist cancelled tool group", "error", err)
		}
	}
}

// Clear drops the in-memory log only. The on-disk session is cleared by
// the dedicated /session clear command.
func (h *HistoryManager) Clear() {
	h.turns = nil
	h.pending = nil
	h.nextID = 1
}

// Rebuild replaces the log from a loaded session without re-persisting.
func (h *HistoryManager) Rebuild(turns []ConversationTurn) {
	h.turns = make([]ConversationTurn, len(turns))
	copy(h.turns, turns)
	h.nextID = 1
	for _, t := range turns {
		if t.ID >= h.nextID {
			h.nextID = t.ID + 1
		}
	}
	h.pending = nil
}

// SetPending replaces the in-progress turns shown while streaming.
func (h *HistoryManager) SetPending(turns []ConversationTurn) {
	h.pending = turns
}

// ClearPending removes in-progress turns.
func (h *HistoryManager) ClearPending() {
	h.pending = nil
}

// ForRender returns completed turns followed by pending ones.
func (h *HistoryManager) ForRender() []ConversationTurn {
	out := make([]ConversationTurn, 0, len(h.turns)+len(h.pending))
	out = append(out, h.turns...)
	out = append(out, h.pending...)
	return out
}

// Turns returns the completed turns.
func (h *HistoryManager) Turns() []ConversationTurn {
	return h.turns
}

// Len returns the number of completed turns.
func (h *HistoryManager) Len() int { return len(h.turns) }

// LastTurn returns the most recent completed turn.
func (h *HistoryManager) LastTurn() (ConversationTurn, bool) {
	if len(h.turns) == 0 {
		return ConversationTurn{}, false
	}
	return h.turns[len(h.turns)-1], true
}
