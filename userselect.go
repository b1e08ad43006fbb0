package main

import (
	"fmt"
)

// SelectionProvider backs a modal list-pick activated by an interactive
// slash command.
type SelectionProvider interface {
	// CommandName is the slash command that activates the provider.
	CommandName() string
	Description() string
	// GetSelections lists the options; called on activation.
	GetSelections(ctx *TuiContext) []CompletionItem
	// OnSelection applies the chosen value and returns the info line to
	// display.
	OnSelection(ctx *TuiContext, value string) string
}

// UserSelectionManager routes interactive commands into UserSelection
// mode and applies the provider's effect on accept.
type UserSelectionManager struct {
	providers map[string]SelectionProvider
	active    SelectionProvider
}

// NewUserSelectionManager registers selection providers by command name.
func NewUserSelectionManager(providers ...SelectionProvider) *UserSelectionManager {
	m := &UserSelectionManager{providers: make(map[string]SelectionProvider)}
	for _, p := range providers {
		m.providers[p.CommandName()] = p
	}
	return m
}

// Activate enters UserSelection mode for the named command. Activation
// with no options is a no-op and reports false.
func (m *UserSelectionManager) Activate(ctx *TuiContext, commandName string) bool {
	p, ok := m.providers[commandName]
	if !ok {
		return false
	}
	items := p.GetSelections(ctx)
	if len(items) == 0 {
		return false
	}
	m.active = p
	ctx.Input.SetCompletion(ModeUserSelection, items, nil)
	return true
}

// Active returns the provider currently driving the selection list.
func (m *UserSelectionManager) Active() SelectionProvider { return m.active }

// Accept runs the active provider's effect for the highlighted item and
// returns the info line. The manager deactivates either way.
func (m *UserSelectionManager) Accept(ctx *TuiContext) (string, bool) {
	if m.active == nil || ctx.Input.Mode() != ModeUserSelection {
		return "", false
	}
	item, ok := ctx.Input.SelectedItem()
	if !ok {
		m.Cancel(ctx)
		return "", false
	}
	provider := m.active
	m.Cancel(ctx)
	return provider.OnSelection(ctx, item.Value), true
}

// Cancel leaves UserSelection mode without applying anything.
func (m *UserSelectionManager) Cancel(ctx *TuiContext) {
	m.active = nil
	ctx.Input.ClearCompletion()
}

// ToolApprovalsProvider switches the tool-approval mode.
type ToolApprovalsProvider struct{}

// NewToolApprovalsProvider returns the tool-approvals picker.
func NewToolApprovalsProvider() *ToolApprovalsProvider { return &ToolApprovalsProvider{} }

func (p *ToolApprovalsProvider) CommandName() string { return "/tool-approvals" }
func (p *ToolApprovalsProvider) Description() string { return "Select the tool approval mode" }

func (p *ToolApprovalsProvider) GetSelections(ctx *TuiContext) []CompletionItem {
	return []CompletionItem{
		{Value: ApprovalReadonly, Description: "Only read-only tools run without confirmation"},
		{Value: ApprovalAll, Description: "All tools run without confirmation"},
	}
}

func (p *ToolApprovalsProvider) OnSelection(ctx *TuiContext, value string) string {
	ctx.Config.ToolApprovals = value
	return fmt.Sprintf("tool approvals set to %s", value)
}

// SessionListProvider resumes one of the most recent sessions.
type SessionListProvider struct{}

// NewSessionListProvider returns the session picker.
func NewSessionListProvider() *SessionListProvider { return &SessionListProvider{} }

func (p *SessionListProvider) CommandName() string { return "/session list" }
func (p *SessionListProvider) Description() string { return "Resume a previous session" }

func (p *SessionListProvider) GetSelections(ctx *TuiContext) []CompletionItem {
	sessions, err := ctx.Sessions.List()
	if err != nil {
		return nil
	}
	limit := ctx.Config.SessionListLimit
	if limit <= 0 {
		limit = 10
	}
	if len(sessions) > limit {
		sessions = sessions[:limit]
	}

	items := make([]CompletionItem, 0, len(sessions))
	for _, s := range sessions {
		desc := formatRelativeTime(s.LastModifiedAt)
		if s.InitialPrompt != "" {
			desc += " · " + s.InitialPrompt
		}
		items = append(items, CompletionItem{
			Value:       s.ID,
			Display:     s.Name,
			Description: desc,
		})
	}
	return items
}

func (p *SessionListProvider) OnSelection(ctx *TuiContext, value string) string {
	s, err := ctx.Sessions.Load(value)
	if err != nil {
		return fmt.Sprintf("failed to load session: %v", err)
	}
	ctx.Mediator.Notify(Event{Kind: EventSessionChanged, Session: s})
	return fmt.Sprintf("resumed session %q (%s)", s.Name, formatRelativeTime(s.LastModifiedAt))
}
