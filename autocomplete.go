package main

import (
	"sort"
	"strings"
)

// CompletionProvider is the pluggable autocomplete capability set.
type CompletionProvider interface {
	// TriggerCharacter is the character that activates the provider.
	TriggerCharacter() rune
	// ShouldTrigger reports whether the provider applies to the buffer
	// and cursor position.
	ShouldTrigger(buffer string, cursor int) bool
	// ExtractPartial returns the partial token being completed.
	ExtractPartial(buffer string, cursor int) string
	// ReplacePartial applies a completion, returning the new buffer and
	// cursor position.
	ReplacePartial(buffer string, cursor int, completion string) (string, int)
	// GetSuggestions lists completions for the partial token.
	GetSuggestions(partial string) []CompletionItem
}

// AutocompleteManager activates the first provider whose trigger matches
// after every buffer mutation and applies accepted selections back to the
// buffer.
type AutocompleteManager struct {
	providers []CompletionProvider
}

// NewAutocompleteManager registers providers in priority order.
func NewAutocompleteManager(providers ...CompletionProvider) *AutocompleteManager {
	return &AutocompleteManager{providers: providers}
}

// OnBufferChanged re-evaluates providers against the buffer. The first
// provider whose ShouldTrigger returns true becomes active; an empty
// suggestion list clears autocomplete state.
func (m *AutocompleteManager) OnBufferChanged(in *InputContext) {
	if in.Mode() == ModeUserSelection {
		return
	}

	for _, p := range m.providers {
		if !p.ShouldTrigger(in.Buffer(), in.Cursor()) {
			continue
		}
		partial := p.ExtractPartial(in.Buffer(), in.Cursor())
		items := p.GetSuggestions(partial)
		if len(items) == 0 {
			in.ClearCompletion()
			return
		}
		if in.Mode() == ModeAutocomplete && in.ActiveProvider() == p {
			in.RefreshItems(items)
			return
		}
		in.SetCompletion(ModeAutocomplete, items, p)
		return
	}

	if in.Mode() == ModeAutocomplete {
		in.ClearCompletion()
	}
}

// Accept applies the highlighted completion and leaves Autocomplete mode.
// Accepting with an empty list is a no-op.
func (m *AutocompleteManager) Accept(in *InputContext) bool {
	if in.Mode() != ModeAutocomplete {
		return false
	}
	item, ok := in.SelectedItem()
	provider := in.ActiveProvider()
	if !ok || provider == nil {
		in.ClearCompletion()
		return false
	}
	buf, cur := provider.ReplacePartial(in.Buffer(), in.Cursor(), item.Value)
	in.SetBuffer(buf)
	in.moveTo(cur, false)
	in.ClearCompletion()
	return true
}

// SlashCommandProvider completes command names when the buffer starts
// with a slash.
type SlashCommandProvider struct {
	processor *SlashCommandProcessor
}

// NewSlashCommandProvider builds the provider over the command registry.
func NewSlashCommandProvider(processor *SlashCommandProcessor) *SlashCommandProvider {
	return &SlashCommandProvider{processor: processor}
}

func (p *SlashCommandProvider) TriggerCharacter() rune { return '/' }

func (p *SlashCommandProvider) ShouldTrigger(buffer string, cursor int) bool {
	return strings.HasPrefix(buffer, "/") && cursor > 0
}

func (p *SlashCommandProvider) ExtractPartial(buffer string, cursor int) string {
	if cursor > len(buffer) {
		cursor = len(buffer)
	}
	return buffer[:cursor]
}

func (p *SlashCommandProvider) ReplacePartial(buffer string, cursor int, completion string) (string, int) {
	return completion, len(completion)
}

func (p *SlashCommandProvider) GetSuggestions(partial string) []CompletionItem {
	names := p.processor.Suggestions(partial)
	items := make([]CompletionItem, 0, len(names))
	for _, name := range names {
		desc := ""
		if cmd, ok := p.processor.Lookup(name); ok {
			desc = cmd.Description
		}
		items = append(items, CompletionItem{Value: name, Description: desc})
	}
	return items
}

// FilePathProvider completes project file paths after an @ character.
type FilePathProvider struct {
	root string

	// listFiles is swappable for tests.
	listFiles func(root, pattern string) ([]string, error)
}

// NewFilePathProvider builds the provider rooted at the working directory.
func NewFilePathProvider(root string) *FilePathProvider {
	if root == "" {
		root = "."
	}
	return &FilePathProvider{root: root, listFiles: getFileTree}
}

func (p *FilePathProvider) TriggerCharacter() rune { return '@' }

// ShouldTrigger fires when the token containing the cursor starts with @.
func (p *FilePathProvider) ShouldTrigger(buffer string, cursor int) bool {
	if cursor > len(buffer) {
		cursor = len(buffer)
	}
	at := strings.LastIndex(buffer[:cursor], "@")
	if at == -1 {
		return false
	}
	return !strings.ContainsAny(buffer[at:cursor], " \t")
}

func (p *FilePathProvider) ExtractPartial(buffer string, cursor int) string {
	if cursor > len(buffer) {
		cursor = len(buffer)
	}
	at := strings.LastIndex(buffer[:cursor], "@")
	if at == -1 {
		return ""
	}
	return buffer[at+1 : cursor]
}

// ReplacePartial swaps the @token for the completed path plus a trailing
// space, the way file references are inserted into prompts.
func (p *FilePathProvider) ReplacePartial(buffer string, cursor int, completion string) (string, int) {
	if cursor > len(buffer) {
		cursor = len(buffer)
	}
	at := strings.LastIndex(buffer[:cursor], "@")
	if at == -1 {
		return buffer, cursor
	}
	end := cursor
	for end < len(buffer) && buffer[end] != ' ' && buffer[end] != '\t' {
		end++
	}
	replaced := buffer[:at] + "@" + completion + " " + buffer[end:]
	return replaced, at + 1 + len(completion) + 1
}

func (p *FilePathProvider) GetSuggestions(partial string) []CompletionItem {
	files, err := p.listFiles(p.root, partial)
	if err != nil {
		return nil
	}

	query := strings.ToLower(partial)
	var matches []string
	if strings.ContainsAny(partial, "*?[") {
		// Glob expansion already filtered; order by path.
		matches = files
		query = ""
	} else {
		for _, f := range files {
			if query == "" || strings.Contains(strings.ToLower(f), query) {
				matches = append(matches, f)
			}
		}
	}

	// Earlier match position sorts first, ties alphabetical.
	sort.SliceStable(matches, func(i, j int) bool {
		i1 := strings.Index(strings.ToLower(matches[i]), query)
		i2 := strings.Index(strings.ToLower(matches[j]), query)
		if i1 == i2 {
			return matches[i] < matches[j]
		}
		return i1 < i2
	})

	const maxFileSuggestions = 20
	if len(matches) > maxFileSuggestions {
		matches = matches[:maxFileSuggestions]
	}
	items := make([]CompletionItem, len(matches))
	for i, f := range matches {
		items[i] = CompletionItem{Value: f}
	}
	return items
}
