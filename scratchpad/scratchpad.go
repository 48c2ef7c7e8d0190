// Package scratchpad implements the session-scoped, section-keyed text
// store agents use to share context within a process lifetime.
package scratchpad

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

const summaryPreviewLen = 80

// Scratchpad is a thread-safe mapping from section name to text content.
// Sections are created on first write; reading a missing section returns
// the empty string, never an error.
type Scratchpad struct {
	mu       sync.RWMutex
	sections map[string]string
}

// New creates an empty Scratchpad.
func New() *Scratchpad {
	return &Scratchpad{sections: make(map[string]string)}
}

// Write replaces (default) or appends to a section's content. Appending
// joins with a newline separator when the section already has content.
func (s *Scratchpad) Write(section, content string, append bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !append {
		s.sections[section] = content
		return
	}

	existing, ok := s.sections[section]
	if !ok || existing == "" {
		s.sections[section] = content
		return
	}
	s.sections[section] = existing + "\n" + content
}

// Read returns a section's content, or the empty string if absent.
func (s *Scratchpad) Read(section string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sections[section]
}

// ReadAll returns every section formatted as "## <name>\n<content>" blocks,
// in sorted section-name order, for injection into prompts.
func (s *Scratchpad) ReadAll() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := s.sortedNamesLocked()
	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "## %s\n%s", name, s.sections[name])
	}
	return b.String()
}

// Clear removes a single section, or every section when section == "".
func (s *Scratchpad) Clear(section string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if section == "" {
		s.sections = make(map[string]string)
		return
	}
	delete(s.sections, section)
}

// Summary produces one line per section: "- <name>: <first line, truncated>".
func (s *Scratchpad) Summary() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := s.sortedNamesLocked()
	if len(names) == 0 {
		return ""
	}
	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("- %s: %s", name, previewOf(s.sections[name])))
	}
	return strings.Join(lines, "\n")
}

// Sections returns the list of section names currently present.
func (s *Scratchpad) Sections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedNamesLocked()
}

func (s *Scratchpad) sortedNamesLocked() []string {
	names := make([]string, 0, len(s.sections))
	for name := range s.sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// previewOf returns the first line of text, truncated to summaryPreviewLen
// runes if that line is longer, or to the whole text if it has no newline.
func previewOf(text string) string {
	firstLine := text
	if idx := strings.IndexByte(text, '\n'); idx != -1 {
		firstLine = text[:idx]
	}
	runes := []rune(firstLine)
	if len(runes) > summaryPreviewLen {
		return string(runes[:summaryPreviewLen])
	}
	return firstLine
}
