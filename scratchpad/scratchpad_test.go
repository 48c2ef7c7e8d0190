package scratchpad

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScratchpad_ReadMissingSectionReturnsEmpty(t *testing.T) {
	s := New()
	assert.Equal(t, "", s.Read("Nonexistent"))
}

func TestScratchpad_WriteReplaceVsAppend(t *testing.T) {
	s := New()
	s.Write("Plan", "first", false)
	require.Equal(t, "first", s.Read("Plan"))

	s.Write("Plan", "second", false)
	assert.Equal(t, "second", s.Read("Plan"), "replace should overwrite")

	s.Write("Plan", "third", true)
	assert.Equal(t, "second\nthird", s.Read("Plan"), "append should join with newline")
}

func TestScratchpad_AppendToEmptySectionDoesNotLeadingNewline(t *testing.T) {
	s := New()
	s.Write("Notes", "only line", true)
	assert.Equal(t, "only line", s.Read("Notes"))
}

func TestScratchpad_Summary(t *testing.T) {
	s := New()
	s.Write("Exploration", "line one\nline two", false)
	s.Write("Risks", "short", false)

	summary := s.Summary()
	assert.Contains(t, summary, "- Exploration: line one")
	assert.Contains(t, summary, "- Risks: short")
}

func TestScratchpad_SummaryTruncatesLongFirstLine(t *testing.T) {
	s := New()
	long := ""
	for i := 0; i < 100; i++ {
		long += "x"
	}
	s.Write("Long", long, false)
	summary := s.Summary()
	// "- Long: " prefix plus at most 80 chars of the section content.
	assert.LessOrEqual(t, len(summary), len("- Long: ")+summaryPreviewLen)
}

func TestScratchpad_ClearSingleSectionAndAll(t *testing.T) {
	s := New()
	s.Write("A", "a", false)
	s.Write("B", "b", false)

	s.Clear("A")
	assert.Equal(t, "", s.Read("A"))
	assert.Equal(t, "b", s.Read("B"))

	s.Clear("")
	assert.Empty(t, s.Sections())
}

func TestScratchpad_SectionsSortedAndCreatedOnFirstWrite(t *testing.T) {
	s := New()
	assert.Empty(t, s.Sections())

	s.Write("Zebra", "z", false)
	s.Write("Apple", "a", false)
	assert.Equal(t, []string{"Apple", "Zebra"}, s.Sections())
}
