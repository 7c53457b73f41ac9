package wikilink

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScan(t *testing.T) {
	text := "Check [[Target]] and [[Other|Label]] links."
	links := Scan(text)

	assert.Len(t, links, 2)
	assert.Equal(t, "Target", links[0].Target)
	assert.Empty(t, links[0].Label)
	assert.Equal(t, "Other", links[1].Target)
	assert.Equal(t, "Label", links[1].Label)
}

func TestScanEmptyTarget(t *testing.T) {
	links := Scan("broken [[ ]] link")
	assert.Empty(t, links)
}

func TestTitlesDeduplicatesCaseInsensitive(t *testing.T) {
	text := "[[Project Alpha]] then [[project alpha]] then [[Beta]]"
	titles := Titles(text)

	assert.Equal(t, []string{"Project Alpha", "Beta"}, titles)
}

func TestReferences(t *testing.T) {
	text := "see [[Project Alpha]] for details"

	assert.True(t, References(text, "Project Alpha"))
	assert.True(t, References(text, "project ALPHA"))
	assert.False(t, References(text, "Project Beta"))
	assert.False(t, References(text, ""))
}

func TestReferencesIgnoresPlainText(t *testing.T) {
	assert.False(t, References("Project Alpha mentioned without link syntax", "Project Alpha"))
}
