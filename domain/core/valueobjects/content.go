package valueobjects

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/juancgarza/memex/domain/config"
	pkgerrors "github.com/juancgarza/memex/pkg/errors"
)

// ContentFormat represents the format of the content
type ContentFormat string

const (
	FormatPlainText ContentFormat = "text"
	FormatMarkdown  ContentFormat = "markdown"
)

// NoteContent is a value object for note content
type NoteContent struct {
	title  string
	body   string
	format ContentFormat
}

// NewNoteContent creates content with validation using default configuration
func NewNoteContent(title, body string, format ContentFormat) (NoteContent, error) {
	return NewNoteContentWithConfig(title, body, format, config.DefaultDomainConfig())
}

// NewNoteContentWithConfig creates content with validation and configuration
func NewNoteContentWithConfig(title, body string, format ContentFormat, cfg *config.DomainConfig) (NoteContent, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)

	if title == "" && !cfg.AllowEmptyContent {
		return NoteContent{}, pkgerrors.NewValidationError("title cannot be empty")
	}

	titleLength := utf8.RuneCountInString(title)
	if titleLength < cfg.MinTitleLength {
		return NoteContent{}, fmt.Errorf("title too short: minimum %d characters required", cfg.MinTitleLength)
	}
	if titleLength > cfg.MaxTitleLength {
		return NoteContent{}, fmt.Errorf("title exceeds maximum length of %d characters", cfg.MaxTitleLength)
	}

	if utf8.RuneCountInString(body) > cfg.MaxContentLength {
		return NoteContent{}, fmt.Errorf("content body exceeds maximum length of %d characters", cfg.MaxContentLength)
	}

	if !isValidFormat(format) {
		return NoteContent{}, pkgerrors.NewValidationError("invalid content format")
	}

	return NoteContent{
		title:  title,
		body:   body,
		format: format,
	}, nil
}

// Title returns the content title
func (c NoteContent) Title() string {
	return c.title
}

// Body returns the content body
func (c NoteContent) Body() string {
	return c.body
}

// Format returns the content format
func (c NoteContent) Format() ContentFormat {
	return c.format
}

// IsEmpty checks if content is empty
func (c NoteContent) IsEmpty() bool {
	return c.title == "" && c.body == ""
}

// Equals checks if two contents are equal
func (c NoteContent) Equals(other NoteContent) bool {
	return c.title == other.title &&
		c.body == other.body &&
		c.format == other.format
}

// Text returns the full text used for embedding: title and body combined
func (c NoteContent) Text() string {
	if c.body == "" {
		return c.title
	}
	return c.title + "\n" + c.body
}

func isValidFormat(format ContentFormat) bool {
	switch format {
	case FormatPlainText, FormatMarkdown:
		return true
	default:
		return false
	}
}
