package aggregates

import (
	"time"

	"github.com/juancgarza/memex/domain/core/valueobjects"
	pkgerrors "github.com/juancgarza/memex/pkg/errors"
)

// Conversation groups a sequence of chat messages under one owner.
// Messages live in their own table and reference the conversation by ID.
type Conversation struct {
	id        valueobjects.EntityID
	ownerID   string
	title     string
	createdAt time.Time
	updatedAt time.Time
}

// NewConversation starts an empty conversation
func NewConversation(ownerID, title string) (*Conversation, error) {
	if ownerID == "" {
		return nil, pkgerrors.NewValidationError("ownerID cannot be empty")
	}
	if title == "" {
		title = "Untitled conversation"
	}

	now := time.Now()
	return &Conversation{
		id:        valueobjects.NewEntityID(),
		ownerID:   ownerID,
		title:     title,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructConversation rebuilds a conversation from repository data
func ReconstructConversation(id valueobjects.EntityID, ownerID, title string, createdAt, updatedAt time.Time) (*Conversation, error) {
	if ownerID == "" {
		return nil, pkgerrors.NewValidationError("ownerID cannot be empty")
	}
	return &Conversation{
		id:        id,
		ownerID:   ownerID,
		title:     title,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}, nil
}

func (c *Conversation) ID() valueobjects.EntityID { return c.id }
func (c *Conversation) OwnerID() string           { return c.ownerID }
func (c *Conversation) Title() string             { return c.title }
func (c *Conversation) CreatedAt() time.Time      { return c.createdAt }
func (c *Conversation) UpdatedAt() time.Time      { return c.updatedAt }

// Rename changes the conversation title
func (c *Conversation) Rename(title string) error {
	if title == "" {
		return pkgerrors.NewValidationError("title cannot be empty")
	}
	c.title = title
	c.updatedAt = time.Now()
	return nil
}

// Touch bumps the updated timestamp, called when a message is appended
func (c *Conversation) Touch() {
	c.updatedAt = time.Now()
}
