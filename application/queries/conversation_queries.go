package queries

import "errors"

// ListConversationsQuery lists an owner's conversations
type ListConversationsQuery struct {
	OwnerID string
}

// Validate validates the ListConversationsQuery
func (q ListConversationsQuery) Validate() error {
	if q.OwnerID == "" {
		return errors.New("owner ID is required")
	}
	return nil
}

// GetMessagesQuery lists the messages of a conversation in append order
type GetMessagesQuery struct {
	OwnerID        string
	ConversationID string
}

// Validate validates the GetMessagesQuery
func (q GetMessagesQuery) Validate() error {
	if q.OwnerID == "" {
		return errors.New("owner ID is required")
	}
	if q.ConversationID == "" {
		return errors.New("conversation ID is required")
	}
	return nil
}

// ConversationResult is the read model for a conversation
type ConversationResult struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// MessageResult is the read model for a message
type MessageResult struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversationId"`
	Role           string `json:"role"`
	Text           string `json:"text"`
	HasEmbedding   bool   `json:"hasEmbedding"`
	CreatedAt      string `json:"createdAt"`
}
