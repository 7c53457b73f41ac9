package handlers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/juancgarza/memex/application/ports"
	"github.com/juancgarza/memex/application/queries"
	"github.com/juancgarza/memex/domain/core/valueobjects"
)

// ConversationQueryHandler serves conversation and message reads
type ConversationQueryHandler struct {
	conversationRepo ports.ConversationRepository
	messageRepo      ports.MessageRepository
	logger           *zap.Logger
}

// NewConversationQueryHandler creates a new conversation query handler
func NewConversationQueryHandler(
	conversationRepo ports.ConversationRepository,
	messageRepo ports.MessageRepository,
	logger *zap.Logger,
) *ConversationQueryHandler {
	return &ConversationQueryHandler{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		logger:           logger,
	}
}

// HandleListConversations returns all of the owner's conversations
func (h *ConversationQueryHandler) HandleListConversations(ctx context.Context, query queries.ListConversationsQuery) ([]queries.ConversationResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	conversations, err := h.conversationRepo.GetByOwnerID(ctx, query.OwnerID)
	if err != nil {
		return nil, err
	}

	results := make([]queries.ConversationResult, 0, len(conversations))
	for _, c := range conversations {
		results = append(results, queries.ConversationResult{
			ID:        c.ID().String(),
			Title:     c.Title(),
			CreatedAt: c.CreatedAt().Format(time.RFC3339),
			UpdatedAt: c.UpdatedAt().Format(time.RFC3339),
		})
	}
	return results, nil
}

// HandleGetMessages returns a conversation's messages in append order.
// The conversation lookup doubles as the owner check.
func (h *ConversationQueryHandler) HandleGetMessages(ctx context.Context, query queries.GetMessagesQuery) ([]queries.MessageResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	conversationID, err := valueobjects.NewEntityIDFromString(query.ConversationID)
	if err != nil {
		return nil, err
	}

	if _, err := h.conversationRepo.GetByID(ctx, query.OwnerID, conversationID); err != nil {
		return nil, err
	}

	messages, err := h.messageRepo.GetByConversationID(ctx, query.OwnerID, conversationID)
	if err != nil {
		return nil, err
	}

	results := make([]queries.MessageResult, 0, len(messages))
	for _, m := range messages {
		results = append(results, queries.MessageResult{
			ID:             m.ID().String(),
			ConversationID: m.ConversationID().String(),
			Role:           string(m.Role()),
			Text:           m.Text(),
			HasEmbedding:   !m.Embedding().IsAbsent(),
			CreatedAt:      m.CreatedAt().Format(time.RFC3339),
		})
	}
	return results, nil
}
