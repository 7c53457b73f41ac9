package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/juancgarza/memex/application/ports"
	"github.com/juancgarza/memex/domain/core/aggregates"
	"github.com/juancgarza/memex/domain/core/entities"
	"github.com/juancgarza/memex/domain/core/valueobjects"
	"github.com/juancgarza/memex/pkg/utils"
)

// CreateConversationCommand starts an empty conversation
type CreateConversationCommand struct {
	OwnerID string `json:"owner_id" validate:"required"`
	Title   string `json:"title" validate:"max=200"`
}

// Validate implements bus.Command
func (c CreateConversationCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// CreateConversationHandler handles the CreateConversationCommand
type CreateConversationHandler struct {
	conversationRepo ports.ConversationRepository
	logger           *zap.Logger
}

// NewCreateConversationHandler creates a new handler instance
func NewCreateConversationHandler(conversationRepo ports.ConversationRepository, logger *zap.Logger) *CreateConversationHandler {
	return &CreateConversationHandler{
		conversationRepo: conversationRepo,
		logger:           logger,
	}
}

// Handle executes the create conversation command
func (h *CreateConversationHandler) Handle(ctx context.Context, cmd CreateConversationCommand) (*aggregates.Conversation, error) {
	conversation, err := aggregates.NewConversation(cmd.OwnerID, cmd.Title)
	if err != nil {
		return nil, err
	}
	if err := h.conversationRepo.Save(ctx, conversation); err != nil {
		return nil, err
	}
	return conversation, nil
}

// PostMessageCommand appends a message to an existing conversation
type PostMessageCommand struct {
	OwnerID        string `json:"owner_id" validate:"required"`
	ConversationID string `json:"conversation_id" validate:"required,uuid"`
	Role           string `json:"role" validate:"required,oneof=user assistant"`
	Text           string `json:"text" validate:"required,max=50000"`
}

// Validate implements bus.Command
func (c PostMessageCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// PostMessageHandler handles the PostMessageCommand
type PostMessageHandler struct {
	conversationRepo ports.ConversationRepository
	messageRepo      ports.MessageRepository
	jobStore         ports.EmbeddingJobStore
	eventBus         ports.EventPublisher
	logger           *zap.Logger
}

// NewPostMessageHandler creates a new handler instance
func NewPostMessageHandler(
	conversationRepo ports.ConversationRepository,
	messageRepo ports.MessageRepository,
	jobStore ports.EmbeddingJobStore,
	eventBus ports.EventPublisher,
	logger *zap.Logger,
) *PostMessageHandler {
	return &PostMessageHandler{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		jobStore:         jobStore,
		eventBus:         eventBus,
		logger:           logger,
	}
}

// Handle executes the post message command. Message ownership derives from
// the conversation, so the conversation lookup is the owner check.
func (h *PostMessageHandler) Handle(ctx context.Context, cmd PostMessageCommand) (*entities.Message, error) {
	conversationID, err := valueobjects.NewEntityIDFromString(cmd.ConversationID)
	if err != nil {
		return nil, err
	}

	conversation, err := h.conversationRepo.GetByID(ctx, cmd.OwnerID, conversationID)
	if err != nil {
		return nil, err
	}

	message, err := entities.NewMessage(conversationID, cmd.OwnerID, entities.MessageRole(cmd.Role), cmd.Text)
	if err != nil {
		return nil, err
	}

	if err := h.messageRepo.Save(ctx, message); err != nil {
		return nil, err
	}

	conversation.Touch()
	if err := h.conversationRepo.Save(ctx, conversation); err != nil {
		h.logger.Warn("Failed to touch conversation",
			zap.String("conversationID", cmd.ConversationID), zap.Error(err))
	}

	job := &ports.EmbeddingJob{
		JobID:      valueobjects.NewEntityID().String(),
		OwnerID:    cmd.OwnerID,
		EntityID:   message.ID().String(),
		Collection: ports.CollectionMessages,
		Status:     ports.EmbeddingJobPending,
	}
	if err := h.jobStore.Enqueue(ctx, job); err != nil {
		h.logger.Warn("Failed to enqueue embedding job",
			zap.String("messageID", message.ID().String()), zap.Error(err))
	}

	if err := h.eventBus.PublishBatch(ctx, message.GetUncommittedEvents()); err != nil {
		h.logger.Warn("Failed to publish message events", zap.Error(err))
	}
	message.MarkEventsAsCommitted()

	return message, nil
}
