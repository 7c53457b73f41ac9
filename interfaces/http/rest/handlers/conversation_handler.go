package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/juancgarza/memex/application/commands"
	"github.com/juancgarza/memex/application/commands/bus"
	"github.com/juancgarza/memex/application/queries"
	querybus "github.com/juancgarza/memex/application/queries/bus"
	"github.com/juancgarza/memex/domain/core/aggregates"
	"github.com/juancgarza/memex/domain/core/entities"
	"github.com/juancgarza/memex/pkg/auth"
	"github.com/juancgarza/memex/pkg/common"
	pkgerrors "github.com/juancgarza/memex/pkg/errors"
	"github.com/juancgarza/memex/pkg/utils"
)

// ConversationHandler handles conversation and message HTTP requests
type ConversationHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *ConversationHandler {
	return &ConversationHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     errorHandler,
		logger:     logger,
	}
}

// CreateConversationRequest represents the request body for creating a conversation
type CreateConversationRequest struct {
	Title string `json:"title,omitempty" validate:"max=200"`
}

// PostMessageRequest represents the request body for appending a message
type PostMessageRequest struct {
	Role string `json:"role" validate:"required,oneof=user assistant"`
	Text string `json:"text" validate:"required,max=50000"`
}

// ConversationResponse is the HTTP shape of a conversation
type ConversationResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// MessageResponse is the HTTP shape of a message
type MessageResponse struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversationId"`
	Role           string `json:"role"`
	Text           string `json:"text"`
	CreatedAt      string `json:"createdAt"`
}

// CreateConversation handles POST /conversations
func (h *ConversationHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	var req CreateConversationRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body: "+err.Error())
			return
		}
		if err := utils.ValidateStruct(req); err != nil {
			common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.CreateConversationCommand{
		OwnerID: userCtx.UserID,
		Title:   req.Title,
	})
	if err != nil {
		h.logger.Error("Failed to create conversation",
			zap.String("userID", userCtx.UserID),
			zap.Error(err),
		)
		h.errors.Handle(w, r, err)
		return
	}

	conversation := result.(*aggregates.Conversation)
	common.RespondJSON(w, http.StatusCreated, toConversationResponse(conversation))
}

// ListConversations handles GET /conversations
func (h *ConversationHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.ListConversationsQuery{
		OwnerID: userCtx.UserID,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"conversations": result,
	})
}

// PostMessage handles POST /conversations/{conversationID}/messages
func (h *ConversationHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := h.conversationIDParam(w, r)
	if !ok {
		return
	}

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body: "+err.Error())
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.PostMessageCommand{
		OwnerID:        userCtx.UserID,
		ConversationID: conversationID,
		Role:           req.Role,
		Text:           req.Text,
	})
	if err != nil {
		h.logger.Error("Failed to post message",
			zap.String("conversationID", conversationID),
			zap.String("userID", userCtx.UserID),
			zap.Error(err),
		)
		h.errors.Handle(w, r, err)
		return
	}

	message := result.(*entities.Message)
	common.RespondJSON(w, http.StatusCreated, toMessageResponse(message))
}

// GetMessages handles GET /conversations/{conversationID}/messages
func (h *ConversationHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := h.conversationIDParam(w, r)
	if !ok {
		return
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetMessagesQuery{
		OwnerID:        userCtx.UserID,
		ConversationID: conversationID,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"messages": result,
	})
}

func (h *ConversationHandler) conversationIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	conversationID := chi.URLParam(r, "conversationID")
	if conversationID == "" {
		common.RespondError(w, http.StatusBadRequest, "MISSING_PARAM", "Conversation ID is required")
		return "", false
	}
	if _, err := uuid.Parse(conversationID); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_PARAM", "Invalid conversation ID format")
		return "", false
	}
	return conversationID, true
}

func toConversationResponse(conversation *aggregates.Conversation) ConversationResponse {
	return ConversationResponse{
		ID:        conversation.ID().String(),
		Title:     conversation.Title(),
		CreatedAt: utils.FormatRFC3339(conversation.CreatedAt()),
		UpdatedAt: utils.FormatRFC3339(conversation.UpdatedAt()),
	}
}

func toMessageResponse(message *entities.Message) MessageResponse {
	return MessageResponse{
		ID:             message.ID().String(),
		ConversationID: message.ConversationID().String(),
		Role:           string(message.Role()),
		Text:           message.Text(),
		CreatedAt:      utils.FormatRFC3339(message.CreatedAt()),
	}
}
