package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/juancgarza/memex/application/commands"
	"github.com/juancgarza/memex/application/commands/bus"
	"github.com/juancgarza/memex/domain/core/aggregates"
	"github.com/juancgarza/memex/pkg/auth"
	"github.com/juancgarza/memex/pkg/common"
	pkgerrors "github.com/juancgarza/memex/pkg/errors"
	"github.com/juancgarza/memex/pkg/utils"
)

// EdgeHandler handles edge-related HTTP requests
type EdgeHandler struct {
	commandBus *bus.CommandBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewEdgeHandler creates a new edge handler
func NewEdgeHandler(
	commandBus *bus.CommandBus,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *EdgeHandler {
	return &EdgeHandler{
		commandBus: commandBus,
		errors:     errorHandler,
		logger:     logger,
	}
}

// CreateEdgeRequest represents the request body for creating an edge
type CreateEdgeRequest struct {
	SourceID string `json:"sourceId" validate:"required,uuid"`
	TargetID string `json:"targetId" validate:"required,uuid"`
	Label    string `json:"label,omitempty" validate:"max=200"`
}

// CreateEdge handles POST /edges
func (h *EdgeHandler) CreateEdge(w http.ResponseWriter, r *http.Request) {
	var req CreateEdgeRequest
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

	result, err := h.commandBus.Send(r.Context(), commands.CreateEdgeCommand{
		OwnerID:  userCtx.UserID,
		SourceID: req.SourceID,
		TargetID: req.TargetID,
		Label:    req.Label,
	})
	if err != nil {
		h.logger.Error("Failed to create edge",
			zap.String("userID", userCtx.UserID),
			zap.Error(err),
		)
		h.errors.Handle(w, r, err)
		return
	}

	edge := result.(*aggregates.Edge)
	common.RespondJSON(w, http.StatusCreated, toEdgeResponse(edge))
}

// DeleteEdge handles DELETE /edges/{edgeID}
func (h *EdgeHandler) DeleteEdge(w http.ResponseWriter, r *http.Request) {
	edgeID := chi.URLParam(r, "edgeID")
	if edgeID == "" {
		common.RespondError(w, http.StatusBadRequest, "MISSING_PARAM", "Edge ID is required")
		return
	}
	if _, err := uuid.Parse(edgeID); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_PARAM", "Invalid edge ID format")
		return
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	if _, err := h.commandBus.Send(r.Context(), commands.DeleteEdgeCommand{
		OwnerID: userCtx.UserID,
		EdgeID:  edgeID,
	}); err != nil {
		h.logger.Error("Failed to delete edge",
			zap.String("edgeID", edgeID),
			zap.String("userID", userCtx.UserID),
			zap.Error(err),
		)
		h.errors.Handle(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
