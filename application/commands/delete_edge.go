package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/juancgarza/memex/application/ports"
	"github.com/juancgarza/memex/domain/core/valueobjects"
	"github.com/juancgarza/memex/pkg/utils"
)

// DeleteEdgeCommand represents the command to delete a single edge
type DeleteEdgeCommand struct {
	OwnerID string `json:"owner_id" validate:"required"`
	EdgeID  string `json:"edge_id" validate:"required,uuid"`
}

// Validate implements bus.Command
func (c DeleteEdgeCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// DeleteEdgeHandler handles the DeleteEdgeCommand
type DeleteEdgeHandler struct {
	edgeRepo ports.EdgeRepository
	logger   *zap.Logger
}

// NewDeleteEdgeHandler creates a new handler instance
func NewDeleteEdgeHandler(edgeRepo ports.EdgeRepository, logger *zap.Logger) *DeleteEdgeHandler {
	return &DeleteEdgeHandler{
		edgeRepo: edgeRepo,
		logger:   logger,
	}
}

// Handle executes the delete edge command
func (h *DeleteEdgeHandler) Handle(ctx context.Context, cmd DeleteEdgeCommand) error {
	edgeID, err := valueobjects.NewEntityIDFromString(cmd.EdgeID)
	if err != nil {
		return err
	}

	// Owner check doubles as existence check
	if _, err := h.edgeRepo.GetByID(ctx, cmd.OwnerID, edgeID); err != nil {
		return err
	}

	if err := h.edgeRepo.Delete(ctx, cmd.OwnerID, edgeID); err != nil {
		return err
	}

	h.logger.Info("Edge deleted",
		zap.String("edgeID", cmd.EdgeID),
		zap.String("ownerID", cmd.OwnerID),
	)
	return nil
}
