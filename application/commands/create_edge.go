package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/juancgarza/memex/application/ports"
	"github.com/juancgarza/memex/domain/config"
	"github.com/juancgarza/memex/domain/core/aggregates"
	"github.com/juancgarza/memex/domain/core/valueobjects"
	pkgerrors "github.com/juancgarza/memex/pkg/errors"
	"github.com/juancgarza/memex/pkg/utils"
)

// CreateEdgeCommand represents the command to create a manual edge between
// two entities the caller owns
type CreateEdgeCommand struct {
	OwnerID  string `json:"owner_id" validate:"required"`
	SourceID string `json:"source_id" validate:"required,uuid"`
	TargetID string `json:"target_id" validate:"required,uuid"`
	Label    string `json:"label" validate:"max=200"`
}

// Validate implements bus.Command
func (c CreateEdgeCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// CreateEdgeHandler handles the CreateEdgeCommand
type CreateEdgeHandler struct {
	edgeRepo    ports.EdgeRepository
	noteRepo    ports.NoteRepository
	messageRepo ports.MessageRepository
	eventBus    ports.EventPublisher
	cfg         *config.DomainConfig
	logger      *zap.Logger
}

// NewCreateEdgeHandler creates a new handler instance
func NewCreateEdgeHandler(
	edgeRepo ports.EdgeRepository,
	noteRepo ports.NoteRepository,
	messageRepo ports.MessageRepository,
	eventBus ports.EventPublisher,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *CreateEdgeHandler {
	return &CreateEdgeHandler{
		edgeRepo:    edgeRepo,
		noteRepo:    noteRepo,
		messageRepo: messageRepo,
		eventBus:    eventBus,
		cfg:         cfg,
		logger:      logger,
	}
}

// Handle executes the create edge command. Both endpoints must resolve to
// an entity the caller owns; duplicates of an existing (source, target)
// pair are allowed and get their own identity.
func (h *CreateEdgeHandler) Handle(ctx context.Context, cmd CreateEdgeCommand) (*aggregates.Edge, error) {
	sourceID, err := valueobjects.NewEntityIDFromString(cmd.SourceID)
	if err != nil {
		return nil, err
	}
	targetID, err := valueobjects.NewEntityIDFromString(cmd.TargetID)
	if err != nil {
		return nil, err
	}

	if err := h.checkOwned(ctx, cmd.OwnerID, sourceID); err != nil {
		return nil, err
	}
	if err := h.checkOwned(ctx, cmd.OwnerID, targetID); err != nil {
		return nil, err
	}

	edge, err := aggregates.NewEdge(cmd.OwnerID, sourceID, targetID, cmd.Label, aggregates.EdgeOriginManual, h.cfg)
	if err != nil {
		return nil, err
	}

	if err := h.edgeRepo.Save(ctx, edge); err != nil {
		return nil, err
	}

	if err := h.eventBus.PublishBatch(ctx, edge.GetUncommittedEvents()); err != nil {
		h.logger.Warn("Failed to publish edge events", zap.Error(err))
	}
	edge.MarkEventsAsCommitted()

	return edge, nil
}

// checkOwned resolves the id as a note, then as a message, under the
// caller's ownership. Both misses mean the endpoint is absent for this
// caller, whatever the reason.
func (h *CreateEdgeHandler) checkOwned(ctx context.Context, ownerID string, id valueobjects.EntityID) error {
	if _, err := h.noteRepo.GetByID(ctx, ownerID, id); err == nil {
		return nil
	} else if !pkgerrors.IsNotFound(err) {
		return err
	}
	if _, err := h.messageRepo.GetByID(ctx, ownerID, id); err == nil {
		return nil
	} else if !pkgerrors.IsNotFound(err) {
		return err
	}
	return pkgerrors.NewNotFoundError("entity")
}
