package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/juancgarza/memex/application/ports"
	"github.com/juancgarza/memex/application/services"
	"github.com/juancgarza/memex/domain/core/aggregates"
	"github.com/juancgarza/memex/domain/core/valueobjects"
	"github.com/juancgarza/memex/pkg/utils"
)

// MaterializeLinksCommand finds entities related to a note's content and
// persists one labeled edge per hit
type MaterializeLinksCommand struct {
	OwnerID string `json:"owner_id" validate:"required"`
	NoteID  string `json:"note_id" validate:"required,uuid"`
	Limit   int    `json:"limit" validate:"omitempty,min=1,max=50"`
}

// Validate implements bus.Command
func (c MaterializeLinksCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// MaterializeLinksHandler runs the relatedness engine over a note's content
// and feeds the result to the link materializer
type MaterializeLinksHandler struct {
	noteRepo     ports.NoteRepository
	engine       *services.RelatednessEngine
	materializer *services.LinkMaterializer
	logger       *zap.Logger
}

// NewMaterializeLinksHandler creates a new handler instance
func NewMaterializeLinksHandler(
	noteRepo ports.NoteRepository,
	engine *services.RelatednessEngine,
	materializer *services.LinkMaterializer,
	logger *zap.Logger,
) *MaterializeLinksHandler {
	return &MaterializeLinksHandler{
		noteRepo:     noteRepo,
		engine:       engine,
		materializer: materializer,
		logger:       logger,
	}
}

// Handle executes the materialize links command. The note's own text is the
// query, so the note itself usually comes back as the top hit; the
// materializer drops it by id comparison.
func (h *MaterializeLinksHandler) Handle(ctx context.Context, cmd MaterializeLinksCommand) ([]*aggregates.Edge, error) {
	noteID, err := valueobjects.NewEntityIDFromString(cmd.NoteID)
	if err != nil {
		return nil, err
	}

	note, err := h.noteRepo.GetByID(ctx, cmd.OwnerID, noteID)
	if err != nil {
		return nil, err
	}

	related, err := h.engine.FindRelated(ctx, cmd.OwnerID, note.Content().Text(), cmd.Limit)
	if err != nil {
		return nil, err
	}

	edges, err := h.materializer.MaterializeLinks(ctx, cmd.OwnerID, noteID, related, services.PercentFormatter)
	if err != nil {
		// Partial failure: edges already created stay in place
		h.logger.Error("Link materialization failed",
			zap.String("noteID", cmd.NoteID),
			zap.Int("created", len(edges)),
			zap.Error(err),
		)
		return edges, err
	}

	h.logger.Info("Links materialized",
		zap.String("noteID", cmd.NoteID),
		zap.Int("edges", len(edges)),
	)
	return edges, nil
}
