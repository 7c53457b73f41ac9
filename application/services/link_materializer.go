package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/juancgarza/memex/application/ports"
	"github.com/juancgarza/memex/domain/config"
	"github.com/juancgarza/memex/domain/core/aggregates"
	"github.com/juancgarza/memex/domain/core/valueobjects"
	"github.com/juancgarza/memex/domain/events"
	pkgerrors "github.com/juancgarza/memex/pkg/errors"
)

// ScoreFormatter turns a similarity score into an edge label
type ScoreFormatter func(score float32) string

// PercentFormatter renders a score as its nearest whole percent, e.g. "87%"
func PercentFormatter(score float32) string {
	return fmt.Sprintf("%d%%", int(math.Round(float64(score)*100)))
}

// LinkMaterializer turns relatedness results into persisted edges
type LinkMaterializer struct {
	edgeRepo ports.EdgeRepository
	eventBus ports.EventPublisher
	cfg      *config.DomainConfig
	logger   *zap.Logger
}

// NewLinkMaterializer creates a new link materializer
func NewLinkMaterializer(
	edgeRepo ports.EdgeRepository,
	eventBus ports.EventPublisher,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *LinkMaterializer {
	return &LinkMaterializer{
		edgeRepo: edgeRepo,
		eventBus: eventBus,
		cfg:      cfg,
		logger:   logger,
	}
}

// MaterializeLinks creates one edge per related entity, labeled by the
// formatter. The source itself, if present among the hits, is skipped.
//
// Edge creation is per-item and non-transactional: a failure part-way leaves
// the edges already created in place and reports the error.
func (m *LinkMaterializer) MaterializeLinks(
	ctx context.Context,
	ownerID string,
	sourceID valueobjects.EntityID,
	related *RelatednessResult,
	formatter ScoreFormatter,
) ([]*aggregates.Edge, error) {
	if ownerID == "" {
		return nil, pkgerrors.NewValidationError("ownerID cannot be empty")
	}
	if sourceID.IsZero() {
		return nil, pkgerrors.NewValidationError("sourceID cannot be empty")
	}
	if formatter == nil {
		formatter = PercentFormatter
	}

	type hit struct {
		targetID valueobjects.EntityID
		score    float32
	}
	hits := make([]hit, 0, len(related.Notes)+len(related.Messages))
	for _, rn := range related.Notes {
		hits = append(hits, hit{rn.Note.ID(), rn.Score})
	}
	for _, rm := range related.Messages {
		hits = append(hits, hit{rm.Message.ID(), rm.Score})
	}

	created := make([]*aggregates.Edge, 0, len(hits))
	for _, h := range hits {
		if h.targetID.Equals(sourceID) {
			continue
		}

		edge, err := aggregates.NewEdge(ownerID, sourceID, h.targetID, formatter(h.score), aggregates.EdgeOriginMaterialized, m.cfg)
		if err != nil {
			return created, err
		}
		if err := m.edgeRepo.Save(ctx, edge); err != nil {
			m.logger.Error("Edge materialization failed part-way",
				zap.String("sourceID", sourceID.String()),
				zap.String("targetID", h.targetID.String()),
				zap.Int("created", len(created)),
				zap.Error(err),
			)
			return created, err
		}
		edge.MarkEventsAsCommitted()
		created = append(created, edge)
	}

	if m.eventBus != nil && len(created) > 0 {
		edgeIDs := make([]string, len(created))
		for i, e := range created {
			edgeIDs[i] = e.ID().String()
		}
		event := events.NewEdgesMaterialized(sourceID.String(), ownerID, edgeIDs, time.Now())
		if err := m.eventBus.Publish(ctx, event); err != nil {
			m.logger.Warn("Failed to publish materialization event", zap.Error(err))
		}
	}

	return created, nil
}
