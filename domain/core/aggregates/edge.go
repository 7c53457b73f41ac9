package aggregates

import (
	"time"

	"github.com/juancgarza/memex/domain/config"
	"github.com/juancgarza/memex/domain/core/valueobjects"
	"github.com/juancgarza/memex/domain/events"
	pkgerrors "github.com/juancgarza/memex/pkg/errors"
)

// EdgeOrigin distinguishes user-created edges from materialized ones
type EdgeOrigin string

const (
	EdgeOriginManual       EdgeOrigin = "manual"
	EdgeOriginMaterialized EdgeOrigin = "materialized"
)

// Edge is a directed, labeled connection between two entities owned by the
// same user. Duplicate edges between a pair are allowed; self-loops are not
// unless the domain config says otherwise.
type Edge struct {
	id        valueobjects.EntityID
	ownerID   string
	sourceID  valueobjects.EntityID
	targetID  valueobjects.EntityID
	label     string
	origin    EdgeOrigin
	createdAt time.Time

	events []events.DomainEvent
}

// NewEdge creates an edge with business rule validation
func NewEdge(ownerID string, sourceID, targetID valueobjects.EntityID, label string, origin EdgeOrigin, cfg *config.DomainConfig) (*Edge, error) {
	if ownerID == "" {
		return nil, pkgerrors.NewValidationError("ownerID cannot be empty")
	}
	if sourceID.IsZero() || targetID.IsZero() {
		return nil, pkgerrors.NewValidationError("sourceID and targetID cannot be empty")
	}
	if sourceID.Equals(targetID) && !cfg.AllowSelfConnections {
		return nil, pkgerrors.NewValidationError("self-connections are not allowed")
	}
	if origin == "" {
		origin = EdgeOriginManual
	}

	now := time.Now()
	edge := &Edge{
		id:        valueobjects.NewEntityID(),
		ownerID:   ownerID,
		sourceID:  sourceID,
		targetID:  targetID,
		label:     label,
		origin:    origin,
		createdAt: now,
		events:    []events.DomainEvent{},
	}

	edge.addEvent(events.NewEdgeCreated(edge.id.String(), ownerID, sourceID.String(), targetID.String(), label, now))

	return edge, nil
}

// ReconstructEdge rebuilds an edge from repository data. No events are raised.
func ReconstructEdge(id valueobjects.EntityID, ownerID string, sourceID, targetID valueobjects.EntityID, label string, origin EdgeOrigin, createdAt time.Time) (*Edge, error) {
	if ownerID == "" {
		return nil, pkgerrors.NewValidationError("ownerID cannot be empty")
	}
	return &Edge{
		id:        id,
		ownerID:   ownerID,
		sourceID:  sourceID,
		targetID:  targetID,
		label:     label,
		origin:    origin,
		createdAt: createdAt,
		events:    []events.DomainEvent{},
	}, nil
}

func (e *Edge) ID() valueobjects.EntityID       { return e.id }
func (e *Edge) OwnerID() string                 { return e.ownerID }
func (e *Edge) SourceID() valueobjects.EntityID { return e.sourceID }
func (e *Edge) TargetID() valueobjects.EntityID { return e.targetID }
func (e *Edge) Label() string                   { return e.label }
func (e *Edge) Origin() EdgeOrigin              { return e.origin }
func (e *Edge) CreatedAt() time.Time            { return e.createdAt }

// Touches reports whether the edge references the given entity on either end
func (e *Edge) Touches(id valueobjects.EntityID) bool {
	return e.sourceID.Equals(id) || e.targetID.Equals(id)
}

// GetUncommittedEvents returns all uncommitted domain events
func (e *Edge) GetUncommittedEvents() []events.DomainEvent {
	return e.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (e *Edge) MarkEventsAsCommitted() {
	e.events = []events.DomainEvent{}
}

func (e *Edge) addEvent(event events.DomainEvent) {
	e.events = append(e.events, event)
}
