package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/juancgarza/memex/domain/config"
	"github.com/juancgarza/memex/domain/core/aggregates"
	"github.com/juancgarza/memex/infrastructure/persistence/memory"
)

// failingEdgeRepo fails every Save after the first allowed writes
type failingEdgeRepo struct {
	*memory.EdgeRepository
	allowed int
	saves   int
}

func (r *failingEdgeRepo) Save(ctx context.Context, edge *aggregates.Edge) error {
	r.saves++
	if r.saves > r.allowed {
		return errors.New("write capacity exceeded")
	}
	return r.EdgeRepository.Save(ctx, edge)
}

func TestPercentFormatter(t *testing.T) {
	assert.Equal(t, "87%", PercentFormatter(0.87))
	assert.Equal(t, "87%", PercentFormatter(0.874))
	assert.Equal(t, "88%", PercentFormatter(0.875))
	assert.Equal(t, "100%", PercentFormatter(1))
	assert.Equal(t, "0%", PercentFormatter(0))
}

func TestMaterializeLinksCreatesLabeledEdges(t *testing.T) {
	ctx := context.Background()
	edgeRepo := memory.NewEdgeRepository()
	publisher := &capturingPublisher{}
	m := NewLinkMaterializer(edgeRepo, publisher, config.DefaultDomainConfig(), zap.NewNop())

	source := newTestNote(t, "alice", "Source", "query text")
	hitNote := newTestNote(t, "alice", "Hit", "related")
	hitMessage := newTestMessage(t, source.ID(), "alice", "related message")

	related := &RelatednessResult{
		Notes:    []RelatedNote{{Note: hitNote, Score: 0.87}},
		Messages: []RelatedMessage{{Message: hitMessage, Score: 0.62}},
	}

	created, err := m.MaterializeLinks(ctx, "alice", source.ID(), related, PercentFormatter)
	require.NoError(t, err)
	require.Len(t, created, 2)

	assert.Equal(t, source.ID(), created[0].SourceID())
	assert.Equal(t, hitNote.ID(), created[0].TargetID())
	assert.Equal(t, "87%", created[0].Label())
	assert.Equal(t, aggregates.EdgeOriginMaterialized, created[0].Origin())

	assert.Equal(t, hitMessage.ID(), created[1].TargetID())
	assert.Equal(t, "62%", created[1].Label())

	persisted, err := edgeRepo.GetByOwnerID(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, persisted, 2)

	assert.Contains(t, publisher.eventTypes(), "edges.materialized")
}

func TestMaterializeLinksSkipsSource(t *testing.T) {
	ctx := context.Background()
	edgeRepo := memory.NewEdgeRepository()
	m := NewLinkMaterializer(edgeRepo, nil, config.DefaultDomainConfig(), zap.NewNop())

	source := newTestNote(t, "alice", "Source", "query text")
	other := newTestNote(t, "alice", "Other", "related")

	// The source's own text usually makes it the top hit
	related := &RelatednessResult{
		Notes: []RelatedNote{
			{Note: source, Score: 0.99},
			{Note: other, Score: 0.75},
		},
	}

	created, err := m.MaterializeLinks(ctx, "alice", source.ID(), related, PercentFormatter)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, other.ID(), created[0].TargetID())
}

func TestMaterializeLinksPartialFailureKeepsCreatedEdges(t *testing.T) {
	ctx := context.Background()
	edgeRepo := &failingEdgeRepo{EdgeRepository: memory.NewEdgeRepository(), allowed: 1}
	m := NewLinkMaterializer(edgeRepo, nil, config.DefaultDomainConfig(), zap.NewNop())

	source := newTestNote(t, "alice", "Source", "query text")
	first := newTestNote(t, "alice", "First", "a")
	second := newTestNote(t, "alice", "Second", "b")

	related := &RelatednessResult{
		Notes: []RelatedNote{
			{Note: first, Score: 0.9},
			{Note: second, Score: 0.8},
		},
	}

	created, err := m.MaterializeLinks(ctx, "alice", source.ID(), related, PercentFormatter)
	require.Error(t, err)

	// The first edge survives the failure part-way
	require.Len(t, created, 1)
	assert.Equal(t, first.ID(), created[0].TargetID())

	persisted, err := edgeRepo.GetByOwnerID(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, persisted, 1)
}

func TestMaterializeLinksDefaultsFormatter(t *testing.T) {
	ctx := context.Background()
	m := NewLinkMaterializer(memory.NewEdgeRepository(), nil, config.DefaultDomainConfig(), zap.NewNop())

	source := newTestNote(t, "alice", "Source", "x")
	hit := newTestNote(t, "alice", "Hit", "y")
	related := &RelatednessResult{Notes: []RelatedNote{{Note: hit, Score: 0.5}}}

	created, err := m.MaterializeLinks(ctx, "alice", source.ID(), related, nil)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "50%", created[0].Label())
}

func TestMaterializeLinksValidatesInput(t *testing.T) {
	m := NewLinkMaterializer(memory.NewEdgeRepository(), nil, config.DefaultDomainConfig(), zap.NewNop())
	source := newTestNote(t, "alice", "Source", "x")
	related := &RelatednessResult{}

	_, err := m.MaterializeLinks(context.Background(), "", source.ID(), related, nil)
	assert.Error(t, err)
}
