package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/juancgarza/memex/application/ports"
	"github.com/juancgarza/memex/application/services"
	"github.com/juancgarza/memex/domain/config"
	"github.com/juancgarza/memex/domain/core/aggregates"
	"github.com/juancgarza/memex/infrastructure/persistence/memory"
	pkgerrors "github.com/juancgarza/memex/pkg/errors"
)

func TestMaterializeLinks(t *testing.T) {
	ctx := context.Background()
	cfg := config.DefaultDomainConfig()
	noteRepo := memory.NewNoteRepository()
	edgeRepo := memory.NewEdgeRepository()
	index := newStubIndex()
	logger := zap.NewNop()

	source := mustNote(t, "alice", "Source", "graph theory basics")
	related := mustNote(t, "alice", "Related", "nodes and edges")
	require.NoError(t, noteRepo.Save(ctx, source))
	require.NoError(t, noteRepo.Save(ctx, related))

	// The source's own text makes it the top hit; it must not self-link
	index.matches[ports.CollectionNotes] = []ports.Match{
		{ID: "alice/" + source.ID().String(), Score: 0.99},
		{ID: "alice/" + related.ID().String(), Score: 0.87},
	}

	engine := services.NewRelatednessEngine(noteRepo, memory.NewMessageRepository(), &stubEmbedder{vector: []float32{1}}, index, cfg, logger)
	materializer := services.NewLinkMaterializer(edgeRepo, nil, cfg, logger)
	handler := NewMaterializeLinksHandler(noteRepo, engine, materializer, logger)

	edges, err := handler.Handle(ctx, MaterializeLinksCommand{
		OwnerID: "alice",
		NoteID:  source.ID().String(),
		Limit:   5,
	})
	require.NoError(t, err)

	require.Len(t, edges, 1)
	assert.Equal(t, source.ID(), edges[0].SourceID())
	assert.Equal(t, related.ID(), edges[0].TargetID())
	assert.Equal(t, "87%", edges[0].Label())
	assert.Equal(t, aggregates.EdgeOriginMaterialized, edges[0].Origin())

	persisted, err := edgeRepo.GetByOwnerID(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, persisted, 1)
}

func TestMaterializeLinksForeignNoteIsNotFound(t *testing.T) {
	ctx := context.Background()
	cfg := config.DefaultDomainConfig()
	noteRepo := memory.NewNoteRepository()
	logger := zap.NewNop()

	note := mustNote(t, "alice", "Private", "x")
	require.NoError(t, noteRepo.Save(ctx, note))

	engine := services.NewRelatednessEngine(noteRepo, memory.NewMessageRepository(), &stubEmbedder{vector: []float32{1}}, newStubIndex(), cfg, logger)
	materializer := services.NewLinkMaterializer(memory.NewEdgeRepository(), nil, cfg, logger)
	handler := NewMaterializeLinksHandler(noteRepo, engine, materializer, logger)

	_, err := handler.Handle(ctx, MaterializeLinksCommand{OwnerID: "mallory", NoteID: note.ID().String()})
	assert.True(t, pkgerrors.IsNotFound(err))
}
