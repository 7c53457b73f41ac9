package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/juancgarza/memex/domain/config"
	"github.com/juancgarza/memex/domain/core/aggregates"
	"github.com/juancgarza/memex/domain/core/entities"
	"github.com/juancgarza/memex/infrastructure/persistence/memory"
	pkgerrors "github.com/juancgarza/memex/pkg/errors"
)

func newEdgeHandler(noteRepo *memory.NoteRepository, messageRepo *memory.MessageRepository, edgeRepo *memory.EdgeRepository) *CreateEdgeHandler {
	return NewCreateEdgeHandler(edgeRepo, noteRepo, messageRepo, &stubPublisher{}, config.DefaultDomainConfig(), zap.NewNop())
}

func TestCreateEdge(t *testing.T) {
	ctx := context.Background()
	noteRepo := memory.NewNoteRepository()
	edgeRepo := memory.NewEdgeRepository()
	handler := newEdgeHandler(noteRepo, memory.NewMessageRepository(), edgeRepo)

	source := mustNote(t, "alice", "Source", "x")
	target := mustNote(t, "alice", "Target", "y")
	require.NoError(t, noteRepo.Save(ctx, source))
	require.NoError(t, noteRepo.Save(ctx, target))

	edge, err := handler.Handle(ctx, CreateEdgeCommand{
		OwnerID:  "alice",
		SourceID: source.ID().String(),
		TargetID: target.ID().String(),
		Label:    "expands on",
	})
	require.NoError(t, err)

	assert.Equal(t, source.ID(), edge.SourceID())
	assert.Equal(t, target.ID(), edge.TargetID())
	assert.Equal(t, "expands on", edge.Label())
	assert.Equal(t, aggregates.EdgeOriginManual, edge.Origin())

	persisted, err := edgeRepo.GetByID(ctx, "alice", edge.ID())
	require.NoError(t, err)
	assert.Equal(t, edge.ID(), persisted.ID())
}

func TestCreateEdgeToMessage(t *testing.T) {
	ctx := context.Background()
	noteRepo := memory.NewNoteRepository()
	messageRepo := memory.NewMessageRepository()
	handler := newEdgeHandler(noteRepo, messageRepo, memory.NewEdgeRepository())

	note := mustNote(t, "alice", "Note", "x")
	require.NoError(t, noteRepo.Save(ctx, note))
	message, err := entities.NewMessage(note.ID(), "alice", entities.RoleUser, "a message endpoint")
	require.NoError(t, err)
	require.NoError(t, messageRepo.Save(ctx, message))

	edge, err := handler.Handle(ctx, CreateEdgeCommand{
		OwnerID:  "alice",
		SourceID: note.ID().String(),
		TargetID: message.ID().String(),
	})
	require.NoError(t, err)
	assert.Equal(t, message.ID(), edge.TargetID())
}

func TestCreateEdgeForeignEndpointIsNotFound(t *testing.T) {
	ctx := context.Background()
	noteRepo := memory.NewNoteRepository()
	handler := newEdgeHandler(noteRepo, memory.NewMessageRepository(), memory.NewEdgeRepository())

	mine := mustNote(t, "alice", "Mine", "x")
	theirs := mustNote(t, "bob", "Theirs", "y")
	require.NoError(t, noteRepo.Save(ctx, mine))
	require.NoError(t, noteRepo.Save(ctx, theirs))

	_, err := handler.Handle(ctx, CreateEdgeCommand{
		OwnerID:  "alice",
		SourceID: mine.ID().String(),
		TargetID: theirs.ID().String(),
	})
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestCreateEdgeRejectsSelfLoop(t *testing.T) {
	ctx := context.Background()
	noteRepo := memory.NewNoteRepository()
	handler := newEdgeHandler(noteRepo, memory.NewMessageRepository(), memory.NewEdgeRepository())

	note := mustNote(t, "alice", "Note", "x")
	require.NoError(t, noteRepo.Save(ctx, note))

	_, err := handler.Handle(ctx, CreateEdgeCommand{
		OwnerID:  "alice",
		SourceID: note.ID().String(),
		TargetID: note.ID().String(),
	})
	assert.Error(t, err)
}

func TestCreateEdgeAllowsDuplicatePairs(t *testing.T) {
	ctx := context.Background()
	noteRepo := memory.NewNoteRepository()
	edgeRepo := memory.NewEdgeRepository()
	handler := newEdgeHandler(noteRepo, memory.NewMessageRepository(), edgeRepo)

	source := mustNote(t, "alice", "Source", "x")
	target := mustNote(t, "alice", "Target", "y")
	require.NoError(t, noteRepo.Save(ctx, source))
	require.NoError(t, noteRepo.Save(ctx, target))

	cmd := CreateEdgeCommand{OwnerID: "alice", SourceID: source.ID().String(), TargetID: target.ID().String()}
	first, err := handler.Handle(ctx, cmd)
	require.NoError(t, err)
	second, err := handler.Handle(ctx, cmd)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID(), second.ID())
}

func TestDeleteEdge(t *testing.T) {
	ctx := context.Background()
	edgeRepo := memory.NewEdgeRepository()
	handler := NewDeleteEdgeHandler(edgeRepo, zap.NewNop())

	source := mustNote(t, "alice", "Source", "x")
	target := mustNote(t, "alice", "Target", "y")
	edge, err := aggregates.NewEdge("alice", source.ID(), target.ID(), "", aggregates.EdgeOriginManual, config.DefaultDomainConfig())
	require.NoError(t, err)
	require.NoError(t, edgeRepo.Save(ctx, edge))

	require.NoError(t, handler.Handle(ctx, DeleteEdgeCommand{OwnerID: "alice", EdgeID: edge.ID().String()}))

	_, err = edgeRepo.GetByID(ctx, "alice", edge.ID())
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestDeleteEdgeForeignOwnerIsNotFound(t *testing.T) {
	ctx := context.Background()
	edgeRepo := memory.NewEdgeRepository()
	handler := NewDeleteEdgeHandler(edgeRepo, zap.NewNop())

	source := mustNote(t, "alice", "Source", "x")
	target := mustNote(t, "alice", "Target", "y")
	edge, err := aggregates.NewEdge("alice", source.ID(), target.ID(), "", aggregates.EdgeOriginManual, config.DefaultDomainConfig())
	require.NoError(t, err)
	require.NoError(t, edgeRepo.Save(ctx, edge))

	err = handler.Handle(ctx, DeleteEdgeCommand{OwnerID: "mallory", EdgeID: edge.ID().String()})
	assert.True(t, pkgerrors.IsNotFound(err))
}
