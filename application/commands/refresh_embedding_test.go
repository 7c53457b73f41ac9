package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/juancgarza/memex/application/ports"
	"github.com/juancgarza/memex/application/services"
	"github.com/juancgarza/memex/domain/config"
	"github.com/juancgarza/memex/domain/core/valueobjects"
	"github.com/juancgarza/memex/infrastructure/persistence/memory"
)

func fullVector() []float32 {
	v := make([]float32, valueobjects.EmbeddingDimension)
	v[0] = 1
	return v
}

func TestRefreshEmbedding(t *testing.T) {
	ctx := context.Background()
	noteRepo := memory.NewNoteRepository()
	index := newStubIndex()
	logger := zap.NewNop()
	store := services.NewEmbeddingStore(noteRepo, memory.NewMessageRepository(), index, nil, config.DefaultDomainConfig(), logger)
	handler := NewRefreshEmbeddingHandler(noteRepo, memory.NewMessageRepository(), &stubEmbedder{vector: fullVector()}, store, logger)

	note := mustNote(t, "alice", "Title", "body to embed")
	require.NoError(t, noteRepo.Save(ctx, note))

	require.NoError(t, handler.Handle(ctx, RefreshEmbeddingCommand{
		OwnerID:    "alice",
		EntityID:   note.ID().String(),
		Collection: ports.CollectionNotes,
	}))

	persisted, err := noteRepo.GetByID(ctx, "alice", note.ID())
	require.NoError(t, err)
	assert.False(t, persisted.Embedding().IsAbsent())

	indexKey := ports.CollectionNotes + "/alice/" + note.ID().String()
	assert.NotNil(t, index.stored[indexKey])
}

func TestRefreshEmbeddingGoneEntity(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()
	noteRepo := memory.NewNoteRepository()
	store := services.NewEmbeddingStore(noteRepo, memory.NewMessageRepository(), newStubIndex(), nil, config.DefaultDomainConfig(), logger)
	handler := NewRefreshEmbeddingHandler(noteRepo, memory.NewMessageRepository(), &stubEmbedder{vector: fullVector()}, store, logger)

	gone := mustNote(t, "alice", "Gone", "deleted before the job ran")

	err := handler.Handle(ctx, RefreshEmbeddingCommand{
		OwnerID:    "alice",
		EntityID:   gone.ID().String(),
		Collection: ports.CollectionNotes,
	})
	assert.ErrorIs(t, err, ErrEntityGone)
}

func TestRefreshEmbeddingProviderErrorPropagates(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()
	noteRepo := memory.NewNoteRepository()
	store := services.NewEmbeddingStore(noteRepo, memory.NewMessageRepository(), newStubIndex(), nil, config.DefaultDomainConfig(), logger)

	providerErr := errors.New("rate limited")
	handler := NewRefreshEmbeddingHandler(noteRepo, memory.NewMessageRepository(), &stubEmbedder{err: providerErr}, store, logger)

	note := mustNote(t, "alice", "Title", "body")
	require.NoError(t, noteRepo.Save(ctx, note))

	err := handler.Handle(ctx, RefreshEmbeddingCommand{
		OwnerID:    "alice",
		EntityID:   note.ID().String(),
		Collection: ports.CollectionNotes,
	})
	assert.ErrorIs(t, err, providerErr)
}
