package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/juancgarza/memex/application/ports"
	"github.com/juancgarza/memex/domain/config"
	"github.com/juancgarza/memex/domain/core/valueobjects"
	"github.com/juancgarza/memex/infrastructure/persistence/memory"
)

// testVector builds a full-dimension vector with a distinguishing component
func testVector(component int) []float32 {
	v := make([]float32, valueobjects.EmbeddingDimension)
	v[component%valueobjects.EmbeddingDimension] = 1
	return v
}

func newStore(noteRepo *memory.NoteRepository, messageRepo *memory.MessageRepository, index *fakeIndex, publisher *capturingPublisher) *EmbeddingStore {
	var bus ports.EventPublisher
	if publisher != nil {
		bus = publisher
	}
	return NewEmbeddingStore(noteRepo, messageRepo, index, bus, config.DefaultDomainConfig(), zap.NewNop())
}

func TestSetEmbeddingPersistsAndIndexes(t *testing.T) {
	ctx := context.Background()
	noteRepo := memory.NewNoteRepository()
	index := newFakeIndex()
	publisher := &capturingPublisher{}
	store := newStore(noteRepo, memory.NewMessageRepository(), index, publisher)

	note := newTestNote(t, "alice", "Title", "body")
	require.NoError(t, noteRepo.Save(ctx, note))

	ref := EntityRef{OwnerID: "alice", Collection: ports.CollectionNotes, EntityID: note.ID()}
	vector := testVector(1)
	require.NoError(t, store.SetEmbedding(ctx, ref, vector))

	persisted, err := noteRepo.GetByID(ctx, "alice", note.ID())
	require.NoError(t, err)
	assert.False(t, persisted.Embedding().IsAbsent())
	assert.Equal(t, vector, persisted.Embedding().Vector())

	indexKey := ports.CollectionNotes + "/alice/" + note.ID().String()
	assert.Equal(t, vector, index.stored[indexKey])

	assert.Contains(t, publisher.eventTypes(), "embedding.stored")
}

func TestSetEmbeddingOverwrites(t *testing.T) {
	ctx := context.Background()
	noteRepo := memory.NewNoteRepository()
	index := newFakeIndex()
	store := newStore(noteRepo, memory.NewMessageRepository(), index, nil)

	note := newTestNote(t, "alice", "Title", "body")
	require.NoError(t, noteRepo.Save(ctx, note))
	ref := EntityRef{OwnerID: "alice", Collection: ports.CollectionNotes, EntityID: note.ID()}

	require.NoError(t, store.SetEmbedding(ctx, ref, testVector(1)))
	second := testVector(2)
	require.NoError(t, store.SetEmbedding(ctx, ref, second))

	got, err := store.GetEmbedding(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestSetEmbeddingDropsWriteForDeletedEntity(t *testing.T) {
	ctx := context.Background()
	index := newFakeIndex()
	store := newStore(memory.NewNoteRepository(), memory.NewMessageRepository(), index, nil)

	// The note was deleted between enqueue and processing
	gone := newTestNote(t, "alice", "Gone", "x")
	ref := EntityRef{OwnerID: "alice", Collection: ports.CollectionNotes, EntityID: gone.ID()}

	require.NoError(t, store.SetEmbedding(ctx, ref, testVector(1)))
	assert.Empty(t, index.stored)
}

func TestSetEmbeddingOnMessage(t *testing.T) {
	ctx := context.Background()
	messageRepo := memory.NewMessageRepository()
	index := newFakeIndex()
	store := newStore(memory.NewNoteRepository(), messageRepo, index, nil)

	holder := newTestNote(t, "alice", "conv", "x")
	message := newTestMessage(t, holder.ID(), "alice", "hello")
	require.NoError(t, messageRepo.Save(ctx, message))

	ref := EntityRef{OwnerID: "alice", Collection: ports.CollectionMessages, EntityID: message.ID()}
	vector := testVector(3)
	require.NoError(t, store.SetEmbedding(ctx, ref, vector))

	got, err := store.GetEmbedding(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, vector, got)
}

func TestSetEmbeddingHonorsConfiguredDimension(t *testing.T) {
	ctx := context.Background()
	noteRepo := memory.NewNoteRepository()
	index := newFakeIndex()

	cfg := config.DefaultDomainConfig()
	cfg.EmbeddingDimension = 8
	store := NewEmbeddingStore(noteRepo, memory.NewMessageRepository(), index, nil, cfg, zap.NewNop())

	note := newTestNote(t, "alice", "Title", "body")
	require.NoError(t, noteRepo.Save(ctx, note))
	ref := EntityRef{OwnerID: "alice", Collection: ports.CollectionNotes, EntityID: note.ID()}

	require.NoError(t, store.SetEmbedding(ctx, ref, make([]float32, 8)))

	// A vector of any other length is a validation error, not a silent write
	err := store.SetEmbedding(ctx, ref, make([]float32, valueobjects.EmbeddingDimension))
	assert.Error(t, err)
}

func TestSetEmbeddingRejectsUnknownCollection(t *testing.T) {
	store := newStore(memory.NewNoteRepository(), memory.NewMessageRepository(), newFakeIndex(), nil)
	note := newTestNote(t, "alice", "Title", "x")

	err := store.SetEmbedding(context.Background(), EntityRef{OwnerID: "alice", Collection: "bogus", EntityID: note.ID()}, testVector(1))
	assert.Error(t, err)
}

func TestGetEmbeddingAbsentIsNil(t *testing.T) {
	ctx := context.Background()
	noteRepo := memory.NewNoteRepository()
	store := newStore(noteRepo, memory.NewMessageRepository(), newFakeIndex(), nil)

	note := newTestNote(t, "alice", "Title", "body")
	require.NoError(t, noteRepo.Save(ctx, note))

	got, err := store.GetEmbedding(ctx, EntityRef{OwnerID: "alice", Collection: ports.CollectionNotes, EntityID: note.ID()})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRemoveFromIndex(t *testing.T) {
	ctx := context.Background()
	noteRepo := memory.NewNoteRepository()
	index := newFakeIndex()
	store := newStore(noteRepo, memory.NewMessageRepository(), index, nil)

	note := newTestNote(t, "alice", "Title", "body")
	require.NoError(t, noteRepo.Save(ctx, note))
	ref := EntityRef{OwnerID: "alice", Collection: ports.CollectionNotes, EntityID: note.ID()}
	require.NoError(t, store.SetEmbedding(ctx, ref, testVector(1)))

	require.NoError(t, store.RemoveFromIndex(ctx, ref))
	assert.Empty(t, index.stored)

	// Removing again is a no-op
	require.NoError(t, store.RemoveFromIndex(ctx, ref))
}
