package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/juancgarza/memex/application/ports"
	"github.com/juancgarza/memex/domain/config"
	"github.com/juancgarza/memex/infrastructure/persistence/memory"
)

func newEngine(noteRepo *memory.NoteRepository, messageRepo *memory.MessageRepository, embedder *fakeEmbedder, index *fakeIndex) *RelatednessEngine {
	return NewRelatednessEngine(noteRepo, messageRepo, embedder, index, config.DefaultDomainConfig(), zap.NewNop())
}

func TestFindRelatedResolvesOwnedHits(t *testing.T) {
	ctx := context.Background()
	noteRepo := memory.NewNoteRepository()
	messageRepo := memory.NewMessageRepository()
	index := newFakeIndex()
	embedder := &fakeEmbedder{vector: []float32{1, 0, 0}}

	owned := newTestNote(t, "alice", "Graph theory", "nodes and edges")
	require.NoError(t, noteRepo.Save(ctx, owned))
	foreign := newTestNote(t, "bob", "Bob's note", "private")
	require.NoError(t, noteRepo.Save(ctx, foreign))

	index.matches[ports.CollectionNotes] = []ports.Match{
		{ID: "alice/" + owned.ID().String(), Score: 0.91},
		{ID: "bob/" + foreign.ID().String(), Score: 0.88},
	}

	engine := newEngine(noteRepo, messageRepo, embedder, index)
	result, err := engine.FindRelated(ctx, "alice", "graphs", 10)
	require.NoError(t, err)

	// The foreign hit is dropped, not surfaced as an error
	require.Len(t, result.Notes, 1)
	assert.Equal(t, owned.ID(), result.Notes[0].Note.ID())
	assert.InDelta(t, 0.91, result.Notes[0].Score, 0.001)
	assert.Empty(t, result.Messages)
	assert.Equal(t, 1, embedder.calls)
}

func TestFindRelatedDropsStaleIndexEntries(t *testing.T) {
	ctx := context.Background()
	noteRepo := memory.NewNoteRepository()
	index := newFakeIndex()

	note := newTestNote(t, "alice", "Kept", "still here")
	require.NoError(t, noteRepo.Save(ctx, note))
	deleted := newTestNote(t, "alice", "Gone", "deleted after indexing")

	index.matches[ports.CollectionNotes] = []ports.Match{
		{ID: "alice/" + deleted.ID().String(), Score: 0.95},
		{ID: "alice/" + note.ID().String(), Score: 0.80},
		{ID: "malformed-key", Score: 0.70},
	}

	engine := newEngine(noteRepo, memory.NewMessageRepository(), &fakeEmbedder{vector: []float32{1}}, index)
	result, err := engine.FindRelated(ctx, "alice", "anything", 10)
	require.NoError(t, err)

	require.Len(t, result.Notes, 1)
	assert.Equal(t, note.ID(), result.Notes[0].Note.ID())
}

func TestFindRelatedSortsByScoreDescending(t *testing.T) {
	ctx := context.Background()
	noteRepo := memory.NewNoteRepository()
	index := newFakeIndex()

	low := newTestNote(t, "alice", "Low", "a")
	high := newTestNote(t, "alice", "High", "b")
	require.NoError(t, noteRepo.Save(ctx, low))
	require.NoError(t, noteRepo.Save(ctx, high))

	index.matches[ports.CollectionNotes] = []ports.Match{
		{ID: "alice/" + low.ID().String(), Score: 0.40},
		{ID: "alice/" + high.ID().String(), Score: 0.90},
	}

	engine := newEngine(noteRepo, memory.NewMessageRepository(), &fakeEmbedder{vector: []float32{1}}, index)
	result, err := engine.FindRelated(ctx, "alice", "query", 10)
	require.NoError(t, err)

	require.Len(t, result.Notes, 2)
	assert.Equal(t, "High", result.Notes[0].Note.Content().Title())
	assert.Equal(t, "Low", result.Notes[1].Note.Content().Title())
}

func TestFindRelatedSearchesMessagesSeparately(t *testing.T) {
	ctx := context.Background()
	messageRepo := memory.NewMessageRepository()
	index := newFakeIndex()

	conv := newTestNote(t, "alice", "holder", "x") // any entity id works as conversation id
	message := newTestMessage(t, conv.ID(), "alice", "let's discuss graphs")
	require.NoError(t, messageRepo.Save(ctx, message))

	index.matches[ports.CollectionMessages] = []ports.Match{
		{ID: "alice/" + message.ID().String(), Score: 0.77},
	}

	engine := newEngine(memory.NewNoteRepository(), messageRepo, &fakeEmbedder{vector: []float32{1}}, index)
	result, err := engine.FindRelated(ctx, "alice", "graphs", 10)
	require.NoError(t, err)

	assert.Empty(t, result.Notes)
	require.Len(t, result.Messages, 1)
	assert.Equal(t, message.ID(), result.Messages[0].Message.ID())
}

func TestFindRelatedLimitDefaultsAndCaps(t *testing.T) {
	ctx := context.Background()
	cfg := config.DefaultDomainConfig()
	index := newFakeIndex()

	engine := newEngine(memory.NewNoteRepository(), memory.NewMessageRepository(), &fakeEmbedder{vector: []float32{1}}, index)

	_, err := engine.FindRelated(ctx, "alice", "query", 0)
	require.NoError(t, err)
	assert.Equal(t, cfg.DefaultRelatedLimit, index.lastK)

	_, err = engine.FindRelated(ctx, "alice", "query", cfg.MaxRelatedLimit+10)
	require.NoError(t, err)
	assert.Equal(t, cfg.MaxRelatedLimit, index.lastK)
}

func TestFindRelatedRejectsEmptyQuery(t *testing.T) {
	engine := newEngine(memory.NewNoteRepository(), memory.NewMessageRepository(), &fakeEmbedder{vector: []float32{1}}, newFakeIndex())

	_, err := engine.FindRelated(context.Background(), "alice", "   ", 5)
	assert.Error(t, err)

	_, err = engine.FindRelated(context.Background(), "", "query", 5)
	assert.Error(t, err)
}

func TestFindRelatedPropagatesEmbedderError(t *testing.T) {
	providerErr := errors.New("provider unavailable")
	embedder := &fakeEmbedder{err: providerErr}
	engine := newEngine(memory.NewNoteRepository(), memory.NewMessageRepository(), embedder, newFakeIndex())

	_, err := engine.FindRelated(context.Background(), "alice", "query", 5)
	assert.ErrorIs(t, err, providerErr)
	assert.Equal(t, 1, embedder.calls)
}
