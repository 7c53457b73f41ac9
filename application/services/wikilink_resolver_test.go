package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/juancgarza/memex/application/ports"
	"github.com/juancgarza/memex/domain/config"
	"github.com/juancgarza/memex/infrastructure/persistence/memory"
)

func newResolver(noteRepo *memory.NoteRepository, jobStore *memory.EmbeddingJobStore) *WikiLinkResolver {
	var store ports.EmbeddingJobStore
	if jobStore != nil {
		store = jobStore
	}
	return NewWikiLinkResolver(noteRepo, store, config.DefaultDomainConfig(), zap.NewNop())
}

func TestSuggestTitles(t *testing.T) {
	ctx := context.Background()
	noteRepo := memory.NewNoteRepository()
	resolver := newResolver(noteRepo, nil)

	require.NoError(t, noteRepo.Save(ctx, newTestNote(t, "alice", "Project Alpha", "x")))
	require.NoError(t, noteRepo.Save(ctx, newTestNote(t, "alice", "project beta", "y")))
	require.NoError(t, noteRepo.Save(ctx, newTestNote(t, "alice", "Unrelated", "z")))
	require.NoError(t, noteRepo.Save(ctx, newTestNote(t, "bob", "Project Gamma", "not alice's")))

	titles, err := resolver.SuggestTitles(ctx, "alice", "proj")
	require.NoError(t, err)

	assert.Equal(t, []string{"Project Alpha", "project beta"}, titles)
}

func TestSuggestTitlesEmptyFragment(t *testing.T) {
	ctx := context.Background()
	noteRepo := memory.NewNoteRepository()
	resolver := newResolver(noteRepo, nil)
	require.NoError(t, noteRepo.Save(ctx, newTestNote(t, "alice", "Anything", "x")))

	titles, err := resolver.SuggestTitles(ctx, "alice", "   ")
	require.NoError(t, err)
	assert.Empty(t, titles)
}

func TestSuggestTitlesCapped(t *testing.T) {
	ctx := context.Background()
	cfg := config.DefaultDomainConfig()
	noteRepo := memory.NewNoteRepository()
	resolver := newResolver(noteRepo, nil)

	for i := 0; i < cfg.MaxTitleSuggestions+5; i++ {
		require.NoError(t, noteRepo.Save(ctx, newTestNote(t, "alice", fmt.Sprintf("Note %02d", i), "x")))
	}

	titles, err := resolver.SuggestTitles(ctx, "alice", "note")
	require.NoError(t, err)

	// Capped in creation order, so the oldest titles win
	require.Len(t, titles, cfg.MaxTitleSuggestions)
	assert.Equal(t, "Note 00", titles[0])
}

func TestResolveWikiLinkExistingTitle(t *testing.T) {
	ctx := context.Background()
	noteRepo := memory.NewNoteRepository()
	jobStore := memory.NewEmbeddingJobStore()
	resolver := newResolver(noteRepo, jobStore)

	note := newTestNote(t, "alice", "Project Alpha", "the project")
	require.NoError(t, noteRepo.Save(ctx, note))

	resolution, err := resolver.ResolveWikiLink(ctx, "alice", "project ALPHA")
	require.NoError(t, err)

	assert.False(t, resolution.Created)
	assert.Equal(t, note.ID(), resolution.Note.ID())

	// Resolving an existing note schedules nothing
	pending, err := jobStore.GetPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestResolveWikiLinkDuplicateTitlesPickOldest(t *testing.T) {
	ctx := context.Background()
	noteRepo := memory.NewNoteRepository()
	resolver := newResolver(noteRepo, nil)

	oldest := newTestNote(t, "alice", "Duplicate", "first")
	newer := newTestNote(t, "alice", "duplicate", "second")
	require.NoError(t, noteRepo.Save(ctx, oldest))
	require.NoError(t, noteRepo.Save(ctx, newer))

	resolution, err := resolver.ResolveWikiLink(ctx, "alice", "Duplicate")
	require.NoError(t, err)
	assert.Equal(t, oldest.ID(), resolution.Note.ID())
}

func TestResolveWikiLinkCreatesPlaceholder(t *testing.T) {
	ctx := context.Background()
	noteRepo := memory.NewNoteRepository()
	jobStore := memory.NewEmbeddingJobStore()
	resolver := newResolver(noteRepo, jobStore)

	resolution, err := resolver.ResolveWikiLink(ctx, "alice", "Brand New")
	require.NoError(t, err)

	assert.True(t, resolution.Created)
	assert.Equal(t, "Brand New", resolution.Note.Content().Title())
	assert.Empty(t, resolution.Note.Content().Body())
	assert.Equal(t, "alice", resolution.Note.OwnerID())

	persisted, err := noteRepo.GetByID(ctx, "alice", resolution.Note.ID())
	require.NoError(t, err)
	assert.Equal(t, "Brand New", persisted.Content().Title())

	pending, err := jobStore.GetPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, resolution.Note.ID().String(), pending[0].EntityID)
	assert.Equal(t, ports.CollectionNotes, pending[0].Collection)
}

func TestResolveWikiLinkValidatesInput(t *testing.T) {
	resolver := newResolver(memory.NewNoteRepository(), nil)

	_, err := resolver.ResolveWikiLink(context.Background(), "alice", "  ")
	assert.Error(t, err)

	_, err = resolver.ResolveWikiLink(context.Background(), "", "Title")
	assert.Error(t, err)
}
