package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/juancgarza/memex/application/ports"
	"github.com/juancgarza/memex/application/queries"
	"github.com/juancgarza/memex/application/services"
	"github.com/juancgarza/memex/domain/config"
	"github.com/juancgarza/memex/domain/core/aggregates"
	"github.com/juancgarza/memex/domain/core/entities"
	"github.com/juancgarza/memex/domain/core/valueobjects"
	"github.com/juancgarza/memex/infrastructure/persistence/memory"
	pkgerrors "github.com/juancgarza/memex/pkg/errors"
)

type staticEmbedder struct{}

func (staticEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1}, nil
}

type cannedIndex struct {
	matches map[string][]ports.Match
}

func (i *cannedIndex) Upsert(ctx context.Context, collection, id string, vector []float32) error {
	return nil
}

func (i *cannedIndex) Search(ctx context.Context, collection string, vector []float32, k int) ([]ports.Match, error) {
	matches := i.matches[collection]
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func (i *cannedIndex) Delete(ctx context.Context, collection, id string) error {
	return nil
}

func saveNote(t *testing.T, repo *memory.NoteRepository, ownerID, title, body string) *entities.Note {
	t.Helper()
	content, err := valueobjects.NewNoteContent(title, body, valueobjects.FormatMarkdown)
	require.NoError(t, err)
	note, err := entities.NewNote(ownerID, content, valueobjects.NewPosition(1, 2), entities.Provenance{Kind: entities.SourceManual})
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), note))
	return note
}

func TestHandleGetNote(t *testing.T) {
	ctx := context.Background()
	noteRepo := memory.NewNoteRepository()
	handler := NewNoteQueryHandler(noteRepo, zap.NewNop())

	note := saveNote(t, noteRepo, "alice", "Title", "body with [[Link]]")

	result, err := handler.HandleGetNote(ctx, queries.GetNoteQuery{OwnerID: "alice", NoteID: note.ID().String()})
	require.NoError(t, err)

	assert.Equal(t, note.ID().String(), result.ID)
	assert.Equal(t, "Title", result.Title)
	assert.Equal(t, []string{"Link"}, result.LinkTitles)
	assert.Equal(t, 1.0, result.Position.X)
	assert.False(t, result.HasEmbedding)

	_, err = handler.HandleGetNote(ctx, queries.GetNoteQuery{OwnerID: "mallory", NoteID: note.ID().String()})
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestHandleListNotes(t *testing.T) {
	ctx := context.Background()
	noteRepo := memory.NewNoteRepository()
	handler := NewNoteQueryHandler(noteRepo, zap.NewNop())

	saveNote(t, noteRepo, "alice", "First", "x")
	saveNote(t, noteRepo, "alice", "Second", "y")
	saveNote(t, noteRepo, "bob", "Not alice's", "z")

	result, err := handler.HandleListNotes(ctx, queries.ListNotesQuery{OwnerID: "alice"})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Total)
	assert.Equal(t, "First", result.Notes[0].Title)
	assert.Equal(t, "Second", result.Notes[1].Title)
}

func newRelatedHandler(noteRepo *memory.NoteRepository, edgeRepo *memory.EdgeRepository, index *cannedIndex) *RelatedQueryHandler {
	cfg := config.DefaultDomainConfig()
	logger := zap.NewNop()
	engine := services.NewRelatednessEngine(noteRepo, memory.NewMessageRepository(), staticEmbedder{}, index, cfg, logger)
	backlinks := services.NewBacklinkResolver(noteRepo, edgeRepo, logger)
	wikilinks := services.NewWikiLinkResolver(noteRepo, memory.NewEmbeddingJobStore(), cfg, logger)
	return NewRelatedQueryHandler(engine, backlinks, wikilinks, logger)
}

func TestHandleFindRelated(t *testing.T) {
	ctx := context.Background()
	noteRepo := memory.NewNoteRepository()
	index := &cannedIndex{matches: make(map[string][]ports.Match)}
	handler := newRelatedHandler(noteRepo, memory.NewEdgeRepository(), index)

	note := saveNote(t, noteRepo, "alice", "Graph theory", "nodes")
	index.matches[ports.CollectionNotes] = []ports.Match{
		{ID: "alice/" + note.ID().String(), Score: 0.91},
	}

	result, err := handler.HandleFindRelated(ctx, queries.FindRelatedQuery{OwnerID: "alice", QueryText: "graphs", Limit: 5})
	require.NoError(t, err)

	require.Len(t, result.Notes, 1)
	assert.Equal(t, note.ID().String(), result.Notes[0].ID)
	assert.Equal(t, "Graph theory", result.Notes[0].Title)
	assert.InDelta(t, 0.91, result.Notes[0].Score, 0.001)
	assert.Empty(t, result.Messages)
}

func TestHandleGetBacklinks(t *testing.T) {
	ctx := context.Background()
	noteRepo := memory.NewNoteRepository()
	edgeRepo := memory.NewEdgeRepository()
	handler := newRelatedHandler(noteRepo, edgeRepo, &cannedIndex{})

	source := saveNote(t, noteRepo, "alice", "Source", "x")
	target := saveNote(t, noteRepo, "alice", "Target", "y")
	edge, err := aggregates.NewEdge("alice", source.ID(), target.ID(), "87%", aggregates.EdgeOriginMaterialized, config.DefaultDomainConfig())
	require.NoError(t, err)
	require.NoError(t, edgeRepo.Save(ctx, edge))

	results, err := handler.HandleGetBacklinks(ctx, queries.GetBacklinksQuery{OwnerID: "alice", EntityID: target.ID().String()})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, edge.ID().String(), results[0].EdgeID)
	assert.Equal(t, source.ID().String(), results[0].SourceID)
	assert.Equal(t, "87%", results[0].Label)
}

func TestHandleGetWikiLinkBacklinks(t *testing.T) {
	ctx := context.Background()
	noteRepo := memory.NewNoteRepository()
	handler := newRelatedHandler(noteRepo, memory.NewEdgeRepository(), &cannedIndex{})

	saveNote(t, noteRepo, "alice", "Journal", "see [[Project Alpha]]")
	saveNote(t, noteRepo, "alice", "Project Alpha", "the project")

	results, err := handler.HandleGetWikiLinkBacklinks(ctx, queries.GetWikiLinkBacklinksQuery{OwnerID: "alice", Title: "project alpha"})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "Journal", results[0].Title)
}

func TestHandleSuggestTitles(t *testing.T) {
	ctx := context.Background()
	noteRepo := memory.NewNoteRepository()
	handler := newRelatedHandler(noteRepo, memory.NewEdgeRepository(), &cannedIndex{})

	saveNote(t, noteRepo, "alice", "Project Alpha", "x")
	saveNote(t, noteRepo, "alice", "Unrelated", "y")

	titles, err := handler.HandleSuggestTitles(ctx, queries.SuggestTitlesQuery{OwnerID: "alice", Fragment: "proj"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Project Alpha"}, titles)
}

func TestHandleGetMessages(t *testing.T) {
	ctx := context.Background()
	convRepo := memory.NewConversationRepository()
	messageRepo := memory.NewMessageRepository()
	handler := NewConversationQueryHandler(convRepo, messageRepo, zap.NewNop())

	conversation, err := aggregates.NewConversation("alice", "Planning")
	require.NoError(t, err)
	require.NoError(t, convRepo.Save(ctx, conversation))

	message, err := entities.NewMessage(conversation.ID(), "alice", entities.RoleUser, "hello")
	require.NoError(t, err)
	require.NoError(t, messageRepo.Save(ctx, message))

	results, err := handler.HandleGetMessages(ctx, queries.GetMessagesQuery{OwnerID: "alice", ConversationID: conversation.ID().String()})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "hello", results[0].Text)
	assert.Equal(t, "user", results[0].Role)

	// Message reads go through the conversation owner check
	_, err = handler.HandleGetMessages(ctx, queries.GetMessagesQuery{OwnerID: "mallory", ConversationID: conversation.ID().String()})
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestHandleListConversations(t *testing.T) {
	ctx := context.Background()
	convRepo := memory.NewConversationRepository()
	handler := NewConversationQueryHandler(convRepo, memory.NewMessageRepository(), zap.NewNop())

	first, err := aggregates.NewConversation("alice", "First")
	require.NoError(t, err)
	require.NoError(t, convRepo.Save(ctx, first))

	results, err := handler.HandleListConversations(ctx, queries.ListConversationsQuery{OwnerID: "alice"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "First", results[0].Title)
}
