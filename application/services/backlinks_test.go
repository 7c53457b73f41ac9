package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/juancgarza/memex/domain/config"
	"github.com/juancgarza/memex/domain/core/aggregates"
	"github.com/juancgarza/memex/infrastructure/persistence/memory"
)

func TestDirectBacklinks(t *testing.T) {
	ctx := context.Background()
	noteRepo := memory.NewNoteRepository()
	edgeRepo := memory.NewEdgeRepository()
	resolver := NewBacklinkResolver(noteRepo, edgeRepo, zap.NewNop())
	cfg := config.DefaultDomainConfig()

	target := newTestNote(t, "alice", "Target", "pointed at")
	source := newTestNote(t, "alice", "Source", "points away")
	unrelated := newTestNote(t, "alice", "Unrelated", "no edges")
	require.NoError(t, noteRepo.Save(ctx, target))
	require.NoError(t, noteRepo.Save(ctx, source))
	require.NoError(t, noteRepo.Save(ctx, unrelated))

	inbound, err := aggregates.NewEdge("alice", source.ID(), target.ID(), "87%", aggregates.EdgeOriginMaterialized, cfg)
	require.NoError(t, err)
	require.NoError(t, edgeRepo.Save(ctx, inbound))

	// Outgoing edge from the target must not show up as a backlink
	outbound, err := aggregates.NewEdge("alice", target.ID(), unrelated.ID(), "", aggregates.EdgeOriginManual, cfg)
	require.NoError(t, err)
	require.NoError(t, edgeRepo.Save(ctx, outbound))

	backlinks, err := resolver.DirectBacklinks(ctx, "alice", target.ID())
	require.NoError(t, err)

	require.Len(t, backlinks, 1)
	assert.Equal(t, inbound.ID(), backlinks[0].EdgeID)
	assert.Equal(t, source.ID(), backlinks[0].SourceID)
	assert.Equal(t, "87%", backlinks[0].Label)
}

func TestDirectBacklinksOwnerScoped(t *testing.T) {
	ctx := context.Background()
	edgeRepo := memory.NewEdgeRepository()
	resolver := NewBacklinkResolver(memory.NewNoteRepository(), edgeRepo, zap.NewNop())
	cfg := config.DefaultDomainConfig()

	target := newTestNote(t, "alice", "Target", "x")
	bobSource := newTestNote(t, "bob", "Bob's", "y")

	edge, err := aggregates.NewEdge("bob", bobSource.ID(), target.ID(), "", aggregates.EdgeOriginManual, cfg)
	require.NoError(t, err)
	require.NoError(t, edgeRepo.Save(ctx, edge))

	backlinks, err := resolver.DirectBacklinks(ctx, "alice", target.ID())
	require.NoError(t, err)
	assert.Empty(t, backlinks)
}

func TestWikiLinkBacklinks(t *testing.T) {
	ctx := context.Background()
	noteRepo := memory.NewNoteRepository()
	resolver := NewBacklinkResolver(noteRepo, memory.NewEdgeRepository(), zap.NewNop())

	referrer := newTestNote(t, "alice", "Journal", "see [[Project Alpha]] for context")
	caseInsensitive := newTestNote(t, "alice", "Ideas", "related to [[project alpha]] too")
	plainText := newTestNote(t, "alice", "Notes", "Project Alpha mentioned without link syntax")
	target := newTestNote(t, "alice", "Project Alpha", "the project itself, [[Project Alpha]] self-reference")
	require.NoError(t, noteRepo.Save(ctx, referrer))
	require.NoError(t, noteRepo.Save(ctx, caseInsensitive))
	require.NoError(t, noteRepo.Save(ctx, plainText))
	require.NoError(t, noteRepo.Save(ctx, target))

	matches, err := resolver.WikiLinkBacklinks(ctx, "alice", "Project Alpha")
	require.NoError(t, err)

	require.Len(t, matches, 2)
	assert.Equal(t, "Journal", matches[0].Content().Title())
	assert.Equal(t, "Ideas", matches[1].Content().Title())
}

func TestWikiLinkBacklinksValidatesInput(t *testing.T) {
	resolver := NewBacklinkResolver(memory.NewNoteRepository(), memory.NewEdgeRepository(), zap.NewNop())

	_, err := resolver.WikiLinkBacklinks(context.Background(), "alice", "  ")
	assert.Error(t, err)

	_, err = resolver.WikiLinkBacklinks(context.Background(), "", "Title")
	assert.Error(t, err)
}
