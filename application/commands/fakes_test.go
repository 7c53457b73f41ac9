package commands

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/juancgarza/memex/application/ports"
	"github.com/juancgarza/memex/domain/core/entities"
	"github.com/juancgarza/memex/domain/core/valueobjects"
	"github.com/juancgarza/memex/domain/events"
)

// stubPublisher records every published event
type stubPublisher struct {
	mu     sync.Mutex
	events []events.DomainEvent
}

func (p *stubPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *stubPublisher) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, batch...)
	return nil
}

func (p *stubPublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.GetEventType()
	}
	return types
}

// stubEmbedder returns one fixed vector for every text
type stubEmbedder struct {
	vector []float32
	err    error
}

func (f *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

// stubIndex serves canned matches and records writes
type stubIndex struct {
	mu      sync.Mutex
	matches map[string][]ports.Match
	stored  map[string][]float32
	deleted []string
}

func newStubIndex() *stubIndex {
	return &stubIndex{
		matches: make(map[string][]ports.Match),
		stored:  make(map[string][]float32),
	}
}

func (f *stubIndex) Upsert(ctx context.Context, collection, id string, vector []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored[collection+"/"+id] = vector
	return nil
}

func (f *stubIndex) Search(ctx context.Context, collection string, vector []float32, k int) ([]ports.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	matches := f.matches[collection]
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func (f *stubIndex) Delete(ctx context.Context, collection, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.stored, collection+"/"+id)
	f.deleted = append(f.deleted, collection+"/"+id)
	return nil
}

func mustNote(t *testing.T, ownerID, title, body string) *entities.Note {
	t.Helper()
	content, err := valueobjects.NewNoteContent(title, body, valueobjects.FormatMarkdown)
	require.NoError(t, err)
	note, err := entities.NewNote(ownerID, content, valueobjects.NewPosition(0, 0), entities.Provenance{Kind: entities.SourceManual})
	require.NoError(t, err)
	note.MarkEventsAsCommitted()
	return note
}
