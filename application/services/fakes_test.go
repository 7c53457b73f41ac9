package services

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

// fakeEmbedder returns one fixed vector for every text
type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

// fakeIndex serves canned matches per collection and records writes
type fakeIndex struct {
	mu        sync.Mutex
	matches   map[string][]ports.Match
	stored    map[string][]float32
	lastK     int
	deleted   []string
	upsertErr error
	searchErr error
	deleteErr error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{
		matches: make(map[string][]ports.Match),
		stored:  make(map[string][]float32),
	}
}

func (f *fakeIndex) Upsert(ctx context.Context, collection, id string, vector []float32) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored[collection+"/"+id] = vector
	return nil
}

func (f *fakeIndex) Search(ctx context.Context, collection string, vector []float32, k int) ([]ports.Match, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastK = k
	matches := f.matches[collection]
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func (f *fakeIndex) Delete(ctx context.Context, collection, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.stored, collection+"/"+id)
	f.deleted = append(f.deleted, collection+"/"+id)
	return nil
}

// capturingPublisher records every published event
type capturingPublisher struct {
	mu     sync.Mutex
	events []events.DomainEvent
}

func (p *capturingPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, batch...)
	return nil
}

func (p *capturingPublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.GetEventType()
	}
	return types
}

func newTestNote(t *testing.T, ownerID, title, body string) *entities.Note {
	t.Helper()
	content, err := valueobjects.NewNoteContent(title, body, valueobjects.FormatMarkdown)
	require.NoError(t, err)
	note, err := entities.NewNote(ownerID, content, valueobjects.NewPosition(0, 0), entities.Provenance{Kind: entities.SourceManual})
	require.NoError(t, err)
	note.MarkEventsAsCommitted()
	return note
}

func newTestMessage(t *testing.T, conversationID valueobjects.EntityID, ownerID, text string) *entities.Message {
	t.Helper()
	message, err := entities.NewMessage(conversationID, ownerID, entities.RoleUser, text)
	require.NoError(t, err)
	message.MarkEventsAsCommitted()
	return message
}
