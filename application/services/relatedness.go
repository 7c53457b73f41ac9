package services

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/juancgarza/memex/application/ports"
	"github.com/juancgarza/memex/domain/config"
	"github.com/juancgarza/memex/domain/core/entities"
	"github.com/juancgarza/memex/domain/core/valueobjects"
	pkgerrors "github.com/juancgarza/memex/pkg/errors"
)

// RelatedNote is one relatedness hit resolved to a note
type RelatedNote struct {
	Note  *entities.Note
	Score float32
}

// RelatedMessage is one relatedness hit resolved to a message
type RelatedMessage struct {
	Message *entities.Message
	Score   float32
}

// RelatednessResult holds per-collection hits, each sorted by score
// descending. Cross-collection merging is the caller's job.
type RelatednessResult struct {
	Notes    []RelatedNote
	Messages []RelatedMessage
}

// RelatednessEngine finds semantically related notes and messages for a
// query text. It is a pure read: same inputs against the same index state
// give the same result.
type RelatednessEngine struct {
	noteRepo    ports.NoteRepository
	messageRepo ports.MessageRepository
	embedder    ports.Embedder
	index       ports.VectorIndex
	cfg         *config.DomainConfig
	logger      *zap.Logger
}

// NewRelatednessEngine creates a new relatedness engine
func NewRelatednessEngine(
	noteRepo ports.NoteRepository,
	messageRepo ports.MessageRepository,
	embedder ports.Embedder,
	index ports.VectorIndex,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *RelatednessEngine {
	return &RelatednessEngine{
		noteRepo:    noteRepo,
		messageRepo: messageRepo,
		embedder:    embedder,
		index:       index,
		cfg:         cfg,
		logger:      logger,
	}
}

// FindRelated embeds the query once, searches notes and messages top-k, and
// resolves every hit through an owner-checked lookup. Hits the caller does
// not own are silently dropped, so result counts may undershoot limit.
// Provider failures propagate unchanged; the engine never retries.
func (e *RelatednessEngine) FindRelated(ctx context.Context, ownerID, queryText string, limit int) (*RelatednessResult, error) {
	queryText = strings.TrimSpace(queryText)
	if queryText == "" {
		return nil, pkgerrors.NewValidationError("query text cannot be empty")
	}
	if ownerID == "" {
		return nil, pkgerrors.NewValidationError("ownerID cannot be empty")
	}
	if limit < 1 {
		limit = e.cfg.DefaultRelatedLimit
	}
	if limit > e.cfg.MaxRelatedLimit {
		limit = e.cfg.MaxRelatedLimit
	}

	vector, err := e.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, err
	}

	result := &RelatednessResult{
		Notes:    []RelatedNote{},
		Messages: []RelatedMessage{},
	}

	noteMatches, err := e.index.Search(ctx, ports.CollectionNotes, vector, limit)
	if err != nil {
		return nil, err
	}
	for _, match := range noteMatches {
		note, ok := e.resolveNote(ctx, ownerID, match.ID)
		if !ok {
			continue
		}
		result.Notes = append(result.Notes, RelatedNote{Note: note, Score: match.Score})
	}

	messageMatches, err := e.index.Search(ctx, ports.CollectionMessages, vector, limit)
	if err != nil {
		return nil, err
	}
	for _, match := range messageMatches {
		message, ok := e.resolveMessage(ctx, ownerID, match.ID)
		if !ok {
			continue
		}
		result.Messages = append(result.Messages, RelatedMessage{Message: message, Score: match.Score})
	}

	sort.SliceStable(result.Notes, func(i, j int) bool {
		return result.Notes[i].Score > result.Notes[j].Score
	})
	sort.SliceStable(result.Messages, func(i, j int) bool {
		return result.Messages[i].Score > result.Messages[j].Score
	})

	return result, nil
}

// resolveNote turns an index key back into an owned note. Stale index
// entries and foreign hits both resolve to "absent" and are dropped.
func (e *RelatednessEngine) resolveNote(ctx context.Context, ownerID, indexKey string) (*entities.Note, bool) {
	id, ok := parseIndexKey(indexKey)
	if !ok {
		return nil, false
	}
	note, err := e.noteRepo.GetByID(ctx, ownerID, id)
	if err != nil {
		if !pkgerrors.IsNotFound(err) {
			e.logger.Warn("Note resolution failed", zap.String("key", indexKey), zap.Error(err))
		}
		return nil, false
	}
	return note, true
}

func (e *RelatednessEngine) resolveMessage(ctx context.Context, ownerID, indexKey string) (*entities.Message, bool) {
	id, ok := parseIndexKey(indexKey)
	if !ok {
		return nil, false
	}
	message, err := e.messageRepo.GetByID(ctx, ownerID, id)
	if err != nil {
		if !pkgerrors.IsNotFound(err) {
			e.logger.Warn("Message resolution failed", zap.String("key", indexKey), zap.Error(err))
		}
		return nil, false
	}
	return message, true
}

// parseIndexKey splits the "ownerID/entityID" index key and returns the
// entity id half. Malformed keys are dropped like foreign hits.
func parseIndexKey(key string) (valueobjects.EntityID, bool) {
	idx := strings.LastIndex(key, "/")
	if idx < 0 || idx == len(key)-1 {
		return valueobjects.EntityID{}, false
	}
	id, err := valueobjects.NewEntityIDFromString(key[idx+1:])
	if err != nil {
		return valueobjects.EntityID{}, false
	}
	return id, true
}
