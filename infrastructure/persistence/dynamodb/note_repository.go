package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/juancgarza/memex/application/ports"
	"github.com/juancgarza/memex/domain/core/entities"
	"github.com/juancgarza/memex/domain/core/valueobjects"
	pkgerrors "github.com/juancgarza/memex/pkg/errors"
)

// NoteRepository implements ports.NoteRepository using DynamoDB.
// Notes live under their owner's partition, so every lookup is owner-scoped
// by construction: a foreign id simply misses.
type NoteRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

var _ ports.NoteRepository = (*NoteRepository)(nil)

// NewNoteRepository creates a new NoteRepository
func NewNoteRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) *NoteRepository {
	return &NoteRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// noteItem represents the DynamoDB item structure for a note
type noteItem struct {
	PK         string    `dynamodbav:"PK"`
	SK         string    `dynamodbav:"SK"`
	EntityType string    `dynamodbav:"EntityType"`
	NoteID     string    `dynamodbav:"NoteID"`
	OwnerID    string    `dynamodbav:"OwnerID"`
	Title      string    `dynamodbav:"Title"`
	Body       string    `dynamodbav:"Body"`
	Format     string    `dynamodbav:"Format"`
	X          float64   `dynamodbav:"X"`
	Y          float64   `dynamodbav:"Y"`
	Width      float64   `dynamodbav:"Width"`
	Height     float64   `dynamodbav:"Height"`
	SourceKind string    `dynamodbav:"SourceKind"`
	SourceRef  string    `dynamodbav:"SourceRef,omitempty"`
	ParentID   string    `dynamodbav:"ParentID,omitempty"`
	Embedding  []float32 `dynamodbav:"Embedding,omitempty"`
	CreatedAt  string    `dynamodbav:"CreatedAt"`
	UpdatedAt  string    `dynamodbav:"UpdatedAt"`
	Version    int       `dynamodbav:"Version"`
}

func notePK(ownerID string) string           { return fmt.Sprintf("USER#%s", ownerID) }
func noteSK(id valueobjects.EntityID) string { return fmt.Sprintf("NOTE#%s", id.String()) }

// Save persists a note, create or update
func (r *NoteRepository) Save(ctx context.Context, note *entities.Note) error {
	content := note.Content()
	pos := note.Position()
	prov := note.Provenance()

	item := noteItem{
		PK:         notePK(note.OwnerID()),
		SK:         noteSK(note.ID()),
		EntityType: "NOTE",
		NoteID:     note.ID().String(),
		OwnerID:    note.OwnerID(),
		Title:      content.Title(),
		Body:       content.Body(),
		Format:     string(content.Format()),
		X:          pos.X(),
		Y:          pos.Y(),
		Width:      pos.Width(),
		Height:     pos.Height(),
		SourceKind: string(prov.Kind),
		SourceRef:  prov.SourceRef,
		CreatedAt:  note.CreatedAt().Format(time.RFC3339Nano),
		UpdatedAt:  note.UpdatedAt().Format(time.RFC3339Nano),
		Version:    note.Version(),
	}
	if !prov.ParentID.IsZero() {
		item.ParentID = prov.ParentID.String()
	}
	if !note.Embedding().IsAbsent() {
		item.Embedding = note.Embedding().Vector()
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return pkgerrors.NewDatabaseError("marshal note", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	if err != nil {
		r.logger.Error("Failed to save note",
			zap.String("noteID", note.ID().String()), zap.Error(err))
		return pkgerrors.NewDatabaseError("save note", err)
	}
	return nil
}

// GetByID retrieves a note owned by the given user. Missing and foreign
// notes both come back as not-found.
func (r *NoteRepository) GetByID(ctx context.Context, ownerID string, id valueobjects.EntityID) (*entities.Note, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: notePK(ownerID)},
			"SK": &types.AttributeValueMemberS{Value: noteSK(id)},
		},
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get note", err)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFoundError("note")
	}

	var item noteItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal note", err)
	}
	return r.toEntity(item)
}

// GetByOwnerID retrieves all notes for an owner, in creation order
func (r *NoteRepository) GetByOwnerID(ctx context.Context, ownerID string) ([]*entities.Note, error) {
	items, err := r.queryOwnerNotes(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	notes := make([]*entities.Note, 0, len(items))
	for _, item := range items {
		note, err := r.toEntity(item)
		if err != nil {
			r.logger.Warn("Skipping unreadable note item",
				zap.String("noteID", item.NoteID), zap.Error(err))
			continue
		}
		notes = append(notes, note)
	}

	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].CreatedAt().Before(notes[j].CreatedAt())
	})
	return notes, nil
}

// FindByTitle retrieves the owner's notes whose title matches exactly,
// case-insensitively, oldest first
func (r *NoteRepository) FindByTitle(ctx context.Context, ownerID, title string) ([]*entities.Note, error) {
	notes, err := r.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	matches := []*entities.Note{}
	for _, note := range notes {
		if strings.EqualFold(note.Content().Title(), title) {
			matches = append(matches, note)
		}
	}
	return matches, nil
}

// FindByTitleContains retrieves notes whose title contains the fragment,
// case-insensitively, up to limit, in creation order
func (r *NoteRepository) FindByTitleContains(ctx context.Context, ownerID, fragment string, limit int) ([]*entities.Note, error) {
	notes, err := r.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(fragment)
	matches := []*entities.Note{}
	for _, note := range notes {
		if strings.Contains(strings.ToLower(note.Content().Title()), needle) {
			matches = append(matches, note)
			if limit > 0 && len(matches) >= limit {
				break
			}
		}
	}
	return matches, nil
}

// Delete removes a note owned by the given user
func (r *NoteRepository) Delete(ctx context.Context, ownerID string, id valueobjects.EntityID) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: notePK(ownerID)},
			"SK": &types.AttributeValueMemberS{Value: noteSK(id)},
		},
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("delete note", err)
	}
	return nil
}

func (r *NoteRepository) queryOwnerNotes(ctx context.Context, ownerID string) ([]noteItem, error) {
	var items []noteItem
	var lastKey map[string]types.AttributeValue

	for {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: notePK(ownerID)},
				":sk": &types.AttributeValueMemberS{Value: "NOTE#"},
			},
			ExclusiveStartKey: lastKey,
		})
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("query notes", err)
		}

		var page []noteItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, pkgerrors.NewDatabaseError("unmarshal notes", err)
		}
		items = append(items, page...)

		if out.LastEvaluatedKey == nil {
			break
		}
		lastKey = out.LastEvaluatedKey
	}
	return items, nil
}

func (r *NoteRepository) toEntity(item noteItem) (*entities.Note, error) {
	id, err := valueobjects.NewEntityIDFromString(item.NoteID)
	if err != nil {
		return nil, err
	}
	content, err := valueobjects.NewNoteContent(item.Title, item.Body, valueobjects.ContentFormat(item.Format))
	if err != nil {
		return nil, err
	}

	prov := entities.Provenance{
		Kind:      entities.SourceKind(item.SourceKind),
		SourceRef: item.SourceRef,
	}
	if item.ParentID != "" {
		parentID, err := valueobjects.NewEntityIDFromString(item.ParentID)
		if err == nil {
			prov.ParentID = parentID
		}
	}

	embedding := valueobjects.EmbeddingFromStored(item.Embedding)

	createdAt, _ := time.Parse(time.RFC3339Nano, item.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339Nano, item.UpdatedAt)

	return entities.ReconstructNote(
		id,
		item.OwnerID,
		content,
		valueobjects.NewPositionWithSize(item.X, item.Y, item.Width, item.Height),
		prov,
		embedding,
		createdAt,
		updatedAt,
		item.Version,
	)
}
