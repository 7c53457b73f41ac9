package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/juancgarza/memex/domain/core/aggregates"
	"github.com/juancgarza/memex/domain/core/valueobjects"
	pkgerrors "github.com/juancgarza/memex/pkg/errors"
)

// ConversationRepository implements ports.ConversationRepository using DynamoDB
type ConversationRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewConversationRepository creates a new ConversationRepository
func NewConversationRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) *ConversationRepository {
	return &ConversationRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// conversationItem represents the DynamoDB item structure for a conversation
type conversationItem struct {
	PK             string `dynamodbav:"PK"`
	SK             string `dynamodbav:"SK"`
	EntityType     string `dynamodbav:"EntityType"`
	ConversationID string `dynamodbav:"ConversationID"`
	OwnerID        string `dynamodbav:"OwnerID"`
	Title          string `dynamodbav:"Title"`
	CreatedAt      string `dynamodbav:"CreatedAt"`
	UpdatedAt      string `dynamodbav:"UpdatedAt"`
}

func conversationSK(id valueobjects.EntityID) string {
	return fmt.Sprintf("CONV#%s", id.String())
}

// Save persists a conversation, create or update
func (r *ConversationRepository) Save(ctx context.Context, conversation *aggregates.Conversation) error {
	item := conversationItem{
		PK:             notePK(conversation.OwnerID()),
		SK:             conversationSK(conversation.ID()),
		EntityType:     "CONVERSATION",
		ConversationID: conversation.ID().String(),
		OwnerID:        conversation.OwnerID(),
		Title:          conversation.Title(),
		CreatedAt:      conversation.CreatedAt().Format(time.RFC3339Nano),
		UpdatedAt:      conversation.UpdatedAt().Format(time.RFC3339Nano),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return pkgerrors.NewDatabaseError("marshal conversation", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	if err != nil {
		r.logger.Error("Failed to save conversation",
			zap.String("conversationID", conversation.ID().String()), zap.Error(err))
		return pkgerrors.NewDatabaseError("save conversation", err)
	}
	return nil
}

// GetByID retrieves a conversation owned by the given user
func (r *ConversationRepository) GetByID(ctx context.Context, ownerID string, id valueobjects.EntityID) (*aggregates.Conversation, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: notePK(ownerID)},
			"SK": &types.AttributeValueMemberS{Value: conversationSK(id)},
		},
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get conversation", err)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFoundError("conversation")
	}

	var item conversationItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal conversation", err)
	}
	return r.toAggregate(item)
}

// GetByOwnerID retrieves all conversations for an owner, most recent first
func (r *ConversationRepository) GetByOwnerID(ctx context.Context, ownerID string) ([]*aggregates.Conversation, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: notePK(ownerID)},
			":sk": &types.AttributeValueMemberS{Value: "CONV#"},
		},
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("query conversations", err)
	}

	var items []conversationItem
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal conversations", err)
	}

	conversations := make([]*aggregates.Conversation, 0, len(items))
	for _, item := range items {
		conversation, err := r.toAggregate(item)
		if err != nil {
			r.logger.Warn("Skipping unreadable conversation item",
				zap.String("conversationID", item.ConversationID), zap.Error(err))
			continue
		}
		conversations = append(conversations, conversation)
	}

	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt().After(conversations[j].UpdatedAt())
	})
	return conversations, nil
}

// Delete removes a conversation owned by the given user
func (r *ConversationRepository) Delete(ctx context.Context, ownerID string, id valueobjects.EntityID) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: notePK(ownerID)},
			"SK": &types.AttributeValueMemberS{Value: conversationSK(id)},
		},
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("delete conversation", err)
	}
	return nil
}

func (r *ConversationRepository) toAggregate(item conversationItem) (*aggregates.Conversation, error) {
	id, err := valueobjects.NewEntityIDFromString(item.ConversationID)
	if err != nil {
		return nil, err
	}
	createdAt, _ := time.Parse(time.RFC3339Nano, item.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339Nano, item.UpdatedAt)

	return aggregates.ReconstructConversation(id, item.OwnerID, item.Title, createdAt, updatedAt)
}
