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

	"github.com/juancgarza/memex/domain/core/entities"
	"github.com/juancgarza/memex/domain/core/valueobjects"
	pkgerrors "github.com/juancgarza/memex/pkg/errors"
)

// MessageRepository implements ports.MessageRepository using DynamoDB.
// Messages sit in their owner's partition; GSI1 groups them per conversation
// keyed by creation time so conversation reads come back in append order.
type MessageRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) *MessageRepository {
	return &MessageRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// messageItem represents the DynamoDB item structure for a message
type messageItem struct {
	PK             string    `dynamodbav:"PK"`
	SK             string    `dynamodbav:"SK"`
	GSI1PK         string    `dynamodbav:"GSI1PK"`
	GSI1SK         string    `dynamodbav:"GSI1SK"`
	EntityType     string    `dynamodbav:"EntityType"`
	MessageID      string    `dynamodbav:"MessageID"`
	ConversationID string    `dynamodbav:"ConversationID"`
	OwnerID        string    `dynamodbav:"OwnerID"`
	Role           string    `dynamodbav:"Role"`
	Text           string    `dynamodbav:"Text"`
	Embedding      []float32 `dynamodbav:"Embedding,omitempty"`
	CreatedAt      string    `dynamodbav:"CreatedAt"`
}

func messageSK(id valueobjects.EntityID) string { return fmt.Sprintf("MSG#%s", id.String()) }

func conversationGSI1PK(ownerID string, conversationID valueobjects.EntityID) string {
	return fmt.Sprintf("CONV#%s#%s", ownerID, conversationID.String())
}

// Save persists a message
func (r *MessageRepository) Save(ctx context.Context, message *entities.Message) error {
	item := messageItem{
		PK:             notePK(message.OwnerID()),
		SK:             messageSK(message.ID()),
		GSI1PK:         conversationGSI1PK(message.OwnerID(), message.ConversationID()),
		GSI1SK:         fmt.Sprintf("TS#%s#%s", message.CreatedAt().Format(time.RFC3339Nano), message.ID().String()),
		EntityType:     "MESSAGE",
		MessageID:      message.ID().String(),
		ConversationID: message.ConversationID().String(),
		OwnerID:        message.OwnerID(),
		Role:           string(message.Role()),
		Text:           message.Text(),
		CreatedAt:      message.CreatedAt().Format(time.RFC3339Nano),
	}
	if !message.Embedding().IsAbsent() {
		item.Embedding = message.Embedding().Vector()
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return pkgerrors.NewDatabaseError("marshal message", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	if err != nil {
		r.logger.Error("Failed to save message",
			zap.String("messageID", message.ID().String()), zap.Error(err))
		return pkgerrors.NewDatabaseError("save message", err)
	}
	return nil
}

// GetByID retrieves a message owned by the given user
func (r *MessageRepository) GetByID(ctx context.Context, ownerID string, id valueobjects.EntityID) (*entities.Message, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: notePK(ownerID)},
			"SK": &types.AttributeValueMemberS{Value: messageSK(id)},
		},
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get message", err)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFoundError("message")
	}

	var item messageItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal message", err)
	}
	return r.toEntity(item)
}

// GetByConversationID retrieves a conversation's messages in append order
func (r *MessageRepository) GetByConversationID(ctx context.Context, ownerID string, conversationID valueobjects.EntityID) ([]*entities.Message, error) {
	var items []messageItem
	var lastKey map[string]types.AttributeValue

	for {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			IndexName:              aws.String("GSI1"),
			KeyConditionExpression: aws.String("GSI1PK = :pk"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: conversationGSI1PK(ownerID, conversationID)},
			},
			ScanIndexForward:  aws.Bool(true),
			ExclusiveStartKey: lastKey,
		})
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("query messages", err)
		}

		var page []messageItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, pkgerrors.NewDatabaseError("unmarshal messages", err)
		}
		items = append(items, page...)

		if out.LastEvaluatedKey == nil {
			break
		}
		lastKey = out.LastEvaluatedKey
	}

	messages := make([]*entities.Message, 0, len(items))
	for _, item := range items {
		message, err := r.toEntity(item)
		if err != nil {
			r.logger.Warn("Skipping unreadable message item",
				zap.String("messageID", item.MessageID), zap.Error(err))
			continue
		}
		messages = append(messages, message)
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt().Before(messages[j].CreatedAt())
	})
	return messages, nil
}

// DeleteByConversationID removes all messages of a conversation
func (r *MessageRepository) DeleteByConversationID(ctx context.Context, ownerID string, conversationID valueobjects.EntityID) error {
	messages, err := r.GetByConversationID(ctx, ownerID, conversationID)
	if err != nil {
		return err
	}

	for _, message := range messages {
		_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(r.tableName),
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: notePK(ownerID)},
				"SK": &types.AttributeValueMemberS{Value: messageSK(message.ID())},
			},
		})
		if err != nil {
			return pkgerrors.NewDatabaseError("delete message", err)
		}
	}
	return nil
}

func (r *MessageRepository) toEntity(item messageItem) (*entities.Message, error) {
	id, err := valueobjects.NewEntityIDFromString(item.MessageID)
	if err != nil {
		return nil, err
	}
	conversationID, err := valueobjects.NewEntityIDFromString(item.ConversationID)
	if err != nil {
		return nil, err
	}

	embedding := valueobjects.EmbeddingFromStored(item.Embedding)

	createdAt, _ := time.Parse(time.RFC3339Nano, item.CreatedAt)

	return entities.ReconstructMessage(
		id,
		conversationID,
		item.OwnerID,
		entities.MessageRole(item.Role),
		item.Text,
		embedding,
		createdAt,
	)
}
