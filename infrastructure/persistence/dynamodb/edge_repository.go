package dynamodb

import (
	"context"
	"fmt"
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

// EdgeRepository implements ports.EdgeRepository using DynamoDB.
// GSI1 keys edges by target, GSI2 by source, both owner-scoped, so backlink
// reads and delete cascades are single queries rather than scans.
type EdgeRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewEdgeRepository creates a new EdgeRepository
func NewEdgeRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) *EdgeRepository {
	return &EdgeRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// edgeItem represents the DynamoDB item structure for an edge
type edgeItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK"`
	GSI1SK     string `dynamodbav:"GSI1SK"`
	GSI2PK     string `dynamodbav:"GSI2PK"`
	GSI2SK     string `dynamodbav:"GSI2SK"`
	EntityType string `dynamodbav:"EntityType"`
	EdgeID     string `dynamodbav:"EdgeID"`
	OwnerID    string `dynamodbav:"OwnerID"`
	SourceID   string `dynamodbav:"SourceID"`
	TargetID   string `dynamodbav:"TargetID"`
	Label      string `dynamodbav:"Label,omitempty"`
	Origin     string `dynamodbav:"Origin"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
}

func edgeSK(id valueobjects.EntityID) string { return fmt.Sprintf("EDGE#%s", id.String()) }

func edgeTargetKey(ownerID string, targetID valueobjects.EntityID) string {
	return fmt.Sprintf("TARGET#%s#%s", ownerID, targetID.String())
}

func edgeSourceKey(ownerID string, sourceID valueobjects.EntityID) string {
	return fmt.Sprintf("SOURCE#%s#%s", ownerID, sourceID.String())
}

// Save persists an edge
func (r *EdgeRepository) Save(ctx context.Context, edge *aggregates.Edge) error {
	item := r.toItem(edge)

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return pkgerrors.NewDatabaseError("marshal edge", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	if err != nil {
		r.logger.Error("Failed to save edge",
			zap.String("edgeID", edge.ID().String()), zap.Error(err))
		return pkgerrors.NewDatabaseError("save edge", err)
	}
	return nil
}

// SaveBatch persists multiple edges with BatchWriteItem, chunked at the
// DynamoDB limit of 25
func (r *EdgeRepository) SaveBatch(ctx context.Context, edges []*aggregates.Edge) error {
	const batchSize = 25

	for start := 0; start < len(edges); start += batchSize {
		end := start + batchSize
		if end > len(edges) {
			end = len(edges)
		}

		writes := make([]types.WriteRequest, 0, end-start)
		for _, edge := range edges[start:end] {
			av, err := attributevalue.MarshalMap(r.toItem(edge))
			if err != nil {
				return pkgerrors.NewDatabaseError("marshal edge", err)
			}
			writes = append(writes, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: av},
			})
		}

		_, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{r.tableName: writes},
		})
		if err != nil {
			return pkgerrors.NewDatabaseError("batch save edges", err)
		}
	}
	return nil
}

// GetByID retrieves an edge owned by the given user
func (r *EdgeRepository) GetByID(ctx context.Context, ownerID string, id valueobjects.EntityID) (*aggregates.Edge, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: notePK(ownerID)},
			"SK": &types.AttributeValueMemberS{Value: edgeSK(id)},
		},
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get edge", err)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFoundError("edge")
	}

	var item edgeItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal edge", err)
	}
	return r.toAggregate(item)
}

// GetByOwnerID retrieves all edges for an owner
func (r *EdgeRepository) GetByOwnerID(ctx context.Context, ownerID string) ([]*aggregates.Edge, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: notePK(ownerID)},
			":sk": &types.AttributeValueMemberS{Value: "EDGE#"},
		},
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("query edges", err)
	}
	return r.unmarshalEdges(out.Items)
}

// GetByEntityID retrieves all edges touching the entity on either end
func (r *EdgeRepository) GetByEntityID(ctx context.Context, ownerID string, entityID valueobjects.EntityID) ([]*aggregates.Edge, error) {
	incoming, err := r.GetByTargetID(ctx, ownerID, entityID)
	if err != nil {
		return nil, err
	}
	outgoing, err := r.queryIndex(ctx, "GSI2", "GSI2PK", edgeSourceKey(ownerID, entityID))
	if err != nil {
		return nil, err
	}

	// A self-loop would appear in both queries; dedupe by edge id
	seen := make(map[string]bool, len(incoming))
	edges := make([]*aggregates.Edge, 0, len(incoming)+len(outgoing))
	for _, e := range incoming {
		seen[e.ID().String()] = true
		edges = append(edges, e)
	}
	for _, e := range outgoing {
		if !seen[e.ID().String()] {
			edges = append(edges, e)
		}
	}
	return edges, nil
}

// GetByTargetID retrieves all edges pointing at the entity
func (r *EdgeRepository) GetByTargetID(ctx context.Context, ownerID string, targetID valueobjects.EntityID) ([]*aggregates.Edge, error) {
	return r.queryIndex(ctx, "GSI1", "GSI1PK", edgeTargetKey(ownerID, targetID))
}

// Delete removes an edge owned by the given user
func (r *EdgeRepository) Delete(ctx context.Context, ownerID string, id valueobjects.EntityID) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: notePK(ownerID)},
			"SK": &types.AttributeValueMemberS{Value: edgeSK(id)},
		},
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("delete edge", err)
	}
	return nil
}

// DeleteByEntityID removes every edge touching the entity on either end and
// returns how many were removed
func (r *EdgeRepository) DeleteByEntityID(ctx context.Context, ownerID string, entityID valueobjects.EntityID) (int, error) {
	edges, err := r.GetByEntityID(ctx, ownerID, entityID)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, edge := range edges {
		if err := r.Delete(ctx, ownerID, edge.ID()); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func (r *EdgeRepository) queryIndex(ctx context.Context, indexName, keyAttr, keyValue string) ([]*aggregates.Edge, error) {
	var items []map[string]types.AttributeValue
	var lastKey map[string]types.AttributeValue

	for {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			IndexName:              aws.String(indexName),
			KeyConditionExpression: aws.String(fmt.Sprintf("%s = :pk", keyAttr)),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: keyValue},
			},
			ExclusiveStartKey: lastKey,
		})
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("query edges", err)
		}
		items = append(items, out.Items...)

		if out.LastEvaluatedKey == nil {
			break
		}
		lastKey = out.LastEvaluatedKey
	}
	return r.unmarshalEdges(items)
}

func (r *EdgeRepository) unmarshalEdges(raw []map[string]types.AttributeValue) ([]*aggregates.Edge, error) {
	var items []edgeItem
	if err := attributevalue.UnmarshalListOfMaps(raw, &items); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal edges", err)
	}

	edges := make([]*aggregates.Edge, 0, len(items))
	for _, item := range items {
		edge, err := r.toAggregate(item)
		if err != nil {
			r.logger.Warn("Skipping unreadable edge item",
				zap.String("edgeID", item.EdgeID), zap.Error(err))
			continue
		}
		edges = append(edges, edge)
	}
	return edges, nil
}

func (r *EdgeRepository) toItem(edge *aggregates.Edge) edgeItem {
	return edgeItem{
		PK:         notePK(edge.OwnerID()),
		SK:         edgeSK(edge.ID()),
		GSI1PK:     edgeTargetKey(edge.OwnerID(), edge.TargetID()),
		GSI1SK:     edgeSK(edge.ID()),
		GSI2PK:     edgeSourceKey(edge.OwnerID(), edge.SourceID()),
		GSI2SK:     edgeSK(edge.ID()),
		EntityType: "EDGE",
		EdgeID:     edge.ID().String(),
		OwnerID:    edge.OwnerID(),
		SourceID:   edge.SourceID().String(),
		TargetID:   edge.TargetID().String(),
		Label:      edge.Label(),
		Origin:     string(edge.Origin()),
		CreatedAt:  edge.CreatedAt().Format(time.RFC3339Nano),
	}
}

func (r *EdgeRepository) toAggregate(item edgeItem) (*aggregates.Edge, error) {
	id, err := valueobjects.NewEntityIDFromString(item.EdgeID)
	if err != nil {
		return nil, err
	}
	sourceID, err := valueobjects.NewEntityIDFromString(item.SourceID)
	if err != nil {
		return nil, err
	}
	targetID, err := valueobjects.NewEntityIDFromString(item.TargetID)
	if err != nil {
		return nil, err
	}
	createdAt, _ := time.Parse(time.RFC3339Nano, item.CreatedAt)

	return aggregates.ReconstructEdge(id, item.OwnerID, sourceID, targetID, item.Label, aggregates.EdgeOrigin(item.Origin), createdAt)
}
