package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/juancgarza/memex/application/ports"
	pkgerrors "github.com/juancgarza/memex/pkg/errors"
)

// IndexLoader rebuilds the in-process vector index from persisted
// embeddings at startup. The DynamoDB rows are the durable copy; the index
// is a projection that lives only as long as the process.
type IndexLoader struct {
	client    *dynamodb.Client
	tableName string
	index     ports.VectorIndex
	logger    *zap.Logger
}

// NewIndexLoader creates a new index loader
func NewIndexLoader(client *dynamodb.Client, tableName string, index ports.VectorIndex, logger *zap.Logger) *IndexLoader {
	return &IndexLoader{
		client:    client,
		tableName: tableName,
		index:     index,
		logger:    logger,
	}
}

// embeddedItem is the slice of a note or message row the loader needs
type embeddedItem struct {
	EntityType string    `dynamodbav:"EntityType"`
	NoteID     string    `dynamodbav:"NoteID"`
	MessageID  string    `dynamodbav:"MessageID"`
	OwnerID    string    `dynamodbav:"OwnerID"`
	Embedding  []float32 `dynamodbav:"Embedding"`
}

// Load scans for rows carrying an embedding and upserts them into the
// index. Returns the number of vectors loaded.
func (l *IndexLoader) Load(ctx context.Context) (int, error) {
	start := time.Now()
	loaded := 0

	expr, err := expression.NewBuilder().
		WithFilter(expression.Name("Embedding").AttributeExists()).
		Build()
	if err != nil {
		return 0, pkgerrors.NewDatabaseError("build scan expression", err)
	}

	var lastKey map[string]types.AttributeValue

	for {
		out, err := l.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:                 aws.String(l.tableName),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         lastKey,
		})
		if err != nil {
			return loaded, pkgerrors.NewDatabaseError("scan embeddings", err)
		}

		var items []embeddedItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
			return loaded, pkgerrors.NewDatabaseError("unmarshal embeddings", err)
		}

		for _, item := range items {
			collection, id := l.target(item)
			if collection == "" {
				continue
			}
			key := fmt.Sprintf("%s/%s", item.OwnerID, id)
			if err := l.index.Upsert(ctx, collection, key, item.Embedding); err != nil {
				l.logger.Warn("Skipping unloadable embedding",
					zap.String("key", key), zap.Error(err))
				continue
			}
			loaded++
		}

		if out.LastEvaluatedKey == nil {
			break
		}
		lastKey = out.LastEvaluatedKey
	}

	l.logger.Info("Vector index loaded",
		zap.Int("vectors", loaded),
		zap.Duration("elapsed", time.Since(start)),
	)
	return loaded, nil
}

func (l *IndexLoader) target(item embeddedItem) (collection, id string) {
	switch item.EntityType {
	case "NOTE":
		return ports.CollectionNotes, item.NoteID
	case "MESSAGE":
		return ports.CollectionMessages, item.MessageID
	default:
		return "", ""
	}
}
