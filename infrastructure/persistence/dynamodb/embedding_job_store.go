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

	"github.com/juancgarza/memex/application/ports"
	pkgerrors "github.com/juancgarza/memex/pkg/errors"
)

// EmbeddingJobStore implements ports.EmbeddingJobStore using DynamoDB.
// Jobs follow the outbox pattern: the enqueue is fire-and-forget from the
// caller's point of view, the worker drains pending jobs in the background,
// and failed jobs stay visible for an operator instead of vanishing.
type EmbeddingJobStore struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewEmbeddingJobStore creates a new EmbeddingJobStore
func NewEmbeddingJobStore(client *dynamodb.Client, tableName string, logger *zap.Logger) *EmbeddingJobStore {
	return &EmbeddingJobStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// jobItem represents the DynamoDB item structure for an embedding job.
// GSI2 keys pending jobs by enqueue time so the worker drains oldest first;
// terminal jobs move off the pending partition on their final update.
type jobItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI2PK     string `dynamodbav:"GSI2PK"`
	GSI2SK     string `dynamodbav:"GSI2SK"`
	EntityType string `dynamodbav:"EntityType"`
	JobID      string `dynamodbav:"JobID"`
	OwnerID    string `dynamodbav:"OwnerID"`
	EntityID   string `dynamodbav:"EntityID"`
	Collection string `dynamodbav:"Collection"`
	Attempts   int    `dynamodbav:"Attempts"`
	Status     string `dynamodbav:"Status"`
	LastError  string `dynamodbav:"LastError,omitempty"`
	EnqueuedAt string `dynamodbav:"EnqueuedAt"`
	UpdatedAt  string `dynamodbav:"UpdatedAt"`
}

const pendingPartition = "EMBJOB#PENDING"

func jobPK(jobID string) string { return fmt.Sprintf("EMBJOB#%s", jobID) }

func jobStatusPartition(status ports.EmbeddingJobStatus) string {
	return fmt.Sprintf("EMBJOB#%s", string(status))
}

// Enqueue records a pending refresh for an entity
func (s *EmbeddingJobStore) Enqueue(ctx context.Context, job *ports.EmbeddingJob) error {
	now := time.Now()
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = now
	}
	job.UpdatedAt = now
	if job.Status == "" {
		job.Status = ports.EmbeddingJobPending
	}

	item := jobItem{
		PK:         jobPK(job.JobID),
		SK:         "METADATA",
		GSI2PK:     pendingPartition,
		GSI2SK:     fmt.Sprintf("TS#%s#%s", job.EnqueuedAt.Format(time.RFC3339Nano), job.JobID),
		EntityType: "EMBEDDING_JOB",
		JobID:      job.JobID,
		OwnerID:    job.OwnerID,
		EntityID:   job.EntityID,
		Collection: job.Collection,
		Attempts:   job.Attempts,
		Status:     string(job.Status),
		EnqueuedAt: job.EnqueuedAt.Format(time.RFC3339Nano),
		UpdatedAt:  job.UpdatedAt.Format(time.RFC3339Nano),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return pkgerrors.NewDatabaseError("marshal embedding job", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		s.logger.Error("Failed to enqueue embedding job",
			zap.String("jobID", job.JobID), zap.Error(err))
		return pkgerrors.NewDatabaseError("enqueue embedding job", err)
	}
	return nil
}

// GetPending returns up to limit pending jobs, oldest first
func (s *EmbeddingJobStore) GetPending(ctx context.Context, limit int) ([]*ports.EmbeddingJob, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String("GSI2"),
		KeyConditionExpression: aws.String("GSI2PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pendingPartition},
		},
		ScanIndexForward: aws.Bool(true),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("query pending jobs", err)
	}

	var items []jobItem
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal pending jobs", err)
	}

	jobs := make([]*ports.EmbeddingJob, 0, len(items))
	for _, item := range items {
		enqueuedAt, _ := time.Parse(time.RFC3339Nano, item.EnqueuedAt)
		updatedAt, _ := time.Parse(time.RFC3339Nano, item.UpdatedAt)
		jobs = append(jobs, &ports.EmbeddingJob{
			JobID:      item.JobID,
			OwnerID:    item.OwnerID,
			EntityID:   item.EntityID,
			Collection: item.Collection,
			Attempts:   item.Attempts,
			Status:     ports.EmbeddingJobStatus(item.Status),
			LastError:  item.LastError,
			EnqueuedAt: enqueuedAt,
			UpdatedAt:  updatedAt,
		})
	}

	sort.SliceStable(jobs, func(i, j int) bool {
		return jobs[i].EnqueuedAt.Before(jobs[j].EnqueuedAt)
	})
	return jobs, nil
}

// MarkDone marks a job completed
func (s *EmbeddingJobStore) MarkDone(ctx context.Context, jobID string) error {
	return s.setStatus(ctx, jobID, ports.EmbeddingJobDone, 0, "")
}

// MarkSkipped marks a job whose entity vanished before processing
func (s *EmbeddingJobStore) MarkSkipped(ctx context.Context, jobID string) error {
	return s.setStatus(ctx, jobID, ports.EmbeddingJobSkipped, 0, "")
}

// MarkFailed records a failed attempt. Until attempts exhaust the budget the
// job stays on the pending partition and the worker will pick it up again.
func (s *EmbeddingJobStore) MarkFailed(ctx context.Context, jobID string, attempts int, lastError string, exhausted bool) error {
	status := ports.EmbeddingJobPending
	if exhausted {
		status = ports.EmbeddingJobExhausted
	}
	return s.setStatus(ctx, jobID, status, attempts, lastError)
}

func (s *EmbeddingJobStore) setStatus(ctx context.Context, jobID string, status ports.EmbeddingJobStatus, attempts int, lastError string) error {
	gsi2pk := jobStatusPartition(status)
	if status == ports.EmbeddingJobPending {
		gsi2pk = pendingPartition
	}

	update := "SET #status = :status, GSI2PK = :gsi2pk, UpdatedAt = :now, Attempts = :attempts"
	values := map[string]types.AttributeValue{
		":status":   &types.AttributeValueMemberS{Value: string(status)},
		":gsi2pk":   &types.AttributeValueMemberS{Value: gsi2pk},
		":now":      &types.AttributeValueMemberS{Value: time.Now().Format(time.RFC3339Nano)},
		":attempts": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", attempts)},
	}
	if lastError != "" {
		update += ", LastError = :lastError"
		values[":lastError"] = &types.AttributeValueMemberS{Value: lastError}
	}

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: jobPK(jobID)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
		UpdateExpression:          aws.String(update),
		ExpressionAttributeNames:  map[string]string{"#status": "Status"},
		ExpressionAttributeValues: values,
	})
	if err != nil {
		s.logger.Error("Failed to update embedding job",
			zap.String("jobID", jobID),
			zap.String("status", string(status)),
			zap.Error(err))
		return pkgerrors.NewDatabaseError("update embedding job", err)
	}
	return nil
}
