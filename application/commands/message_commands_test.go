package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/juancgarza/memex/application/ports"
	"github.com/juancgarza/memex/domain/core/aggregates"
	"github.com/juancgarza/memex/domain/core/entities"
	"github.com/juancgarza/memex/infrastructure/persistence/memory"
	pkgerrors "github.com/juancgarza/memex/pkg/errors"
)

func TestCreateConversation(t *testing.T) {
	ctx := context.Background()
	convRepo := memory.NewConversationRepository()
	handler := NewCreateConversationHandler(convRepo, zap.NewNop())

	conversation, err := handler.Handle(ctx, CreateConversationCommand{OwnerID: "alice", Title: "Planning"})
	require.NoError(t, err)

	assert.Equal(t, "alice", conversation.OwnerID())
	assert.Equal(t, "Planning", conversation.Title())

	persisted, err := convRepo.GetByID(ctx, "alice", conversation.ID())
	require.NoError(t, err)
	assert.Equal(t, conversation.ID(), persisted.ID())
}

func TestPostMessage(t *testing.T) {
	ctx := context.Background()
	convRepo := memory.NewConversationRepository()
	messageRepo := memory.NewMessageRepository()
	jobStore := memory.NewEmbeddingJobStore()
	publisher := &stubPublisher{}
	handler := NewPostMessageHandler(convRepo, messageRepo, jobStore, publisher, zap.NewNop())

	conversation, err := aggregates.NewConversation("alice", "Planning")
	require.NoError(t, err)
	require.NoError(t, convRepo.Save(ctx, conversation))

	message, err := handler.Handle(ctx, PostMessageCommand{
		OwnerID:        "alice",
		ConversationID: conversation.ID().String(),
		Role:           "user",
		Text:           "what connects these notes?",
	})
	require.NoError(t, err)

	assert.Equal(t, conversation.ID(), message.ConversationID())
	assert.Equal(t, entities.RoleUser, message.Role())
	assert.Equal(t, "what connects these notes?", message.Text())

	inConversation, err := messageRepo.GetByConversationID(ctx, "alice", conversation.ID())
	require.NoError(t, err)
	require.Len(t, inConversation, 1)

	pending, err := jobStore.GetPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, message.ID().String(), pending[0].EntityID)
	assert.Equal(t, ports.CollectionMessages, pending[0].Collection)

	assert.Contains(t, publisher.eventTypes(), "message.appended")
}

func TestPostMessageOrderingPreserved(t *testing.T) {
	ctx := context.Background()
	convRepo := memory.NewConversationRepository()
	messageRepo := memory.NewMessageRepository()
	handler := NewPostMessageHandler(convRepo, messageRepo, memory.NewEmbeddingJobStore(), &stubPublisher{}, zap.NewNop())

	conversation, err := aggregates.NewConversation("alice", "")
	require.NoError(t, err)
	require.NoError(t, convRepo.Save(ctx, conversation))

	for _, text := range []string{"first", "second", "third"} {
		_, err := handler.Handle(ctx, PostMessageCommand{
			OwnerID:        "alice",
			ConversationID: conversation.ID().String(),
			Role:           "user",
			Text:           text,
		})
		require.NoError(t, err)
	}

	messages, err := messageRepo.GetByConversationID(ctx, "alice", conversation.ID())
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "first", messages[0].Text())
	assert.Equal(t, "third", messages[2].Text())
}

func TestPostMessageForeignConversationIsNotFound(t *testing.T) {
	ctx := context.Background()
	convRepo := memory.NewConversationRepository()
	handler := NewPostMessageHandler(convRepo, memory.NewMessageRepository(), memory.NewEmbeddingJobStore(), &stubPublisher{}, zap.NewNop())

	conversation, err := aggregates.NewConversation("alice", "Private")
	require.NoError(t, err)
	require.NoError(t, convRepo.Save(ctx, conversation))

	_, err = handler.Handle(ctx, PostMessageCommand{
		OwnerID:        "mallory",
		ConversationID: conversation.ID().String(),
		Role:           "user",
		Text:           "intrusion",
	})
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestPostMessageValidation(t *testing.T) {
	cmd := PostMessageCommand{OwnerID: "alice", ConversationID: "not-a-uuid", Role: "user", Text: "x"}
	assert.Error(t, cmd.Validate())

	cmd = PostMessageCommand{OwnerID: "alice", ConversationID: "7b9e6bcd-489c-4a2f-9b09-12c1e8d3f001", Role: "system", Text: "x"}
	assert.Error(t, cmd.Validate(), "role must be user or assistant")
}
