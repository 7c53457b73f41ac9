//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/juancgarza/memex/application/commands/bus"
	"github.com/juancgarza/memex/application/ports"
	querybus "github.com/juancgarza/memex/application/queries/bus"
	"github.com/juancgarza/memex/infrastructure/config"
	"github.com/juancgarza/memex/infrastructure/persistence/dynamodb"
	"github.com/juancgarza/memex/infrastructure/worker"
	"github.com/juancgarza/memex/pkg/auth"
	pkgerrors "github.com/juancgarza/memex/pkg/errors"
	"github.com/juancgarza/memex/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	NoteRepo     ports.NoteRepository
	MessageRepo  ports.MessageRepository
	ConvRepo     ports.ConversationRepository
	EdgeRepo     ports.EdgeRepository
	JobStore     ports.EmbeddingJobStore
	VectorIndex  ports.VectorIndex
	IndexLoader  *dynamodb.IndexLoader
	CommandBus   *bus.CommandBus
	QueryBus     *querybus.QueryBus
	Worker       *worker.EmbeddingWorker
	Cache        ports.Cache
	Metrics      *observability.Metrics
	ErrorHandler *pkgerrors.ErrorHandler
	JWTValidator *auth.JWTValidator
}

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideDomainConfig,
	ProvideNoteRepository,
	ProvideMessageRepository,
	ProvideConversationRepository,
	ProvideEdgeRepository,
	ProvideEmbeddingJobStore,
	ProvideVectorIndex,
	ProvideIndexLoader,
	ProvideEmbedder,
	ProvideEventBus,
	ProvideEventPublisher,
	ProvideMetrics,
	ProvideErrorHandler,
	ProvideJWTValidator,
	ProvideEmbeddingStore,
	ProvideRelatednessEngine,
	ProvideLinkMaterializer,
	ProvideBacklinkResolver,
	ProvideWikiLinkResolver,
	ProvideRefreshEmbeddingHandler,
	ProvideEmbeddingWorker,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideInMemoryCache,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
