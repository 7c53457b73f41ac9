package di

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"github.com/juancgarza/memex/application/commands"
	"github.com/juancgarza/memex/application/commands/bus"
	"github.com/juancgarza/memex/application/ports"
	"github.com/juancgarza/memex/application/queries"
	querybus "github.com/juancgarza/memex/application/queries/bus"
	queryhandlers "github.com/juancgarza/memex/application/queries/handlers"
	"github.com/juancgarza/memex/application/services"
	domainconfig "github.com/juancgarza/memex/domain/config"
	"github.com/juancgarza/memex/infrastructure/config"
	"github.com/juancgarza/memex/infrastructure/embedding/openai"
	"github.com/juancgarza/memex/infrastructure/messaging/eventbridge"
	"github.com/juancgarza/memex/infrastructure/persistence/dynamodb"
	"github.com/juancgarza/memex/infrastructure/vectorindex/hnsw"
	"github.com/juancgarza/memex/infrastructure/worker"
	"github.com/juancgarza/memex/pkg/auth"
	pkgerrors "github.com/juancgarza/memex/pkg/errors"
	"github.com/juancgarza/memex/pkg/observability"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideDomainConfig creates the domain configuration
func ProvideDomainConfig(cfg *config.Config) *domainconfig.DomainConfig {
	domainCfg := domainconfig.DefaultDomainConfig()
	if cfg.EmbeddingDimensions > 0 {
		domainCfg.EmbeddingDimension = cfg.EmbeddingDimensions
	}
	return domainCfg
}

// ProvideNoteRepository creates a note repository
func ProvideNoteRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.NoteRepository {
	return dynamodb.NewNoteRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideMessageRepository creates a message repository
func ProvideMessageRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.MessageRepository {
	return dynamodb.NewMessageRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideConversationRepository creates a conversation repository
func ProvideConversationRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.ConversationRepository {
	return dynamodb.NewConversationRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideEdgeRepository creates an edge repository
func ProvideEdgeRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.EdgeRepository {
	return dynamodb.NewEdgeRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideEmbeddingJobStore creates the embedding job outbox store
func ProvideEmbeddingJobStore(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.EmbeddingJobStore {
	return dynamodb.NewEmbeddingJobStore(client, cfg.DynamoDBTable, logger)
}

// ProvideVectorIndex creates the in-process vector index
func ProvideVectorIndex(domainCfg *domainconfig.DomainConfig) (ports.VectorIndex, error) {
	return hnsw.New(domainCfg.EmbeddingDimension)
}

// ProvideIndexLoader creates the startup index loader
func ProvideIndexLoader(client *awsdynamodb.Client, cfg *config.Config, index ports.VectorIndex, logger *zap.Logger) *dynamodb.IndexLoader {
	return dynamodb.NewIndexLoader(client, cfg.DynamoDBTable, index, logger)
}

// ProvideEmbedder creates the embedding provider client
func ProvideEmbedder(cfg *config.Config, logger *zap.Logger) ports.Embedder {
	return openai.NewClient(openai.Config{
		Endpoint:   cfg.EmbeddingEndpoint,
		APIKey:     cfg.EmbeddingAPIKey,
		Model:      cfg.EmbeddingModel,
		Dimensions: cfg.EmbeddingDimensions,
		Timeout:    cfg.EmbeddingTimeout,
	}, logger)
}

// ProvideEventBus creates an event bus
func ProvideEventBus(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventBus {
	return eventbridge.NewEventBridgePublisher(
		client,
		cfg.EventBusName,
		logger,
	)
}

// ProvideEventPublisher exposes the event bus through the narrower publisher port
func ProvideEventPublisher(eventBus ports.EventBus) ports.EventPublisher {
	return eventBus
}

// ProvideMetrics creates metrics instance
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config) *observability.Metrics {
	namespace := fmt.Sprintf("Memex/%s", cfg.Environment)
	return observability.NewMetrics(namespace, client)
}

// ProvideErrorHandler creates the HTTP error handler
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.Environment != "production")
}

// ProvideJWTValidator creates the JWT validator used by the auth middleware
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	return auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     cfg.JWTSecret,
		Issuer:        cfg.JWTIssuer,
		Audience:      []string{"memex-api"},
	})
}

// ProvideEmbeddingStore creates the embedding store
func ProvideEmbeddingStore(
	noteRepo ports.NoteRepository,
	messageRepo ports.MessageRepository,
	index ports.VectorIndex,
	eventPublisher ports.EventPublisher,
	domainCfg *domainconfig.DomainConfig,
	logger *zap.Logger,
) *services.EmbeddingStore {
	return services.NewEmbeddingStore(noteRepo, messageRepo, index, eventPublisher, domainCfg, logger)
}

// ProvideRelatednessEngine creates the relatedness engine
func ProvideRelatednessEngine(
	noteRepo ports.NoteRepository,
	messageRepo ports.MessageRepository,
	embedder ports.Embedder,
	index ports.VectorIndex,
	domainCfg *domainconfig.DomainConfig,
	logger *zap.Logger,
) *services.RelatednessEngine {
	return services.NewRelatednessEngine(noteRepo, messageRepo, embedder, index, domainCfg, logger)
}

// ProvideLinkMaterializer creates the link materializer
func ProvideLinkMaterializer(
	edgeRepo ports.EdgeRepository,
	eventPublisher ports.EventPublisher,
	domainCfg *domainconfig.DomainConfig,
	logger *zap.Logger,
) *services.LinkMaterializer {
	return services.NewLinkMaterializer(edgeRepo, eventPublisher, domainCfg, logger)
}

// ProvideBacklinkResolver creates the backlink resolver
func ProvideBacklinkResolver(
	noteRepo ports.NoteRepository,
	edgeRepo ports.EdgeRepository,
	logger *zap.Logger,
) *services.BacklinkResolver {
	return services.NewBacklinkResolver(noteRepo, edgeRepo, logger)
}

// ProvideWikiLinkResolver creates the wiki-link resolver
func ProvideWikiLinkResolver(
	noteRepo ports.NoteRepository,
	jobStore ports.EmbeddingJobStore,
	domainCfg *domainconfig.DomainConfig,
	logger *zap.Logger,
) *services.WikiLinkResolver {
	return services.NewWikiLinkResolver(noteRepo, jobStore, domainCfg, logger)
}

// ProvideRefreshEmbeddingHandler creates the handler the worker drains jobs through
func ProvideRefreshEmbeddingHandler(
	noteRepo ports.NoteRepository,
	messageRepo ports.MessageRepository,
	embedder ports.Embedder,
	embeddingStore *services.EmbeddingStore,
	logger *zap.Logger,
) *commands.RefreshEmbeddingHandler {
	return commands.NewRefreshEmbeddingHandler(noteRepo, messageRepo, embedder, embeddingStore, logger)
}

// ProvideEmbeddingWorker creates the background embedding worker
func ProvideEmbeddingWorker(
	jobStore ports.EmbeddingJobStore,
	handler *commands.RefreshEmbeddingHandler,
	metrics *observability.Metrics,
	cfg *config.Config,
	logger *zap.Logger,
) *worker.EmbeddingWorker {
	return worker.NewEmbeddingWorker(
		jobStore,
		handler,
		metrics,
		logger,
		cfg.WorkerBatchSize,
		cfg.WorkerInterval,
		cfg.WorkerMaxAttempts,
	)
}

// CommandHandlerAdapter adapts specific command handlers to the generic interface
type CommandHandlerAdapter struct {
	handler func(context.Context, bus.Command) (interface{}, error)
}

func (a *CommandHandlerAdapter) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	return a.handler(ctx, cmd)
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	noteRepo ports.NoteRepository,
	messageRepo ports.MessageRepository,
	conversationRepo ports.ConversationRepository,
	edgeRepo ports.EdgeRepository,
	jobStore ports.EmbeddingJobStore,
	eventPublisher ports.EventPublisher,
	embeddingStore *services.EmbeddingStore,
	engine *services.RelatednessEngine,
	materializer *services.LinkMaterializer,
	wikiResolver *services.WikiLinkResolver,
	refreshHandler *commands.RefreshEmbeddingHandler,
	domainCfg *domainconfig.DomainConfig,
	logger *zap.Logger,
) *bus.CommandBus {
	commandBus := bus.NewCommandBus()

	createNoteHandler := commands.NewCreateNoteHandler(noteRepo, jobStore, eventPublisher, logger)
	commandBus.Register(commands.CreateNoteCommand{}, &CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			createCmd, ok := cmd.(commands.CreateNoteCommand)
			if !ok {
				return nil, fmt.Errorf("invalid command type")
			}
			return createNoteHandler.Handle(ctx, createCmd)
		},
	})

	updateNoteHandler := commands.NewUpdateNoteHandler(noteRepo, jobStore, eventPublisher, logger)
	commandBus.Register(commands.UpdateNoteCommand{}, &CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			updateCmd, ok := cmd.(commands.UpdateNoteCommand)
			if !ok {
				return nil, fmt.Errorf("invalid command type")
			}
			return updateNoteHandler.Handle(ctx, updateCmd)
		},
	})

	deleteNoteHandler := commands.NewDeleteNoteHandler(noteRepo, edgeRepo, embeddingStore, eventPublisher, logger)
	commandBus.Register(commands.DeleteNoteCommand{}, &CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			deleteCmd, ok := cmd.(commands.DeleteNoteCommand)
			if !ok {
				return nil, fmt.Errorf("invalid command type")
			}
			return nil, deleteNoteHandler.Handle(ctx, deleteCmd)
		},
	})

	createEdgeHandler := commands.NewCreateEdgeHandler(edgeRepo, noteRepo, messageRepo, eventPublisher, domainCfg, logger)
	commandBus.Register(commands.CreateEdgeCommand{}, &CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			edgeCmd, ok := cmd.(commands.CreateEdgeCommand)
			if !ok {
				return nil, fmt.Errorf("invalid command type")
			}
			return createEdgeHandler.Handle(ctx, edgeCmd)
		},
	})

	deleteEdgeHandler := commands.NewDeleteEdgeHandler(edgeRepo, logger)
	commandBus.Register(commands.DeleteEdgeCommand{}, &CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			edgeCmd, ok := cmd.(commands.DeleteEdgeCommand)
			if !ok {
				return nil, fmt.Errorf("invalid command type")
			}
			return nil, deleteEdgeHandler.Handle(ctx, edgeCmd)
		},
	})

	createConversationHandler := commands.NewCreateConversationHandler(conversationRepo, logger)
	commandBus.Register(commands.CreateConversationCommand{}, &CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			convCmd, ok := cmd.(commands.CreateConversationCommand)
			if !ok {
				return nil, fmt.Errorf("invalid command type")
			}
			return createConversationHandler.Handle(ctx, convCmd)
		},
	})

	postMessageHandler := commands.NewPostMessageHandler(conversationRepo, messageRepo, jobStore, eventPublisher, logger)
	commandBus.Register(commands.PostMessageCommand{}, &CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			msgCmd, ok := cmd.(commands.PostMessageCommand)
			if !ok {
				return nil, fmt.Errorf("invalid command type")
			}
			return postMessageHandler.Handle(ctx, msgCmd)
		},
	})

	materializeHandler := commands.NewMaterializeLinksHandler(noteRepo, engine, materializer, logger)
	commandBus.Register(commands.MaterializeLinksCommand{}, &CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			matCmd, ok := cmd.(commands.MaterializeLinksCommand)
			if !ok {
				return nil, fmt.Errorf("invalid command type")
			}
			return materializeHandler.Handle(ctx, matCmd)
		},
	})

	resolveHandler := commands.NewResolveWikiLinkHandler(wikiResolver)
	commandBus.Register(commands.ResolveWikiLinkCommand{}, &CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			resolveCmd, ok := cmd.(commands.ResolveWikiLinkCommand)
			if !ok {
				return nil, fmt.Errorf("invalid command type")
			}
			return resolveHandler.Handle(ctx, resolveCmd)
		},
	})

	commandBus.Register(commands.RefreshEmbeddingCommand{}, &CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			refreshCmd, ok := cmd.(commands.RefreshEmbeddingCommand)
			if !ok {
				return nil, fmt.Errorf("invalid command type")
			}
			return nil, refreshHandler.Handle(ctx, refreshCmd)
		},
	})

	return commandBus
}

// QueryHandlerAdapter adapts specific query handlers to the generic interface
type QueryHandlerAdapter struct {
	handler func(context.Context, querybus.Query) (interface{}, error)
}

func (a *QueryHandlerAdapter) Handle(ctx context.Context, query querybus.Query) (interface{}, error) {
	return a.handler(ctx, query)
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(
	noteRepo ports.NoteRepository,
	conversationRepo ports.ConversationRepository,
	messageRepo ports.MessageRepository,
	engine *services.RelatednessEngine,
	backlinks *services.BacklinkResolver,
	wikiResolver *services.WikiLinkResolver,
	cache ports.Cache,
	logger *zap.Logger,
) *querybus.QueryBus {
	queryBus := querybus.NewQueryBus()

	noteHandler := queryhandlers.NewNoteQueryHandler(noteRepo, logger)
	queryBus.Register(queries.GetNoteQuery{}, &QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			getQuery, ok := query.(queries.GetNoteQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return noteHandler.HandleGetNote(ctx, getQuery)
		},
	})
	queryBus.Register(queries.ListNotesQuery{}, &QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			listQuery, ok := query.(queries.ListNotesQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return noteHandler.HandleListNotes(ctx, listQuery)
		},
	})

	relatedHandler := queryhandlers.NewRelatedQueryHandler(engine, backlinks, wikiResolver, logger)
	queryBus.Register(queries.FindRelatedQuery{}, &QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			findQuery, ok := query.(queries.FindRelatedQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return relatedHandler.HandleFindRelated(ctx, findQuery)
		},
	})
	queryBus.Register(queries.GetBacklinksQuery{}, &QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			backQuery, ok := query.(queries.GetBacklinksQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return relatedHandler.HandleGetBacklinks(ctx, backQuery)
		},
	})
	queryBus.Register(queries.GetWikiLinkBacklinksQuery{}, &QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			wikiQuery, ok := query.(queries.GetWikiLinkBacklinksQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return relatedHandler.HandleGetWikiLinkBacklinks(ctx, wikiQuery)
		},
	})

	// Title suggestions are hot while typing and tolerate brief staleness
	suggestCache := querybus.NewCachingMiddleware(cache, 10)
	queryBus.Register(queries.SuggestTitlesQuery{}, suggestCache.Wrap(&QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			suggestQuery, ok := query.(queries.SuggestTitlesQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return relatedHandler.HandleSuggestTitles(ctx, suggestQuery)
		},
	}))

	conversationHandler := queryhandlers.NewConversationQueryHandler(conversationRepo, messageRepo, logger)
	queryBus.Register(queries.ListConversationsQuery{}, &QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			listQuery, ok := query.(queries.ListConversationsQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return conversationHandler.HandleListConversations(ctx, listQuery)
		},
	})
	queryBus.Register(queries.GetMessagesQuery{}, &QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			getQuery, ok := query.(queries.GetMessagesQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return conversationHandler.HandleGetMessages(ctx, getQuery)
		},
	})

	return queryBus
}

// ProvideInMemoryCache creates a simple in-memory cache
// In production, this would be Redis or similar
func ProvideInMemoryCache() ports.Cache {
	return NewInMemoryCache()
}
