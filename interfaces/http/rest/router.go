package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/juancgarza/memex/application/commands/bus"
	querybus "github.com/juancgarza/memex/application/queries/bus"
	"github.com/juancgarza/memex/infrastructure/config"
	"github.com/juancgarza/memex/interfaces/http/rest/handlers"
	"github.com/juancgarza/memex/interfaces/http/rest/middleware"
	"github.com/juancgarza/memex/pkg/auth"
	pkgerrors "github.com/juancgarza/memex/pkg/errors"
)

// Router creates and configures the HTTP router
type Router struct {
	commandBus   *bus.CommandBus
	queryBus     *querybus.QueryBus
	errorHandler *pkgerrors.ErrorHandler
	jwtValidator *auth.JWTValidator
	cfg          *config.Config
	logger       *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *pkgerrors.ErrorHandler,
	jwtValidator *auth.JWTValidator,
	cfg *config.Config,
	logger *zap.Logger,
) *Router {
	return &Router{
		commandBus:   commandBus,
		queryBus:     queryBus,
		errorHandler: errorHandler,
		jwtValidator: jwtValidator,
		cfg:          cfg,
		logger:       logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "https://*.memex.dev"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	router.Route("/api/v1", func(r chi.Router) {
		// In Lambda the API Gateway JWT authorizer validates tokens; the
		// entrypoint forwards the user context in headers
		if rt.cfg.IsLambda {
			r.Use(middleware.AuthenticateForLambda())
		} else {
			r.Use(middleware.Authenticate(rt.jwtValidator, rt.logger))
		}

		// Note endpoints
		r.Route("/notes", func(r chi.Router) {
			noteHandler := handlers.NewNoteHandler(rt.commandBus, rt.queryBus, rt.errorHandler, rt.logger)
			r.Post("/", noteHandler.CreateNote)
			r.Get("/", noteHandler.ListNotes)
			r.Get("/{noteID}", noteHandler.GetNote)
			r.Put("/{noteID}", noteHandler.UpdateNote)
			r.Delete("/{noteID}", noteHandler.DeleteNote)
			r.Post("/{noteID}/materialize-links", noteHandler.MaterializeLinks)
			r.Get("/{noteID}/backlinks", noteHandler.GetBacklinks)
		})

		// Conversation and message endpoints
		r.Route("/conversations", func(r chi.Router) {
			conversationHandler := handlers.NewConversationHandler(rt.commandBus, rt.queryBus, rt.errorHandler, rt.logger)
			r.Post("/", conversationHandler.CreateConversation)
			r.Get("/", conversationHandler.ListConversations)
			r.Post("/{conversationID}/messages", conversationHandler.PostMessage)
			r.Get("/{conversationID}/messages", conversationHandler.GetMessages)
		})

		// Edge endpoints
		r.Route("/edges", func(r chi.Router) {
			edgeHandler := handlers.NewEdgeHandler(rt.commandBus, rt.errorHandler, rt.logger)
			r.Post("/", edgeHandler.CreateEdge)
			r.Delete("/{edgeID}", edgeHandler.DeleteEdge)
		})

		// Relatedness and wiki-link text backlinks
		relatedHandler := handlers.NewRelatedHandler(rt.queryBus, rt.errorHandler, rt.logger)
		r.Get("/related", relatedHandler.FindRelated)
		r.Get("/backlinks", relatedHandler.GetWikiLinkBacklinks)

		// Wiki-link endpoints
		r.Route("/wikilinks", func(r chi.Router) {
			wikiLinkHandler := handlers.NewWikiLinkHandler(rt.commandBus, rt.queryBus, rt.errorHandler, rt.logger)
			r.Get("/suggest", wikiLinkHandler.SuggestTitles)
			r.Post("/resolve", wikiLinkHandler.ResolveWikiLink)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
