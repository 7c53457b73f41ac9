package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/juancgarza/memex/application/commands"
	"github.com/juancgarza/memex/application/commands/bus"
	"github.com/juancgarza/memex/application/queries"
	querybus "github.com/juancgarza/memex/application/queries/bus"
	"github.com/juancgarza/memex/application/services"
	"github.com/juancgarza/memex/pkg/auth"
	"github.com/juancgarza/memex/pkg/common"
	pkgerrors "github.com/juancgarza/memex/pkg/errors"
	"github.com/juancgarza/memex/pkg/utils"
)

// WikiLinkHandler handles wiki-link suggestion and resolution requests
type WikiLinkHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewWikiLinkHandler creates a new wiki-link handler
func NewWikiLinkHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *WikiLinkHandler {
	return &WikiLinkHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     errorHandler,
		logger:     logger,
	}
}

// ResolveWikiLinkRequest represents the request body for resolving a wiki-link
type ResolveWikiLinkRequest struct {
	Title string `json:"title" validate:"required,min=1,max=200"`
}

// ResolveWikiLinkResponse is the HTTP shape of a wiki-link resolution
type ResolveWikiLinkResponse struct {
	Note    NoteResponse `json:"note"`
	Created bool         `json:"created"`
}

// SuggestTitles handles GET /wikilinks/suggest?q=
// Suggestions are substring matches; debounce on the client, the server
// answers every request.
func (h *WikiLinkHandler) SuggestTitles(w http.ResponseWriter, r *http.Request) {
	fragment := r.URL.Query().Get("q")

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.SuggestTitlesQuery{
		OwnerID:  userCtx.UserID,
		Fragment: fragment,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"titles": result,
	})
}

// ResolveWikiLink handles POST /wikilinks/resolve
func (h *WikiLinkHandler) ResolveWikiLink(w http.ResponseWriter, r *http.Request) {
	var req ResolveWikiLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body: "+err.Error())
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.ResolveWikiLinkCommand{
		OwnerID: userCtx.UserID,
		Title:   req.Title,
	})
	if err != nil {
		h.logger.Error("Failed to resolve wiki-link",
			zap.String("userID", userCtx.UserID),
			zap.String("title", req.Title),
			zap.Error(err),
		)
		h.errors.Handle(w, r, err)
		return
	}

	resolution := result.(*services.Resolution)
	status := http.StatusOK
	if resolution.Created {
		status = http.StatusCreated
	}

	common.RespondJSON(w, status, ResolveWikiLinkResponse{
		Note:    toNoteResponse(resolution.Note),
		Created: resolution.Created,
	})
}
