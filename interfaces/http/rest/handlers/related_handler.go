package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/juancgarza/memex/application/queries"
	querybus "github.com/juancgarza/memex/application/queries/bus"
	"github.com/juancgarza/memex/pkg/auth"
	"github.com/juancgarza/memex/pkg/common"
	pkgerrors "github.com/juancgarza/memex/pkg/errors"
)

// RelatedHandler handles semantic relatedness and wiki-link backlink queries
type RelatedHandler struct {
	queryBus *querybus.QueryBus
	errors   *pkgerrors.ErrorHandler
	logger   *zap.Logger
}

// NewRelatedHandler creates a new related handler
func NewRelatedHandler(
	queryBus *querybus.QueryBus,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *RelatedHandler {
	return &RelatedHandler{
		queryBus: queryBus,
		errors:   errorHandler,
		logger:   logger,
	}
}

// FindRelated handles GET /related?q=&limit=
func (h *RelatedHandler) FindRelated(w http.ResponseWriter, r *http.Request) {
	queryText := r.URL.Query().Get("q")
	if queryText == "" {
		common.RespondError(w, http.StatusBadRequest, "MISSING_PARAM", "Query parameter 'q' is required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.FindRelatedQuery{
		OwnerID:   userCtx.UserID,
		QueryText: queryText,
		Limit:     limit,
	})
	if err != nil {
		h.logger.Error("Failed to find related entities",
			zap.String("userID", userCtx.UserID),
			zap.Error(err),
		)
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// GetWikiLinkBacklinks handles GET /backlinks?title=
func (h *RelatedHandler) GetWikiLinkBacklinks(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		common.RespondError(w, http.StatusBadRequest, "MISSING_PARAM", "Query parameter 'title' is required")
		return
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetWikiLinkBacklinksQuery{
		OwnerID: userCtx.UserID,
		Title:   title,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"notes": result,
	})
}
