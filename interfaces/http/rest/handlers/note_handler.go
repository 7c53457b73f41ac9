package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/juancgarza/memex/application/commands"
	"github.com/juancgarza/memex/application/commands/bus"
	"github.com/juancgarza/memex/application/queries"
	querybus "github.com/juancgarza/memex/application/queries/bus"
	"github.com/juancgarza/memex/domain/core/aggregates"
	"github.com/juancgarza/memex/domain/core/entities"
	"github.com/juancgarza/memex/pkg/auth"
	"github.com/juancgarza/memex/pkg/common"
	pkgerrors "github.com/juancgarza/memex/pkg/errors"
	"github.com/juancgarza/memex/pkg/utils"
)

// NoteHandler handles note-related HTTP requests
type NoteHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewNoteHandler creates a new note handler
func NewNoteHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *NoteHandler {
	return &NoteHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     errorHandler,
		logger:     logger,
	}
}

// CreateNoteRequest represents the request body for creating a note
type CreateNoteRequest struct {
	Title      string  `json:"title" validate:"required,min=1,max=200"`
	Body       string  `json:"body" validate:"max=50000"`
	Format     string  `json:"format,omitempty" validate:"omitempty,oneof=text markdown"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	SourceKind string  `json:"sourceKind,omitempty" validate:"omitempty,oneof=manual voice chat ai-extracted web youtube readwise"`
	SourceRef  string  `json:"sourceRef,omitempty"`
	ParentID   string  `json:"parentId,omitempty" validate:"omitempty,uuid"`
}

// UpdateNoteRequest represents the request body for updating a note
type UpdateNoteRequest struct {
	Title  string   `json:"title" validate:"required,min=1,max=200"`
	Body   string   `json:"body" validate:"max=50000"`
	Format string   `json:"format,omitempty" validate:"omitempty,oneof=text markdown"`
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
}

// MaterializeLinksRequest represents the request body for materializing links
type MaterializeLinksRequest struct {
	Limit int `json:"limit,omitempty" validate:"omitempty,min=1,max=50"`
}

// NoteResponse is the HTTP shape of a note
type NoteResponse struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Body         string   `json:"body"`
	Format       string   `json:"format"`
	X            float64  `json:"x"`
	Y            float64  `json:"y"`
	SourceKind   string   `json:"sourceKind"`
	SourceRef    string   `json:"sourceRef,omitempty"`
	LinkTitles   []string `json:"linkTitles,omitempty"`
	HasEmbedding bool     `json:"hasEmbedding"`
	Version      int      `json:"version"`
	CreatedAt    string   `json:"createdAt"`
	UpdatedAt    string   `json:"updatedAt"`
}

// EdgeResponse is the HTTP shape of an edge
type EdgeResponse struct {
	ID        string `json:"id"`
	SourceID  string `json:"sourceId"`
	TargetID  string `json:"targetId"`
	Label     string `json:"label,omitempty"`
	Origin    string `json:"origin"`
	CreatedAt string `json:"createdAt"`
}

// CreateNote handles POST /notes
func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
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

	cmd := commands.CreateNoteCommand{
		OwnerID:    userCtx.UserID,
		Title:      req.Title,
		Body:       req.Body,
		Format:     req.Format,
		X:          req.X,
		Y:          req.Y,
		SourceKind: req.SourceKind,
		SourceRef:  req.SourceRef,
		ParentID:   req.ParentID,
	}

	result, err := h.commandBus.Send(r.Context(), cmd)
	if err != nil {
		h.logger.Error("Failed to create note",
			zap.String("userID", userCtx.UserID),
			zap.Error(err),
		)
		h.errors.Handle(w, r, err)
		return
	}

	note := result.(*entities.Note)
	common.RespondJSON(w, http.StatusCreated, toNoteResponse(note))
}

// GetNote handles GET /notes/{noteID}
func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	noteID, ok := h.noteIDParam(w, r)
	if !ok {
		return
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetNoteQuery{
		OwnerID: userCtx.UserID,
		NoteID:  noteID,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// ListNotes handles GET /notes
func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.ListNotesQuery{
		OwnerID: userCtx.UserID,
	})
	if err != nil {
		h.logger.Error("Failed to list notes",
			zap.String("userID", userCtx.UserID),
			zap.Error(err),
		)
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// UpdateNote handles PUT /notes/{noteID}
func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	noteID, ok := h.noteIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateNoteRequest
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

	cmd := commands.UpdateNoteCommand{
		OwnerID: userCtx.UserID,
		NoteID:  noteID,
		Title:   req.Title,
		Body:    req.Body,
		Format:  req.Format,
		X:       req.X,
		Y:       req.Y,
	}

	result, err := h.commandBus.Send(r.Context(), cmd)
	if err != nil {
		h.logger.Error("Failed to update note",
			zap.String("noteID", noteID),
			zap.String("userID", userCtx.UserID),
			zap.Error(err),
		)
		h.errors.Handle(w, r, err)
		return
	}

	note := result.(*entities.Note)
	common.RespondJSON(w, http.StatusOK, toNoteResponse(note))
}

// DeleteNote handles DELETE /notes/{noteID}
func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	noteID, ok := h.noteIDParam(w, r)
	if !ok {
		return
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	if _, err := h.commandBus.Send(r.Context(), commands.DeleteNoteCommand{
		OwnerID: userCtx.UserID,
		NoteID:  noteID,
	}); err != nil {
		h.logger.Error("Failed to delete note",
			zap.String("noteID", noteID),
			zap.String("userID", userCtx.UserID),
			zap.Error(err),
		)
		h.errors.Handle(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MaterializeLinks handles POST /notes/{noteID}/materialize-links
func (h *NoteHandler) MaterializeLinks(w http.ResponseWriter, r *http.Request) {
	noteID, ok := h.noteIDParam(w, r)
	if !ok {
		return
	}

	var req MaterializeLinksRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body: "+err.Error())
			return
		}
		if err := utils.ValidateStruct(req); err != nil {
			common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.MaterializeLinksCommand{
		OwnerID: userCtx.UserID,
		NoteID:  noteID,
		Limit:   req.Limit,
	})
	if err != nil {
		// Edges persisted before the failing one stay; the client can retry.
		h.logger.Error("Failed to materialize links",
			zap.String("noteID", noteID),
			zap.String("userID", userCtx.UserID),
			zap.Error(err),
		)
		h.errors.Handle(w, r, err)
		return
	}

	edges := result.([]*aggregates.Edge)
	responses := make([]EdgeResponse, 0, len(edges))
	for _, edge := range edges {
		responses = append(responses, toEdgeResponse(edge))
	}

	common.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"edges": responses,
		"count": len(responses),
	})
}

// GetBacklinks handles GET /notes/{noteID}/backlinks
func (h *NoteHandler) GetBacklinks(w http.ResponseWriter, r *http.Request) {
	noteID, ok := h.noteIDParam(w, r)
	if !ok {
		return
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetBacklinksQuery{
		OwnerID:  userCtx.UserID,
		EntityID: noteID,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"backlinks": result,
	})
}

func (h *NoteHandler) noteIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	noteID := chi.URLParam(r, "noteID")
	if noteID == "" {
		common.RespondError(w, http.StatusBadRequest, "MISSING_PARAM", "Note ID is required")
		return "", false
	}
	if _, err := uuid.Parse(noteID); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_PARAM", "Invalid note ID format")
		return "", false
	}
	return noteID, true
}

func toNoteResponse(note *entities.Note) NoteResponse {
	return NoteResponse{
		ID:           note.ID().String(),
		Title:        note.Content().Title(),
		Body:         note.Content().Body(),
		Format:       string(note.Content().Format()),
		X:            note.Position().X(),
		Y:            note.Position().Y(),
		SourceKind:   string(note.Provenance().Kind),
		SourceRef:    note.Provenance().SourceRef,
		LinkTitles:   note.LinkTitles(),
		HasEmbedding: !note.Embedding().IsAbsent(),
		Version:      note.Version(),
		CreatedAt:    utils.FormatRFC3339(note.CreatedAt()),
		UpdatedAt:    utils.FormatRFC3339(note.UpdatedAt()),
	}
}

func toEdgeResponse(edge *aggregates.Edge) EdgeResponse {
	return EdgeResponse{
		ID:        edge.ID().String(),
		SourceID:  edge.SourceID().String(),
		TargetID:  edge.TargetID().String(),
		Label:     edge.Label(),
		Origin:    string(edge.Origin()),
		CreatedAt: utils.FormatRFC3339(edge.CreatedAt()),
	}
}
