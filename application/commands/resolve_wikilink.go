package commands

import (
	"context"

	"github.com/juancgarza/memex/application/services"
	"github.com/juancgarza/memex/pkg/utils"
)

// ResolveWikiLinkCommand resolves a [[Title]] target to a note, creating a
// placeholder note when no note with that title exists
type ResolveWikiLinkCommand struct {
	OwnerID string `json:"owner_id" validate:"required"`
	Title   string `json:"title" validate:"required,min=1,max=200"`
}

// Validate implements bus.Command
func (c ResolveWikiLinkCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// ResolveWikiLinkHandler handles the ResolveWikiLinkCommand
type ResolveWikiLinkHandler struct {
	resolver *services.WikiLinkResolver
}

// NewResolveWikiLinkHandler creates a new handler instance
func NewResolveWikiLinkHandler(resolver *services.WikiLinkResolver) *ResolveWikiLinkHandler {
	return &ResolveWikiLinkHandler{resolver: resolver}
}

// Handle executes the resolve wiki-link command
func (h *ResolveWikiLinkHandler) Handle(ctx context.Context, cmd ResolveWikiLinkCommand) (*services.Resolution, error) {
	return h.resolver.ResolveWikiLink(ctx, cmd.OwnerID, cmd.Title)
}
