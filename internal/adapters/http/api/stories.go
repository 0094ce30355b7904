package api

import (
	"context"
	"net/http"

	"github.com/okian/terimu/internal/domain/types"
)

// StoriesDependencies lists the catalog.
type StoriesDependencies interface {
	ListStories(ctx context.Context, lang string) []types.StoryView
}

// StoriesHandler serves the story catalog.
type StoriesHandler struct {
	deps StoriesDependencies
}

// NewStoriesHandler creates a new stories handler.
func NewStoriesHandler(deps StoriesDependencies) *StoriesHandler {
	return &StoriesHandler{deps: deps}
}

// HandleListStories handles GET /stories.
func (h *StoriesHandler) HandleListStories(w http.ResponseWriter, r *http.Request) {
	stories := h.deps.ListStories(r.Context(), requestLang(r, ""))
	if stories == nil {
		stories = []types.StoryView{}
	}
	writeJSON(w, http.StatusOK, types.StoriesView{Stories: stories})
}
