package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/omniprompt/internal/prompt"
)

// TemplateHandler serves the saved prompt template library.
type TemplateHandler struct {
	library   *prompt.Library
	validator *validator.Validate
}

// NewTemplateHandler creates a new TemplateHandler backed by the given
// library.
func NewTemplateHandler(library *prompt.Library) *TemplateHandler {
	return &TemplateHandler{
		library:   library,
		validator: validator.New(),
	}
}

// ListTemplates handles GET /api/templates. It returns every saved
// template by name; clients pick one as the starting point for a run.
func (h *TemplateHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.library.Load()
	if err != nil {
		respondWithMappedError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, TemplatesResponse{Templates: templates})
}

// SaveTemplate handles PUT /api/templates/{name}. It upserts one named
// template; the library file is rewritten in full.
func (h *TemplateHandler) SaveTemplate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		RespondWithError(w, r, http.StatusBadRequest, "missing name parameter")
		return
	}

	var req SaveTemplateRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if err := h.library.Put(name, req.Template); err != nil {
		respondWithMappedError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
