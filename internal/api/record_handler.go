package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/phrazzld/omniprompt/internal/store"
)

// RecordHandler serves record metadata used to build run requests.
type RecordHandler struct {
	store store.RecordStore
}

// NewRecordHandler creates a new RecordHandler with the given store.
func NewRecordHandler(recordStore store.RecordStore) *RecordHandler {
	return &RecordHandler{store: recordStore}
}

// ListFields handles GET /api/records/types/{type}/fields. The returned
// field names populate template placeholders and the target-field choice
// for a new run.
func (h *RecordHandler) ListFields(w http.ResponseWriter, r *http.Request) {
	typeName := chi.URLParam(r, "type")
	if typeName == "" {
		RespondWithError(w, r, http.StatusBadRequest, "missing type parameter")
		return
	}

	fields, err := h.store.FieldNames(r.Context(), typeName)
	if err != nil {
		respondWithMappedError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, FieldsResponse{TypeName: typeName, Fields: fields})
}
