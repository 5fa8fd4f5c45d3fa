package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordTestServer(t *testing.T, recordStore *fakeRecordStore) *httptest.Server {
	t.Helper()

	h := NewRecordHandler(recordStore)
	r := chi.NewRouter()
	r.Get("/api/records/types/{type}/fields", h.ListFields)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestListFields(t *testing.T) {
	t.Parallel()

	recordStore := newFakeRecordStore()
	recordStore.add(t)
	srv := recordTestServer(t, recordStore)

	resp, raw := doJSON(t, http.MethodGet, srv.URL+"/api/records/types/Basic/fields", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var body FieldsResponse
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "Basic", body.TypeName)
	assert.Equal(t, []string{"Front", "Back"}, body.Fields)
}

func TestListFieldsUnknownType(t *testing.T) {
	t.Parallel()

	srv := recordTestServer(t, newFakeRecordStore())

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/records/types/Cloze/fields", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
