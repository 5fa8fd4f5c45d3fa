package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/omniprompt/internal/domain"
	"github.com/phrazzld/omniprompt/internal/events"
	"github.com/phrazzld/omniprompt/internal/generation"
	"github.com/phrazzld/omniprompt/internal/service"
	"github.com/phrazzld/omniprompt/internal/store"
	"github.com/phrazzld/omniprompt/internal/task"
)

// fakeRecordStore backs run handler tests with in-memory records.
type fakeRecordStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*domain.Record
	writes  map[uuid.UUID]string
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{
		records: make(map[uuid.UUID]*domain.Record),
		writes:  make(map[uuid.UUID]string),
	}
}

func (f *fakeRecordStore) add(t *testing.T) *domain.Record {
	t.Helper()
	rec, err := domain.NewRecord(uuid.New(), "Basic", map[string]string{"Front": "cat", "Back": ""})
	require.NoError(t, err)
	f.mu.Lock()
	f.records[rec.ID] = rec
	f.mu.Unlock()
	return rec
}

func (f *fakeRecordStore) SelectRecords(ctx context.Context, ids []uuid.UUID) ([]*domain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Record, 0, len(ids))
	for _, id := range ids {
		rec, ok := f.records[id]
		if !ok {
			return nil, store.ErrRecordNotFound
		}
		out = append(out, rec)
	}
	return out, nil
}

func (f *fakeRecordStore) GetRecord(ctx context.Context, id uuid.UUID) (*domain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	return rec, nil
}

func (f *fakeRecordStore) UpdateField(ctx context.Context, id uuid.UUID, field, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[id]; !ok {
		return store.ErrRecordNotFound
	}
	f.writes[id] = text
	return nil
}

func (f *fakeRecordStore) FieldNames(ctx context.Context, typeName string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.records {
		if rec.TypeName == typeName {
			return []string{"Front", "Back"}, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeRecordStore) CreateRecord(ctx context.Context, rec *domain.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[rec.ID] = rec
	return nil
}

func (f *fakeRecordStore) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes)
}

type inlineRunner struct{}

func (inlineRunner) Submit(t task.Task) error { return t.Execute(context.Background()) }

type fixedGenerator struct{ text string }

func (g fixedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.text, nil
}

func (g fixedGenerator) GenerateStream(ctx context.Context, prompt string) (<-chan generation.StreamChunk, error) {
	ch := make(chan generation.StreamChunk, 1)
	ch <- generation.StreamChunk{Text: g.text}
	close(ch)
	return ch, nil
}

// runTestServer wires the run routes the way cmd/server does, minus auth.
func runTestServer(t *testing.T, recordStore *fakeRecordStore) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
	factory := func(ctx context.Context, l *slog.Logger, settings domain.ProviderSettings) (generation.Generator, error) {
		return fixedGenerator{text: "le chat"}, nil
	}
	defaults := domain.ProviderSettings{
		Provider: domain.ProviderOpenAI,
		Model:    "gpt-4o-mini",
		APIKey:   "sk-test",
		Timeout:  time.Second,
	}

	svc, err := service.NewRunService(
		recordStore, task.NewRegistry(), inlineRunner{}, factory,
		events.NewInMemoryEmitter(logger), defaults, 1, logger,
	)
	require.NoError(t, err)

	h := NewRunHandler(svc)
	r := chi.NewRouter()
	r.Route("/api/runs", func(r chi.Router) {
		r.Post("/", h.CreateRun)
		r.Get("/{id}", h.GetRun)
		r.Post("/{id}/cancel", h.CancelRun)
		r.Patch("/{id}/outcomes/{index}", h.EditOutcome)
		r.Post("/{id}/commit", h.Commit)
		r.Post("/{id}/discard", h.Discard)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func createRun(t *testing.T, srv *httptest.Server, recordStore *fakeRecordStore, n int) task.Snapshot {
	t.Helper()

	ids := make([]uuid.UUID, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, recordStore.add(t).ID)
	}

	resp, raw := doJSON(t, http.MethodPost, srv.URL+"/api/runs", CreateRunRequest{
		RecordIDs:   ids,
		Template:    "Translate {Front} to French",
		TargetField: "Back",
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode, string(raw))

	var snap task.Snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))
	return snap
}

func TestCreateAndGetRun(t *testing.T) {
	t.Parallel()

	recordStore := newFakeRecordStore()
	srv := runTestServer(t, recordStore)

	snap := createRun(t, srv, recordStore, 2)
	require.NotZero(t, snap.ID)

	resp, raw := doJSON(t, http.MethodGet, srv.URL+"/api/runs/"+snap.ID.String(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got task.Snapshot
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, task.RunCompleted, got.Status)
	assert.Equal(t, 2, got.Counts.Succeeded)
	require.Len(t, got.Outcomes, 2)
	assert.Equal(t, "le chat", got.Outcomes[0].Text)
}

func TestCreateRunValidation(t *testing.T) {
	t.Parallel()

	recordStore := newFakeRecordStore()
	srv := runTestServer(t, recordStore)

	// No record IDs.
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/runs", CreateRunRequest{
		Template:    "x",
		TargetField: "Back",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Unknown record.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/runs", CreateRunRequest{
		RecordIDs:   []uuid.UUID{uuid.New()},
		Template:    "x",
		TargetField: "Back",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEditCommitDiscardEndpoints(t *testing.T) {
	t.Parallel()

	recordStore := newFakeRecordStore()
	srv := runTestServer(t, recordStore)
	snap := createRun(t, srv, recordStore, 3)
	base := srv.URL + "/api/runs/" + snap.ID.String()

	// Edit outcome 0.
	edited := "le chaton"
	resp, raw := doJSON(t, http.MethodPatch, base+"/outcomes/0", EditOutcomeRequest{Text: &edited})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var got task.Snapshot
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "le chaton", got.Outcomes[0].Text)

	// Unapprove outcome 1.
	unapprove := false
	resp, _ = doJSON(t, http.MethodPatch, base+"/outcomes/1", EditOutcomeRequest{Approved: &unapprove})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Neither field set is rejected.
	resp, _ = doJSON(t, http.MethodPatch, base+"/outcomes/1", EditOutcomeRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Out-of-range index.
	resp, _ = doJSON(t, http.MethodPatch, base+"/outcomes/99", EditOutcomeRequest{Text: &edited})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Commit writes the two approved outcomes.
	resp, raw = doJSON(t, http.MethodPost, base+"/commit", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report struct {
		Updated int `json:"updated"`
		Failed  int `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(raw, &report))
	assert.Equal(t, 2, report.Updated)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 2, recordStore.writeCount())

	// Discard afterwards makes further commits fail with a conflict.
	resp, _ = doJSON(t, http.MethodPost, base+"/discard", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, base+"/commit", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRunEndpointsUnknownRun(t *testing.T) {
	t.Parallel()

	srv := runTestServer(t, newFakeRecordStore())
	missing := srv.URL + "/api/runs/" + uuid.NewString()

	resp, _ := doJSON(t, http.MethodGet, missing, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, missing+"/cancel", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/runs/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
