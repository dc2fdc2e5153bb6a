package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ricardocosta23/formularioguias/app"
	"github.com/ricardocosta23/formularioguias/boards"
	"github.com/ricardocosta23/formularioguias/config"
	"github.com/ricardocosta23/formularioguias/dispatch"
	"github.com/ricardocosta23/formularioguias/forms"
	"github.com/ricardocosta23/formularioguias/httpx"
	"github.com/ricardocosta23/formularioguias/model"
	"github.com/ricardocosta23/formularioguias/store"
)

type fakeSink struct {
	mu      sync.Mutex
	created int
}

func (f *fakeSink) CreateItem(ctx context.Context, boardID, itemName string) (string, error) {
	return "", errors.New("not implemented")
}
func (f *fakeSink) CreateItemWithValues(ctx context.Context, boardID, itemName string, columnValues map[string]any) (string, error) {
	f.mu.Lock()
	f.created++
	f.mu.Unlock()
	return "987", nil
}
func (f *fakeSink) UpdateItemColumn(ctx context.Context, boardID, itemID, columnID, value string) error {
	return errors.New("not implemented")
}
func (f *fakeSink) FetchColumnValue(ctx context.Context, itemID, columnID string) (model.ColumnValue, error) {
	return model.FetchedValue("Guia: Maria"), nil
}

func (f *fakeSink) createdCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created
}

func testApp(t *testing.T, cfg boards.Config) (app.App, *fakeSink) {
	t.Helper()
	t.Setenv("FORMS_CONFIG", "")

	registry := boards.Load(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, registry.Save(cfg))

	formStore := store.NewFileStore(t.TempDir())
	sink := &fakeSink{}

	a := app.App{
		Store:  formStore,
		Boards: registry,
		Sink:   sink,
		Generator: &forms.Generator{
			Store:  formStore,
			Boards: registry,
			Sink:   sink,
		},
		Processor: &dispatch.Processor{
			Sink:   sink,
			Boards: registry,
		},
		BearerServer: httpx.NewBearerServer(nil, config.Config{
			TokenSecret: "test-secret",
			TokenTTL:    time.Minute,
		}),
		Config: config.Config{TokenSecret: "test-secret"},
	}
	return a, sink
}

func TestPublicGetFormById(t *testing.T) {
	a, _ := testApp(t, boards.Config{"guias": {BoardB: "222"}})
	require.NoError(t, a.Store.Put(model.FormDefinition{
		ID:   "form-1",
		Type: "guias",
		Questions: []model.Question{
			{ID: "q1", Type: model.TypeYesNo, Text: "Gostou?", DestinationColumn: "col_a"},
		},
		CreatedAt: time.Now(),
	}))
	handler := Wire(a)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/forms/form-1", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"form-1"`)
	assert.Contains(t, rec.Body.String(), `"Gostou?"`)
}

func TestPublicGetFormByIdNotFound(t *testing.T) {
	a, _ := testApp(t, boards.Config{})
	handler := Wire(a)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/forms/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPublicSubmitFormAcceptsAndEnqueues(t *testing.T) {
	a, sink := testApp(t, boards.Config{"guias": {BoardB: "222"}})
	require.NoError(t, a.Store.Put(model.FormDefinition{
		ID:   "form-1",
		Type: "guias",
		Questions: []model.Question{
			{ID: "q1", Type: model.TypeYesNo, DestinationColumn: "col_a"},
		},
		CreatedAt: time.Now(),
	}))
	handler := Wire(a)

	body := strings.NewReader(`{"answers": {"q1": "yes"}}`)
	req := httptest.NewRequest("POST", "/api/forms/form-1/submissions", body)
	req.Header.Set("content-type", "application/json")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool {
		return sink.createdCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPublicSubmitFormAcceptsFormEncoded(t *testing.T) {
	a, sink := testApp(t, boards.Config{"guias": {BoardB: "222"}})
	require.NoError(t, a.Store.Put(model.FormDefinition{
		ID:   "form-1",
		Type: "guias",
		Questions: []model.Question{
			{ID: "q1", Type: model.TypeYesNo, DestinationColumn: "col_a"},
		},
		CreatedAt: time.Now(),
	}))
	handler := Wire(a)

	req := httptest.NewRequest("POST", "/api/forms/form-1/submissions", strings.NewReader("q1=yes"))
	req.Header.Set("content-type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool {
		return sink.createdCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPublicSubmitFormUnknownIdIs404(t *testing.T) {
	a, _ := testApp(t, boards.Config{})
	handler := Wire(a)

	req := httptest.NewRequest("POST", "/api/forms/nope/submissions", strings.NewReader(`{"answers":{}}`))
	req.Header.Set("content-type", "application/json")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPublicSubmitFormWithoutDestinationBoard(t *testing.T) {
	a, _ := testApp(t, boards.Config{"guias": {}})
	require.NoError(t, a.Store.Put(model.FormDefinition{
		ID:        "form-1",
		Type:      "guias",
		CreatedAt: time.Now(),
	}))
	handler := Wire(a)

	req := httptest.NewRequest("POST", "/api/forms/form-1/submissions", strings.NewReader(`{"answers":{}}`))
	req.Header.Set("content-type", "application/json")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestWebhookChallengeEcho(t *testing.T) {
	a, _ := testApp(t, boards.Config{"guias": {BoardB: "222"}})
	handler := Wire(a)

	req := httptest.NewRequest("POST", "/api/webhooks/guias", strings.NewReader(`{"challenge": "abc123"}`))
	req.Header.Set("content-type", "application/json")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"challenge": "abc123"}`, rec.Body.String())
}

func TestWebhookCreatesForm(t *testing.T) {
	a, _ := testApp(t, boards.Config{
		"guias": {
			BoardA: "111",
			BoardB: "222",
			Questions: []model.Question{
				{ID: "q1", Type: model.TypeYesNo, DestinationColumn: "col_a"},
			},
		},
	})
	handler := Wire(a)

	body := strings.NewReader(`{"event": {"pulseId": 42, "pulseName": "Viagem Bahia"}}`)
	req := httptest.NewRequest("POST", "/api/webhooks/guias", body)
	req.Header.Set("content-type", "application/json")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"form_id"`)

	require.Len(t, a.Store.List(), 1)
}

func TestWebhookUnknownTypeIs422(t *testing.T) {
	a, _ := testApp(t, boards.Config{})
	handler := Wire(a)

	req := httptest.NewRequest("POST", "/api/webhooks/viagens", strings.NewReader(`{"event": {"pulseId": 1}}`))
	req.Header.Set("content-type", "application/json")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
