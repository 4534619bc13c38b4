package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tunedrop/tunedrop/internal/config"
	"github.com/tunedrop/tunedrop/internal/model"
	"github.com/tunedrop/tunedrop/internal/queue"
	"github.com/tunedrop/tunedrop/internal/storage"
)

type fakeEnqueuer struct {
	payloads []queue.DownloadPayload
	err      error
}

func (e *fakeEnqueuer) Enqueue(_ context.Context, payload queue.DownloadPayload) error {
	if e.err != nil {
		return e.err
	}
	e.payloads = append(e.payloads, payload)
	return nil
}

func newServer(t *testing.T) (*Server, *storage.MemoryStore, *fakeEnqueuer) {
	t.Helper()
	store := storage.NewMemoryStore()
	enqueuer := &fakeEnqueuer{}
	srv := New(&config.Config{Address: ":0"}, store, enqueuer, zap.NewNop())
	return srv, store, enqueuer
}

func TestSubmitJob(t *testing.T) {
	srv, store, enqueuer := newServer(t)
	body := `{"userId":"42","url":"https://music.apple.com/us/album/some-album/123456789","options":{"atmos":""}}`

	rec := httptest.NewRecorder()
	srv.handleJobs(rec, httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(body)))

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(model.StatusQueued), resp["status"])
	require.NotEmpty(t, resp["id"])

	require.Len(t, enqueuer.payloads, 1)
	assert.Equal(t, resp["id"], enqueuer.payloads[0].JobID)
	assert.Equal(t, "42", enqueuer.payloads[0].UserID)

	job, err := store.Get(context.Background(), resp["id"])
	require.NoError(t, err)
	assert.Equal(t, "123456789", job.ContentID)
	assert.Equal(t, map[string]string{"atmos": ""}, job.Options)
}

func TestSubmitJobRejectsBadURL(t *testing.T) {
	srv, _, enqueuer := newServer(t)
	body := `{"userId":"42","url":"https://example.com/album/x/1"}`

	rec := httptest.NewRecorder()
	srv.handleJobs(rec, httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, enqueuer.payloads)
}

func TestSubmitJobRequiresUser(t *testing.T) {
	srv, _, _ := newServer(t)
	body := `{"url":"https://music.apple.com/us/album/some-album/123456789"}`

	rec := httptest.NewRecorder()
	srv.handleJobs(rec, httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitJobQueueFailure(t *testing.T) {
	srv, _, enqueuer := newServer(t)
	enqueuer.err = errors.New("broker down")
	body := `{"userId":"42","url":"https://music.apple.com/us/album/some-album/123456789"}`

	rec := httptest.NewRecorder()
	srv.handleJobs(rec, httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(body)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetJob(t *testing.T) {
	srv, store, _ := newServer(t)
	require.NoError(t, store.Create(context.Background(), &model.Job{ID: "j1", UserID: "42"}))

	rec := httptest.NewRecorder()
	srv.handleJobRoute(rec, httptest.NewRequest(http.MethodGet, "/jobs/j1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var job model.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, "42", job.UserID)
}

func TestGetJobNotFound(t *testing.T) {
	srv, _, _ := newServer(t)

	rec := httptest.NewRecorder()
	srv.handleJobRoute(rec, httptest.NewRequest(http.MethodGet, "/jobs/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOptionsEndpoint(t *testing.T) {
	srv, _, _ := newServer(t)

	rec := httptest.NewRecorder()
	srv.handleOptions(rec, httptest.NewRequest(http.MethodGet, "/options", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var specs []struct {
		Key  string `json:"key"`
		Flag string `json:"flag"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &specs))
	keys := make([]string, 0, len(specs))
	for _, spec := range specs {
		keys = append(keys, spec.Key)
	}
	assert.Contains(t, keys, "atmos")
	assert.Contains(t, keys, "alac-max")
}
