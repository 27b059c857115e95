package jobs

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (f fakeInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return f.info, f.err
}

func TestInspectCopiesQueueDepth(t *testing.T) {
	stats, err := Inspect(fakeInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 4, Active: 1, Scheduled: 2, Retry: 3, Archived: 5}})
	require.NoError(t, err)
	assert.Equal(t, QueueStats{Queue: "default", Pending: 4, Active: 1, Scheduled: 2, Retry: 3, Archived: 5}, stats)
}

func TestInspectTreatsMissingQueueAsEmpty(t *testing.T) {
	stats, err := Inspect(fakeInspector{err: fmt.Errorf("asynq: %w", asynq.ErrQueueNotFound)})
	require.NoError(t, err)
	assert.Equal(t, QueueStats{Queue: QueueDefault}, stats)
}

func TestHealthReportsUnavailableQueue(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(fakeInspector{err: errors.New("dial tcp: refused")}, quietLogger()).MountRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthServesStats(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(fakeInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 7}}, quietLogger()).MountRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body QueueStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 7, body.Pending)
}
