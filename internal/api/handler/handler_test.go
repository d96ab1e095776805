package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsight-ai/docsight/internal/api"
	"github.com/docsight-ai/docsight/internal/api/handler"
	"github.com/docsight-ai/docsight/internal/jobs"
	"github.com/docsight-ai/docsight/internal/store"
	"github.com/docsight-ai/docsight/pkg/models"
)

type fakeSubmitter struct {
	job    *models.Job
	err    error
	gotP   jobs.SubmitParams
	called bool
}

func (f *fakeSubmitter) Submit(_ context.Context, p jobs.SubmitParams) (*models.Job, error) {
	f.called = true
	f.gotP = p
	if f.err != nil {
		return nil, f.err
	}
	return f.job, nil
}

type fakeResolver struct {
	job *models.Job
	err error
}

func (f *fakeResolver) Status(context.Context, uuid.UUID) (*models.Job, error) {
	return f.job, f.err
}

type fakeLister struct {
	user *models.User
	jobs []*models.Job
	err  error
}

func (f *fakeLister) OwnerJobs(context.Context, uuid.UUID) (*models.User, []*models.Job, error) {
	return f.user, f.jobs, f.err
}

// newTestRouter mounts the given handlers on the real route tree so URL
// parameters resolve the same way they do in production.
func newTestRouter(deps api.Dependencies) http.Handler {
	return api.NewRouter(deps)
}

func multipartBody(t *testing.T, fields map[string]string, fileField, fileName, fileContent string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := w.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = io.WriteString(fw, fileContent)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func decodeData(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	var env struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(body).Decode(&env))
	return env.Data
}

func decodeError(t *testing.T, body io.Reader) (code, message string) {
	t.Helper()
	var env struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(body).Decode(&env))
	return env.Error.Code, env.Error.Message
}

func TestAnalyzeHandler_Accepted(t *testing.T) {
	jobID := uuid.New()
	sub := &fakeSubmitter{job: &models.Job{ID: jobID, Status: models.JobStatusQueued}}
	router := newTestRouter(api.Dependencies{AnalyzeHandler: handler.NewAnalyzeHandler(sub)})

	body, contentType := multipartBody(t, map[string]string{
		"query":      "Summarize the filing",
		"user_name":  "Alice",
		"user_email": "alice@example.com",
	}, "file", "report.pdf", "%PDF-1.4 stub")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusAccepted, rr.Code)
	data := decodeData(t, rr.Body)
	assert.Equal(t, jobID.String(), data["job_id"])
	assert.Equal(t, "queued", data["status"])
	assert.Equal(t, "/api/v1/jobs/"+jobID.String(), data["status_url"])

	assert.Equal(t, "report.pdf", sub.gotP.FileName)
	assert.Equal(t, "Summarize the filing", sub.gotP.Query)
	assert.Equal(t, "Alice", sub.gotP.OwnerName)
	assert.Equal(t, "alice@example.com", sub.gotP.OwnerEmail)
}

func TestAnalyzeHandler_MissingFile(t *testing.T) {
	sub := &fakeSubmitter{}
	router := newTestRouter(api.Dependencies{AnalyzeHandler: handler.NewAnalyzeHandler(sub)})

	body, contentType := multipartBody(t, map[string]string{"query": "anything"}, "", "", "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	code, _ := decodeError(t, rr.Body)
	assert.Equal(t, "INVALID_INPUT", code)
	assert.False(t, sub.called)
}

func TestAnalyzeHandler_NotMultipart(t *testing.T) {
	router := newTestRouter(api.Dependencies{AnalyzeHandler: handler.NewAnalyzeHandler(&fakeSubmitter{})})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", bytes.NewBufferString(`{"query":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAnalyzeHandler_InvalidInput(t *testing.T) {
	sub := &fakeSubmitter{err: jobs.ErrInvalidInput}
	router := newTestRouter(api.Dependencies{AnalyzeHandler: handler.NewAnalyzeHandler(sub)})

	body, contentType := multipartBody(t, nil, "file", "notes.txt", "plain text")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	code, _ := decodeError(t, rr.Body)
	assert.Equal(t, "INVALID_INPUT", code)
}

func TestAnalyzeHandler_EnqueueFailed(t *testing.T) {
	sub := &fakeSubmitter{err: jobs.ErrEnqueueFailed}
	router := newTestRouter(api.Dependencies{AnalyzeHandler: handler.NewAnalyzeHandler(sub)})

	body, contentType := multipartBody(t, nil, "file", "report.pdf", "%PDF-1.4 stub")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	code, _ := decodeError(t, rr.Body)
	assert.Equal(t, "ENQUEUE_FAILED", code)
}

func TestJobStatusHandler_Queued(t *testing.T) {
	jobID := uuid.New()
	res := &fakeResolver{job: &models.Job{ID: jobID, Status: models.JobStatusQueued}}
	router := newTestRouter(api.Dependencies{JobStatusHandler: handler.NewJobStatusHandler(res)})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+jobID.String(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	data := decodeData(t, rr.Body)
	assert.Equal(t, "queued", data["status"])
	assert.NotContains(t, data, "result")
	assert.NotContains(t, data, "error")
}

func TestJobStatusHandler_Completed(t *testing.T) {
	jobID := uuid.New()
	ownerID := uuid.New()
	result := "detailed investment analysis"
	done := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	res := &fakeResolver{job: &models.Job{
		ID:          jobID,
		OwnerID:     &ownerID,
		Query:       "Summarize the filing",
		FileName:    "report.pdf",
		Status:      models.JobStatusCompleted,
		ResultText:  &result,
		CompletedAt: &done,
	}}
	router := newTestRouter(api.Dependencies{JobStatusHandler: handler.NewJobStatusHandler(res)})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+jobID.String(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	data := decodeData(t, rr.Body)
	assert.Equal(t, "completed", data["status"])
	assert.Equal(t, "2026-08-30T12:00:00Z", data["completed_at"])

	resultObj, ok := data["result"].(map[string]any)
	require.True(t, ok, "completed response must carry a result object")
	assert.Equal(t, "success", resultObj["status"])
	assert.Equal(t, "Summarize the filing", resultObj["query"])
	assert.Equal(t, result, resultObj["analysis"])
	assert.Equal(t, "report.pdf", resultObj["file_processed"])
	assert.Equal(t, ownerID.String(), resultObj["owner_id"])
}

func TestJobStatusHandler_Failed(t *testing.T) {
	jobID := uuid.New()
	msg := "reading document: garbled pdf"
	done := time.Now().UTC()
	res := &fakeResolver{job: &models.Job{
		ID:           jobID,
		Status:       models.JobStatusFailed,
		ErrorMessage: &msg,
		CompletedAt:  &done,
	}}
	router := newTestRouter(api.Dependencies{JobStatusHandler: handler.NewJobStatusHandler(res)})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+jobID.String(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	data := decodeData(t, rr.Body)
	assert.Equal(t, "failed", data["status"])
	assert.Equal(t, msg, data["error"])
	assert.NotContains(t, data, "result")
}

func TestJobStatusHandler_NotFound(t *testing.T) {
	res := &fakeResolver{err: store.ErrNotFound}
	router := newTestRouter(api.Dependencies{JobStatusHandler: handler.NewJobStatusHandler(res)})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+uuid.New().String(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
	code, _ := decodeError(t, rr.Body)
	assert.Equal(t, "JOB_NOT_FOUND", code)
}

func TestJobStatusHandler_MalformedID(t *testing.T) {
	router := newTestRouter(api.Dependencies{JobStatusHandler: handler.NewJobStatusHandler(&fakeResolver{})})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/not-a-uuid", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	code, _ := decodeError(t, rr.Body)
	assert.Equal(t, "INVALID_INPUT", code)
}

func TestOwnerJobsHandler_Listing(t *testing.T) {
	ownerID := uuid.New()
	name := "Alice"
	email := "alice@example.com"
	newer := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)
	lister := &fakeLister{
		user: &models.User{ID: ownerID, Name: &name, Email: &email},
		jobs: []*models.Job{
			{ID: uuid.New(), Status: models.JobStatusQueued, Query: "q2", FileName: "b.pdf", CreatedAt: newer},
			{ID: uuid.New(), Status: models.JobStatusCompleted, Query: "q1", FileName: "a.pdf", CreatedAt: older, CompletedAt: &newer},
		},
	}
	router := newTestRouter(api.Dependencies{OwnerJobsHandler: handler.NewOwnerJobsHandler(lister)})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/"+ownerID.String()+"/jobs", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	data := decodeData(t, rr.Body)

	user, ok := data["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, ownerID.String(), user["id"])
	assert.Equal(t, "Alice", user["name"])
	assert.Equal(t, "alice@example.com", user["email"])

	items, ok := data["jobs"].([]any)
	require.True(t, ok)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.Equal(t, "q2", first["query"])
	assert.NotContains(t, first, "completed_at")
	second := items[1].(map[string]any)
	assert.Equal(t, "completed", second["status"])
	assert.Contains(t, second, "completed_at")
}

func TestOwnerJobsHandler_EmptyListIsArray(t *testing.T) {
	ownerID := uuid.New()
	lister := &fakeLister{user: &models.User{ID: ownerID}}
	router := newTestRouter(api.Dependencies{OwnerJobsHandler: handler.NewOwnerJobsHandler(lister)})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/"+ownerID.String()+"/jobs", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	data := decodeData(t, rr.Body)
	items, ok := data["jobs"].([]any)
	require.True(t, ok, "jobs must be an array even when empty")
	assert.Empty(t, items)
}

func TestOwnerJobsHandler_UnknownUser(t *testing.T) {
	lister := &fakeLister{err: store.ErrNotFound}
	router := newTestRouter(api.Dependencies{OwnerJobsHandler: handler.NewOwnerJobsHandler(lister)})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/"+uuid.New().String()+"/jobs", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
	code, _ := decodeError(t, rr.Body)
	assert.Equal(t, "USER_NOT_FOUND", code)
}

var errBoom = errors.New("boom")

func TestJobStatusHandler_InternalError(t *testing.T) {
	router := newTestRouter(api.Dependencies{JobStatusHandler: handler.NewJobStatusHandler(&fakeResolver{err: errBoom})})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+uuid.New().String(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	code, _ := decodeError(t, rr.Body)
	assert.Equal(t, "INTERNAL_ERROR", code)
}
