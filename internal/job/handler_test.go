package job

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentsift/talentsift/internal/auth"
)

// newTestRouter mounts the handler behind a middleware that injects the
// given user, standing in for token authentication.
func newTestRouter(h *Handler, userID uuid.UUID) *chi.Mux {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := context.WithValue(req.Context(), auth.UserIDContextKey, userID)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Route("/jobs", func(r chi.Router) {
		r.Post("/", h.Submit)
		r.Get("/", h.List)
		r.Get("/stats", h.Stats)
		r.Get("/{id}/status", h.Status)
		r.Get("/{id}/candidates", h.Candidates)
		r.Get("/{id}/candidates/shortlisted", h.Shortlisted)
	})
	return r
}

func submitBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(SubmitRequest{
		Title:       "Backend Engineer",
		Description: "Go services",
		Resumes: []ResumeUpload{
			{FileName: "resume1.pdf", Content: "ten years of Go"},
		},
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestHandlerSubmitAndRead(t *testing.T) {
	f := newFixture(t, &fakeScorer{result: sampleResult()}, SyncDispatcher{})
	h := NewHandler(f.orch, f.users)
	router := newTestRouter(h, f.owner.ID)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs", submitBody(t)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEqual(t, uuid.Nil, created.ID)

	// Status reflects the completed synchronous run.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/jobs/%s/status", created.ID), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, StatusCompleted, got.Status)

	// Candidate listing comes back ranked.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/jobs/%s/candidates", created.ID), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var ranked []struct {
		MatchScore float64 `json:"match_score"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ranked))
	require.Len(t, ranked, 5)
	assert.Equal(t, 94.0, ranked[0].MatchScore)
	assert.Equal(t, 42.0, ranked[4].MatchScore)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/jobs/%s/candidates/shortlisted", created.ID), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ranked))
	assert.Len(t, ranked, 2)

	// Job list includes the run.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var jobs []Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jobs))
	assert.Len(t, jobs, 1)
}

func TestHandlerSubmitInsufficientCredits(t *testing.T) {
	f := newFixture(t, &fakeScorer{result: sampleResult()}, SyncDispatcher{})
	require.NoError(t, f.users.UpdateBalances(context.Background(), f.owner.ID, 0, 0))

	h := NewHandler(f.orch, f.users)
	router := newTestRouter(h, f.owner.ID)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs", submitBody(t)))
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)

	var resp struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "insufficient credits", resp.Error)
}

func TestHandlerSubmitValidation(t *testing.T) {
	f := newFixture(t, &fakeScorer{result: sampleResult()}, SyncDispatcher{})
	h := NewHandler(f.orch, f.users)
	router := newTestRouter(h, f.owner.ID)

	body, err := json.Marshal(SubmitRequest{Title: "", Description: "Go services"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewBuffer(body)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerJobNotFound(t *testing.T) {
	f := newFixture(t, &fakeScorer{result: sampleResult()}, SyncDispatcher{})
	h := NewHandler(f.orch, f.users)
	router := newTestRouter(h, f.owner.ID)

	tests := []string{
		fmt.Sprintf("/jobs/%s/status", uuid.New()),
		fmt.Sprintf("/jobs/%s/candidates", uuid.New()),
		"/jobs/not-a-uuid/status",
	}

	for _, path := range tests {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusNotFound, rec.Code)
		})
	}
}

func TestHandlerStats(t *testing.T) {
	f := newFixture(t, &fakeScorer{result: sampleResult()}, SyncDispatcher{})
	h := NewHandler(f.orch, f.users)
	router := newTestRouter(h, f.owner.ID)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs", submitBody(t)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.TotalJobs)
	assert.Equal(t, 5, resp.TotalCandidates)
	assert.Equal(t, 1250, resp.TotalTokensUsed)
	assert.InDelta(t, 2.50, resp.TotalCost, 0.001)
	assert.Equal(t, 49, resp.FreeTrialRemaining)
}
