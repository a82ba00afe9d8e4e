package delivery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"outreach-backend/internal/outreach/domain"
	"outreach-backend/internal/outreach/dto"
	"outreach-backend/internal/outreach/usecase"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOutreach struct {
	usecase.OutreachUsecase
	runReq  dto.RunRequest
	runErr  error
	sendErr error
	email   *domain.SuggestedEmail
}

func (f *fakeOutreach) RunBatch(ctx context.Context, req dto.RunRequest) (*domain.BatchResult, error) {
	f.runReq = req
	if f.runErr != nil {
		return nil, f.runErr
	}
	return &domain.BatchResult{Evaluated: 1, Sent: 1}, nil
}

func (f *fakeOutreach) ApproveSuggestedEmail(id string) (*domain.SuggestedEmail, error) {
	if f.email == nil || f.email.ID != id {
		return nil, domain.ErrSuggestedEmailNotFound
	}
	if f.email.Status != domain.StatusDraft {
		return nil, domain.ErrInvalidTransition
	}
	f.email.Status = domain.StatusApproved
	return f.email, nil
}

func (f *fakeOutreach) EditSuggestedEmail(id string, req dto.EditRequest) (*domain.SuggestedEmail, error) {
	if req.Body != nil && strings.TrimSpace(*req.Body) == "" {
		return nil, domain.ErrEmptyContent
	}
	return f.email, nil
}

func (f *fakeOutreach) SendApproved(ctx context.Context, id string) (*domain.SuggestedEmail, error) {
	return f.email, f.sendErr
}

func newRouter(f *fakeOutreach) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewOutreachHandler(f)
	r := gin.New()
	r.POST("/api/outreach/run", h.RunPipeline)
	r.POST("/api/queue/:id/approve", h.Approve)
	r.POST("/api/queue/:id/send", h.Send)
	r.PATCH("/api/queue/:id", h.EditSuggestedEmail)
	return r
}

func TestRunPipeline(t *testing.T) {
	f := &fakeOutreach{}
	r := newRouter(f)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/outreach/run", strings.NewReader(`{"limit":5,"dry_run":true}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, f.runReq.Limit)
	assert.True(t, f.runReq.DryRun)

	var result domain.BatchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Sent)
}

func TestRunPipeline_EmptyBodyAndLock(t *testing.T) {
	f := &fakeOutreach{runErr: usecase.ErrRunInProgress}
	r := newRouter(f)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/outreach/run", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRunPipeline_RejectsNegativeLimit(t *testing.T) {
	r := newRouter(&fakeOutreach{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/outreach/run", strings.NewReader(`{"limit":-1}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApprove_StatusCodes(t *testing.T) {
	f := &fakeOutreach{email: &domain.SuggestedEmail{ID: "s1", Status: domain.StatusDraft}}
	r := newRouter(f)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/queue/s1/approve", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/queue/s1/approve", nil))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/queue/nope/approve", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSend_FailureIsBadGateway(t *testing.T) {
	f := &fakeOutreach{
		email:   &domain.SuggestedEmail{ID: "s1", Status: domain.StatusApproved, SendStatus: domain.SendStatusFailed},
		sendErr: usecase.ErrSendFailed,
	}
	r := newRouter(f)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/queue/s1/send", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), `"send_status":"failed"`)
}

func TestEdit_RequiresAField(t *testing.T) {
	r := newRouter(&fakeOutreach{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/queue/s1", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEdit_BlankBodyIsBadRequest(t *testing.T) {
	r := newRouter(&fakeOutreach{email: &domain.SuggestedEmail{ID: "s1", Status: domain.StatusApproved}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/queue/s1", strings.NewReader(`{"body":"   "}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
