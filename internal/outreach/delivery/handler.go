package delivery

import (
	"errors"
	"net/http"
	"strconv"

	brokerusecase "outreach-backend/internal/broker/usecase"
	"outreach-backend/internal/outreach/domain"
	"outreach-backend/internal/outreach/dto"
	"outreach-backend/internal/outreach/usecase"
	"outreach-backend/pkg/validator"

	"github.com/gin-gonic/gin"
)

// OutreachHandler serves the pipeline, the review queue and the audit logs
type OutreachHandler struct {
	outreachUsecase usecase.OutreachUsecase
}

func NewOutreachHandler(outreachUsecase usecase.OutreachUsecase) *OutreachHandler {
	return &OutreachHandler{outreachUsecase: outreachUsecase}
}

func pagination(c *gin.Context) (int, int) {
	limit := 50
	offset := 0
	if parsed, err := strconv.Atoi(c.Query("limit")); err == nil && parsed > 0 {
		limit = parsed
	}
	if parsed, err := strconv.Atoi(c.Query("offset")); err == nil && parsed >= 0 {
		offset = parsed
	}
	return limit, offset
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyContent):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrSuggestedEmailNotFound), errors.Is(err, brokerusecase.ErrBrokerNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrNotEditable), errors.Is(err, usecase.ErrRunInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// RunPipeline evaluates a batch of brokers
// POST /api/outreach/run
func (h *OutreachHandler) RunPipeline(c *gin.Context) {
	var req dto.RunRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if err := validator.ValidateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.outreachUsecase.RunBatch(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// EvaluateBroker runs the decision for one broker
// POST /api/outreach/evaluate/:brokerId?dry_run=true
func (h *OutreachHandler) EvaluateBroker(c *gin.Context) {
	dryRun, _ := strconv.ParseBool(c.DefaultQuery("dry_run", "false"))

	eval, err := h.outreachUsecase.EvaluateBroker(c.Request.Context(), c.Param("brokerId"), dryRun)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, eval)
}

// GET /api/queue?status=draft&broker_id=...
func (h *OutreachHandler) GetQueue(c *gin.Context) {
	limit, offset := pagination(c)

	emails, total, err := h.outreachUsecase.ListSuggestedEmails(c.Query("status"), c.Query("broker_id"), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.QueueResponse{
		Emails: emails,
		Limit:  limit,
		Offset: offset,
		Total:  total,
	})
}

// GET /api/queue/:id
func (h *OutreachHandler) GetSuggestedEmail(c *gin.Context) {
	email, err := h.outreachUsecase.GetSuggestedEmail(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, email)
}

// PATCH /api/queue/:id
func (h *OutreachHandler) EditSuggestedEmail(c *gin.Context) {
	var req dto.EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Subject == nil && req.Body == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subject or body is required"})
		return
	}

	email, err := h.outreachUsecase.EditSuggestedEmail(c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, email)
}

// POST /api/queue/:id/approve
func (h *OutreachHandler) Approve(c *gin.Context) {
	email, err := h.outreachUsecase.ApproveSuggestedEmail(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, email)
}

// POST /api/queue/:id/skip
func (h *OutreachHandler) Skip(c *gin.Context) {
	var req dto.SkipRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	email, err := h.outreachUsecase.SkipSuggestedEmail(c.Param("id"), req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, email)
}

// Send delivers an approved email now
// POST /api/queue/:id/send
func (h *OutreachHandler) Send(c *gin.Context) {
	email, err := h.outreachUsecase.SendApproved(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, usecase.ErrSendFailed) {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "email": email})
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, email)
}

// GET /api/suppressions?broker_id=...&reason=too_recent
func (h *OutreachHandler) GetSuppressions(c *gin.Context) {
	limit, offset := pagination(c)

	entries, total, err := h.outreachUsecase.ListSuppressions(c.Query("broker_id"), c.Query("reason"), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SuppressionsResponse{
		Suppressions: entries,
		Limit:        limit,
		Offset:       offset,
		Total:        total,
	})
}

// GET /api/sent?broker_id=...&status=failed
func (h *OutreachHandler) GetSentLogs(c *gin.Context) {
	limit, offset := pagination(c)

	logs, total, err := h.outreachUsecase.ListSentLogs(c.Query("broker_id"), c.Query("status"), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SentLogsResponse{
		Logs:   logs,
		Limit:  limit,
		Offset: offset,
		Total:  total,
	})
}
