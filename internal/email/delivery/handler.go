package delivery

import (
	"errors"
	"net/http"
	"strconv"

	emaildomain "outreach-backend/internal/email/domain"
	emaildto "outreach-backend/internal/email/dto"
	"outreach-backend/internal/email/usecase"

	"github.com/gin-gonic/gin"
)

type EmailHandler struct {
	emailUsecase usecase.EmailUsecase
}

func NewEmailHandler(emailUsecase usecase.EmailUsecase) *EmailHandler {
	return &EmailHandler{
		emailUsecase: emailUsecase,
	}
}

// GetThreads lists thread rollups
// GET /api/threads?status=replied&broker_id=...&limit=20&offset=0
func (h *EmailHandler) GetThreads(c *gin.Context) {
	limit := 20
	offset := 0

	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	threads, total, err := h.emailUsecase.ListThreads(c.Query("status"), c.Query("broker_id"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, emaildto.ThreadsResponse{
		Threads: threads,
		Limit:   limit,
		Offset:  offset,
		Total:   total,
	})
}

// GET /api/threads/:id
func (h *EmailHandler) GetThread(c *gin.Context) {
	thread, messages, err := h.emailUsecase.GetThread(c.Param("id"))
	if err != nil {
		if errors.Is(err, emaildomain.ErrThreadNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "thread not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, emaildto.ThreadDetailResponse{Thread: thread, Messages: messages})
}

// PATCH /api/threads/:id/close
func (h *EmailHandler) CloseThread(c *gin.Context) {
	thread, err := h.emailUsecase.CloseThread(c.Param("id"))
	if err != nil {
		if errors.Is(err, emaildomain.ErrThreadNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "thread not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, thread)
}

// GetBrokerHistory returns the conversation rollup for one broker
// GET /api/brokers/:id/history?messages=10
func (h *EmailHandler) GetBrokerHistory(c *gin.Context) {
	messageLimit, _ := strconv.Atoi(c.DefaultQuery("messages", "10"))
	summary, err := h.emailUsecase.GetConversationSummary(c.Param("id"), messageLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// POST /api/sync/bootstrap
func (h *EmailHandler) BootstrapSync(c *gin.Context) {
	result, err := h.emailUsecase.BootstrapSync(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "result": result})
		return
	}

	c.JSON(http.StatusOK, result)
}

// IncrementalSync pulls mailbox changes since the stored cursor
// POST /api/sync/incremental
func (h *EmailHandler) IncrementalSync(c *gin.Context) {
	result, err := h.emailUsecase.IncrementalSync(c.Request.Context())
	if err != nil {
		if errors.Is(err, emaildomain.ErrBootstrapRequired) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, emaildomain.ErrSyncStateConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "result": result})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// POST /api/sync/watch
func (h *EmailHandler) WatchMailbox(c *gin.Context) {
	resp, err := h.emailUsecase.WatchMailbox(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GET /api/sync/state
func (h *EmailHandler) GetSyncState(c *gin.Context) {
	state, err := h.emailUsecase.GetSyncState()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if state == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "mailbox has not been synced"})
		return
	}

	c.JSON(http.StatusOK, state)
}
