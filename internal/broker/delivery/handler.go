package delivery

import (
	"errors"
	"net/http"
	"strconv"

	"outreach-backend/internal/broker/domain"
	"outreach-backend/internal/broker/usecase"

	"github.com/gin-gonic/gin"
)

// BrokerHandler handles broker registry HTTP requests
type BrokerHandler struct {
	brokerUsecase usecase.BrokerUsecase
}

func NewBrokerHandler(brokerUsecase usecase.BrokerUsecase) *BrokerHandler {
	return &BrokerHandler{brokerUsecase: brokerUsecase}
}

type AttachEmailRequest struct {
	Email string `json:"email" binding:"required"`
}

// GetBrokers lists brokers, or searches them when q is set
// GET /api/brokers?q=torres&limit=50&offset=0
func (h *BrokerHandler) GetBrokers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	if q := c.Query("q"); q != "" {
		brokers, err := h.brokerUsecase.SearchBrokers(q, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"brokers": brokers,
			"total":   len(brokers),
		})
		return
	}

	brokers, total, err := h.brokerUsecase.ListBrokers(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"brokers": brokers,
		"total":   total,
	})
}

// GetBroker returns one broker with its emails
// GET /api/brokers/:id
func (h *BrokerHandler) GetBroker(c *gin.Context) {
	broker, err := h.brokerUsecase.GetBroker(c.Param("id"))
	if err != nil {
		if errors.Is(err, usecase.ErrBrokerNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Broker not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, broker)
}

// UpsertBroker creates or updates a broker by license number
// POST /api/brokers
func (h *BrokerHandler) UpsertBroker(c *gin.Context) {
	var req domain.BrokerCandidate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Source == "" {
		req.Source = domain.SourceManual
	}

	broker, err := h.brokerUsecase.UpsertBroker(&req, nil)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, broker)
}

// AttachEmail adds a contact address to a broker
// POST /api/brokers/:id/emails
func (h *BrokerHandler) AttachEmail(c *gin.Context) {
	var req AttachEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.brokerUsecase.GetBroker(c.Param("id")); err != nil {
		if errors.Is(err, usecase.ErrBrokerNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Broker not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	email, err := h.brokerUsecase.AttachEmail(c.Param("id"), req.Email, nil)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, email)
}

// ReindexSearch pushes all brokers to the search index
// POST /api/brokers/reindex
func (h *BrokerHandler) ReindexSearch(c *gin.Context) {
	if err := h.brokerUsecase.ReindexSearch(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reindex started"})
}
