package delivery

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"outreach-backend/internal/listing/dto"
	"outreach-backend/internal/listing/usecase"
	"outreach-backend/pkg/imap"

	"github.com/gin-gonic/gin"
)

// ListingHandler handles listing store HTTP requests
type ListingHandler struct {
	listingUsecase usecase.ListingUsecase
}

func NewListingHandler(listingUsecase usecase.ListingUsecase) *ListingHandler {
	return &ListingHandler{listingUsecase: listingUsecase}
}

// GetListings returns listings, optionally filtered by status
// GET /api/listings?status=pending&limit=50&offset=0
func (h *ListingHandler) GetListings(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	listings, total, err := h.listingUsecase.ListListings(c.Query("status"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"listings": listings,
		"total":    total,
	})
}

// GetListing returns one listing
// GET /api/listings/:id
func (h *ListingHandler) GetListing(c *gin.Context) {
	listing, err := h.listingUsecase.GetListing(c.Param("id"))
	if err != nil {
		if errors.Is(err, usecase.ErrListingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, listing)
}

// ImportListings upserts a batch from the enrichment feed
// POST /api/listings/import
func (h *ListingHandler) ImportListings(c *gin.Context) {
	var req dto.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.listingUsecase.ImportCandidates(req.Listings))
}

// FetchAlerts pulls unseen listing alert emails
// POST /api/listings/alerts/fetch?since_days=7
func (h *ListingHandler) FetchAlerts(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("since_days", "7"))
	since := time.Now().AddDate(0, 0, -days)

	result, err := h.listingUsecase.IngestAlerts(c.Request.Context(), since)
	if err != nil {
		if errors.Is(err, imap.ErrNotConfigured) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
